package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dupesweep/dupesweep/internal/progress"
	"github.com/dupesweep/dupesweep/pkg/utils"
)

const (
	// quickSizeThreshold is the bucket file size above which a cheap
	// first/last-chunk digest partitions the bucket before full hashing.
	quickSizeThreshold = 10 * 1024 * 1024
	// quickChunkSize is the chunk read for the quick digest.
	quickChunkSize = 1024 * 1024
)

// hashKey groups hashed files. Keying on size as well keeps grouping
// strictly within a size bucket.
type hashKey struct {
	size int64
	hash string
}

// FindDuplicates groups records into duplicate sets: zero-byte files are
// discarded, remaining files bucketed by exact size, and only buckets with
// two or more members are hashed. A file with a unique size is never
// hashed. Hashing runs in parallel across files; per-file failures land in
// the returned error list and do not abort the pass. The output is
// deterministic: groups sorted by hash, members sorted by path.
func (s *Scanner) FindDuplicates(ctx context.Context, records []FileRecord) ([]DuplicateGroup, []string) {
	sorted := make([]FileRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	sizeBuckets := make(map[int64][]FileRecord)
	for _, rec := range sorted {
		if rec.Size == 0 {
			continue
		}
		sizeBuckets[rec.Size] = append(sizeBuckets[rec.Size], rec)
	}

	candidates := 0
	for _, bucket := range sizeBuckets {
		if len(bucket) >= 2 {
			candidates += len(bucket)
		}
	}

	var (
		mu         sync.Mutex
		hashGroups = make(map[hashKey][]FileRecord)
		errs       []string
		hashed     int
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.hashWorkers())

	for _, bucket := range sizeBuckets {
		if len(bucket) < 2 {
			continue
		}

		subBuckets := [][]FileRecord{bucket}
		if bucket[0].Size >= quickSizeThreshold {
			subBuckets = s.quickPartition(bucket)
		}

		for _, sub := range subBuckets {
			if len(sub) < 2 {
				continue
			}
			for _, rec := range sub {
				rec := rec
				g.Go(func() error {
					select {
					case <-gctx.Done():
						return gctx.Err()
					default:
					}

					hash, err := s.hashFile(rec.Path)

					mu.Lock()
					defer mu.Unlock()
					hashed++
					s.reportHash(hashed, candidates, startTime)
					if err != nil {
						errs = append(errs, fmt.Sprintf("failed to hash %s: %v", rec.Path, err))
						return nil
					}
					rec.Hash = hash
					key := hashKey{size: rec.Size, hash: hash}
					hashGroups[key] = append(hashGroups[key], rec)
					return nil
				})
			}
		}
	}

	if err := g.Wait(); err != nil {
		mu.Lock()
		errs = append(errs, err.Error())
		mu.Unlock()
	}

	var groups []DuplicateGroup
	for key, files := range hashGroups {
		if len(files) < 2 {
			continue
		}

		// Parallel hashing appends in completion order; restore path order.
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

		totalSize := int64(0)
		for _, f := range files {
			totalSize += f.Size
		}
		groups = append(groups, DuplicateGroup{
			Hash:             key.hash,
			Size:             key.size,
			Files:            files,
			TotalSize:        totalSize,
			PotentialSavings: totalSize - key.size,
		})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Hash < groups[j].Hash })

	s.logger.Info().
		Int("groups", len(groups)).
		Int("hashed", hashed).
		Msg("duplicate grouping complete")

	return groups, errs
}

// quickPartition splits a large-file bucket by a cheap first/last-chunk
// digest so files that differ early or late never get fully hashed. If any
// digest fails the whole bucket goes through the full hash unpartitioned,
// where read failures are reported per file.
func (s *Scanner) quickPartition(bucket []FileRecord) [][]FileRecord {
	byDigest := make(map[uint64][]FileRecord)

	for _, rec := range bucket {
		digest, err := utils.QuickDigest(rec.Path, quickChunkSize)
		if err != nil {
			return [][]FileRecord{bucket}
		}
		byDigest[digest] = append(byDigest[digest], rec)
	}

	subBuckets := make([][]FileRecord, 0, len(byDigest))
	for _, sub := range byDigest {
		subBuckets = append(subBuckets, sub)
	}
	return subBuckets
}

func (s *Scanner) reportHash(hashed, total int, startTime time.Time) {
	if !s.reporter.HasListeners() {
		return
	}

	percentage := 0.0
	if total > 0 {
		percentage = float64(hashed) / float64(total) * 100.0
	}
	s.reporter.UpdateScan(&progress.ScanProgress{
		Phase:        progress.PhaseHashing,
		FilesScanned: hashed,
		TotalFiles:   total,
		Percentage:   percentage,
		StartTime:    startTime,
	})
}
