package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dupesweep/dupesweep/internal/progress"
)

// CollectFiles enumerates every regular file under root, bounded to the
// configured recursion depth, never following symlinks. Excluded subtrees
// are pruned; files over the size ceiling and files classified critical or
// system are dropped entirely. A missing or inaccessible root yields zero
// files, not an error; the only returned error is context cancellation.
func (s *Scanner) CollectFiles(ctx context.Context, root string) ([]FileRecord, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	if s.classifier.IsExcluded(root) {
		return nil, nil
	}

	// The percentage in progress events needs a denominator, so pre-count
	// only when someone is listening.
	totalFiles := 0
	if s.reporter.HasListeners() {
		totalFiles = s.countFiles(root)
	}

	startTime := time.Now()
	var records []FileRecord
	scanned := 0

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission denied or racing deletion; skip and continue.
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if path != root && s.classifier.IsExcluded(path) {
				return filepath.SkipDir
			}
			if s.depthBelow(root, path) >= s.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		// Not following symlinks also rules out walk cycles.
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		scanned++
		s.reportWalk(root, path, scanned, totalFiles, startTime)

		if info.Size() > s.maxFileSize {
			return nil
		}
		if s.classifier.IsCritical(path) || s.classifier.IsSystemFile(path) {
			return nil
		}

		records = append(records, FileRecord{
			Path:         path,
			Size:         info.Size(),
			Modified:     info.ModTime(),
			FileType:     fileType(path),
			IsSystemFile: false,
			IsCritical:   false,
		})
		return nil
	})

	if walkErr != nil {
		// WalkDir only surfaces what the callback returned, which here is
		// always a context error.
		return records, walkErr
	}

	s.logger.Debug().Str("root", root).Int("files", len(records)).Msg("collected files")
	return records, nil
}

// ScanStale walks the given directories and returns the records whose
// modification time is before the cutoff. Used by the sweep command for
// aging out temp trees.
func (s *Scanner) ScanStale(ctx context.Context, dirs []string, olderThan time.Duration) ([]FileRecord, error) {
	cutoff := time.Now().Add(-olderThan)

	var stale []FileRecord
	for _, dir := range dirs {
		records, err := s.CollectFiles(ctx, dir)
		if err != nil {
			return stale, err
		}
		for _, rec := range records {
			if rec.Modified.Before(cutoff) {
				stale = append(stale, rec)
			}
		}
	}
	return stale, nil
}

// countFiles is a cheap pre-pass that counts walkable regular files so
// progress can report a percentage.
func (s *Scanner) countFiles(root string) int {
	count := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && s.classifier.IsExcluded(path) {
				return filepath.SkipDir
			}
			if s.depthBelow(root, path) >= s.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})
	return count
}

// depthBelow returns how many levels path sits below root.
func (s *Scanner) depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func (s *Scanner) reportWalk(dir, file string, scanned, total int, startTime time.Time) {
	if !s.reporter.HasListeners() {
		return
	}

	percentage := 0.0
	if total > 0 {
		percentage = float64(scanned) / float64(total) * 100.0
	}
	s.reporter.UpdateScan(&progress.ScanProgress{
		Phase:            progress.PhaseWalking,
		CurrentDirectory: dir,
		FilesScanned:     scanned,
		TotalFiles:       total,
		CurrentFile:      file,
		Percentage:       percentage,
		StartTime:        startTime,
	})
}

// fileType returns the lowercased extension without the dot, or "unknown".
func fileType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "unknown"
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
