// Package cleaner performs guarded removal of duplicate files: retention
// policy, optional backup, then per-file safe deletion that re-validates
// every path at delete time.
package cleaner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dupesweep/dupesweep/internal/backup"
	"github.com/dupesweep/dupesweep/internal/policy"
	"github.com/dupesweep/dupesweep/internal/progress"
	"github.com/dupesweep/dupesweep/internal/scanner"
	"github.com/dupesweep/dupesweep/internal/security"
)

// CleanupResult is the outcome of a cleanup run.
type CleanupResult struct {
	FilesRemoved  int      `json:"files_removed"`
	SpaceFreed    int64    `json:"space_freed"`
	Errors        []string `json:"errors"`
	BackupCreated bool     `json:"backup_created"`
	BackupPath    string   `json:"backup_path,omitempty"`
}

// Cleaner deletes duplicate files under a retention policy with safety
// re-checks.
type Cleaner struct {
	classifier  *security.Classifier
	partitioner *policy.Partitioner
	backup      *backup.Writer
	reporter    *progress.Reporter
	logger      zerolog.Logger
	dryRun      bool
}

// New creates a Cleaner.
func New(classifier *security.Classifier, partitioner *policy.Partitioner, bw *backup.Writer, logger zerolog.Logger) *Cleaner {
	return &Cleaner{
		classifier:  classifier,
		partitioner: partitioner,
		backup:      bw,
		reporter:    progress.NewReporter(),
		logger:      logger,
	}
}

// SetDryRun makes the cleaner simulate deletions without touching the
// filesystem.
func (c *Cleaner) SetDryRun(dryRun bool) {
	c.dryRun = dryRun
}

// SetProgressReporter sets a custom progress reporter.
func (c *Cleaner) SetProgressReporter(r *progress.Reporter) {
	c.reporter = r
}

// ProgressReporter returns the cleaner's progress reporter.
func (c *Cleaner) ProgressReporter() *progress.Reporter {
	return c.reporter
}

// CleanupGroups applies the keep strategy to every group and removes the
// losing members. When createBackup is set, the remove sets are archived
// first; if that archive cannot be created the run returns with no
// deletions performed. Individual deletion failures are accumulated and do
// not stop the batch. Cancellation is honored between files and returns
// the partial result.
func (c *Cleaner) CleanupGroups(ctx context.Context, groups []scanner.DuplicateGroup, strategy policy.Strategy, createBackup bool) *CleanupResult {
	result := &CleanupResult{Errors: []string{}}

	removeSets := make([][]scanner.FileRecord, len(groups))
	totalFiles := 0
	totalBytes := int64(0)
	for i, group := range groups {
		_, remove := c.partitioner.Partition(group, strategy)
		removeSets[i] = remove
		totalFiles += len(remove)
		for _, rec := range remove {
			totalBytes += rec.Size
		}
	}

	if createBackup && totalFiles > 0 {
		var toBackup []scanner.FileRecord
		for _, set := range removeSets {
			toBackup = append(toBackup, set...)
		}

		archivePath, err := c.backup.Create(toBackup)
		if err != nil {
			// No backup means no deletion when a backup was requested.
			result.Errors = append(result.Errors, fmt.Sprintf("failed to create backup: %v", err))
			c.logger.Error().Err(err).Msg("backup failed, aborting cleanup")
			return result
		}
		result.BackupCreated = true
		result.BackupPath = archivePath
	}

	startTime := time.Now()
	c.reportClean(progress.PhaseCleaning, "", result, totalFiles, totalBytes, startTime)

	for i := range groups {
		for _, rec := range removeSets[i] {
			select {
			case <-ctx.Done():
				result.Errors = append(result.Errors, fmt.Sprintf("cleanup cancelled: %v", ctx.Err()))
				c.reportClean(progress.PhaseError, rec.Path, result, totalFiles, totalBytes, startTime)
				return result
			default:
			}

			c.reportClean(progress.PhaseCleaning, rec.Path, result, totalFiles, totalBytes, startTime)

			if err := c.safeDelete(rec); err != nil {
				result.Errors = append(result.Errors, err.Error())
				c.logger.Warn().Str("path", rec.Path).Str("reason", err.Reason.String()).Msg("failed to delete duplicate")
				continue
			}

			result.FilesRemoved++
			result.SpaceFreed += rec.Size
		}
	}

	c.reportClean(progress.PhaseComplete, "", result, totalFiles, totalBytes, startTime)
	c.logger.Info().
		Int("removed", result.FilesRemoved).
		Int64("freed", result.SpaceFreed).
		Int("errors", len(result.Errors)).
		Msg("cleanup complete")

	return result
}

// RemoveAll safe-deletes a flat list of records (the stale-file sweep).
// No backup is taken and failures accumulate like a group cleanup.
func (c *Cleaner) RemoveAll(ctx context.Context, records []scanner.FileRecord) *CleanupResult {
	result := &CleanupResult{Errors: []string{}}

	totalBytes := int64(0)
	for _, rec := range records {
		totalBytes += rec.Size
	}

	startTime := time.Now()
	for _, rec := range records {
		select {
		case <-ctx.Done():
			result.Errors = append(result.Errors, fmt.Sprintf("cleanup cancelled: %v", ctx.Err()))
			return result
		default:
		}

		c.reportClean(progress.PhaseCleaning, rec.Path, result, len(records), totalBytes, startTime)

		if err := c.safeDelete(rec); err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.FilesRemoved++
		result.SpaceFreed += rec.Size
	}

	c.reportClean(progress.PhaseComplete, "", result, len(records), totalBytes, startTime)
	return result
}

// safeDelete removes one file after re-validating it. The scan snapshot is
// not trusted: the path is re-stat'ed and re-classified at delete time, and
// a file that gained a symlink, changed size, or changed mtime since the
// scan is refused rather than silently deleted.
func (c *Cleaner) safeDelete(rec scanner.FileRecord) *DeletionError {
	if c.classifier.IsCritical(rec.Path) {
		return &DeletionError{
			Path:   rec.Path,
			Reason: ErrorCriticalFile,
		}
	}

	// Lstat so a symlink planted at the path is seen as such.
	info, err := os.Lstat(rec.Path)
	if err != nil {
		return CategorizeError(rec.Path, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return &DeletionError{
			Path:     rec.Path,
			Reason:   ErrorChangedSinceScan,
			Original: fmt.Errorf("path changed to symlink"),
		}
	}

	if info.Size() != rec.Size || !info.ModTime().Equal(rec.Modified) {
		return &DeletionError{
			Path:     rec.Path,
			Reason:   ErrorChangedSinceScan,
			Original: fmt.Errorf("size or mtime differs from scan record"),
		}
	}

	if c.dryRun {
		return nil
	}

	if err := os.Remove(rec.Path); err != nil {
		return CategorizeError(rec.Path, err)
	}

	return nil
}

func (c *Cleaner) reportClean(phase progress.Phase, currentFile string, result *CleanupResult, totalFiles int, totalBytes int64, startTime time.Time) {
	if !c.reporter.HasListeners() {
		return
	}

	c.reporter.UpdateClean(&progress.CleanProgress{
		Phase:        phase,
		CurrentFile:  currentFile,
		RemovedFiles: result.FilesRemoved,
		TotalFiles:   totalFiles,
		FreedBytes:   result.SpaceFreed,
		TotalBytes:   totalBytes,
		StartTime:    startTime,
	})
}
