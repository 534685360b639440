// Package engine sequences the scan and cleanup pipeline: walker, grouper,
// retention policy, backup, and safe deletion, persisting scan results in
// an injected store.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dupesweep/dupesweep/internal/backup"
	"github.com/dupesweep/dupesweep/internal/cleaner"
	"github.com/dupesweep/dupesweep/internal/config"
	"github.com/dupesweep/dupesweep/internal/policy"
	"github.com/dupesweep/dupesweep/internal/scanner"
	"github.com/dupesweep/dupesweep/internal/security"
	"github.com/dupesweep/dupesweep/internal/store"
)

// Engine wires the duplicate-detection pipeline together.
type Engine struct {
	config  *config.Config
	scanner *scanner.Scanner
	cleaner *cleaner.Cleaner
	store   store.Store
	logger  zerolog.Logger
}

// New builds an Engine from configuration. The scan-history store is
// SQLite-backed when history_db is configured, in-memory otherwise.
func New(cfg *config.Config, logger zerolog.Logger) (*Engine, error) {
	classifier := security.NewClassifier(cfg.ClassifierLists())
	partitioner := policy.NewPartitioner(classifier, policy.Options{
		KeepAtLeastOne: cfg.KeepAtLeastOne,
	})
	bw := backup.NewWriter(cfg.BackupDir, logger)

	var st store.Store
	if cfg.HistoryDB != "" {
		sqlStore, err := store.OpenSQLite(cfg.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open scan history: %w", err)
		}
		st = sqlStore
	} else {
		st = store.NewMemoryStore(cfg.HistoryLimit)
	}

	return &Engine{
		config:  cfg,
		scanner: scanner.New(cfg, classifier, logger),
		cleaner: cleaner.New(classifier, partitioner, bw, logger),
		store:   st,
		logger:  logger,
	}, nil
}

// NewWithStore builds an Engine around a caller-supplied store.
func NewWithStore(cfg *config.Config, st store.Store, logger zerolog.Logger) (*Engine, error) {
	e, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if closeErr := e.store.Close(); closeErr != nil {
		return nil, closeErr
	}
	e.store = st
	return e, nil
}

// Scanner returns the underlying scanner, mainly for progress
// subscription.
func (e *Engine) Scanner() *scanner.Scanner {
	return e.scanner
}

// Cleaner returns the underlying cleaner.
func (e *Engine) Cleaner() *cleaner.Cleaner {
	return e.cleaner
}

// Scan walks every root, groups duplicates, stamps timing, and stores the
// result under a generated scan id. Per-root and per-file failures
// accumulate in the result's error list; the only returned error is
// context cancellation, which still yields the partial result.
func (e *Engine) Scan(ctx context.Context, roots []string) (*scanner.ScanResult, error) {
	startTime := time.Now()
	result := &scanner.ScanResult{
		ScanID:             uuid.NewString(),
		ScannedDirectories: append([]string(nil), roots...),
		Errors:             []string{},
	}

	e.logger.Info().Strs("roots", roots).Msg("starting duplicate scan")

	var allRecords []scanner.FileRecord
	for _, root := range roots {
		records, err := e.scanner.CollectFiles(ctx, root)
		allRecords = append(allRecords, records...)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to scan %s: %v", root, err))
			result.ScanDurationMS = time.Since(startTime).Milliseconds()
			return result, err
		}
	}

	result.TotalFiles = len(allRecords)
	for _, rec := range allRecords {
		result.TotalSize += rec.Size
	}

	groups, errs := e.scanner.FindDuplicates(ctx, allRecords)
	result.DuplicateGroups = groups
	result.Errors = append(result.Errors, errs...)
	result.ScanDurationMS = time.Since(startTime).Milliseconds()

	if err := e.store.Put(result.ScanID, result); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to store scan result: %v", err))
	}

	e.logger.Info().
		Str("scan_id", result.ScanID).
		Int("total_files", result.TotalFiles).
		Int("groups", len(result.DuplicateGroups)).
		Int64("duration_ms", result.ScanDurationMS).
		Msg("duplicate scan complete")

	return result, nil
}

// Cleanup removes duplicates from the given groups under the strategy,
// optionally archiving the remove sets first. Backup failure aborts before
// any deletion; everything else accumulates per-file.
func (e *Engine) Cleanup(ctx context.Context, groups []scanner.DuplicateGroup, strategy policy.Strategy, createBackup bool) *cleaner.CleanupResult {
	return e.cleaner.CleanupGroups(ctx, groups, strategy, createBackup)
}

// Sweep deletes files older than the configured cutoff from the given
// directories. No backup is taken.
func (e *Engine) Sweep(ctx context.Context, dirs []string, olderThan time.Duration) (*cleaner.CleanupResult, error) {
	stale, err := e.scanner.ScanStale(ctx, dirs, olderThan)
	if err != nil {
		return &cleaner.CleanupResult{Errors: []string{err.Error()}}, err
	}
	return e.cleaner.RemoveAll(ctx, stale), nil
}

// Result returns a stored scan result by id.
func (e *Engine) Result(id string) (*scanner.ScanResult, error) {
	return e.store.Get(id)
}

// History returns stored scan ids, oldest first.
func (e *Engine) History() ([]string, error) {
	return e.store.List()
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}
