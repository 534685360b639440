// Package scanner enumerates candidate files under a set of roots and
// groups exact-content duplicates, first by byte size and then by SHA-256
// within each size bucket.
package scanner

import (
	"runtime"

	"github.com/rs/zerolog"

	"github.com/dupesweep/dupesweep/internal/config"
	"github.com/dupesweep/dupesweep/internal/progress"
	"github.com/dupesweep/dupesweep/internal/security"
	"github.com/dupesweep/dupesweep/pkg/utils"
)

// Scanner walks directory trees and finds duplicate groups.
type Scanner struct {
	config     *config.Config
	classifier *security.Classifier
	reporter   *progress.Reporter
	logger     zerolog.Logger

	maxFileSize int64
	maxDepth    int

	// hashFile is swappable so tests can count or fail hash invocations.
	hashFile func(path string) (string, error)
}

// New creates a Scanner from configuration.
func New(cfg *config.Config, classifier *security.Classifier, logger zerolog.Logger) *Scanner {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = config.DefaultMaxDepth
	}

	return &Scanner{
		config:      cfg,
		classifier:  classifier,
		reporter:    progress.NewReporter(),
		logger:      logger,
		maxFileSize: cfg.MaxFileSizeBytes(),
		maxDepth:    maxDepth,
		hashFile:    utils.HashFile,
	}
}

// SetProgressReporter sets a custom progress reporter.
func (s *Scanner) SetProgressReporter(r *progress.Reporter) {
	s.reporter = r
}

// ProgressReporter returns the scanner's progress reporter.
func (s *Scanner) ProgressReporter() *progress.Reporter {
	return s.reporter
}

// hashWorkers returns the parallel hashing width: the configured value, or
// the CPU count clamped to [4,16].
func (s *Scanner) hashWorkers() int {
	if s.config.HashWorkers > 0 {
		return s.config.HashWorkers
	}
	workers := runtime.NumCPU()
	if workers < 4 {
		workers = 4
	}
	if workers > 16 {
		workers = 16
	}
	return workers
}
