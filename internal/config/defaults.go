package config

import (
	"os"
	"path/filepath"
)

const (
	// DefaultMaxFileSize is the scan ceiling: duplicates of very large
	// files are rare and hashing them is costly.
	DefaultMaxFileSize = 100 * 1024 * 1024

	// DefaultMaxDepth bounds recursion below each scan root.
	DefaultMaxDepth = 10

	// DefaultStaleAfterDays is the age cutoff for the stale-file sweep.
	DefaultStaleAfterDays = 7

	// DefaultHistoryLimit caps the in-memory scan history.
	DefaultHistoryLimit = 32
)

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		MaxFileSize:    "100MB",
		MaxDepth:       DefaultMaxDepth,
		BackupDir:      defaultBackupDir(),
		Strategy:       "newest",
		KeepAtLeastOne: false, // Location strategies may remove every copy; opt in to the guard
		HashWorkers:    0,     // Auto: derived from CPU count
		StaleAfterDays: DefaultStaleAfterDays,
		HistoryLimit:   DefaultHistoryLimit,
		HistoryDB:      "",

		// Empty lists fall through to security.DefaultLists.
		ExcludedPaths:      nil,
		SystemPaths:        nil,
		CriticalPaths:      nil,
		ProgramPaths:       nil,
		CriticalExtensions: nil,
		ReservedNames:      nil,

		Verbose: false,
	}
}

func defaultBackupDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "dupesweep-backups")
	}
	return filepath.Join(homeDir, ".local", "share", "dupesweep", "backups")
}
