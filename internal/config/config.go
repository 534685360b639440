package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dupesweep/dupesweep/internal/security"
	"github.com/dupesweep/dupesweep/pkg/utils"
)

// Config represents the application configuration
type Config struct {
	// MaxFileSize is the largest file the scanner will consider, as a
	// human-readable string ("100MB"). Larger files are skipped.
	MaxFileSize string `yaml:"max_file_size"`

	// MaxDepth bounds directory recursion below each scan root.
	MaxDepth int `yaml:"max_depth"`

	// BackupDir receives cleanup backup archives.
	BackupDir string `yaml:"backup_dir"`

	// Strategy is the default keep strategy name (newest, oldest, system,
	// program-files).
	Strategy string `yaml:"strategy"`

	// KeepAtLeastOne guards the location strategies: when no group member
	// matches the preferred location, keep the first member instead of
	// removing every copy.
	KeepAtLeastOne bool `yaml:"keep_at_least_one"`

	// HashWorkers caps parallel hashing. Zero picks a value from the CPU
	// count.
	HashWorkers int `yaml:"hash_workers"`

	// StaleAfterDays is the age cutoff for the stale-file sweep.
	StaleAfterDays int `yaml:"stale_after_days"`

	// HistoryLimit caps the in-memory scan history. Zero means unbounded.
	HistoryLimit int `yaml:"history_limit"`

	// HistoryDB, when set, points at a SQLite file used to persist scan
	// history across runs.
	HistoryDB string `yaml:"history_db"`

	ExcludedPaths      []string `yaml:"excluded_paths"`
	SystemPaths        []string `yaml:"system_paths"`
	CriticalPaths      []string `yaml:"critical_paths"`
	ProgramPaths       []string `yaml:"program_paths"`
	CriticalExtensions []string `yaml:"critical_extensions"`
	ReservedNames      []string `yaml:"reserved_names"`

	Verbose bool `yaml:"verbose"`
}

// Load loads configuration from a file
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxFileSize != "" {
		if _, err := utils.ParseSize(c.MaxFileSize); err != nil {
			return fmt.Errorf("invalid max_file_size: %w", err)
		}
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0")
	}
	if c.HashWorkers < 0 {
		return fmt.Errorf("hash_workers must be >= 0")
	}
	if c.StaleAfterDays < 0 {
		return fmt.Errorf("stale_after_days must be >= 0")
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be >= 0")
	}

	if c.Strategy != "" {
		switch c.Strategy {
		case "newest", "oldest", "system", "program-files":
		default:
			return fmt.Errorf("unknown strategy: %s", c.Strategy)
		}
	}

	for _, path := range c.ExcludedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("excluded path must be absolute: %s", path)
		}
	}
	for _, path := range c.CriticalPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("critical path must be absolute: %s", path)
		}
	}

	return nil
}

// MaxFileSizeBytes returns the scan size ceiling in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	if c.MaxFileSize == "" {
		return DefaultMaxFileSize
	}
	size, err := utils.ParseSize(c.MaxFileSize)
	if err != nil {
		return DefaultMaxFileSize
	}
	return size
}

// ClassifierLists maps the config's path lists onto the classifier input.
// Empty lists defer to the classifier's built-in defaults.
func (c *Config) ClassifierLists() security.Lists {
	return security.Lists{
		ExcludedPaths: c.ExcludedPaths,
		SystemPaths:   c.SystemPaths,
		CriticalPaths: c.CriticalPaths,
		ProgramPaths:  c.ProgramPaths,
		CriticalExts:  c.CriticalExtensions,
		ReservedNames: c.ReservedNames,
	}
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(homeDir, ".config", "dupesweep")
	return filepath.Join(configDir, "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(GetDefault(), configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}
