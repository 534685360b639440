package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dupesweep/dupesweep/internal/config"
	"github.com/dupesweep/dupesweep/internal/engine"
	"github.com/dupesweep/dupesweep/internal/policy"
	"github.com/dupesweep/dupesweep/internal/reporter"
	"github.com/dupesweep/dupesweep/internal/scanner"
	"github.com/dupesweep/dupesweep/internal/ui"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath   string
	verbose      bool
	dryRun       bool
	force        bool
	outputFmt    string
	outputFile   string
	strategyName string
	withBackup   bool
	scanID       string
	olderDays    int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dupesweep",
	Short: "Find and safely remove duplicate files",
	Long: `Dupesweep walks directory trees, fingerprints candidate files, groups
exact-content duplicates, and removes redundant copies under a retention
policy, with optional backup archives so every cleanup is reversible.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
}

var scanCmd = &cobra.Command{
	Use:   "scan <root>...",
	Short: "Scan directories for duplicate files",
	Long:  `Scans the given directories and reports duplicate groups without making any changes.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		eng, err := engine.New(cfg, newLogger())
		if err != nil {
			return err
		}
		defer eng.Close()

		result, err := runScan(eng, args)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		return reporter.New(os.Stdout, reporter.ParseFormat(outputFmt)).ReportScan(result)
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <root>...",
	Short: "Remove duplicate files under a keep strategy",
	Long: `Scans the given directories (or reuses a stored scan via --scan-id),
applies the keep strategy to every duplicate group, and removes the
redundant copies. By default a zip backup of the removed files is written
first; if the backup cannot be created nothing is deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if strategyName == "" {
			strategyName = cfg.Strategy
		}
		strategy, err := policy.Parse(strategyName)
		if err != nil {
			return err
		}

		eng, err := engine.New(cfg, newLogger())
		if err != nil {
			return err
		}
		defer eng.Close()

		var scanResult *scanner.ScanResult
		if scanID != "" {
			scanResult, err = eng.Result(scanID)
			if err != nil {
				return fmt.Errorf("failed to load scan %s: %w", scanID, err)
			}
		} else {
			if len(args) == 0 {
				return fmt.Errorf("provide directories to scan or --scan-id")
			}
			scanResult, err = runScan(eng, args)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
		}

		if len(scanResult.DuplicateGroups) == 0 {
			fmt.Println("No duplicate files found.")
			return nil
		}

		rptr := reporter.New(os.Stdout, reporter.FormatSummary)
		if err := rptr.ReportScan(scanResult); err != nil {
			return err
		}

		if dryRun {
			fmt.Println("\n[DRY RUN MODE] No files will be deleted.")
		} else if !force {
			fmt.Printf("\nRemove duplicates with strategy %q? (y/N): ", strategy)
			var response string
			fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				fmt.Println("Cleanup cancelled")
				return nil
			}
		}

		eng.Cleaner().SetDryRun(dryRun)

		cleanResult := eng.Cleanup(context.Background(), scanResult.DuplicateGroups, strategy, withBackup)

		fmt.Println()
		return reporter.New(os.Stdout, reporter.ParseFormat(outputFmt)).ReportCleanup(cleanResult)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep <dir>...",
	Short: "Delete stale files from the given directories",
	Long:  `Removes files whose modification time is older than the cutoff. No backup is taken.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		days := olderDays
		if days <= 0 {
			days = cfg.StaleAfterDays
		}
		if days <= 0 {
			days = config.DefaultStaleAfterDays
		}

		eng, err := engine.New(cfg, newLogger())
		if err != nil {
			return err
		}
		defer eng.Close()

		if !force && !dryRun {
			fmt.Printf("Delete files older than %d days under %v? (y/N): ", days, args)
			var response string
			fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				fmt.Println("Sweep cancelled")
				return nil
			}
		}

		eng.Cleaner().SetDryRun(dryRun)

		result, err := eng.Sweep(context.Background(), args, time.Duration(days)*24*time.Hour)
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}

		return reporter.New(os.Stdout, reporter.ParseFormat(outputFmt)).ReportCleanup(result)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <root>...",
	Short: "Generate a duplicate report",
	Long:  `Scans the given directories and writes a detailed duplicate report.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		eng, err := engine.New(cfg, newLogger())
		if err != nil {
			return err
		}
		defer eng.Close()

		result, err := runScan(eng, args)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		format := reporter.ParseFormat(outputFmt)
		if outputFile != "" {
			if err := reporter.SaveScanToFile(result, outputFile, format); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Printf("Report saved to: %s\n", outputFile)
			return nil
		}

		return reporter.New(os.Stdout, format).ReportScan(result)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored scan results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		eng, err := engine.New(cfg, newLogger())
		if err != nil {
			return err
		}
		defer eng.Close()

		ids, err := eng.History()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("No stored scans.")
			return nil
		}

		for _, id := range ids {
			result, err := eng.Result(id)
			if err != nil {
				fmt.Printf("%s  (unreadable: %v)\n", id, err)
				continue
			}
			fmt.Printf("%s  %d files, %d groups, %s recoverable\n",
				id, result.TotalFiles, len(result.DuplicateGroups),
				humanize.IBytes(uint64(result.PotentialSavings())))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		fmt.Printf("Config file: %s\n", cfgPath)
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			fmt.Println("Config file does not exist. Using default configuration.")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")

	cleanupCmd.Flags().StringVar(&strategyName, "strategy", "", "keep strategy (newest, oldest, system, program-files)")
	cleanupCmd.Flags().BoolVar(&withBackup, "backup", true, "archive removed files before deletion")
	cleanupCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without deleting")
	cleanupCmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")
	cleanupCmd.Flags().StringVar(&scanID, "scan-id", "", "reuse a stored scan result instead of rescanning")

	sweepCmd.Flags().IntVar(&olderDays, "older-than", 0, "age cutoff in days (default from config)")
	sweepCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without deleting")
	sweepCmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")

	reportCmd.Flags().StringVar(&outputFile, "file", "", "save report to file")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

// runScan executes a scan, showing live progress when stdout is a
// terminal.
func runScan(eng *engine.Engine, roots []string) (*scanner.ScanResult, error) {
	interactive := isatty.IsTerminal(os.Stdout.Fd()) && outputFmt != "json" && outputFmt != "yaml"
	if !interactive {
		return eng.Scan(context.Background(), roots)
	}

	pr := eng.Scanner().ProgressReporter()
	updates := pr.Subscribe()

	type scanOutcome struct {
		result *scanner.ScanResult
		err    error
	}
	outcome := make(chan scanOutcome, 1)

	go func() {
		result, err := eng.Scan(context.Background(), roots)
		pr.Unsubscribe(updates) // Closes the channel, ending the view
		outcome <- scanOutcome{result: result, err: err}
	}()

	program := tea.NewProgram(ui.NewScanView(updates))
	if _, err := program.Run(); err != nil {
		// Fall back to waiting without the UI.
		fmt.Fprintf(os.Stderr, "progress view failed: %v\n", err)
	}

	out := <-outcome
	return out.result, out.err
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}

	return config.Load(cfgPath)
}
