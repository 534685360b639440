// Package reporter renders scan and cleanup results for humans and
// automation callers.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/dupesweep/dupesweep/internal/cleaner"
	"github.com/dupesweep/dupesweep/internal/scanner"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat maps a format name to an OutputFormat, defaulting to summary.
func ParseFormat(name string) OutputFormat {
	switch name {
	case "table":
		return FormatTable
	case "json":
		return FormatJSON
	case "yaml":
		return FormatYAML
	default:
		return FormatSummary
	}
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
	}
}

// ReportScan renders a scan result.
func (r *Reporter) ReportScan(result *scanner.ScanResult) error {
	switch r.format {
	case FormatTable:
		return r.scanTable(result)
	case FormatJSON:
		return r.asJSON(result)
	case FormatYAML:
		return r.asYAML(result)
	case FormatSummary:
		return r.scanSummary(result)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// ReportCleanup renders a cleanup result.
func (r *Reporter) ReportCleanup(result *cleaner.CleanupResult) error {
	switch r.format {
	case FormatJSON:
		return r.asJSON(result)
	case FormatYAML:
		return r.asYAML(result)
	default:
		return r.cleanupSummary(result)
	}
}

func (r *Reporter) scanSummary(result *scanner.ScanResult) error {
	fmt.Fprintf(r.writer, "=== Duplicate Scan Summary ===\n")
	if result.ScanID != "" {
		fmt.Fprintf(r.writer, "Scan ID: %s\n", result.ScanID)
	}
	fmt.Fprintf(r.writer, "Files Scanned: %d (%s)\n",
		result.TotalFiles, humanize.IBytes(uint64(result.TotalSize)))
	fmt.Fprintf(r.writer, "Duplicate Groups: %d\n", len(result.DuplicateGroups))
	fmt.Fprintf(r.writer, "Duplicate Files: %d\n", result.DuplicateFiles())
	fmt.Fprintf(r.writer, "Potential Savings: %s\n",
		humanize.IBytes(uint64(result.PotentialSavings())))
	fmt.Fprintf(r.writer, "Scan Duration: %dms\n", result.ScanDurationMS)

	if len(result.Errors) > 0 {
		fmt.Fprintf(r.writer, "\nErrors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(r.writer, "  - %s\n", e)
		}
	}

	return nil
}

func (r *Reporter) scanTable(result *scanner.ScanResult) error {
	for i, group := range result.DuplicateGroups {
		fmt.Fprintf(r.writer, "Group %d: %d files x %s (save %s)  hash=%.16s\n",
			i+1,
			len(group.Files),
			humanize.IBytes(uint64(group.Size)),
			humanize.IBytes(uint64(group.PotentialSavings)),
			group.Hash)

		for _, file := range group.Files {
			fmt.Fprintf(r.writer, "  %s  (modified %s)\n",
				file.Path, file.Modified.Format("2006-01-02 15:04:05"))
		}
	}

	fmt.Fprintf(r.writer, "\nTotal: %d groups, potential savings %s\n",
		len(result.DuplicateGroups),
		humanize.IBytes(uint64(result.PotentialSavings())))

	return nil
}

func (r *Reporter) cleanupSummary(result *cleaner.CleanupResult) error {
	fmt.Fprintf(r.writer, "=== Cleanup Summary ===\n")
	fmt.Fprintf(r.writer, "Files Removed: %d\n", result.FilesRemoved)
	fmt.Fprintf(r.writer, "Space Freed: %s\n", humanize.IBytes(uint64(result.SpaceFreed)))

	if result.BackupCreated {
		fmt.Fprintf(r.writer, "Backup: %s\n", result.BackupPath)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(r.writer, "\nErrors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(r.writer, "  - %s\n", e)
		}
	}

	return nil
}

func (r *Reporter) asJSON(v interface{}) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (r *Reporter) asYAML(v interface{}) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(v)
}

// SaveScanToFile writes a scan report to a file.
func SaveScanToFile(result *scanner.ScanResult, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return New(file, format).ReportScan(result)
}
