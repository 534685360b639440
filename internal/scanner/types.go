package scanner

import "time"

// FileRecord is one observed file. Identity is the path at scan time; the
// record is not re-validated between scan and cleanup, which is why the
// cleaner re-checks before deleting.
type FileRecord struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Modified     time.Time `json:"modified"`
	Hash         string    `json:"hash"` // Empty until the grouper hashes it
	FileType     string    `json:"file_type"`
	IsSystemFile bool      `json:"is_system_file"`
	IsCritical   bool      `json:"is_critical"`
}

// DuplicateGroup is a maximal set of files sharing exact size and content
// hash. A group always has at least two members.
type DuplicateGroup struct {
	Hash             string       `json:"hash"`
	Size             int64        `json:"size"`
	Files            []FileRecord `json:"files"`
	TotalSize        int64        `json:"total_size"`
	PotentialSavings int64        `json:"potential_savings"`
}

// ScanResult aggregates one scan run. Read-only once created.
type ScanResult struct {
	ScanID             string           `json:"scan_id,omitempty"`
	TotalFiles         int              `json:"total_files"`
	TotalSize          int64            `json:"total_size"`
	DuplicateGroups    []DuplicateGroup `json:"duplicate_groups"`
	ScanDurationMS     int64            `json:"scan_duration_ms"`
	ScannedDirectories []string         `json:"scanned_directories"`
	Errors             []string         `json:"errors"`
}

// PotentialSavings sums the recoverable space across all groups.
func (r *ScanResult) PotentialSavings() int64 {
	var total int64
	for _, g := range r.DuplicateGroups {
		total += g.PotentialSavings
	}
	return total
}

// DuplicateFiles counts group members across all groups.
func (r *ScanResult) DuplicateFiles() int {
	var total int
	for _, g := range r.DuplicateGroups {
		total += len(g.Files)
	}
	return total
}
