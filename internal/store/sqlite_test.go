package store

import (
	"path/filepath"
	"testing"

	"github.com/dupesweep/dupesweep/internal/scanner"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()

	in := &scanner.ScanResult{
		ScanID:     "scan-1",
		TotalFiles: 42,
		TotalSize:  4096,
		DuplicateGroups: []scanner.DuplicateGroup{
			{Hash: "abc", Size: 100, TotalSize: 200, PotentialSavings: 100},
		},
		ScannedDirectories: []string{"/data"},
	}
	if err := s.Put("scan-1", in); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	out, err := s.Get("scan-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out.TotalFiles != 42 || out.TotalSize != 4096 {
		t.Errorf("roundtrip lost totals: %+v", out)
	}
	if len(out.DuplicateGroups) != 1 || out.DuplicateGroups[0].Hash != "abc" {
		t.Errorf("roundtrip lost groups: %+v", out.DuplicateGroups)
	}
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()

	if _, err := s.Get("nope"); err != ErrNotFound {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put("scan-1", &scanner.ScanResult{TotalFiles: 7}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Get("scan-1")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.TotalFiles != 7 {
		t.Errorf("TotalFiles = %d, want 7", got.TotalFiles)
	}

	ids, err := reopened.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "scan-1" {
		t.Errorf("List() = %v, want [scan-1]", ids)
	}
}
