package cleaner

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dupesweep/dupesweep/internal/backup"
	"github.com/dupesweep/dupesweep/internal/policy"
	"github.com/dupesweep/dupesweep/internal/scanner"
	"github.com/dupesweep/dupesweep/internal/security"
	"github.com/dupesweep/dupesweep/internal/testutil"
)

func newTestCleaner(t *testing.T, opts policy.Options) *Cleaner {
	t.Helper()
	classifier := security.NewClassifier(security.Lists{})
	partitioner := policy.NewPartitioner(classifier, opts)
	bw := backup.NewWriter(t.TempDir(), zerolog.Nop())
	return New(classifier, partitioner, bw, zerolog.Nop())
}

// recordFor stats a created file so the delete-time re-validation passes.
func recordFor(t *testing.T, path string) scanner.FileRecord {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return scanner.FileRecord{
		Path:     path,
		Size:     info.Size(),
		Modified: info.ModTime(),
	}
}

func groupOf(records ...scanner.FileRecord) scanner.DuplicateGroup {
	return scanner.DuplicateGroup{
		Hash:  "deadbeef",
		Size:  records[0].Size,
		Files: records,
	}
}

func TestCleanupKeepsNewest(t *testing.T) {
	fx := testutil.NewFixture(t)
	content := testutil.Content(100, 1)
	oldPath := fx.CreateFileWithAge("old.dat", content, 48*time.Hour)
	newPath := fx.CreateFile("new.dat", content)

	g := groupOf(recordFor(t, oldPath), recordFor(t, newPath))

	c := newTestCleaner(t, policy.Options{})
	result := c.CleanupGroups(context.Background(), []scanner.DuplicateGroup{g}, policy.KeepNewest, false)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.FilesRemoved != 1 {
		t.Errorf("FilesRemoved = %d, want 1", result.FilesRemoved)
	}
	if result.SpaceFreed != 100 {
		t.Errorf("SpaceFreed = %d, want 100", result.SpaceFreed)
	}
	if testutil.FileExists(oldPath) {
		t.Error("older duplicate should have been removed")
	}
	if !testutil.FileExists(newPath) {
		t.Error("newest duplicate should survive")
	}
}

func TestCleanupRefusesCriticalFile(t *testing.T) {
	fx := testutil.NewFixture(t)
	content := testutil.Content(64, 2)
	keepPath := fx.CreateFile("keep.dat", content)
	// The classifier refuses .dll regardless of location.
	critPath := fx.CreateFileWithAge("lib.dll", content, time.Hour)

	g := groupOf(recordFor(t, keepPath), recordFor(t, critPath))

	c := newTestCleaner(t, policy.Options{})
	result := c.CleanupGroups(context.Background(), []scanner.DuplicateGroup{g}, policy.KeepNewest, false)

	if result.FilesRemoved != 0 {
		t.Errorf("FilesRemoved = %d, want 0", result.FilesRemoved)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Critical file") {
		t.Errorf("Errors = %v, want one critical-file refusal", result.Errors)
	}
	if !testutil.FileExists(critPath) {
		t.Error("critical file must not be deleted")
	}
}

func TestCleanupRefusesChangedFile(t *testing.T) {
	fx := testutil.NewFixture(t)
	content := testutil.Content(80, 3)
	keepPath := fx.CreateFile("keep.dat", content)
	stalePath := fx.CreateFileWithAge("stale.dat", content, time.Hour)

	g := groupOf(recordFor(t, keepPath), recordFor(t, stalePath))

	// Rewrite the file after the "scan" so size and mtime differ.
	if err := os.WriteFile(stalePath, []byte("rewritten after scan"), 0644); err != nil {
		t.Fatal(err)
	}

	c := newTestCleaner(t, policy.Options{})
	result := c.CleanupGroups(context.Background(), []scanner.DuplicateGroup{g}, policy.KeepNewest, false)

	if result.FilesRemoved != 0 {
		t.Errorf("FilesRemoved = %d, want 0", result.FilesRemoved)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Changed since scan") {
		t.Errorf("Errors = %v, want one changed-since-scan refusal", result.Errors)
	}
	if !testutil.FileExists(stalePath) {
		t.Error("changed file must not be deleted")
	}
}

func TestCleanupRefusesSymlinkSwap(t *testing.T) {
	fx := testutil.NewFixture(t)
	content := testutil.Content(80, 4)
	keepPath := fx.CreateFile("keep.dat", content)
	victimPath := fx.CreateFileWithAge("victim.dat", content, time.Hour)
	rec := recordFor(t, victimPath)

	// Swap the file for a symlink between scan and cleanup.
	if err := os.Remove(victimPath); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(keepPath, victimPath); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	g := groupOf(recordFor(t, keepPath), rec)

	c := newTestCleaner(t, policy.Options{})
	result := c.CleanupGroups(context.Background(), []scanner.DuplicateGroup{g}, policy.KeepNewest, false)

	if result.FilesRemoved != 0 {
		t.Errorf("FilesRemoved = %d, want 0", result.FilesRemoved)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Changed since scan") {
		t.Errorf("Errors = %v, want one changed-since-scan refusal", result.Errors)
	}
	if !testutil.FileExists(keepPath) {
		t.Error("symlink target must not be deleted")
	}
}

func TestCleanupContinuesPastMissingFile(t *testing.T) {
	fx := testutil.NewFixture(t)
	content := testutil.Content(100, 5)
	newest := fx.CreateFile("a.dat", content)
	gone := fx.CreateFileWithAge("b.dat", content, 24*time.Hour)
	third := fx.CreateFileWithAge("c.dat", content, 48*time.Hour)

	records := []scanner.FileRecord{
		recordFor(t, newest), recordFor(t, gone), recordFor(t, third),
	}
	// One slated file vanishes between scan and cleanup.
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}

	g := groupOf(records...)
	c := newTestCleaner(t, policy.Options{})
	result := c.CleanupGroups(context.Background(), []scanner.DuplicateGroup{g}, policy.KeepNewest, false)

	if result.FilesRemoved != 1 {
		t.Errorf("FilesRemoved = %d, want 1 despite the missing file", result.FilesRemoved)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "File not found") {
		t.Errorf("Errors = %v, want one not-found error", result.Errors)
	}
	if testutil.FileExists(third) {
		t.Error("remaining duplicate should still be removed")
	}
	if !testutil.FileExists(newest) {
		t.Error("newest duplicate should survive")
	}
}

func TestCleanupCreatesBackup(t *testing.T) {
	fx := testutil.NewFixture(t)
	content := testutil.Content(100, 6)
	oldPath := fx.CreateFileWithAge("old.dat", content, 48*time.Hour)
	newPath := fx.CreateFile("new.dat", content)

	g := groupOf(recordFor(t, oldPath), recordFor(t, newPath))

	c := newTestCleaner(t, policy.Options{})
	result := c.CleanupGroups(context.Background(), []scanner.DuplicateGroup{g}, policy.KeepNewest, true)

	if !result.BackupCreated {
		t.Error("BackupCreated should be true")
	}
	if result.BackupPath == "" || !testutil.FileExists(result.BackupPath) {
		t.Errorf("backup archive missing at %q", result.BackupPath)
	}
	if result.FilesRemoved != 1 {
		t.Errorf("FilesRemoved = %d, want 1", result.FilesRemoved)
	}
}

func TestCleanupAbortsWhenBackupFails(t *testing.T) {
	fx := testutil.NewFixture(t)
	content := testutil.Content(100, 7)
	oldPath := fx.CreateFileWithAge("old.dat", content, 48*time.Hour)
	newPath := fx.CreateFile("new.dat", content)

	g := groupOf(recordFor(t, oldPath), recordFor(t, newPath))

	classifier := security.NewClassifier(security.Lists{})
	partitioner := policy.NewPartitioner(classifier, policy.Options{})
	// Backup dir path collides with an existing file, so MkdirAll fails.
	blocked := fx.CreateFile("not-a-dir", []byte("x"))
	bw := backup.NewWriter(blocked, zerolog.Nop())
	c := New(classifier, partitioner, bw, zerolog.Nop())

	result := c.CleanupGroups(context.Background(), []scanner.DuplicateGroup{g}, policy.KeepNewest, true)

	if result.BackupCreated {
		t.Error("BackupCreated should be false")
	}
	if result.FilesRemoved != 0 {
		t.Errorf("FilesRemoved = %d, want 0 when the backup fails", result.FilesRemoved)
	}
	if len(result.Errors) == 0 {
		t.Error("backup failure should be reported")
	}
	if !testutil.FileExists(oldPath) {
		t.Error("no file may be deleted when the backup fails")
	}
}

func TestCleanupDryRun(t *testing.T) {
	fx := testutil.NewFixture(t)
	content := testutil.Content(100, 8)
	oldPath := fx.CreateFileWithAge("old.dat", content, 48*time.Hour)
	newPath := fx.CreateFile("new.dat", content)

	g := groupOf(recordFor(t, oldPath), recordFor(t, newPath))

	c := newTestCleaner(t, policy.Options{})
	c.SetDryRun(true)
	result := c.CleanupGroups(context.Background(), []scanner.DuplicateGroup{g}, policy.KeepNewest, false)

	if result.FilesRemoved != 1 {
		t.Errorf("FilesRemoved = %d, want 1 (simulated)", result.FilesRemoved)
	}
	if !testutil.FileExists(oldPath) || !testutil.FileExists(newPath) {
		t.Error("dry run must not delete anything")
	}
}

func TestCleanupCancellation(t *testing.T) {
	fx := testutil.NewFixture(t)
	content := testutil.Content(100, 9)
	paths := fx.CreateDuplicateSet(content, "a.dat", "b.dat", "c.dat")

	var records []scanner.FileRecord
	for _, p := range paths {
		records = append(records, recordFor(t, p))
	}
	g := groupOf(records...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestCleaner(t, policy.Options{})
	result := c.CleanupGroups(ctx, []scanner.DuplicateGroup{g}, policy.KeepNewest, false)

	if result.FilesRemoved != 0 {
		t.Errorf("FilesRemoved = %d, want 0 after pre-cancelled context", result.FilesRemoved)
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "cancelled") {
		t.Errorf("Errors = %v, want a cancellation error", result.Errors)
	}
	for _, p := range paths {
		if !testutil.FileExists(p) {
			t.Errorf("file %s deleted after cancellation", p)
		}
	}
}

func TestRemoveAll(t *testing.T) {
	fx := testutil.NewFixture(t)
	a := fx.CreateFile("stale/a.log", testutil.Content(50, 10))
	b := fx.CreateFile("stale/b.log", testutil.Content(70, 11))

	records := []scanner.FileRecord{recordFor(t, a), recordFor(t, b)}

	c := newTestCleaner(t, policy.Options{})
	result := c.RemoveAll(context.Background(), records)

	if result.FilesRemoved != 2 {
		t.Errorf("FilesRemoved = %d, want 2", result.FilesRemoved)
	}
	if result.SpaceFreed != 120 {
		t.Errorf("SpaceFreed = %d, want 120", result.SpaceFreed)
	}
	if testutil.FileExists(a) || testutil.FileExists(b) {
		t.Error("stale files should be removed")
	}
}
