// Package testutil provides test helpers and fixtures for dupesweep tests.
// All file operations use t.TempDir() for safe, isolated testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestFixture holds a temp directory tree for scan and cleanup tests.
type TestFixture struct {
	T       *testing.T
	RootDir string // Root temp directory (auto-cleaned)
}

// NewFixture creates a new test fixture rooted in a temp directory.
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()

	return &TestFixture{
		T:       t,
		RootDir: t.TempDir(),
	}
}

// Path resolves a path relative to the fixture root.
func (f *TestFixture) Path(relPath string) string {
	return filepath.Join(f.RootDir, relPath)
}

// CreateFile creates a file with specified content and returns its path
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := f.Path(relPath)
	dir := filepath.Dir(fullPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateFileWithTime creates a file and pins its modification time.
func (f *TestFixture) CreateFileWithTime(relPath string, content []byte, modTime time.Time) string {
	f.T.Helper()

	fullPath := f.CreateFile(relPath, content)
	if err := os.Chtimes(fullPath, modTime, modTime); err != nil {
		f.T.Fatalf("failed to set file time for %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateFileWithAge creates a file and sets its modification time to the past
func (f *TestFixture) CreateFileWithAge(relPath string, content []byte, age time.Duration) string {
	f.T.Helper()
	return f.CreateFileWithTime(relPath, content, time.Now().Add(-age))
}

// CreateDuplicateSet writes the same content to every given relative path
// and returns the absolute paths.
func (f *TestFixture) CreateDuplicateSet(content []byte, relPaths ...string) []string {
	f.T.Helper()

	paths := make([]string, 0, len(relPaths))
	for _, rel := range relPaths {
		paths = append(paths, f.CreateFile(rel, content))
	}
	return paths
}

// Content returns deterministic content of the given size. Different seeds
// produce different content of equal length, which is how size-collision
// test cases are built.
func Content(size int, seed byte) []byte {
	content := bytes.Repeat([]byte{seed}, size)
	if size > 0 {
		// Vary the tail so quick-digest prefilters cannot conflate seeds.
		content[size-1] = seed + 1
	}
	return content
}

// FileExists reports whether a path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
