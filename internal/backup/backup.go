// Package backup snapshots files slated for removal into a compressed
// archive so a cleanup run is reversible.
package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dupesweep/dupesweep/internal/scanner"
)

// Writer creates cleanup backup archives under a configured directory.
type Writer struct {
	backupDir string
	logger    zerolog.Logger

	// now is swappable so tests can pin the archive name.
	now func() time.Time
}

// NewWriter creates a backup Writer rooted at backupDir.
func NewWriter(backupDir string, logger zerolog.Logger) *Writer {
	return &Writer{
		backupDir: backupDir,
		logger:    logger,
		now:       time.Now,
	}
}

// Create writes a zip archive containing the current bytes of every given
// file, named cleanup_backup_<timestamp>.zip. Files that cannot be read
// are logged and skipped; a partial backup does not fail the run. An error
// is returned only when the archive itself cannot be created, which the
// caller must treat as fatal to the cleanup.
func (w *Writer) Create(files []scanner.FileRecord) (string, error) {
	if err := os.MkdirAll(w.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("cleanup_backup_%s.zip", w.now().Format("20060102_150405"))
	archivePath := filepath.Join(w.backupDir, name)

	archive, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup archive: %w", err)
	}
	defer archive.Close()

	zw := zip.NewWriter(archive)

	for _, file := range files {
		if err := w.addFile(zw, file.Path); err != nil {
			w.logger.Warn().Str("path", file.Path).Err(err).Msg("skipping file in backup")
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize backup archive: %w", err)
	}

	w.logger.Info().Str("archive", archivePath).Int("files", len(files)).Msg("backup created")
	return archivePath, nil
}

func (w *Writer) addFile(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     entryName(path),
		Method:   zip.Deflate,
		Modified: w.now(),
	})
	if err != nil {
		return err
	}

	_, err = io.Copy(entry, src)
	return err
}

// entryName maps an absolute path to a portable zip entry name: volume
// name and leading separators stripped, separators slash-normalized. The
// mapping is lossless on a single machine, which is the restore scenario.
func entryName(path string) string {
	name := strings.TrimPrefix(path, filepath.VolumeName(path))
	name = filepath.ToSlash(name)
	return strings.TrimLeft(name, "/")
}
