package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestHashFile(t *testing.T) {
	content := []byte("hello duplicate world")
	path := writeFile(t, "file.txt", content)

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}

	sum := sha256.Sum256(content)
	want := hex.EncodeToString(sum[:])
	if got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
}

func TestHashFileMultipleChunks(t *testing.T) {
	// Larger than HashChunkSize so the streaming loop runs several times.
	content := bytes.Repeat([]byte("abcdefgh"), 3*HashChunkSize/8)
	path := writeFile(t, "big.bin", content)

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}

	sum := sha256.Sum256(content)
	if got != hex.EncodeToString(sum[:]) {
		t.Errorf("streamed hash differs from whole-buffer hash")
	}
}

func TestHashFileMissing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHashFileIdenticalContent(t *testing.T) {
	content := []byte("same bytes")
	a := writeFile(t, "a.txt", content)
	b := writeFile(t, "b.txt", content)

	hashA, err := HashFile(a)
	if err != nil {
		t.Fatalf("HashFile(a) failed: %v", err)
	}
	hashB, err := HashFile(b)
	if err != nil {
		t.Fatalf("HashFile(b) failed: %v", err)
	}

	if hashA != hashB {
		t.Errorf("identical content produced different hashes: %s vs %s", hashA, hashB)
	}
}

func TestQuickDigest(t *testing.T) {
	const chunk = 16

	same1 := writeFile(t, "same1.bin", bytes.Repeat([]byte{0xAA}, 200))
	same2 := writeFile(t, "same2.bin", bytes.Repeat([]byte{0xAA}, 200))
	diff := writeFile(t, "diff.bin", bytes.Repeat([]byte{0xBB}, 200))

	d1, err := QuickDigest(same1, chunk)
	if err != nil {
		t.Fatalf("QuickDigest failed: %v", err)
	}
	d2, err := QuickDigest(same2, chunk)
	if err != nil {
		t.Fatalf("QuickDigest failed: %v", err)
	}
	d3, err := QuickDigest(diff, chunk)
	if err != nil {
		t.Fatalf("QuickDigest failed: %v", err)
	}

	if d1 != d2 {
		t.Error("identical files produced different quick digests")
	}
	if d1 == d3 {
		t.Error("different files produced the same quick digest")
	}
}

func TestQuickDigestSmallFile(t *testing.T) {
	// Smaller than two chunks: digested whole.
	path := writeFile(t, "small.bin", []byte("tiny"))

	if _, err := QuickDigest(path, 1024); err != nil {
		t.Fatalf("QuickDigest failed on small file: %v", err)
	}
}

func TestQuickDigestTailSensitive(t *testing.T) {
	const chunk = 8

	// Same head, different tail; digests must differ.
	head := bytes.Repeat([]byte{0x01}, 100)
	a := writeFile(t, "a.bin", append(append([]byte{}, head...), bytes.Repeat([]byte{0x02}, 100)...))
	b := writeFile(t, "b.bin", append(append([]byte{}, head...), bytes.Repeat([]byte{0x03}, 100)...))

	da, err := QuickDigest(a, chunk)
	if err != nil {
		t.Fatalf("QuickDigest failed: %v", err)
	}
	db, err := QuickDigest(b, chunk)
	if err != nil {
		t.Fatalf("QuickDigest failed: %v", err)
	}

	if da == db {
		t.Error("quick digest ignored differing tails")
	}
}
