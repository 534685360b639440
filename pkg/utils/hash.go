package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// HashChunkSize is the read size used when streaming a file through the
// hash. Memory use stays constant regardless of file size.
const HashChunkSize = 8 * 1024

// HashFile computes the SHA-256 digest of a file's full contents, reading
// in fixed-size chunks.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	buf := make([]byte, HashChunkSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// QuickDigest computes an xxhash64 digest over the first and last chunkSize
// bytes of a file. It is not collision-resistant; it is only a cheap
// prefilter to rule out non-identical large files before the full hash.
func QuickDigest(path string, chunkSize int64) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}

	digest := xxhash.New()

	// Small files are digested whole.
	if info.Size() <= chunkSize*2 {
		if _, err := io.Copy(digest, file); err != nil {
			return 0, err
		}
		return digest.Sum64(), nil
	}

	if _, err := io.CopyN(digest, file, chunkSize); err != nil {
		return 0, err
	}
	if _, err := file.Seek(-chunkSize, io.SeekEnd); err != nil {
		return 0, err
	}
	if _, err := io.CopyN(digest, file, chunkSize); err != nil {
		return 0, fmt.Errorf("read tail chunk: %w", err)
	}

	return digest.Sum64(), nil
}
