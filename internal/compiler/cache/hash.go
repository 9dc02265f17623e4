// Package cache stores discovery reports keyed by the content of the
// manifests they were computed from, so unchanged inputs skip validation.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// FileHasher derives hex SHA-256 digests of manifest content.
type FileHasher struct{}

// NewFileHasher returns a FileHasher.
func NewFileHasher() *FileHasher {
	return &FileHasher{}
}

func digest(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// HashContent digests content.
func (fh *FileHasher) HashContent(content []byte) string {
	h := sha256.New()
	h.Write(content)
	return digest(h)
}

// HashFile digests the bytes of the file at path, compressed or not.
func (fh *FileHasher) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return digest(h), nil
}

// HashFiles digests a manifest set. Each path is folded in with its content
// digest, and the order of paths matters because discovery merges modules
// in that order.
func (fh *FileHasher) HashFiles(paths []string) (string, error) {
	h := sha256.New()
	for _, path := range paths {
		sum, err := fh.HashFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to hash %s: %w", path, err)
		}
		fmt.Fprintf(h, "%s\x00%s\x00", path, sum)
	}
	return digest(h), nil
}
