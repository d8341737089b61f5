// Package imagehash computes the SHA-256 digests published for image
// artifacts, including the combined digest over an artifact pair.
package imagehash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// Hasher computes artifact digests.
type Hasher interface {
	// Digest returns the hex SHA-256 of a single file.
	Digest(path string) (string, error)

	// CombinedDigest returns the hex SHA-256 of anchor followed by
	// partner, hashed as one stream.
	CombinedDigest(anchor, partner string) (string, error)
}

// FileHasher reads artifacts straight from the local filesystem.
type FileHasher struct{}

// Digest implements Hasher.
func (FileHasher) Digest(path string) (string, error) {
	return Digest(path)
}

// CombinedDigest implements Hasher.
func (FileHasher) CombinedDigest(anchor, partner string) (string, error) {
	return CombinedDigest(anchor, partner)
}

// Digest streams path through SHA-256.
func Digest(path string) (string, error) {
	h := sha256.New()
	if err := feed(h, path); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CombinedDigest streams anchor and then partner into a single SHA-256
// context, so the result equals the digest of their concatenation.
func CombinedDigest(anchor, partner string) (string, error) {
	h := sha256.New()
	for _, p := range []string{anchor, partner} {
		if err := feed(h, p); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func feed(h hash.Hash, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return nil
}
