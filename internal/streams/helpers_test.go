package streams

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/open-edge-platform/os-image-streams/internal/image/imagehash"
)

// countingHasher wraps the file hasher and records how often it is used.
type countingHasher struct {
	mu       sync.Mutex
	digests  int
	combined int
}

func (h *countingHasher) Digest(path string) (string, error) {
	h.mu.Lock()
	h.digests++
	h.mu.Unlock()
	return imagehash.Digest(path)
}

func (h *countingHasher) CombinedDigest(anchor, partner string) (string, error) {
	h.mu.Lock()
	h.combined++
	h.mu.Unlock()
	return imagehash.CombinedDigest(anchor, partner)
}

func (h *countingHasher) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.digests + h.combined
}

func mustWrite(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
}

// makeVersion creates root/images/os/release/arch/variant/version with
// the given files and returns the version directory.
func makeVersion(t *testing.T, root, os, release, arch, variant, version string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, ImagesDir, os, release, arch, variant, version)
	mustMkdir(t, dir)
	for name, content := range files {
		mustWrite(t, filepath.Join(dir, name), content)
	}
	return dir
}
