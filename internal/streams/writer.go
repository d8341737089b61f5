package streams

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-edge-platform/os-image-streams/internal/utils/file"
	"sigs.k8s.io/yaml"
)

// WriteStreams writes the catalog and its index under root/streams/v1.
// Each file is replaced atomically.
func WriteStreams(root string, c *Catalog) error {
	dir := filepath.Join(root, filepath.FromSlash(filepath.Dir(CatalogPath)))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create streams directory: %w", err)
	}

	if err := file.WriteJSONAtomic(filepath.Join(root, filepath.FromSlash(CatalogPath)), c); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := file.WriteJSONAtomic(filepath.Join(root, filepath.FromSlash(IndexPath)), BuildIndex(c)); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// Encode renders v as "json" (compact), "json-pretty" or "yaml".
func Encode(v any, format string) ([]byte, error) {
	switch format {
	case "", "json":
		return json.Marshal(v)
	case "json-pretty":
		return json.MarshalIndent(v, "", "  ")
	case "yaml":
		return yaml.Marshal(v)
	default:
		return nil, fmt.Errorf("unsupported output format %q (expected json|json-pretty|yaml)", format)
	}
}
