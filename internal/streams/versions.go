package streams

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/open-edge-platform/os-image-streams/internal/utils/file"
)

// VersionLayout is the time layout of a version label (date_hour:minute).
const VersionLayout = "20060102_15:04"

var versionLabelRe = regexp.MustCompile(`^[0-9]{8}_[0-9]{2}:[0-9]{2}$`)

// IsVersionLabel reports whether name has the DDDDDDDD_DD:DD shape. Only
// the shape is checked, not that it names a real date.
func IsVersionLabel(name string) bool {
	return versionLabelRe.MatchString(name)
}

// VersionLabel formats t, in UTC, as a version label.
func VersionLabel(t time.Time) string {
	return t.UTC().Format(VersionLayout)
}

// ScanVersions resolves every version directory directly under
// productDir. Entries whose name is not a version label are skipped.
func (b *Builder) ScanVersions(productDir string) (map[string]Version, error) {
	entries, err := os.ReadDir(productDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read product directory %s: %w", productDir, err)
	}

	versions := map[string]Version{}
	for _, e := range entries {
		if !IsVersionLabel(e.Name()) {
			continue
		}
		p := filepath.Join(productDir, e.Name())
		if !file.IsDir(p) {
			continue
		}

		items, err := b.items.Resolve(p)
		if err != nil {
			return nil, fmt.Errorf("version %s: %w", e.Name(), err)
		}
		versions[e.Name()] = Version{Items: items}
	}
	return versions, nil
}
