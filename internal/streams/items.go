package streams

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-edge-platform/os-image-streams/internal/image/imagehash"
	"github.com/open-edge-platform/os-image-streams/internal/utils/file"
	"go.uber.org/zap"
)

const (
	// ItemsCacheFile is the per-version sentinel holding the resolved
	// items. It is trusted unconditionally: delete it to force a rescan.
	ItemsCacheFile = ".items.json"

	// AnchorFile is the artifact every combined digest starts from.
	AnchorFile = "lxd.tar.xz"

	// PrimaryPartnerTag selects the combined digest also published as
	// combined_sha256.
	PrimaryPartnerTag = "rootxz"

	// itemPathDepth is the number of trailing segments kept in an item
	// path: images/os/release/arch/variant/version/file.
	itemPathDepth = 7
)

// ErrMissingAnchor is returned when a version holds partner artifacts but
// no anchor to combine them with.
var ErrMissingAnchor = errors.New("anchor artifact missing")

// Artifact describes a recognized artifact file name.
type Artifact struct {
	Name        string
	FType       string
	CombinedTag string
}

// Artifacts is the closed set of recognized artifact files.
var Artifacts = map[string]Artifact{
	"disk.qcow2":    {Name: "disk.qcow2", FType: "disk-kvm.img", CombinedTag: "disk-kvm-img"},
	"lxd.tar.xz":    {Name: "lxd.tar.xz", FType: "lxd.tar.xz"},
	"root.squashfs": {Name: "root.squashfs", FType: "root.squashfs", CombinedTag: "squashfs"},
	"root.tar.xz":   {Name: "root.tar.xz", FType: "root.tar.xz", CombinedTag: "rootxz"},
}

// IsArtifact reports whether name is a recognized artifact file name.
func IsArtifact(name string) bool {
	_, ok := Artifacts[name]
	return ok
}

// ItemCache resolves the items of a version directory, memoized in the
// ItemsCacheFile sentinel.
type ItemCache struct {
	Hasher imagehash.Hasher
	Log    *zap.SugaredLogger
}

// NewItemCache returns a cache that hashes with h and logs to log. A nil
// hasher selects imagehash.FileHasher.
func NewItemCache(h imagehash.Hasher, log *zap.SugaredLogger) *ItemCache {
	if h == nil {
		h = imagehash.FileHasher{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ItemCache{Hasher: h, Log: log}
}

// ResolveItems resolves versionDir with a filesystem hasher and no
// logging.
func ResolveItems(versionDir string) (map[string]Item, error) {
	return NewItemCache(nil, nil).Resolve(versionDir)
}

// Resolve returns the items of versionDir. An existing sentinel is
// returned as is, without comparing it to the files on disk.
func (c *ItemCache) Resolve(versionDir string) (map[string]Item, error) {
	sentinel := filepath.Join(versionDir, ItemsCacheFile)

	cached, ok, err := readItemsCache(sentinel)
	if err != nil {
		return nil, err
	}
	if ok {
		c.Log.Infof("Reusing existing items (%s)", relPath(versionDir, itemPathDepth-1))
		return cached, nil
	}

	items, err := c.scan(versionDir)
	if err != nil {
		return nil, err
	}

	if err := file.WriteJSONAtomic(sentinel, items); err != nil {
		return nil, fmt.Errorf("failed to write items cache: %w", err)
	}
	return items, nil
}

func (c *ItemCache) scan(versionDir string) (map[string]Item, error) {
	entries, err := os.ReadDir(versionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read version directory %s: %w", versionDir, err)
	}

	items := map[string]Item{}
	var partners []Artifact
	for _, e := range entries {
		art, ok := Artifacts[e.Name()]
		if !ok {
			continue
		}
		p := filepath.Join(versionDir, e.Name())
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if info.IsDir() {
			continue
		}

		c.Log.Debugf("Hashing %s", p)
		sum, err := c.Hasher.Digest(p)
		if err != nil {
			return nil, err
		}
		items[art.Name] = Item{
			FType:  art.FType,
			Path:   relPath(p, itemPathDepth),
			Size:   info.Size(),
			SHA256: sum,
		}
		if art.CombinedTag != "" {
			partners = append(partners, art)
		}
	}

	if len(partners) == 0 {
		return items, nil
	}

	anchor, ok := items[AnchorFile]
	if !ok {
		return nil, fmt.Errorf("%w: %s has %s but no %s",
			ErrMissingAnchor, versionDir, partnerNames(partners), AnchorFile)
	}

	anchor.Combined = map[string]string{}
	anchorPath := filepath.Join(versionDir, AnchorFile)
	for _, art := range partners {
		sum, err := c.Hasher.CombinedDigest(anchorPath, filepath.Join(versionDir, art.Name))
		if err != nil {
			return nil, err
		}
		anchor.Combined[art.CombinedTag] = sum
	}
	if sum, ok := anchor.Combined[PrimaryPartnerTag]; ok {
		anchor.CombinedSHA256 = sum
	}
	items[AnchorFile] = anchor

	return items, nil
}

func readItemsCache(path string) (map[string]Item, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read items cache %s: %w", path, err)
	}

	var items map[string]Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("corrupted items cache %s: %w", path, err)
	}
	if items == nil {
		items = map[string]Item{}
	}
	return items, true, nil
}

// relPath keeps the last depth segments of p, slash separated, so item
// paths stay valid wherever the tree is served from.
func relPath(p string, depth int) string {
	segs := strings.Split(filepath.ToSlash(filepath.Clean(p)), "/")
	if len(segs) > depth {
		segs = segs[len(segs)-depth:]
	}
	return strings.Join(segs, "/")
}

func partnerNames(arts []Artifact) string {
	names := make([]string, 0, len(arts))
	for _, a := range arts {
		names = append(names, a.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
