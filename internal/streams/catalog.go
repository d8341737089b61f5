package streams

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/os-image-streams/internal/image/imagehash"
	"github.com/open-edge-platform/os-image-streams/internal/utils/file"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// productDepth is the number of directory levels below ImagesDir that
// name a product: os/release/arch/variant.
const productDepth = 4

// Builder assembles catalogs. The zero value is not usable; use
// NewBuilder.
type Builder struct {
	items    *ItemCache
	log      *zap.SugaredLogger
	progress io.Writer
}

// Option configures a Builder.
type Option func(*Builder)

// WithHasher replaces the artifact hasher.
func WithHasher(h imagehash.Hasher) Option {
	return func(b *Builder) { b.items.Hasher = h }
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(b *Builder) {
		b.log = log
		b.items.Log = log
	}
}

// WithProgress renders a progress bar over products to w.
func WithProgress(w io.Writer) Option {
	return func(b *Builder) { b.progress = w }
}

// NewBuilder returns a Builder hashing from the filesystem.
func NewBuilder(opts ...Option) *Builder {
	log := zap.NewNop().Sugar()
	b := &Builder{
		items: NewItemCache(nil, log),
		log:   log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildCatalog builds the catalog for the tree under root with a default
// Builder.
func BuildCatalog(root string) (*Catalog, error) {
	return NewBuilder().BuildCatalog(root)
}

// BuildCatalog assembles one product per root/images/*/*/*/* directory.
// Any error aborts the build; no partial catalog is returned.
func (b *Builder) BuildCatalog(root string) (*Catalog, error) {
	dirs, err := FindProductDirs(root)
	if err != nil {
		return nil, err
	}
	b.log.Debugf("Found %d products under %s", len(dirs), root)

	var bar *progressbar.ProgressBar
	if b.progress != nil {
		bar = progressbar.NewOptions(len(dirs),
			progressbar.OptionSetWriter(b.progress),
			progressbar.OptionSetDescription("cataloging"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	catalog := NewCatalog()
	for _, dir := range dirs {
		pp, err := ParseProductPath(root, dir)
		if err != nil {
			return nil, err
		}
		if bar != nil {
			bar.Describe(fmt.Sprintf("cataloging %s", pp.Key()))
		}

		product, err := b.AssembleProduct(root, dir)
		if err != nil {
			return nil, err
		}
		catalog.Products[pp.Key()] = product

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	b.log.Infof("Catalog built with %d products", len(catalog.Products))
	return catalog, nil
}

// FindProductDirs lists the directories exactly productDepth levels below
// root/images, in lexical order. Hidden entries and plain files are
// skipped at every level. A missing images directory yields no products.
func FindProductDirs(root string) ([]string, error) {
	level := []string{filepath.Join(root, ImagesDir)}
	if info, err := os.Stat(level[0]); err != nil || !info.IsDir() {
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat %s: %w", level[0], err)
		}
		return nil, nil
	}

	for depth := 0; depth < productDepth; depth++ {
		var next []string
		for _, dir := range level {
			entries, err := os.ReadDir(dir)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", dir, err)
			}
			for _, e := range entries {
				if strings.HasPrefix(e.Name(), ".") {
					continue
				}
				p := filepath.Join(dir, e.Name())
				if !file.IsDir(p) {
					continue
				}
				next = append(next, p)
			}
		}
		level = next
	}
	return level, nil
}
