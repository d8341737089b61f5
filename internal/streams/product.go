package streams

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ImagesDir is the directory under the root holding the product tree.
const ImagesDir = "images"

// DefaultVariant is the variant also reachable through the short
// os/release alias.
const DefaultVariant = "default"

// productKeySep joins the identity fields of a product key. It may not
// appear inside any of them.
const productKeySep = ":"

// ErrMalformedProductPath is returned for a product directory that is not
// exactly images/<os>/<release>/<arch>/<variant> below the root.
var ErrMalformedProductPath = errors.New("malformed product path")

// ProductPath is the identity of a product, taken from its location.
type ProductPath struct {
	Dir     string
	OS      string
	Release string
	Arch    string
	Variant string
}

// ParseProductPath decomposes productDir relative to root.
func ParseProductPath(root, productDir string) (ProductPath, error) {
	rel, err := filepath.Rel(root, productDir)
	if err != nil {
		return ProductPath{}, fmt.Errorf("%w: %s: %v", ErrMalformedProductPath, productDir, err)
	}
	segs := strings.Split(filepath.ToSlash(rel), "/")
	if len(segs) != 5 || segs[0] != ImagesDir {
		return ProductPath{}, fmt.Errorf("%w: %s is not %s/<os>/<release>/<arch>/<variant> under %s",
			ErrMalformedProductPath, productDir, ImagesDir, root)
	}
	for _, s := range segs[1:] {
		if s == "" || s == "." || s == ".." || strings.Contains(s, productKeySep) {
			return ProductPath{}, fmt.Errorf("%w: %s has invalid segment %q",
				ErrMalformedProductPath, productDir, s)
		}
	}

	return ProductPath{
		Dir:     productDir,
		OS:      segs[1],
		Release: segs[2],
		Arch:    segs[3],
		Variant: segs[4],
	}, nil
}

// Key returns the catalog key os:release:arch:variant.
func (p ProductPath) Key() string {
	return strings.Join([]string{p.OS, p.Release, p.Arch, p.Variant}, productKeySep)
}

// BuildAliases returns the comma separated aliases of a product. The
// default variant is also reachable without naming it.
func BuildAliases(os, release, variant string) string {
	aliases := []string{strings.Join([]string{os, release, variant}, "/")}
	if variant == DefaultVariant {
		aliases = append(aliases, strings.Join([]string{os, release}, "/"))
	}
	return strings.Join(aliases, ",")
}

// AssembleProduct builds the catalog record of the product at productDir.
func (b *Builder) AssembleProduct(root, productDir string) (Product, error) {
	pp, err := ParseProductPath(root, productDir)
	if err != nil {
		return Product{}, err
	}

	reqs, err := LoadRequirements(productDir)
	if err != nil {
		return Product{}, err
	}

	versions, err := b.ScanVersions(productDir)
	if err != nil {
		return Product{}, fmt.Errorf("product %s: %w", pp.Key(), err)
	}

	return Product{
		Arch:            pp.Arch,
		OS:              pp.OS,
		Variant:         pp.Variant,
		Release:         pp.Release,
		ReleaseTitle:    pp.Release,
		Aliases:         BuildAliases(pp.OS, pp.Release, pp.Variant),
		LXDRequirements: reqs,
		Versions:        versions,
	}, nil
}
