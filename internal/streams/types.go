// Package streams builds the simplestreams "images" catalog and index for
// a tree laid out as images/<os>/<release>/<arch>/<variant>/<version>.
package streams

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	ContentID     = "images"
	DataType      = "image-downloads"
	ProductFormat = "products:1.0"
	IndexFormat   = "index:1.0"

	// CatalogPath is where the catalog lives, relative to the root.
	CatalogPath = "streams/v1/images.json"
	// IndexPath is where the index lives, relative to the root.
	IndexPath = "streams/v1/index.json"
)

// Catalog is the products document (images.json).
type Catalog struct {
	ContentID string             `json:"content_id"`
	DataType  string             `json:"datatype"`
	Format    string             `json:"format"`
	Products  map[string]Product `json:"products"`
}

// NewCatalog returns an empty catalog with the fixed header fields set.
func NewCatalog() *Catalog {
	return &Catalog{
		ContentID: ContentID,
		DataType:  DataType,
		Format:    ProductFormat,
		Products:  map[string]Product{},
	}
}

// ProductKeys returns the product keys in sorted order.
func (c *Catalog) ProductKeys() []string {
	keys := make([]string, 0, len(c.Products))
	for k := range c.Products {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Product is one os/release/arch/variant entry of the catalog.
type Product struct {
	Arch            string             `json:"arch"`
	OS              string             `json:"os"`
	Variant         string             `json:"variant"`
	Release         string             `json:"release"`
	ReleaseTitle    string             `json:"release_title"`
	Aliases         string             `json:"aliases"`
	LXDRequirements Requirements       `json:"lxd_requirements"`
	Versions        map[string]Version `json:"versions"`
}

// Version groups the items published under one version label.
type Version struct {
	Items map[string]Item `json:"items"`
}

// Item describes a single artifact file. Combined digests are only set
// on the anchor artifact and are keyed by the partner's combined tag.
type Item struct {
	FType          string
	Path           string
	Size           int64
	SHA256         string
	Combined       map[string]string
	CombinedSHA256 string

	// extra keeps members read from a cache file that are not modeled
	// above, so they are written back unchanged.
	extra map[string]json.RawMessage
}

const (
	combinedPrefix = "combined_"
	combinedSuffix = "_sha256"
)

// CombinedKey returns the record key holding the combined digest for a
// partner tag, e.g. combined_rootxz_sha256.
func CombinedKey(tag string) string {
	return combinedPrefix + tag + combinedSuffix
}

// MarshalJSON flattens the combined digests into combined_<tag>_sha256
// members next to the fixed fields.
func (i Item) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(i.extra)+4)
	for k, v := range i.extra {
		m[k] = v
	}
	m["ftype"] = i.FType
	m["path"] = i.Path
	m["size"] = i.Size
	m["sha256"] = i.SHA256
	for tag, sum := range i.Combined {
		m[CombinedKey(tag)] = sum
	}
	if i.CombinedSHA256 != "" {
		m["combined_sha256"] = i.CombinedSHA256
	}
	return json.Marshal(m)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*i = Item{}
	for k, v := range raw {
		var err error
		switch {
		case k == "ftype":
			err = json.Unmarshal(v, &i.FType)
		case k == "path":
			err = json.Unmarshal(v, &i.Path)
		case k == "size":
			err = json.Unmarshal(v, &i.Size)
		case k == "sha256":
			err = json.Unmarshal(v, &i.SHA256)
		case k == "combined_sha256":
			err = json.Unmarshal(v, &i.CombinedSHA256)
		case strings.HasPrefix(k, combinedPrefix) && strings.HasSuffix(k, combinedSuffix):
			tag := strings.TrimSuffix(strings.TrimPrefix(k, combinedPrefix), combinedSuffix)
			var sum string
			if err = json.Unmarshal(v, &sum); err == nil {
				if i.Combined == nil {
					i.Combined = map[string]string{}
				}
				i.Combined[tag] = sum
			}
		default:
			if i.extra == nil {
				i.extra = map[string]json.RawMessage{}
			}
			i.extra[k] = v
		}
		if err != nil {
			return fmt.Errorf("item field %s: %w", k, err)
		}
	}
	return nil
}

// Index is the discovery document (index.json).
type Index struct {
	Format string                 `json:"format"`
	Index  map[string]StreamIndex `json:"index"`
}

// StreamIndex is one entry of the index document.
type StreamIndex struct {
	DataType string   `json:"datatype"`
	Path     string   `json:"path"`
	Format   string   `json:"format"`
	Products []string `json:"products"`
}
