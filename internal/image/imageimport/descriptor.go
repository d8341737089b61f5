package imageimport

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/open-edge-platform/os-image-streams/internal/streams"
)

// Descriptor holds the fields of an image's metadata.yaml that decide
// where the image is stored.
type Descriptor struct {
	Architecture string
	CreationDate time.Time
	Description  string
	OS           string
	Release      string
	Variant      string
}

// requiredFields lists the keys that must be set, in the order they are
// checked.
var requiredFields = []string{"architecture", "creation_date", "description", "os", "release"}

var archAliases = map[string]string{
	"x86_64": "amd64",
}

// MissingFieldError reports a required descriptor key that was never set.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is not set", e.Field)
}

// InvalidFieldError reports a descriptor value that cannot be used.
type InvalidFieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ParseDescriptor extracts the recognized "key: value" lines of text.
// The key is everything before the first colon of a trimmed line and the
// value everything after it, trimmed. Unknown keys are ignored and a
// later line overrides an earlier one, so nested keys such as those under
// "properties:" are picked up as well.
func ParseDescriptor(text string) (*Descriptor, error) {
	fields := map[string]string{}
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		key, value, ok := strings.Cut(ln, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		switch key {
		case "architecture", "creation_date", "description", "os", "release", "variant":
			fields[key] = strings.TrimSpace(value)
		}
	}

	for _, k := range requiredFields {
		if fields[k] == "" {
			return nil, &MissingFieldError{Field: k}
		}
	}

	d := &Descriptor{
		Architecture: fields["architecture"],
		Description:  fields["description"],
		OS:           fields["os"],
		Release:      fields["release"],
		Variant:      fields["variant"],
	}
	if d.Variant == "" {
		d.Variant = streams.DefaultVariant
	}
	if alias, ok := archAliases[d.Architecture]; ok {
		d.Architecture = alias
	}

	epoch, err := strconv.ParseInt(fields["creation_date"], 10, 64)
	if err != nil {
		return nil, &InvalidFieldError{Field: "creation_date", Value: fields["creation_date"], Reason: "not an epoch timestamp"}
	}
	d.CreationDate = time.Unix(epoch, 0).UTC()
	if label := d.Version(); !streams.IsVersionLabel(label) {
		return nil, &InvalidFieldError{Field: "creation_date", Value: fields["creation_date"], Reason: fmt.Sprintf("version label %q out of range", label)}
	}

	for _, f := range []struct{ name, value string }{
		{"os", d.OS}, {"release", d.Release}, {"architecture", d.Architecture}, {"variant", d.Variant},
	} {
		if err := checkSegment(f.name, f.value); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// checkSegment rejects values that cannot be a single directory name of
// the image tree.
func checkSegment(field, value string) error {
	switch {
	case value == "." || value == "..":
		return &InvalidFieldError{Field: field, Value: value, Reason: "not a directory name"}
	case strings.ContainsAny(value, `/\`):
		return &InvalidFieldError{Field: field, Value: value, Reason: "contains a path separator"}
	}
	return nil
}

// Version returns the version label of the image.
func (d *Descriptor) Version() string {
	return streams.VersionLabel(d.CreationDate)
}

// Destination returns outputRoot/os/release/arch/variant/version.
func (d *Descriptor) Destination(outputRoot string) string {
	return filepath.Join(outputRoot, d.OS, d.Release, d.Architecture, d.Variant, d.Version())
}

// ReadDescriptor extracts and parses the descriptor of archivePath.
func ReadDescriptor(archivePath string) (*Descriptor, error) {
	data, err := ReadEntry(archivePath, DescriptorEntry)
	if err != nil {
		return nil, err
	}
	d, err := ParseDescriptor(string(data))
	if err != nil {
		return nil, fmt.Errorf("invalid %s in %s: %w", DescriptorEntry, archivePath, err)
	}
	return d, nil
}

// ResolveDestination returns the directory the image built as
// archivePath belongs in below outputRoot.
func ResolveDestination(archivePath, outputRoot string) (string, error) {
	d, err := ReadDescriptor(archivePath)
	if err != nil {
		return "", err
	}
	return d.Destination(outputRoot), nil
}
