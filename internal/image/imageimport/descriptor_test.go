package imageimport

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDescriptor(t *testing.T) {
	d, err := ParseDescriptor(ubuntuMetadata)
	if err != nil {
		t.Fatalf("ParseDescriptor failed: %v", err)
	}
	if d.Architecture != "amd64" {
		t.Errorf("x86_64 should be normalized to amd64, got %q", d.Architecture)
	}
	if d.OS != "ubuntu" || d.Release != "22.04" {
		t.Errorf("unexpected os/release %q/%q", d.OS, d.Release)
	}
	if d.Variant != "default" {
		t.Errorf("variant should default to \"default\", got %q", d.Variant)
	}
	if !d.CreationDate.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected creation date %v", d.CreationDate)
	}
	if d.Description != "Ubuntu jammy amd64 (20230101_00:00)" {
		t.Errorf("value should keep everything after the first colon, got %q", d.Description)
	}
}

func TestDescriptorDestination(t *testing.T) {
	d, err := ParseDescriptor(ubuntuMetadata)
	if err != nil {
		t.Fatalf("ParseDescriptor failed: %v", err)
	}
	got := d.Destination("out")
	want := filepath.Join("out", "ubuntu", "22.04", "amd64", "default", "20230101_00:00")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestParseDescriptorVariantAndArch(t *testing.T) {
	text := "architecture: aarch64\ncreation_date: 1700000000\ndescription: d\nos: debian\nrelease: 12\nvariant: cloud\n"
	d, err := ParseDescriptor(text)
	if err != nil {
		t.Fatalf("ParseDescriptor failed: %v", err)
	}
	if d.Architecture != "aarch64" {
		t.Errorf("only x86_64 is normalized, got %q", d.Architecture)
	}
	if d.Variant != "cloud" {
		t.Errorf("unexpected variant %q", d.Variant)
	}
	if d.Version() != "20231114_22:13" {
		t.Errorf("unexpected version %q", d.Version())
	}
}

func TestParseDescriptorMissingFields(t *testing.T) {
	full := map[string]string{
		"architecture":  "x86_64",
		"creation_date": "1672531200",
		"description":   "desc",
		"os":            "ubuntu",
		"release":       "22.04",
	}
	for _, missing := range requiredFields {
		t.Run(missing, func(t *testing.T) {
			var b strings.Builder
			for _, k := range requiredFields {
				if k != missing {
					b.WriteString(k + ": " + full[k] + "\n")
				}
			}
			_, err := ParseDescriptor(b.String())
			var mf *MissingFieldError
			if !errors.As(err, &mf) {
				t.Fatalf("expected MissingFieldError, got %v", err)
			}
			if mf.Field != missing {
				t.Errorf("expected missing %s, got %s", missing, mf.Field)
			}
			if !strings.Contains(err.Error(), missing+" is not set") {
				t.Errorf("error should name the field: %v", err)
			}
		})
	}
}

func TestParseDescriptorEmptyValueIsUnset(t *testing.T) {
	text := "architecture: x86_64\ncreation_date: 1\ndescription: d\nos: ubuntu\nrelease:\n"
	_, err := ParseDescriptor(text)
	var mf *MissingFieldError
	if !errors.As(err, &mf) || mf.Field != "release" {
		t.Fatalf("expected release to be reported missing, got %v", err)
	}
}

func TestParseDescriptorInvalidValues(t *testing.T) {
	base := "architecture: x86_64\ndescription: d\nos: ubuntu\n"
	tests := []struct {
		name string
		text string
	}{
		{name: "non numeric date", text: base + "release: 22.04\ncreation_date: yesterday\n"},
		{name: "release with slash", text: base + "release: 22.04/../../etc\ncreation_date: 1\n"},
		{name: "dot dot variant", text: base + "release: 22.04\ncreation_date: 1\nvariant: ..\n"},
		{name: "date past year 9999", text: base + "release: 22.04\ncreation_date: 253402300800\n"},
		{name: "date before year 0", text: base + "release: 22.04\ncreation_date: -62167219201\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDescriptor(tt.text)
			var inv *InvalidFieldError
			if !errors.As(err, &inv) {
				t.Fatalf("expected InvalidFieldError, got %v", err)
			}
		})
	}
}

func TestParseDescriptorLatestRepresentableDate(t *testing.T) {
	text := "architecture: x86_64\ndescription: d\nos: ubuntu\nrelease: 22.04\ncreation_date: 253402300799\n"
	d, err := ParseDescriptor(text)
	if err != nil {
		t.Fatalf("ParseDescriptor failed: %v", err)
	}
	if got := d.Version(); got != "99991231_23:59" {
		t.Errorf("unexpected version %q", got)
	}
}

func TestParseDescriptorValueKeepsLaterColons(t *testing.T) {
	text := "architecture: x86_64\ndescription: a: b\nos: ubuntu\nrelease: 22.04\ncreation_date: 1\n"
	d, err := ParseDescriptor(text)
	if err != nil {
		t.Fatalf("ParseDescriptor failed: %v", err)
	}
	if d.Description != "a: b" {
		t.Errorf("unexpected description %q", d.Description)
	}
}

func TestParseDescriptorIgnoresNoise(t *testing.T) {
	text := "\n\n# comment without separator\nunknown: value\n" +
		"  os : ubuntu\narchitecture: x86_64\ncreation_date: 1672531200\ndescription: d\nrelease: 22.04\n"
	d, err := ParseDescriptor(text)
	if err != nil {
		t.Fatalf("ParseDescriptor failed: %v", err)
	}
	if d.OS != "ubuntu" {
		t.Errorf("unexpected os %q", d.OS)
	}
}

func TestResolveDestination(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, ubuntuMetadata)

	got, err := ResolveDestination(archive, "/srv/images")
	if err != nil {
		t.Fatalf("ResolveDestination failed: %v", err)
	}
	want := filepath.Join("/srv/images", "ubuntu", "22.04", "amd64", "default", "20230101_00:00")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestResolveDestinationMissingRelease(t *testing.T) {
	dir := t.TempDir()
	meta := strings.ReplaceAll(ubuntuMetadata, "  release: 22.04\n", "")
	archive := writeArchive(t, dir, meta)

	_, err := ResolveDestination(archive, "/srv/images")
	var mf *MissingFieldError
	if !errors.As(err, &mf) || mf.Field != "release" {
		t.Fatalf("expected missing release, got %v", err)
	}
}

func TestReadEntryCompressions(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"xz", "gzip", "zstd", "none"} {
		t.Run(kind, func(t *testing.T) {
			p := filepath.Join(dir, "meta-"+kind)
			data := compress(t, kind, tarBytes(t, []tarEntry{{name: "./metadata.yaml", body: ubuntuMetadata}}))
			if err := os.WriteFile(p, data, 0644); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			got, err := ReadEntry(p, DescriptorEntry)
			if err != nil {
				t.Fatalf("ReadEntry failed: %v", err)
			}
			if string(got) != ubuntuMetadata {
				t.Errorf("unexpected entry content %q", got)
			}
		})
	}
}

func TestReadEntryMissing(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "lxd.tar.xz")
	data := compress(t, "xz", tarBytes(t, []tarEntry{{name: "rootfs/etc/hostname", body: "x"}}))
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := ReadEntry(p, DescriptorEntry); !errors.Is(err, ErrDescriptorNotFound) {
		t.Errorf("expected ErrDescriptorNotFound, got %v", err)
	}
	if _, err := ReadEntry(filepath.Join(dir, "nope.tar.xz"), DescriptorEntry); err == nil {
		t.Error("expected error for missing archive")
	}
}
