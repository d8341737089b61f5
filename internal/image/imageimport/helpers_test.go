package imageimport

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const ubuntuMetadata = `architecture: x86_64
creation_date: 1672531200
expiry_date: 1675123200
properties:
  architecture: x86_64
  description: Ubuntu jammy amd64 (20230101_00:00)
  os: ubuntu
  release: 22.04
templates:
  /etc/hostname:
    when:
    - create
    - copy
    template: hostname.tpl
`

type tarEntry struct {
	name string
	body string
}

func tarBytes(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader failed: %v", err)
		}
		if _, err := tw.Write([]byte(e.body)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar Close failed: %v", err)
	}
	return buf.Bytes()
}

func compress(t *testing.T, kind string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch kind {
	case "xz":
		w, err = xz.NewWriter(&buf)
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "zstd":
		w, err = zstd.NewWriter(&buf)
	case "none":
		return data
	default:
		t.Fatalf("unknown compression %q", kind)
	}
	if err != nil {
		t.Fatalf("creating %s writer: %v", kind, err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("%s write failed: %v", kind, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("%s close failed: %v", kind, err)
	}
	return buf.Bytes()
}

// writeArchive writes an xz compressed tar holding metadata.yaml.
func writeArchive(t *testing.T, dir, metadata string) string {
	t.Helper()
	p := filepath.Join(dir, "lxd.tar.xz")
	data := compress(t, "xz", tarBytes(t, []tarEntry{
		{name: "metadata.yaml", body: metadata},
		{name: "templates/hostname.tpl", body: "{{ container.name }}"},
	}))
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	return p
}
