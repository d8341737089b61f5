package imageimport

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// DescriptorEntry is the name of the metadata entry inside the archive.
const DescriptorEntry = "metadata.yaml"

// maxDescriptorSize bounds how much of the entry is read.
const maxDescriptorSize = 1 << 20

// ErrDescriptorNotFound is returned when the archive has no descriptor.
var ErrDescriptorNotFound = errors.New("descriptor entry not found")

var (
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ReadEntry returns the content of the named entry of a compressed tar
// archive. xz, gzip and zstd compression are recognized by their magic
// bytes; anything else is read as a plain tar stream.
func ReadEntry(archivePath, name string) ([]byte, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	r, closeFn, err := decompress(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", archivePath, err)
	}
	defer closeFn()

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s in %s", ErrDescriptorNotFound, name, archivePath)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive %s: %w", archivePath, err)
		}
		if hdr.Typeflag != tar.TypeReg || path.Clean(hdr.Name) != name {
			continue
		}

		data, err := io.ReadAll(io.LimitReader(tr, maxDescriptorSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from %s: %w", name, archivePath, err)
		}
		if len(data) > maxDescriptorSize {
			return nil, fmt.Errorf("%s in %s exceeds %d bytes", name, archivePath, maxDescriptorSize)
		}
		return data, nil
	}
}

func decompress(br *bufio.Reader) (io.Reader, func(), error) {
	head, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF {
		return nil, nil, err
	}

	switch {
	case bytes.HasPrefix(head, xzMagic):
		r, err := xz.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("xz: %w", err)
		}
		return r, func() {}, nil
	case bytes.HasPrefix(head, gzipMagic):
		r, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return r, func() { r.Close() }, nil
	case bytes.HasPrefix(head, zstdMagic):
		r, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return r, r.Close, nil
	default:
		return br, func() {}, nil
	}
}
