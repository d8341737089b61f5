package imageimport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-edge-platform/os-image-streams/internal/streams"
	"github.com/open-edge-platform/os-image-streams/internal/utils/effect"
	"github.com/open-edge-platform/os-image-streams/internal/utils/file"
	"github.com/open-edge-platform/os-image-streams/internal/utils/logger"
	"go.uber.org/zap"
)

// ErrVersionExists is returned when the destination version directory is
// already present.
var ErrVersionExists = errors.New("version already exists")

// Importer moves a freshly built image into the image tree.
type Importer struct {
	Exec effect.Executor
	Log  *zap.SugaredLogger
}

// NewImporter returns an Importer applying its changes through ex.
func NewImporter(ex effect.Executor) *Importer {
	return &Importer{Exec: ex, Log: logger.Logger()}
}

// Import places the artifacts found in srcDir under
// root/images/os/release/arch/variant/version, as described by the
// metadata of srcDir/lxd.tar.xz, and returns that directory.
func (im *Importer) Import(srcDir, root string) (string, error) {
	archive := filepath.Join(srcDir, streams.AnchorFile)
	dest, err := ResolveDestination(archive, filepath.Join(root, streams.ImagesDir))
	if err != nil {
		return "", err
	}

	exists, err := file.Exists(dest)
	if err != nil {
		return "", fmt.Errorf("failed to check destination %s: %w", dest, err)
	}
	if exists {
		return "", fmt.Errorf("%w: %s", ErrVersionExists, dest)
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return "", fmt.Errorf("failed to read import directory %s: %w", srcDir, err)
	}

	im.log().Infof("Importing %s into %s", srcDir, dest)
	if err := im.Exec.MkdirAll(dest); err != nil {
		return "", err
	}
	for _, e := range entries {
		if !streams.IsArtifact(e.Name()) || e.IsDir() {
			continue
		}
		if err := im.Exec.Move(filepath.Join(srcDir, e.Name()), filepath.Join(dest, e.Name())); err != nil {
			return "", err
		}
	}
	return dest, nil
}

func (im *Importer) log() *zap.SugaredLogger {
	if im.Log == nil {
		return zap.NewNop().Sugar()
	}
	return im.Log
}
