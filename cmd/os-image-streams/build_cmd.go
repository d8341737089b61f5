package main

import (
	"fmt"
	"os"

	"github.com/open-edge-platform/os-image-streams/internal/config"
	"github.com/open-edge-platform/os-image-streams/internal/streams"
	"github.com/open-edge-platform/os-image-streams/internal/utils/lock"
	"github.com/open-edge-platform/os-image-streams/internal/utils/logger"
	"github.com/spf13/cobra"
)

// Build command flags
var (
	buildExecute  bool
	buildFormat   string = "json"
	buildIndex    bool
	buildProgress bool
)

// createBuildCommand creates the build subcommand
func createBuildCommand() *cobra.Command {
	buildCmd := &cobra.Command{
		Use:   "build [flags] [ROOT]",
		Short: "Build the simplestreams catalog of an image tree",
		Long: `Build scans ROOT/images/<os>/<release>/<arch>/<variant>/<version>/ and
assembles the simplestreams catalog. By default the catalog is printed to
stdout; with --execute it is written to ROOT/streams/v1/images.json along
with ROOT/streams/v1/index.json.

Digests of each version are cached in a .items.json file inside the
version directory and reused on later runs. Delete that file to force a
version to be hashed again.`,
		Args: cobra.MaximumNArgs(1),
		RunE: executeBuild,
	}

	buildCmd.Flags().BoolVarP(&buildExecute, "execute", "N", false,
		"Write streams/v1 instead of printing the catalog")
	buildCmd.Flags().StringVar(&buildFormat, "format", "json",
		"Output format when printing: json, json-pretty or yaml")
	buildCmd.Flags().BoolVar(&buildIndex, "index", false,
		"Print the index document instead of the catalog")
	buildCmd.Flags().BoolVar(&buildProgress, "progress", false,
		"Show a progress bar while cataloging (overrides config)")

	return buildCmd
}

// executeBuild handles the build command logic
func executeBuild(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	helpers := config.NewConfigHelpers(config.Global())

	root, err := resolveRoot(args, 0)
	if err != nil {
		return fmt.Errorf("resolving root directory: %w", err)
	}

	// The item caches are written even when only printing.
	release, err := lock.Acquire(root, helpers.LockTimeout())
	if err != nil {
		return err
	}
	defer release()

	opts := []streams.Option{streams.WithLogger(log)}
	if buildProgress || helpers.ShowProgress() {
		opts = append(opts, streams.WithProgress(os.Stderr))
	}

	log.Infof("Building catalog for %s", root)
	catalog, err := streams.NewBuilder(opts...).BuildCatalog(root)
	if err != nil {
		return fmt.Errorf("catalog build failed: %w", err)
	}

	if buildExecute {
		if err := streams.WriteStreams(root, catalog); err != nil {
			return err
		}
		log.Infof("Wrote %s and %s with %d products", streams.CatalogPath, streams.IndexPath, len(catalog.Products))
		return nil
	}

	var doc any = catalog
	if buildIndex {
		doc = streams.BuildIndex(catalog)
	}
	out, err := streams.Encode(doc, buildFormat)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
