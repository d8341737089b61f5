package main

import (
	"fmt"
	"path/filepath"

	"github.com/open-edge-platform/os-image-streams/internal/image/imageimport"
	"github.com/open-edge-platform/os-image-streams/internal/streams"
	"github.com/spf13/cobra"
)

// createResolveCommand creates the resolve subcommand
func createResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [flags] ARCHIVE [ROOT]",
		Short: "Print where an image archive belongs in the tree",
		Long: `Resolve reads metadata.yaml from ARCHIVE (an xz, gzip or zstd
compressed tar such as lxd.tar.xz) and prints the version directory the
build would be imported into.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: executeResolve,
	}
}

// executeResolve handles the resolve command logic
func executeResolve(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args, 1)
	if err != nil {
		return fmt.Errorf("resolving root directory: %w", err)
	}

	dest, err := imageimport.ResolveDestination(args[0], filepath.Join(root, streams.ImagesDir))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), dest)
	return nil
}
