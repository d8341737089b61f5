package main

import (
	"fmt"

	"github.com/open-edge-platform/os-image-streams/internal/config"
	"github.com/open-edge-platform/os-image-streams/internal/image/imageimport"
	"github.com/open-edge-platform/os-image-streams/internal/utils/effect"
	"github.com/open-edge-platform/os-image-streams/internal/utils/lock"
	"github.com/open-edge-platform/os-image-streams/internal/utils/logger"
	"github.com/spf13/cobra"
)

// Import command flags
var (
	importExecute bool
	importReport  string
)

// createImportCommand creates the import subcommand
func createImportCommand() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import [flags] SRCDIR [ROOT]",
		Short: "Move a freshly built image into the image tree",
		Long: `Import reads metadata.yaml from SRCDIR/lxd.tar.xz to find where the
build belongs, then moves every recognized artifact (lxd.tar.xz,
root.tar.xz, root.squashfs, disk.qcow2) of SRCDIR into
ROOT/images/<os>/<release>/<arch>/<variant>/<YYYYMMDD_HH:MM>/.

Without --execute the mkdir and mv commands are only printed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: executeImport,
	}

	importCmd.Flags().BoolVarP(&importExecute, "execute", "N", false,
		"Create the directory and move the files")
	importCmd.Flags().StringVar(&importReport, "report", "",
		"Directory to append an import report to (overrides config report_dir)")

	return importCmd
}

// executeImport handles the import command logic
func executeImport(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	helpers := config.NewConfigHelpers(config.Global())
	srcDir := args[0]

	root, err := resolveRoot(args, 1)
	if err != nil {
		return fmt.Errorf("resolving root directory: %w", err)
	}

	report := logger.NewReport("import")
	var ex effect.Executor
	if importExecute {
		release, err := lock.Acquire(root, helpers.LockTimeout())
		if err != nil {
			return err
		}
		defer release()
		ex = effect.NewReal(report)
	} else {
		ex = effect.NewDryRun(cmd.OutOrStdout(), report)
	}

	dest, err := imageimport.NewImporter(ex).Import(srcDir, root)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	log.Infof("Imported %s as %s", srcDir, dest)

	reportDir := importReport
	if reportDir == "" {
		if reportDir, err = helpers.ReportDir(); err != nil {
			return fmt.Errorf("resolving report directory: %w", err)
		}
	}
	if reportDir != "" && report.Len() > 0 {
		path, err := report.WriteToDir(reportDir)
		if err != nil {
			return fmt.Errorf("writing import report: %w", err)
		}
		log.Debugf("Import report appended to %s", path)
	}
	return nil
}
