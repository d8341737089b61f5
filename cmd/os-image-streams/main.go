package main

import (
	"fmt"
	"os"

	"github.com/open-edge-platform/os-image-streams/internal/config"
	"github.com/open-edge-platform/os-image-streams/internal/utils/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Global flags
var (
	configFile string
	logLevel   string
	verbose    bool
)

func main() {
	rootCmd := createRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// createRootCommand creates the root command with all subcommands
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "os-image-streams",
		Short: "Build simplestreams catalogs for a tree of LXD images",
		Long: `os-image-streams maintains a tree of LXD image builds laid out as
images/<os>/<release>/<arch>/<variant>/<YYYYMMDD_HH:MM>/ and publishes it
as a simplestreams catalog (streams/v1/index.json and images.json).

Commands that change the tree only print what they would do unless
--execute (-N) is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(createBuildCommand())
	rootCmd.AddCommand(createImportCommand())
	rootCmd.AddCommand(createResolveCommand())

	attachLoggingHooks(rootCmd)
	return rootCmd
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVar(&configFile, "config", "",
		fmt.Sprintf("Global configuration file (default: ./%s if present)", config.DefaultConfigFile))
	fs.StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")
	fs.BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging (same as --log-level=debug)")
}

// attachLoggingHooks makes every subcommand load the configuration and
// set up logging before it runs.
func attachLoggingHooks(rootCmd *cobra.Command) {
	for _, cmd := range rootCmd.Commands() {
		cmd.PersistentPreRunE = initializeCommand
	}
}

func initializeCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig(configFile)
	if err != nil {
		return err
	}
	config.SetGlobal(cfg)

	level := resolveRequestedLogLevel(cmd)
	if level == "" {
		level = config.NewConfigHelpers(cfg).LogLevel()
	}
	if err := logger.Init(level); err != nil {
		return err
	}
	logger.Logger().Debugf("log level set to %s", logger.Level())
	return nil
}

// resolveRequestedLogLevel returns the level asked for on the command
// line, or "" to fall back to the configuration.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd == nil {
		return ""
	}
	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed && f.Value.String() == "true" {
		return "debug"
	}
	return ""
}

// resolveRoot picks the tree root: the positional argument when given,
// else the configured root_dir, else the working directory.
func resolveRoot(args []string, idx int) (string, error) {
	if len(args) > idx {
		return args[idx], nil
	}
	return config.NewConfigHelpers(config.Global()).RootDir()
}
