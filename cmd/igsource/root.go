package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"igsource/pkg/config"
	"igsource/pkg/logger"
	"igsource/pkg/report"
	"igsource/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igsource",
	Short: "Source Instagram media into a static site build",
	Long: `igsource fetches your latest Instagram media through the Graph API,
stores each post as a content node, downloads its image into a local file
cache and publishes a GraphQL schema describing the nodes.

Features:
  - Deterministic node ids and content digests for incremental builds
  - Concurrent, rate limited asset downloads with retry
  - Locale aware formattedDate field
  - Secure token storage using the system keychain
  - Scheduled long-lived token refresh`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
		if quiet {
			logLevel = "error"
		}
		if verbose && logLevel == "" {
			logLevel = "debug"
		}

		switch cmd.Name() {
		case "version", "help", "path", "schema", "nodes", "show":
		default:
			if !quiet {
				ui.PrintLogo()
			}
		}
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var fatal *report.FatalError
		if errors.As(err, &fatal) {
			ui.PrintError(fatal.Message, fatal.Err)
		} else {
			ui.PrintError(err.Error())
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.igsource.yaml or ~/.config/igsource/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every download on its own line")

	rootCmd.SetVersionTemplate(`igsource {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with flags merged on top and initializes
// the global logger from it
func loadConfig(flags map[string]interface{}) (*config.Config, logger.Logger, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.GetLogger(), nil
}
