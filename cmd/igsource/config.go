package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igsource/pkg/auth"
	"igsource/pkg/config"
	"igsource/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igsource configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (IGSOURCE_*)
  - .env files
  - Configuration file
  - Default values`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default values",
	Long: `Create a configuration file with every option at its default value.

The file is created as '.igsource.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after all sources are merged. The access token is masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

// configPathCmd represents the config path command
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file and output paths in use",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd, configPathCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".igsource.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store a token with 'igsource token login' or set " + auth.TokenEnvVar)
	fmt.Println("2. Run 'igsource config validate' to check the configuration")
	fmt.Println("3. Source your media with 'igsource source'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	display := *cfg
	if display.Source.Token != "" {
		display.Source.Token = auth.MaskToken(display.Source.Token)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Fprint(ui.Output, string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		ui.PrintWarning("No configuration file found, validating defaults and environment")
	} else {
		ui.PrintInfo("Validating configuration", path)
	}

	cfg, _, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings []string
	var problems []error

	if cfg.Source.Token == "" {
		if _, err := resolveToken(cfg); err != nil {
			warnings = append(warnings, "no access token configured or stored")
		}
	}
	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		problems = append(problems, fmt.Errorf("cannot create output directory: %w", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}

	if len(problems) > 0 {
		return errors.Join(problems...)
	}

	for _, w := range warnings {
		ui.PrintWarning(w)
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintTable("Summary", []ui.Row{
		{Key: "Type", Value: cfg.Source.Type},
		{Key: "Limit", Value: fmt.Sprint(cfg.Source.Limit)},
		{Key: "Locale", Value: cfg.Source.Locale},
		{Key: "Strict downloads", Value: fmt.Sprint(cfg.Source.Strict())},
		{Key: "Concurrent downloads", Value: fmt.Sprint(cfg.Download.ConcurrentDownloads)},
		{Key: "Rate limit", Value: fmt.Sprintf("%d requests/minute", cfg.RateLimit.RequestsPerMinute)},
		{Key: "Retry attempts", Value: fmt.Sprint(cfg.Retry.MaxAttempts)},
		{Key: "Log level", Value: cfg.Logging.Level},
	})
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	file := configFile
	if file == "" {
		file = config.FindConfigFile()
	}
	if file == "" {
		file = ui.Dim("(none)")
	}

	ui.PrintTable("", []ui.Row{
		{Key: "Config file", Value: file},
		{Key: "Nodes", Value: cfg.NodesPath()},
		{Key: "Schema", Value: cfg.SchemaPath()},
		{Key: "Files", Value: cfg.CachePath()},
	})
	return nil
}
