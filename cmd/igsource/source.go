package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"igsource/pkg/auth"
	"igsource/pkg/config"
	"igsource/pkg/logger"
	"igsource/pkg/source"
	"igsource/pkg/ui"
)

var (
	// Source command flags
	tokenFlag       string
	limitFlag       int
	localeFlag      string
	typeFlag        string
	accountFlag     string
	strictDownloads bool
	outputDir       string
	concurrent      int
	notify          bool
)

// sourceCmd represents the source command
var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Run one sourcing cycle",
	Long: `Fetch the latest Instagram media, create or update one node per post,
download each post's image into the file cache and publish the schema.

The access token is taken from, in order:
  - the --token flag or IGSOURCE_TOKEN
  - source.token in the configuration file
  - the credential store (see 'igsource token login')

Nodes from the previous run that are no longer returned are removed. An
empty response leaves the store untouched.`,
	Example: `  # Source the 5 latest posts
  igsource source

  # Source 20 posts with German dates
  igsource source --limit 20 --locale de

  # Keep going when an image cannot be downloaded
  igsource source --strict-downloads=false`,
	Args: cobra.NoArgs,
	RunE: runSource,
}

func init() {
	rootCmd.AddCommand(sourceCmd)

	sourceCmd.Flags().StringVar(&tokenFlag, "token", "", "Instagram Graph API access token")
	sourceCmd.Flags().IntVarP(&limitFlag, "limit", "l", config.DefaultLimit, "number of media entries to fetch")
	sourceCmd.Flags().StringVar(&localeFlag, "locale", config.DefaultLocale, "locale for formattedDate")
	sourceCmd.Flags().StringVar(&typeFlag, "type", config.DefaultTypeName, "node type name")
	sourceCmd.Flags().StringVarP(&accountFlag, "account", "a", "", "stored account supplying the token")
	sourceCmd.Flags().BoolVar(&strictDownloads, "strict-downloads", true, "fail the cycle on the first download failure")
	sourceCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for nodes, schema and files")
	sourceCmd.Flags().IntVar(&concurrent, "concurrent", 3, "number of concurrent downloads")
	sourceCmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when the cycle ends")
}

// changedFlags collects the flags set on the command line so they
// override configuration
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := func(name string, value interface{}) {
		if cmd.Flags().Changed(name) {
			flags[name] = value
		}
	}
	set("token", tokenFlag)
	set("limit", limitFlag)
	set("locale", localeFlag)
	set("type", typeFlag)
	set("account", accountFlag)
	set("strict-downloads", strictDownloads)
	set("output", outputDir)
	set("concurrent", concurrent)
	return flags
}

// resolveToken returns the configured token or the stored one
func resolveToken(cfg *config.Config) (string, error) {
	if cfg.Source.Token != "" {
		return cfg.Source.Token, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return "", fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	token, err := manager.Token(cfg.Source.Account)
	if err != nil {
		return "", fmt.Errorf("%w: run 'igsource token login' or set %s", source.ErrMissingToken, auth.TokenEnvVar)
	}
	return token, nil
}

func runSource(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(changedFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	token, err := resolveToken(cfg)
	if err != nil {
		return err
	}

	var progress *ui.ProgressDisplay
	var observer source.Progress
	if !quiet {
		progress = ui.NewProgressDisplay(cfg.Source.Type, verbose)
		observer = progress
		ui.PrintInfo("Type", cfg.Source.Type)
		ui.PrintInfo("Limit", strconv.Itoa(cfg.Source.Limit))
	}

	p, err := newPipeline(cfg, token, observer, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := p.source.Run(ctx)
	if progress != nil {
		progress.Done()
	}

	var notifier *ui.Notifier
	if notify {
		notifier = ui.NewNotifier()
	}

	if runErr != nil {
		logger.WithError(runErr).Error("Sourcing cycle failed")
		if notifier != nil {
			notifier.SendError("igsource", runErr.Error())
		}
		return runErr
	}

	if err := p.persist(); err != nil {
		return fmt.Errorf("failed to persist results: %w", err)
	}

	if !quiet {
		printResult(result, cfg)
		ui.PrintSuccess("Sourcing cycle completed")
	}
	if notifier != nil {
		notifier.SendSuccess("igsource", fmt.Sprintf("%d %s nodes sourced", result.Fetched, cfg.Source.Type))
	}
	return nil
}

func printResult(r *source.Result, cfg *config.Config) {
	rows := []ui.Row{
		{Key: "Fetched", Value: strconv.Itoa(r.Fetched)},
		{Key: "Created", Value: strconv.Itoa(r.Created)},
		{Key: "Updated", Value: strconv.Itoa(r.Updated)},
		{Key: "Unchanged", Value: strconv.Itoa(r.Unchanged)},
		{Key: "Removed", Value: strconv.Itoa(r.Removed)},
		{Key: "Localized", Value: strconv.Itoa(r.Localized)},
		{Key: "Failed", Value: strconv.Itoa(len(r.Failed))},
		{Key: "Duration", Value: ui.FormatDuration(r.Duration)},
		{Key: "Nodes", Value: cfg.NodesPath()},
		{Key: "Schema", Value: cfg.SchemaPath()},
	}
	fmt.Fprintln(ui.Output)
	ui.PrintTable("Result", rows)
}
