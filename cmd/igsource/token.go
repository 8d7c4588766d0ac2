package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igsource/pkg/auth"
	"igsource/pkg/instagram"
	"igsource/pkg/token"
	"igsource/pkg/ui"
)

var (
	scheduleSpec string
	skipGuide    bool
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage Instagram access tokens",
	Long: `Manage stored Instagram Graph API access tokens.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - The IGSOURCE_TOKEN environment variable (read only)

Never share your tokens or config files!`,
}

// tokenLoginCmd represents the token login command
var tokenLoginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store an access token securely",
	Example: `  # Store the default token
  igsource token login

  # Store a token under a name
  igsource token login studio`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokenLogin,
}

// tokenLogoutCmd represents the token logout command
var tokenLogoutCmd = &cobra.Command{
	Use:   "logout [account]",
	Short: "Remove a stored token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTokenLogout,
}

// tokenListCmd represents the token list command
var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tokens",
	Args:  cobra.NoArgs,
	RunE:  runTokenList,
}

// tokenRefreshCmd represents the token refresh command
var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh [account]",
	Short: "Refresh a long-lived access token",
	Long: `Exchange a stored long-lived token for a refreshed one and store it.

With --schedule the refresh keeps running on a cron schedule until
interrupted. Without a value the schedule comes from schedule.refresh_cron.`,
	Example: `  # Refresh once
  igsource token refresh

  # Refresh every 30 days
  igsource token refresh --schedule "@every 720h"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokenRefresh,
}

// tokenGuideCmd represents the token guide command
var tokenGuideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to obtain an access token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowTokenGuide()
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenLoginCmd, tokenLogoutCmd, tokenListCmd, tokenRefreshCmd, tokenGuideCmd)

	tokenLoginCmd.Flags().BoolVar(&skipGuide, "skip-guide", false, "do not show the token guide")
	tokenRefreshCmd.Flags().StringVar(&scheduleSpec, "schedule", "", "cron schedule for repeated refreshes")
	tokenRefreshCmd.Flags().Lookup("schedule").NoOptDefVal = "config"
}

func accountArg(args []string) string {
	if len(args) > 0 {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultAccount
}

func runTokenLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := accountArg(args)
	reader := bufio.NewReader(os.Stdin)

	if skipGuide {
		auth.ShowQuickTokenGuide()
	} else {
		auth.ShowTokenGuide()
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("\n⚠️  Account '%s' already has a token. Replace it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("\n🔐 Access token (hidden): ")
	value, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if len(value) < 20 || strings.ContainsAny(value, " \t") {
		return errors.New("that does not look like an access token")
	}

	if err := manager.Store(&auth.Account{Name: name, AccessToken: value}); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Token saved for %s (%s)", name, auth.MaskToken(value)))
	fmt.Println("\n📖 Next steps:")
	fmt.Println("   $ igsource source")
	if name != auth.DefaultAccount {
		fmt.Printf("   $ igsource source --account %s\n", name)
	}
	return nil
}

func runTokenLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := accountArg(args)
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	ui.PrintSuccess("Token removed: " + name)
	return nil
}

func runTokenList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored tokens", "Use 'igsource token login' to add one")
		return nil
	}

	now := time.Now()
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		rows := []ui.Row{
			{Key: "Token", Value: sanitized.AccessToken},
			{Key: "Last Modified", Value: sanitized.LastModified.Format("2006-01-02 15:04:05")},
		}
		if !account.RefreshedAt.IsZero() {
			rows = append(rows, ui.Row{Key: "Refreshed", Value: account.RefreshedAt.Format("2006-01-02 15:04:05")})
		}
		if !account.ExpiresAt.IsZero() {
			expiry := account.ExpiresAt.Format("2006-01-02")
			if account.Expired(now) {
				expiry = ui.Red(expiry + " (expired)")
			}
			rows = append(rows, ui.Row{Key: "Expires", Value: expiry})
		}
		if i > 0 {
			fmt.Fprintln(ui.Output)
		}
		ui.PrintTable(sanitized.Name, rows)
	}
	return nil
}

func runTokenRefresh(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := accountArg(args)
	client := instagram.NewClient(cfg.Graph.BaseURL, cfg.Graph.Timeout, log)
	scheduler := token.NewScheduler(token.NewRefresher(client, log), manager, name, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cmd.Flags().Changed("schedule") {
		if err := scheduler.RunOnce(ctx); err != nil {
			return err
		}
		ui.PrintSuccess("Token refreshed for " + name)
		return nil
	}

	spec := scheduleSpec
	if spec == "config" {
		spec = cfg.Schedule.RefreshCron
	}
	if err := scheduler.Start(ctx, spec); err != nil {
		return err
	}
	ui.PrintInfo("Refreshing on schedule", spec)
	ui.PrintInfo("Account", name)
	fmt.Println(ui.Dim("Press Ctrl+C to stop"))

	<-ctx.Done()
	scheduler.Stop()

	stats := scheduler.Stats()
	ui.PrintInfo("Refresh runs", fmt.Sprintf("%d (%d failed)", stats.Runs, stats.Failures))
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
