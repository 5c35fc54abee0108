package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/daemon"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage jellyrename configuration",
		Long: `Commands for managing jellyrename configuration.

The config file is stored at: ~/.config/jellyrename/config.toml
Any key can be overridden from the environment, e.g.
JELLYRENAME_JELLYFIN_API_KEY or JELLYRENAME_OPTIONS_DRY_RUN.

Examples:
  jellyrename config init              # Create default config file
  jellyrename config show              # Display current configuration
  jellyrename config path              # Show config file path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		url    string
		apiKey string
		libs   []string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Long: `Create a new configuration file with default values and a freshly
generated webhook secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				if !ui.IsTerminal() || !ui.Confirm(cmd.InOrStdin(), fmt.Sprintf("Overwrite %s?", path)) {
					return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
				}
			}

			cfg := config.DefaultConfig()
			if url != "" {
				cfg.Jellyfin.URL = url
			}
			cfg.Jellyfin.APIKey = apiKey
			cfg.Options.Libraries = libs

			secret, err := config.GenerateWebhookSecret()
			if err != nil {
				return err
			}
			cfg.Jellyfin.WebhookSecret = secret

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveTo(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			ui.SuccessMsg("Created config file: %s", path)
			fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
			fmt.Fprintln(cmd.OutOrStdout(), "  1. Set jellyfin.api_key (Dashboard -> API Keys)")
			fmt.Fprintln(cmd.OutOrStdout(), "  2. Send the webhook secret in the "+daemon.WebhookSecretHeader+" header")
			fmt.Fprintln(cmd.OutOrStdout(), "  3. Run 'jellyrename run --dry-run' to preview")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")
	cmd.Flags().StringVar(&url, "url", "", "Jellyfin server URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Jellyfin API key")
	cmd.Flags().StringSliceVar(&libs, "library", nil, "library root (repeatable)")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintf(w, "Config file: %s %s\n\n", path, ui.Dim("(not found, showing defaults)"))
			} else {
				fmt.Fprintf(w, "Config file: %s\n\n", path)
			}

			dbPath, _ := cfg.Database.ResolvedPath()

			t := ui.NewTable("Setting", "Value")
			t.AddRow("templates.series", cfg.Templates.SeriesTemplate())
			t.AddRow("templates.season", cfg.Templates.SeasonTemplate())
			t.AddRow("templates.episode", cfg.Templates.EpisodeTemplate())
			t.AddRow("templates.movie", cfg.Templates.MovieTemplate())
			t.AddRow("jellyfin.url", cfg.Jellyfin.URL)
			t.AddRow("jellyfin.api_key", maskSecret(cfg.Jellyfin.APIKey))
			t.AddRow("jellyfin.webhook_secret", maskSecret(cfg.Jellyfin.WebhookSecret))
			t.AddRow("jellyfin.timeout", ui.FormatDuration(cfg.Jellyfin.Timeout()))
			t.AddRow("jellyfin.refresh_after_rename", onOff(cfg.Jellyfin.RefreshAfterRename))
			t.AddRow("options.dry_run", onOff(cfg.Options.DryRun))
			t.AddRow("options.libraries", strings.Join(cfg.Options.Libraries, ", "))
			t.AddRow("daemon.addr", cfg.Daemon.Addr)
			t.AddRow("daemon.schedule", orDash(cfg.Daemon.Schedule))
			t.AddRow("daemon.debounce", ui.FormatDuration(cfg.Daemon.Debounce()))
			t.AddRow("database.path", dbPath)
			t.AddRow("logging.level", cfg.Logging.Level)
			t.Render(w)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
