package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Preview a naming template offline",
		Long: `Render a name from a template and the given fields without contacting
Jellyfin or touching the disk. Without --template the configured template
is used.

Examples:
  jellyrename render series --name "Severance" --year 2022 --provider tvdb --id 371980
  jellyrename render season --number 1
  jellyrename render episode --season 1 --episode 2 --title "Half Loop" --ext .mkv
  jellyrename render movie --name "Heat" --year 1995 --template "{Name} ({Year})"`,
	}

	cmd.AddCommand(newRenderFolderCmd("series", config.TemplatesConfig.SeriesTemplate))
	cmd.AddCommand(newRenderFolderCmd("movie", config.TemplatesConfig.MovieTemplate))
	cmd.AddCommand(newRenderSeasonCmd())
	cmd.AddCommand(newRenderEpisodeCmd())

	return cmd
}

// configuredTemplates returns the templates from the config file, or the
// defaults when there is none or it cannot be read.
func configuredTemplates() config.TemplatesConfig {
	cfg, err := loadConfig()
	if err != nil {
		return config.DefaultConfig().Templates
	}
	return cfg.Templates
}

func pickTemplate(flag string, pick func(config.TemplatesConfig) string) string {
	if flag != "" {
		return flag
	}
	return pick(configuredTemplates())
}

// optionalInt returns nil unless the flag was given.
func optionalInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func newRenderFolderCmd(kind string, pick func(config.TemplatesConfig) string) *cobra.Command {
	var (
		tmpl     string
		fields   naming.FolderFields
		provider string
	)

	cmd := &cobra.Command{
		Use:   kind,
		Short: fmt.Sprintf("Render a %s folder name", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields.ProviderLabel = strings.ToLower(strings.TrimSpace(provider))
			fmt.Fprintln(cmd.OutOrStdout(), naming.RenderSeriesOrMovieFolder(pickTemplate(tmpl, pick), fields))
			return nil
		},
	}

	cmd.Flags().StringVar(&tmpl, "template", "", "template to render")
	cmd.Flags().StringVar(&fields.Name, "name", "", "title")
	cmd.Flags().IntVar(&fields.Year, "year", 0, "production year (0 = unknown)")
	cmd.Flags().StringVar(&provider, "provider", "", "provider label, e.g. tvdb or tmdb")
	cmd.Flags().StringVar(&fields.ProviderID, "id", "", "provider id")

	return cmd
}

func newRenderSeasonCmd() *cobra.Command {
	var (
		tmpl   string
		number int
		name   string
	)

	cmd := &cobra.Command{
		Use:   "season",
		Short: "Render a season folder name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := naming.RenderSeasonFolder(pickTemplate(tmpl, config.TemplatesConfig.SeasonTemplate), naming.SeasonFields{
				Number: optionalInt(cmd, "number", number),
				Name:   name,
			})
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&tmpl, "template", "", "template to render")
	cmd.Flags().IntVar(&number, "number", 0, "season number")
	cmd.Flags().StringVar(&name, "name", "", "season name")

	return cmd
}

func newRenderEpisodeCmd() *cobra.Command {
	var (
		tmpl    string
		season  int
		episode int
		fields  naming.EpisodeFields
		ext     string
	)

	cmd := &cobra.Command{
		Use:   "episode",
		Short: "Render an episode file name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields.Season = optionalInt(cmd, "season", season)
			fields.Episode = optionalInt(cmd, "episode", episode)
			out := naming.RenderEpisodeFileName(pickTemplate(tmpl, config.TemplatesConfig.EpisodeTemplate), fields)
			if ext = strings.TrimSpace(ext); ext != "" && !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			fmt.Fprintln(cmd.OutOrStdout(), out+ext)
			return nil
		},
	}

	cmd.Flags().StringVar(&tmpl, "template", "", "template to render")
	cmd.Flags().StringVar(&fields.SeriesName, "series", "", "series name")
	cmd.Flags().IntVar(&season, "season", 0, "season number")
	cmd.Flags().IntVar(&episode, "episode", 0, "episode number")
	cmd.Flags().StringVar(&fields.Title, "title", "", "episode title")
	cmd.Flags().IntVar(&fields.Year, "year", 0, "series year (0 = unknown)")
	cmd.Flags().StringVar(&ext, "ext", "", "file extension to append")

	return cmd
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <filename>",
		Short: "Show what the naming heuristics read from a file or folder name",
		Long: `Print the episode numbering, clean title and provider tag the renamer
would recover from an existing name.

Examples:
  jellyrename parse "Show.S02E06.The.Return.1080p.mkv"
  jellyrename parse "Severance (2022) [tvdb-371980]"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := filepath.Base(args[0])
			stem := strings.TrimSuffix(name, filepath.Ext(name))

			t := ui.NewTable("Field", "Value")
			t.AddRow("name", name)
			t.AddRow("sanitized", naming.Sanitize(name))

			var season, episode *int
			if s, e, ok := naming.ParseSeasonEpisode(stem); ok {
				season, episode = &s, &e
				t.AddRow("season", strconv.Itoa(s))
			} else {
				t.AddRow("season", "-")
			}
			if episode == nil {
				if e, ok := naming.ParseEpisodeNumber(stem); ok {
					episode = &e
				}
			}
			if episode != nil {
				t.AddRow("episode", strconv.Itoa(*episode))
			} else {
				t.AddRow("episode", "-")
			}

			title := naming.ExtractCleanEpisodeTitle(stem, season, episode)
			t.AddRow("clean title", orDash(title))

			id, _ := naming.ExtractProviderID(name)
			t.AddRow("provider tag", orDash(id))

			t.RenderCompact(cmd.OutOrStdout())
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
