package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/organizer"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var opts organizer.PassOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rename every series and movie in the Jellyfin library",
		Long: `Run one rename pass over the Jellyfin library.

Inside a series, episode files are renamed first, then season folders, then
the series folder. Every outcome is recorded in the history database.

Examples:
  jellyrename run --dry-run           # Preview the whole library
  jellyrename run --movies            # Movies only
  jellyrename run --series <item-id>  # One series`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.SeriesOnly && opts.MoviesOnly {
				return fmt.Errorf("--series-only and --movies are mutually exclusive")
			}
			return runPass(cmd.Context(), func(ctx context.Context, a *app) (*organizer.Summary, error) {
				return a.organizer.RunLibrary(ctx, database.TriggerCLI, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.SeriesID, "series", "", "only rename the series with this Jellyfin item id")
	cmd.Flags().BoolVar(&opts.SeriesOnly, "series-only", false, "skip movies")
	cmd.Flags().BoolVar(&opts.MoviesOnly, "movies", false, "only rename movies")

	return cmd
}

func newItemCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "item <item-id>",
		Short: "Rename a single Jellyfin item",
		Long: `Rename one item by its Jellyfin id.

A series is renamed together with its seasons and episodes. An episode or a
season renames within its series.

Examples:
  jellyrename item 6f1c0a8e2b7d4c1e9f3a5b2d8c4e6f10
  jellyrename item <episode-id> --path "/tv/Show/Season 01/show.s01e02.mkv"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd.Context(), func(ctx context.Context, a *app) (*organizer.Summary, error) {
				return a.organizer.RenameItem(ctx, database.TriggerCLI, args[0], path)
			})
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "current episode file path, when Jellyfin's is stale")

	return cmd
}

// runPass sets up the app, runs one pass until done or interrupted and
// prints its summary.
func runPass(parent context.Context, pass func(ctx context.Context, a *app) (*organizer.Summary, error)) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.organizer.DryRun() {
		ui.WarningMsg("Dry run: nothing on disk will change")
	}

	summary, err := pass(ctx, a)
	if summary != nil {
		ui.RenderSummary(ui.Output(), summary)
		if a.deferred.Count() > 0 {
			ui.InfoMsg("%s rename(s) deferred for active playback; they run on the next pass", ui.FormatCount(a.deferred.Count()))
		}
	}
	if err != nil {
		return err
	}
	if summary != nil && summary.Failed() > 0 {
		return fmt.Errorf("%d rename(s) failed (see 'jellyrename history --failed')", summary.Failed())
	}
	return nil
}
