package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		failed bool
		passes bool
		pass   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded rename outcomes",
		Long: `Print rename outcomes recorded in the history database, newest first.

Examples:
  jellyrename history                  # Last 50 outcomes
  jellyrename history --failed         # Failures only
  jellyrename history --passes         # Recent passes
  jellyrename history --pass <pass-id> # Outcomes of one pass`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()

			if passes {
				list, err := db.RecentPasses(limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, list)
				}
				if len(list) == 0 {
					ui.InfoMsg("No passes recorded yet")
					return nil
				}
				ui.RenderPasses(out, list)
				return nil
			}

			var records []database.RenameRecord
			switch {
			case pass != "":
				records, err = db.PassRenames(pass)
			case failed:
				records, err = db.RecentFailures(limit)
			default:
				records, err = db.RecentRenames(limit)
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				ui.InfoMsg("No outcomes recorded yet")
				return nil
			}
			ui.RenderRecords(out, records)

			if pass != "" {
				counts, err := db.CountByOutcome(pass)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				names := make([]string, 0, len(counts))
				for name := range counts {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(out, "  %-26s %s\n", ui.OutcomeName(name), ui.FormatCount(counts[name]))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "number of entries to show")
	cmd.Flags().BoolVar(&failed, "failed", false, "only show failures")
	cmd.Flags().BoolVar(&passes, "passes", false, "list passes instead of outcomes")
	cmd.Flags().StringVar(&pass, "pass", "", "show the outcomes of one pass")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
