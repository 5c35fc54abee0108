package ui

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/organizer"
)

// RenderSummary prints the per-outcome counts of a pass.
func RenderSummary(w io.Writer, s *organizer.Summary) {
	if s == nil {
		return
	}
	title := "Pass " + s.PassID
	if s.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(w, Action(title))

	if s.Total() == 0 && s.Deferred == 0 {
		fmt.Fprintln(w, Dim("  nothing to do"))
	}
	for _, o := range s.Outcomes() {
		fmt.Fprintf(w, "  %-26s %s\n", Outcome(o), FormatCount(s.Counts[o]))
	}
	if s.Deferred > 0 {
		fmt.Fprintf(w, "  %-26s %s\n", Warning("deferred (playback)"), FormatCount(s.Deferred))
	}
	for _, err := range s.Errors {
		fmt.Fprintln(w, "  "+Error("error: ")+err.Error())
	}
	if s.Duration > 0 {
		fmt.Fprintln(w, Dim("  took "+FormatDuration(s.Duration)))
	}
}

// RenderRecords prints history records as a table, newest first as given.
func RenderRecords(w io.Writer, records []database.RenameRecord) {
	t := NewTable("When", "Kind", "Outcome", "From", "To")
	t.StyleColumn(2, OutcomeName)
	for _, r := range records {
		to := ""
		if r.TargetPath != "" {
			to = filepath.Base(r.TargetPath)
		}
		if r.Error != "" && to == "" {
			to = r.Error
		}
		t.AddRow(FormatTime(r.CreatedAt), r.Kind, r.Outcome, r.SourcePath, to)
	}
	t.RenderCompact(w)
}

// RenderPasses prints recent passes.
func RenderPasses(w io.Writer, passes []database.Pass) {
	t := NewTable("Started", "Trigger", "Dry run", "Finished", "Pass", "Error")
	for _, p := range passes {
		finished := "running"
		if p.FinishedAt != nil {
			finished = FormatDuration(p.FinishedAt.Sub(p.StartedAt))
		}
		dry := ""
		if p.DryRun {
			dry = "yes"
		}
		t.AddRow(FormatTime(p.StartedAt), string(p.Trigger), dry, finished, p.ID, p.Error)
	}
	t.RenderCompact(w)
}
