// Package ui renders CLI output: styled messages, tables and pass summaries.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

var (
	out io.Writer = os.Stdout

	// Detect if we're in a terminal
	isTerminal   = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	colorEnabled = os.Getenv("NO_COLOR") == ""
)

// SetOutput redirects everything the package prints. Colors are turned off
// unless w is a terminal.
func SetOutput(w io.Writer) {
	out = w
	isTerminal = false
	if f, ok := w.(*os.File); ok {
		isTerminal = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	initStyles()
}

// Output returns the current writer.
func Output() io.Writer {
	return out
}

// DisableColors disables all color output
func DisableColors() {
	colorEnabled = false
	initStyles()
}

// EnableColors enables color output
func EnableColors() {
	colorEnabled = true
	initStyles()
}

// IsTerminal checks if output goes to a terminal with colors allowed
func IsTerminal() bool {
	return isTerminal && colorEnabled
}

// Section prints a section header
func Section(title string) {
	fmt.Fprintln(out)
	if IsTerminal() {
		fmt.Fprintln(out, Action("━━━ "+strings.ToUpper(title)+" ━━━"))
	} else {
		fmt.Fprintln(out, strings.ToUpper(title))
		fmt.Fprintln(out, strings.Repeat("=", len(title)+6))
	}
}

// FormatDuration formats duration to human-readable format
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// FormatTime renders t relative to now, e.g. "3 minutes ago".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// Confirm prompts for user confirmation on in. Anything but y/yes is no.
func Confirm(in io.Reader, prompt string) bool {
	fmt.Fprint(out, prompt+" (y/N): ")
	line, _ := bufio.NewReader(in).ReadString('\n')
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes"
}
