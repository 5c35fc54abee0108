package main

import (
	"fmt"
	"io"
	"strings"
)

const asciiHeader = `   _      _ _
  (_)___ | | |_ _ ___ _ _  __ _ _ __  ___
  | / -_)| | | '_/ -_) ' \/ _' | '  \/ -_)
 _/ \___||_|_|_| \___|_||_\__,_|_|_|_\___|
|__/`

// printHeader displays the ASCII header with version info
func printHeader(w io.Writer, version string) {
	fmt.Fprintln(w, asciiHeader)
	fmt.Fprintf(w, "Version: %s\n\n", version)
}

// maskSecret shows only the last four characters of an API key or secret.
func maskSecret(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return strings.Repeat("*", len(s))
	default:
		return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
	}
}

func onOff(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
