package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// ASCIILogo is printed at the top of interactive commands
const ASCIILogo = `
  ╔═════════════════════════════════════════════╗
  ║   _                                         ║
  ║  (_) __ _ ___  ___  _   _ _ __ ___ ___      ║
  ║  | |/ _` + "`" + ` / __|/ _ \| | | | '__/ __/ _ \     ║
  ║  | | (_| \__ \ (_) | |_| | | | (_|  __/     ║
  ║  |_|\__, |___/\___/ \__,_|_|  \___\___|     ║
  ║     |___/                                   ║
  ║   Instagram content source for static sites ║
  ╚═════════════════════════════════════════════╝
`

// Color functions for terminal output. They honor color.NoColor.
var (
	Cyan    = color.New(color.FgCyan).SprintFunc()
	Yellow  = color.New(color.FgYellow).SprintFunc()
	Red     = color.New(color.FgRed).SprintFunc()
	Green   = color.New(color.FgGreen).SprintFunc()
	Magenta = color.New(color.FgMagenta).SprintFunc()
	Dim     = color.New(color.Faint).SprintFunc()
	Bold    = color.New(color.Bold).SprintFunc()
)

// Output is where the Print helpers write
var Output io.Writer = color.Output

// PrintLogo prints the ASCII logo
func PrintLogo() {
	fmt.Fprint(Output, Cyan(ASCIILogo))
}

// PrintError prints an error message in red, with an optional cause
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(Output, Red("✗ "+msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Output, Green("✓ "+msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow, with an optional cause
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(Output, Yellow("⚠ "+msg))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Output, Magenta(msg))
}

// Row is one line of a key/value table
type Row struct {
	Key   string
	Value string
}

// PrintTable prints rows with keys padded to a common width
func PrintTable(title string, rows []Row) {
	width := 0
	for _, r := range rows {
		if len(r.Key) > width {
			width = len(r.Key)
		}
	}

	if title != "" {
		fmt.Fprintln(Output, Bold(title))
		fmt.Fprintln(Output, Dim(strings.Repeat("─", len(title))))
	}
	for _, r := range rows {
		fmt.Fprintf(Output, "  %s  %s\n", Cyan(fmt.Sprintf("%-*s", width, r.Key)), r.Value)
	}
}

// FormatBytes formats a byte count with a binary unit
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats a duration compactly
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
