// Package ui styles snapvault's terminal output. Unlike the scaffold it is
// descended from, there is no event loop here: every call writes a single
// line directly to the given writer.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	copyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// Copying prints the "Copying <path>..." progress line emitted for each
// upload during a backup.
func Copying(w io.Writer, path string) {
	fmt.Fprintf(w, "%s\n", copyStyle.Render(fmt.Sprintf("Copying %s...", path)))
}

// Success prints a green confirmation line.
func Success(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s\n", successStyle.Render(msg))
}

// Warning prints a warning line (e.g. an unrecognized config key).
func Warning(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s\n", warnStyle.Render("warning: "+msg))
}

// Error prints a failure line.
func Error(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s\n", failStyle.Render(msg))
}

// Info prints a dim informational line to the error channel.
func Info(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s\n", dimStyle.Render(msg))
}

// Path prints a single backed-up path for `list` output. Deliberately
// unstyled: this is the one output stream meant to be piped to other tools.
func Path(w io.Writer, path string) {
	fmt.Fprintf(w, "%s\n", path)
}
