// Package terminal provides terminal detection utilities.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether stdin and stdout are both interactive terminals.
func IsInteractive() bool {
	return IsTerminalFile(os.Stdin) && IsTerminalFile(os.Stdout)
}

// IsTerminalFile reports whether f is attached to a terminal.
func IsTerminalFile(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
