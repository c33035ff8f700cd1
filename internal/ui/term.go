package ui

import (
	"io"
	"os"

	"golang.org/x/term"
)

type fdProvider interface {
	Fd() uintptr
}

// IsTerminalReader reports whether the reader is backed by a TTY.
func IsTerminalReader(r io.Reader) bool {
	if v, ok := r.(fdProvider); ok {
		return term.IsTerminal(int(v.Fd()))
	}
	return false
}

// IsTerminalWriter reports whether the writer is backed by a TTY.
func IsTerminalWriter(w io.Writer) bool {
	if v, ok := w.(fdProvider); ok {
		return term.IsTerminal(int(v.Fd()))
	}
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
