package main

import (
	"io"
	"os"

	"github.com/hokaccha/go-prettyjson"
	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// marshalJSON pretty prints v, colored only on a terminal.
func marshalJSON(w io.Writer, v any) ([]byte, error) {
	formatter := prettyjson.NewFormatter()
	formatter.DisabledColor = !isTerminal(w)

	return formatter.Marshal(v)
}
