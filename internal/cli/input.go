package cli

import (
	"io"
	"os"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// isInteractive reports whether in is a terminal. Prompts and the banner
// are only printed then, so piped scripts produce clean output.
func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isTerminal(int(f.Fd()))
}
