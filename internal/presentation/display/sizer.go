package display

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	fallbackWidth = 80
	minWidth      = 60
	maxWidth      = 140
)

// TerminalWidth returns the width of stdout clamped to a readable range.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w < minWidth {
		return fallbackWidth
	}
	if w > maxWidth {
		return maxWidth
	}
	return w
}

// PadString pads s to width display cells, truncating when it is wider.
func PadString(s string, width int, leftAlign bool) string {
	w := runewidth.StringWidth(s)
	if w > width {
		return runewidth.Truncate(s, width, "…")
	}
	padding := strings.Repeat(" ", width-w)
	if leftAlign {
		return s + padding
	}
	return padding + s
}
