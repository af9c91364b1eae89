package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// lineBreaks flattens whitespace that would split a table row
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// Sanitize makes a server-supplied value safe to print on one line: escape
// sequences are dropped, so a field cannot move the cursor or recolor the
// screen, and line breaks become spaces.
func Sanitize(s string) string {
	return lineBreaks.Replace(ansi.Strip(s))
}

// fit pads or truncates s to exactly width columns. Truncated text ends in
// tail. Styled text keeps its escape sequences.
func fit(s string, width int, tail string) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, tail)
	}
	// wide characters may leave the cut one column short
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// fitLine sizes a rendered line to the panel, cutting without a marker
func fitLine(s string, width int) string {
	return fit(s, width, "")
}

// fitCell sizes a cell to its column, marking cut values with an ellipsis
func fitCell(s string, width int) string {
	return fit(s, width, "…")
}
