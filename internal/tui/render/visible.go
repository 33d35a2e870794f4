// Package render has ANSI-aware width helpers for hand-built lines.
package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// VisibleWidth returns the terminal cell width of a string, skipping
// ANSI escape sequences. Wide runes count as two cells.
func VisibleWidth(value string) int {
	width := 0
	inEscape := false

	for _, r := range value {
		if r == '\x1b' {
			inEscape = true
			continue
		}

		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}

			continue
		}

		width += runewidth.RuneWidth(r)
	}

	return width
}

// PadRight appends spaces until the string reaches width visible cells.
func PadRight(value string, width int) string {
	padding := width - VisibleWidth(value)
	if padding <= 0 {
		return value
	}

	return value + strings.Repeat(" ", padding)
}

// Truncate cuts a plain string to at most width cells. Styled strings
// must be truncated before styling; escape bytes would be counted.
func Truncate(value string, width int) string {
	return runewidth.Truncate(value, width, "")
}
