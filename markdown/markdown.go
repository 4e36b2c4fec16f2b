// Package markdown renders assistant replies as ANSI-styled terminal output.
// Parsing is done with goldmark, styling with lipgloss. Used by the terminal
// runner's buffered rendering mode.
package markdown

import "github.com/fwojciec/genchat"

// Render parses markdown source and returns ANSI-styled terminal output
// word-wrapped to width. Code blocks keep their original line breaks.
func Render(source string, width int, theme genchat.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}
