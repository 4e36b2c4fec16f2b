package genchat

// Theme maps the terminal renderer's semantic roles to ANSI color indices
// (0-15). The user's terminal palette supplies the actual colors, so rendered
// output follows any color scheme.
type Theme struct {
	Accent int // headings, links
	Muted  int // code gutters, link targets, language labels
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Accent: 5,
		Muted:  8,
	}
}
