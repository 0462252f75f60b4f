package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Normal      lipgloss.Style
	Bold        lipgloss.Style
	Selected    lipgloss.Style
	Highlighted lipgloss.Style
	RoundedBox  lipgloss.Style
	BorderedBox lipgloss.Style
	StatusInfo  lipgloss.Style
	StatusError lipgloss.Style
	StatusOK    lipgloss.Style
	Primary     lipgloss.Color
	Muted       lipgloss.Color
	Border      lipgloss.Color
	Foreground  lipgloss.Color
}

// MutedText renders s in the muted color.
func (t Theme) MutedText(s string) string {
	return lipgloss.NewStyle().Foreground(t.Muted).Render(s)
}

func build(primary, foreground, subtle, border, muted, info, ok, bad string) Theme {
	return Theme{
		Primary:    lipgloss.Color(primary),
		Foreground: lipgloss.Color(foreground),
		Border:     lipgloss.Color(border),
		Muted:      lipgloss.Color(muted),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(primary)),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(subtle)),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(foreground)),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(foreground)),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(primary)).
			Foreground(lipgloss.Color(foreground)).
			Bold(true),
		Highlighted: lipgloss.NewStyle().
			Background(lipgloss.Color(border)).
			Foreground(lipgloss.Color(foreground)),

		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primary)).
			Padding(1, 2),
		BorderedBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(0, 1),

		StatusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(info)).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(bad)).
			Bold(true),
		StatusOK: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ok)).
			Bold(true),
	}
}

// Default is the default theme, tinted like the conformance scale.
var Default = build("#cb181d", "#fafafa", "#a3a3a3", "#404040", "#737373", "#3b82f6", "#10b981", "#ef4444")

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build("#f38ba8", "#cdd6f4", "#a6adc8", "#45475a", "#6c7086", "#89dceb", "#a6e3a1", "#eba0ac")

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
