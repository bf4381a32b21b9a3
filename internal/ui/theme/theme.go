package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors used by CLI reports
type Theme struct {
	Name string

	// Base colors
	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Border     lipgloss.Color
	Primary    lipgloss.Color

	// Progress tiers, from finished down to barely started
	TierDone    lipgloss.Color
	TierHigh    lipgloss.Color
	TierHalf    lipgloss.Color
	TierStarted lipgloss.Color
	TierLow     lipgloss.Color

	// Author status colors
	StatusPending    lipgloss.Color
	StatusInProgress lipgloss.Color
	StatusCompleted  lipgloss.Color
}

// Styles holds pre-computed lipgloss styles based on theme
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Panel    lipgloss.Style
	Error    lipgloss.Style
	Notice   lipgloss.Style
}

// NewStyles creates styles from a theme
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Italic(true),

		Label: lipgloss.NewStyle().
			Foreground(t.Subtle),

		Value: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Bold(true),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		Error: lipgloss.NewStyle().
			Foreground(t.TierLow).
			Bold(true),

		Notice: lipgloss.NewStyle().
			Foreground(t.TierHalf),
	}
}

// Tier returns the color for a completion percentage
func (t Theme) Tier(percentage int) lipgloss.Color {
	switch {
	case percentage >= 100:
		return t.TierDone
	case percentage >= 75:
		return t.TierHigh
	case percentage >= 50:
		return t.TierHalf
	case percentage >= 25:
		return t.TierStarted
	default:
		return t.TierLow
	}
}

// Available returns all available themes
func Available() []Theme {
	return []Theme{
		Blurple,
		Nord,
	}
}

// ByName returns a theme by its name
func ByName(name string) (Theme, bool) {
	for _, t := range Available() {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}
