package theme

import "github.com/charmbracelet/lipgloss"

// Nord theme - Arctic, north-bluish color palette
// https://www.nordtheme.com/
var Nord = Theme{
	Name: "nord",

	Foreground: lipgloss.Color("#ECEFF4"),
	Subtle:     lipgloss.Color("#4C566A"),
	Border:     lipgloss.Color("#4C566A"),
	Primary:    lipgloss.Color("#88C0D0"),

	TierDone:    lipgloss.Color("#A3BE8C"), // Nord14
	TierHigh:    lipgloss.Color("#5E81AC"), // Nord10
	TierHalf:    lipgloss.Color("#EBCB8B"), // Nord13
	TierStarted: lipgloss.Color("#D08770"), // Nord12
	TierLow:     lipgloss.Color("#BF616A"), // Nord11

	StatusPending:    lipgloss.Color("#EBCB8B"),
	StatusInProgress: lipgloss.Color("#88C0D0"),
	StatusCompleted:  lipgloss.Color("#A3BE8C"),
}

// Blurple uses the chat platform's brand palette, matching the colors the
// bot's embeds use.
var Blurple = Theme{
	Name: "blurple",

	Foreground: lipgloss.Color("#FFFFFF"),
	Subtle:     lipgloss.Color("#99AAB5"),
	Border:     lipgloss.Color("#5865F2"),
	Primary:    lipgloss.Color("#5865F2"),

	TierDone:    lipgloss.Color("#57F287"),
	TierHigh:    lipgloss.Color("#5865F2"),
	TierHalf:    lipgloss.Color("#FEE75C"),
	TierStarted: lipgloss.Color("#FF8C00"),
	TierLow:     lipgloss.Color("#ED4245"),

	StatusPending:    lipgloss.Color("#FEE75C"),
	StatusInProgress: lipgloss.Color("#5865F2"),
	StatusCompleted:  lipgloss.Color("#57F287"),
}
