package console

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	destructive = lipgloss.Color("#e53935")
	warning     = lipgloss.Color("#FFC107")
	muted       = lipgloss.Color("#6b7685")
)

// Styles holds the console's text styles.
type Styles struct {
	Prompt  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
}

// NewStyles creates styles bound to r, which decides whether colors are
// emitted for its writer.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Prompt: r.NewStyle().
			Foreground(accent).
			Bold(true),
		Success: r.NewStyle().
			Foreground(accent),
		Error: r.NewStyle().
			Foreground(destructive).
			Bold(true),
		Warning: r.NewStyle().
			Foreground(warning),
		Muted: r.NewStyle().
			Foreground(muted),
		Bold: r.NewStyle().
			Bold(true),
	}
}
