package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/prodtask/internal/theme"
)

// Layout manages the terminal frame: header, content, toast line, status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	ToastHeight     int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		ToastHeight:     1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left for the active view.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.ToastHeight-l.StatusBarHeight, 0)
}

// RenderHeader renders the top bar with a title on the left and the
// session summary on the right.
func (l Layout) RenderHeader(title, right string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	rightRendered := theme.HeaderStyle.Align(lipgloss.Right).Render(right)

	gap := max(l.Width-lipgloss.Width(titleRendered)-lipgloss.Width(rightRendered), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.HeaderStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, titleRendered, filler, rightRendered)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := max(l.Width-lipgloss.Width(rendered), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.StatusBarStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame stacks the header, the content clipped to its height,
// the toast line and the status bar.
func (l Layout) RenderWithFrame(header, content, toast, statusBar string) string {
	body := lipgloss.NewStyle().
		Width(l.ContentWidth()).
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	toastLine := lipgloss.PlaceHorizontal(l.Width, lipgloss.Center, toast)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, toastLine, statusBar)
}
