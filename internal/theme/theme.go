package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/prodtask/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the top header bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps bordered content such as help and the command palette.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TitleStyle is used for view titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HintStyle is used for inline keyboard hints.
var HintStyle = lipgloss.NewStyle().Foreground(ColorGray)

// MutedStyle renders secondary text.
var MutedStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)

// DimmedStyle is applied to completed tasks and read notifications.
var DimmedStyle = lipgloss.NewStyle().Foreground(ColorGray).Faint(true)

// OverdueStyle flags open tasks past their due date.
var OverdueStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)

// DueDateStyle renders due dates in list rows.
var DueDateStyle = lipgloss.NewStyle().Foreground(ColorYellow)

// UnreadStyle marks unread notifications.
var UnreadStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorBlue)

// ToastStyle and ToastErrorStyle render the transient message line.
var (
	ToastStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Dark: "#1A202C", Light: "#F8F9FA"}).
			Background(ColorGreen).
			Padding(0, 1)

	ToastErrorStyle = ToastStyle.Background(ColorRed)
)

// StatCardStyle frames a dashboard counter.
var StatCardStyle = lipgloss.NewStyle().
	Padding(0, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// StatusStyle returns a color-coded style for a task status.
func StatusStyle(s model.TaskStatus) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch s {
	case model.StatusPending:
		return base.Foreground(ColorGray)
	case model.StatusInProgress:
		return base.Foreground(ColorBlue)
	case model.StatusCompleted:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// PriorityStyle returns a color-coded style for a task priority.
func PriorityStyle(p model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch p {
	case model.PriorityHigh:
		return base.Foreground(ColorRed)
	case model.PriorityMedium:
		return base.Foreground(ColorOrange)
	case model.PriorityLow:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// RoleStyle returns a badge style for a user role.
func RoleStyle(r model.Role) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if r == model.RoleAdmin {
		return base.Foreground(ColorMagenta)
	}
	return base.Foreground(ColorBlue)
}

// StatusLabel returns the display label for a task status.
func StatusLabel(s model.TaskStatus) string {
	switch s {
	case model.StatusPending:
		return "待处理"
	case model.StatusInProgress:
		return "进行中"
	case model.StatusCompleted:
		return "已完成"
	default:
		return string(s)
	}
}

// PriorityLabel returns the display label for a task priority.
func PriorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "高优先级"
	case model.PriorityMedium:
		return "中优先级"
	case model.PriorityLow:
		return "低优先级"
	default:
		return string(p)
	}
}
