package dashboard

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/prodtask/internal/model"
	"github.com/nhle/prodtask/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task     model.Task
	Assignee string
	Overdue  bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// ItemDelegate renders one task per line.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	task := ti.Task

	prefix := "○"
	if task.IsCompleted() {
		prefix = "✓"
	}

	statusBadge := theme.StatusStyle(task.Status).Render(theme.StatusLabel(task.Status))
	priBadge := theme.PriorityStyle(task.Priority).Render(theme.PriorityLabel(task.Priority))
	due := theme.DueDateStyle.Render(" " + task.DueDate)

	overdue := ""
	if ti.Overdue {
		overdue = theme.OverdueStyle.Render(" 已逾期")
	}

	assignee := ""
	if ti.Assignee != "" {
		assignee = theme.HintStyle.Render(" @" + ti.Assignee)
	}

	feedback := ""
	if n := len(task.Feedback); n > 0 {
		feedback = theme.HintStyle.Render(fmt.Sprintf(" 💬%d", n))
	}

	line := fmt.Sprintf("%s %s %s %s%s%s%s%s",
		prefix, statusBadge, priBadge, task.Title, assignee, due, overdue, feedback)

	if task.IsCompleted() {
		line = theme.DimmedStyle.Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
