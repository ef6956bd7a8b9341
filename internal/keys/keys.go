package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Views
	NewTask       key.Binding
	Team          key.Binding
	Notifications key.Binding
	Logout        key.Binding

	// Task actions
	Complete   key.Binding
	Pending    key.Binding
	InProgress key.Binding
	Done       key.Binding
	Feedback   key.Binding
	Delete     key.Binding

	// Team actions
	AddEmployee    key.Binding
	RevealPassword key.Binding

	// Task form
	Refine key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		NewTask: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task (admin)"),
		),
		Team: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "team (admin)"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "notifications"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Complete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "complete task"),
		),
		Pending: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "mark pending"),
		),
		InProgress: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "mark in progress"),
		),
		Done: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "mark completed"),
		),
		Feedback: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "add feedback"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		AddEmployee: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add employee"),
		),
		RevealPassword: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "show password"),
		),
		Refine: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refine with AI"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Command,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Command, k.Help, k.NewTask, k.Team, k.Notifications, k.Logout},
		{k.Complete, k.Pending, k.InProgress, k.Done, k.Feedback, k.Delete},
		{k.AddEmployee, k.RevealPassword, k.Refine},
	}
}
