package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/adriangreen/taskboard/internal/config"
)

// KeyMap defines the keybindings for the TUI
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	// Task operations
	Add             key.Binding
	Submit          key.Binding
	Toggle          key.Binding
	Edit            key.Binding
	Delete          key.Binding
	DeleteCompleted key.Binding
	DeleteAll       key.Binding
	Copy            key.Binding
	Refresh         key.Binding

	// Filtering
	Filter          key.Binding
	FilterAll       key.Binding
	FilterCompleted key.Binding
	FilterActive    key.Binding
	Search          key.Binding

	// Dialogs
	Confirm key.Binding
	Cancel  key.Binding

	// Help and quit
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last"),
		),

		Add: key.NewBinding(
			key.WithKeys("a", "n"),
			key.WithHelp("a/n", "add task"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space/x", "toggle done"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit title"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		DeleteCompleted: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "delete completed"),
		),
		DeleteAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "delete all"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy title"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),

		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle filter"),
		),
		FilterAll: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "show all"),
		),
		FilterCompleted: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "show completed"),
		),
		FilterActive: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "show active"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y/enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "n"),
			key.WithHelp("esc/n", "cancel"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// NewKeyMap creates a KeyMap from configuration, falling back to defaults
// for missing keys. A configured value may list several keys separated by
// commas.
func NewKeyMap(cfg *config.Config) KeyMap {
	km := DefaultKeyMap()
	if cfg == nil || len(cfg.KeyBindings) == 0 {
		return km
	}

	overrides := map[string]*key.Binding{
		"up":              &km.Up,
		"down":            &km.Down,
		"add":             &km.Add,
		"submit":          &km.Submit,
		"toggle":          &km.Toggle,
		"edit":            &km.Edit,
		"delete":          &km.Delete,
		"deleteCompleted": &km.DeleteCompleted,
		"deleteAll":       &km.DeleteAll,
		"copy":            &km.Copy,
		"refresh":         &km.Refresh,
		"filter":          &km.Filter,
		"filterAll":       &km.FilterAll,
		"filterCompleted": &km.FilterCompleted,
		"filterActive":    &km.FilterActive,
		"search":          &km.Search,
		"help":            &km.Help,
		"quit":            &km.Quit,
	}

	for name, binding := range overrides {
		keys := splitKeys(cfg.KeyBindings[name])
		if len(keys) == 0 {
			continue
		}
		*binding = key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(keys, "/"), binding.Help().Desc),
		)
	}

	// ctrl+c always quits
	if !containsKey(km.Quit.Keys(), "ctrl+c") {
		km.Quit.SetKeys(append(km.Quit.Keys(), "ctrl+c")...)
	}

	return km
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k == " " || k == "space" {
			keys = append(keys, " ")
			continue
		}
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func containsKey(keys []string, k string) bool {
	for _, existing := range keys {
		if existing == k {
			return true
		}
	}
	return false
}

// ShortHelp returns a short help text for the status bar
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Edit, k.Delete, k.Filter, k.Search, k.Help, k.Quit}
}

// FullHelp returns the full help text
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Add, k.Toggle, k.Edit, k.Copy, k.Refresh},
		{k.Delete, k.DeleteCompleted, k.DeleteAll},
		{k.Filter, k.FilterAll, k.FilterCompleted, k.FilterActive, k.Search},
		{k.Help, k.Quit},
	}
}

// dialogKeys is the help shown under a confirmation dialog.
type dialogKeys struct {
	confirm key.Binding
	cancel  key.Binding
}

func (d dialogKeys) ShortHelp() []key.Binding  { return []key.Binding{d.confirm, d.cancel} }
func (d dialogKeys) FullHelp() [][]key.Binding { return [][]key.Binding{d.ShortHelp()} }
