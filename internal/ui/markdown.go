package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders markdown and rebuilds the glamour renderer when
// the wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	if width < 24 {
		width = 24
	}

	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = width
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(rendered, "\n")
}

var keyGroupNames = []string{"Navigation", "Tasks", "Delete", "Filter", "General"}

// keyReference writes the full key map as markdown tables, one per group.
func keyReference(km KeyMap) string {
	var b strings.Builder
	for i, group := range km.FullHelp() {
		name := "More"
		if i < len(keyGroupNames) {
			name = keyGroupNames[i]
		}
		fmt.Fprintf(&b, "### %s\n\n| Key | Action |\n|---|---|\n", name)
		for _, binding := range group {
			if !binding.Enabled() {
				continue
			}
			fmt.Fprintf(&b, "| %s | %s |\n", markdownCell(binding), binding.Help().Desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func markdownCell(b key.Binding) string {
	k := b.Help().Key
	if k == "" {
		k = strings.Join(b.Keys(), "/")
	}
	return "`" + strings.ReplaceAll(k, "|", "\\|") + "`"
}
