// Package view renders container snapshots for the terminal using the
// active palette.
package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todo-keeper/internal/state"
	"todo-keeper/internal/theme"
)

type styles struct {
	title lipgloss.Style
	text  lipgloss.Style
	muted lipgloss.Style
	done  lipgloss.Style
	check lipgloss.Style
	empty lipgloss.Style
}

func newStyles(p theme.Palette) styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Primary)),
		text:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.Text)),
		muted: lipgloss.NewStyle().Foreground(lipgloss.Color(p.SecondaryText)),
		done:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.SecondaryText)).Strikethrough(true),
		check: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Success)),
		empty: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color(p.SecondaryText)),
	}
}

// Tasks lists tasks with their 1-based position, which the CLI and bot accept
// as a task reference. Completed tasks are hidden unless showCompleted is set.
func Tasks(snap state.Snapshot, showCompleted bool) string {
	st := newStyles(snap.Palette)
	var b strings.Builder
	b.WriteString(st.title.Render("Tasks"))
	b.WriteByte('\n')

	shown := 0
	for i, task := range snap.Tasks {
		if task.Completed && !showCompleted {
			continue
		}
		shown++

		box, text := "[ ]", st.text.Render(task.Text)
		if task.Completed {
			box, text = st.check.Render("[x]"), st.done.Render(task.Text)
		}
		b.WriteString(fmt.Sprintf("%3d. %s %s", i+1, box, text))
		if cat, ok := snap.CategoryOf(task); ok {
			dot := lipgloss.NewStyle().Foreground(lipgloss.Color(cat.Color)).Render("●")
			b.WriteString("  " + dot + " " + st.muted.Render(cat.Name))
		}
		b.WriteByte('\n')
		if notes := strings.TrimSpace(task.Notes); notes != "" {
			b.WriteString("       " + st.muted.Render(notes) + "\n")
		}
	}
	if shown == 0 {
		b.WriteString(st.empty.Render("No tasks yet. Add one!") + "\n")
	}
	return b.String()
}

// Categories lists categories with a colour swatch and their task counts.
func Categories(snap state.Snapshot) string {
	st := newStyles(snap.Palette)
	counts := make(map[string]int)
	for _, task := range snap.Tasks {
		if cat, ok := snap.CategoryOf(task); ok {
			counts[cat.ID]++
		}
	}

	var b strings.Builder
	b.WriteString(st.title.Render("Categories"))
	b.WriteByte('\n')
	for i, cat := range snap.Categories {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(cat.Color)).Render("■")
		b.WriteString(fmt.Sprintf("%3d. %s %s %s\n", i+1, swatch, st.text.Render(cat.Name),
			st.muted.Render(fmt.Sprintf("%s · %d tasks", cat.Color, counts[cat.ID]))))
	}
	if len(snap.Categories) == 0 {
		b.WriteString(st.empty.Render("No categories.") + "\n")
	}
	return b.String()
}

// Theme describes the active theme and its palette.
func Theme(snap state.Snapshot) string {
	st := newStyles(snap.Palette)
	mode := "light"
	if snap.DarkMode {
		mode = "dark"
	}
	p := snap.Palette
	roles := []struct{ name, value string }{
		{"background", p.Background}, {"card", p.Card}, {"text", p.Text},
		{"secondary", p.SecondaryText}, {"primary", p.Primary}, {"border", p.Border},
		{"danger", p.Danger}, {"success", p.Success}, {"warning", p.Warning},
	}
	var b strings.Builder
	b.WriteString(st.title.Render("Theme: "+mode) + "\n")
	for _, r := range roles {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(r.value)).Render("■")
		b.WriteString(fmt.Sprintf("  %s %-10s %s\n", swatch, r.name, st.muted.Render(r.value)))
	}
	return b.String()
}
