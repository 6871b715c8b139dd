package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/satchel-kb/satchel/internal/entry"
	"github.com/satchel-kb/satchel/internal/query"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	focusedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	previewStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("203")).
			Padding(0, 1)
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("satchel · "+m.opts.Workspace) + "\n")

	// Last-known-good data stays on screen through a failed refetch.
	res := m.sub.Result()
	switch {
	case len(m.rendered) > 0:
		m.renderRows(&b)
	case res.Loading():
		b.WriteString(m.spin.View() + " loading entries\n")
	case res.Err != nil:
		b.WriteString(errorStyle.Render(res.Err.Error()) + "\n")
	default:
		b.WriteString(dimStyle.Render("no entries match") + "\n")
	}

	if p, ok := m.opts.Controller.Preview(); ok {
		b.WriteString(m.renderPreview(p) + "\n")
	}
	if m.confirmDelete {
		prompt := fmt.Sprintf("Delete %d entrie(s)? enter to confirm · esc to cancel",
			m.opts.Controller.SelectionCount())
		b.WriteString(dialogStyle.Render(prompt) + "\n")
	}
	b.WriteString(m.statusLine())
	return b.String()
}

func (m *Model) renderRows(b *strings.Builder) {
	for _, row := range m.window.Visible(m.offset, m.viewHeight()) {
		e := m.rendered[row.Index]

		cursor := "  "
		if row.Index == m.focused {
			cursor = "› "
		}
		mark := "[ ] "
		if m.opts.Controller.IsSelected(e.ID) {
			mark = selectedStyle.Render("[x] ")
		}

		line := cursor + mark + e.Name
		if row.Index == m.focused {
			line = focusedStyle.Render(line)
		}
		meta := fmt.Sprintf("  %s · %s", entry.TypeLabels[e.Type], e.Collection.Name)
		b.WriteString(line + dimStyle.Render(meta) + "\n")
	}

	if res := m.sub.Result(); res.Stale || (res.Status == query.StatusPending && res.Data != nil) {
		b.WriteString(dimStyle.Render(m.spin.View()+" refreshing") + "\n")
	}
}

func (m *Model) renderPreview(e entry.Entry) string {
	lines := []string{
		focusedStyle.Render(e.Name),
		fmt.Sprintf("%s · %s · %s", entry.TypeLabels[e.Type], entry.StatusLabels[e.Status], e.Collection.Name),
	}
	if !e.CreatedAt.IsZero() {
		lines = append(lines, dimStyle.Render("added "+e.CreatedAt.Format("2006-01-02 15:04")))
	}
	if e.TextContent != "" {
		excerpt := e.TextContent
		if len(excerpt) > 240 {
			excerpt = excerpt[:240] + "…"
		}
		lines = append(lines, "", excerpt)
	}
	return previewStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) statusLine() string {
	if m.opts.Notifier == nil {
		return ""
	}
	last, ok := m.opts.Notifier.Last()
	if !ok {
		return dimStyle.Render("j/k move · x select · space preview · d delete · y copy links · q quit")
	}
	switch last.Level {
	case "error":
		return errorStyle.Render(last.Text)
	case "progress":
		return dimStyle.Render(last.Text)
	default:
		return selectedStyle.Render(last.Text)
	}
}
