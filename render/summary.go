package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/graph"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3b82f6"))
	headStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748b"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Summary renders a boxed terminal overview of a workflow: its nodes grouped
// by kind with their positions, and its connections.
func Summary(w *graph.Workflow) string {
	reg := w.Registry()

	var sections []string
	sections = append(sections, titleStyle.Render(w.Name())+" "+mutedStyle.Render("("+w.ID()+")"))
	sections = append(sections, fmt.Sprintf("%d nodes, %d connections", w.NodeCount(), w.ConnectionCount()))

	if w.NodeCount() > 0 {
		sections = append(sections, headStyle.Render("Nodes"))
		sections = append(sections, nodeLines(w, reg)...)
	}

	if w.ConnectionCount() > 0 {
		sections = append(sections, headStyle.Render("Connections"))
		for _, c := range w.Connections() {
			line := fmt.Sprintf("%s.%s → %s.%s", c.Source.NodeID, c.Source.Port, c.Target.NodeID, c.Target.Port)
			if c.Label != "" {
				line += " " + mutedStyle.Render(fmt.Sprintf("%q", c.Label))
			}
			sections = append(sections, "  "+line)
		}
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func nodeLines(w *graph.Workflow, reg *catalog.Registry) []string {
	byKind := make(map[string][]graph.Node)
	var kinds []string
	for _, n := range w.Nodes() {
		if _, ok := byKind[n.Kind]; !ok {
			kinds = append(kinds, n.Kind)
		}
		byKind[n.Kind] = append(byKind[n.Kind], n)
	}

	// palette order first, unknown kinds after in name order
	order := make(map[string]int, len(kinds))
	for i, k := range reg.Kinds() {
		order[k] = i
	}
	sort.SliceStable(kinds, func(i, j int) bool {
		oi, iok := order[kinds[i]]
		oj, jok := order[kinds[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return kinds[i] < kinds[j]
		}
	})

	var lines []string
	for _, kind := range kinds {
		style := lipgloss.NewStyle().Bold(true)
		if nt, ok := reg.Get(kind); ok && nt.Color != "" {
			style = style.Foreground(lipgloss.Color(nt.Color))
		}
		lines = append(lines, "  "+style.Render(kind))
		for _, n := range byKind[kind] {
			lines = append(lines, fmt.Sprintf("    %-12s %-24s %s", n.ID, truncate(n.Label, 24),
				mutedStyle.Render(fmt.Sprintf("(%g, %g)", n.Position.X, n.Position.Y))))
		}
	}
	return lines
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max-1])) + "…"
}
