package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Exporter renders a workflow as text diagrams.
type Exporter struct {
	workflow *Workflow
}

// NewExporter creates an exporter for the given workflow.
func NewExporter(w *Workflow) *Exporter {
	return &Exporter{workflow: w}
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// DrawMermaid generates a left-to-right Mermaid flowchart.
func (e *Exporter) DrawMermaid() string {
	return e.DrawMermaidWithOptions(MermaidOptions{Direction: "LR"})
}

// DrawMermaidWithOptions generates a Mermaid flowchart with custom options.
// Nodes are emitted sorted by id; connections keep their insertion order.
func (e *Exporter) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "LR"
	}
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	nodes := e.sortedNodes()
	for _, n := range nodes {
		fmt.Fprintf(&sb, "    %s[\"%s<br/><small>%s</small>\"]\n", mermaidID(n.ID), mermaidText(n.Label), n.Kind)
	}

	for _, c := range e.workflow.Connections() {
		label := c.Label
		if label == "" {
			label = DefaultLabel(c.Source.Port, c.Target.Port)
		}
		fmt.Fprintf(&sb, "    %s -->|\"%s\"| %s\n", mermaidID(c.Source.NodeID), mermaidText(label), mermaidID(c.Target.NodeID))
	}

	for _, n := range nodes {
		if nt, ok := e.workflow.registry.Get(n.Kind); ok && nt.Color != "" {
			fmt.Fprintf(&sb, "    style %s fill:%s,color:#fff\n", mermaidID(n.ID), nt.Color)
		}
	}

	return sb.String()
}

// DrawDOT generates a DOT (Graphviz) representation of the workflow.
func (e *Exporter) DrawDOT() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "digraph %q {\n", e.workflow.Name())
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box, style=\"rounded,filled\", fontcolor=white];\n")

	for _, n := range e.sortedNodes() {
		color := "gray"
		if nt, ok := e.workflow.registry.Get(n.Kind); ok && nt.Color != "" {
			color = nt.Color
		}
		fmt.Fprintf(&sb, "    %q [label=%q, fillcolor=%q];\n", n.ID, n.Label+"\n("+n.Kind+")", color)
	}

	for _, c := range e.workflow.Connections() {
		fmt.Fprintf(&sb, "    %q -> %q [label=%q, taillabel=%q, headlabel=%q];\n",
			c.Source.NodeID, c.Target.NodeID, c.Label, c.Source.Port, c.Target.Port)
	}

	sb.WriteString("}\n")
	return sb.String()
}

// DrawASCII generates an ASCII tree of the data flow, starting from every
// node without incoming connections.
func (e *Exporter) DrawASCII() string {
	nodes := e.sortedNodes()
	if len(nodes) == 0 {
		return "Empty workflow\n"
	}

	hasIncoming := make(map[string]bool)
	for _, c := range e.workflow.Connections() {
		hasIncoming[c.Target.NodeID] = true
	}
	var roots []Node
	for _, n := range nodes {
		if !hasIncoming[n.ID] {
			roots = append(roots, n)
		}
	}
	// every node sits on a cycle; start anywhere
	if len(roots) == 0 {
		roots = nodes[:1]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", e.workflow.Name())
	visited := make(map[string]bool)
	for i, root := range roots {
		e.drawASCIINode(root.ID, "", "", i == len(roots)-1, visited, &sb)
	}
	return sb.String()
}

// drawASCIINode recursively draws ASCII representation of nodes
func (e *Exporter) drawASCIINode(nodeID, via, prefix string, isLast bool, visited map[string]bool, sb *strings.Builder) {
	connector := "├──"
	nextPrefix := prefix + "│   "
	if isLast {
		connector = "└──"
		nextPrefix = prefix + "    "
	}

	n, _ := e.workflow.Node(nodeID)
	line := fmt.Sprintf("%s%s %s (%s)", prefix, connector, n.Label, n.Kind)
	if via != "" {
		line = fmt.Sprintf("%s%s [%s] %s (%s)", prefix, connector, via, n.Label, n.Kind)
	}
	if visited[nodeID] {
		sb.WriteString(line + " (cycle)\n")
		return
	}
	visited[nodeID] = true
	sb.WriteString(line + "\n")

	type edge struct{ via, to string }
	var out []edge
	for _, c := range e.workflow.Connections() {
		if c.Source.NodeID == nodeID {
			out = append(out, edge{via: c.Source.Port + " → " + c.Target.Port, to: c.Target.NodeID})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].to != out[j].to {
			return out[i].to < out[j].to
		}
		return out[i].via < out[j].via
	})

	for i, ed := range out {
		e.drawASCIINode(ed.to, ed.via, nextPrefix, i == len(out)-1, visited, sb)
	}
}

func (e *Exporter) sortedNodes() []Node {
	nodes := e.workflow.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

func mermaidID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

func mermaidText(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
