// Package layout rearranges a workflow into a readable arrangement.
//
// Agents form a single row at y=0. The nodes feeding an agent form a row
// centred above it and the nodes it feeds form a row centred below it.
// Agents sit at least AgentSpacing apart, further when their rows would
// otherwise overlap. A
// node claimed by an earlier agent stays where that agent put it. Everything
// else is packed into a square grid under the agent rows. Only direct
// neighbours are considered, so cycles need no special handling.
package layout

import (
	"math"
	"slices"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/geometry"
	"github.com/smallnest/agentflow/graph"
)

// Default spacings in canvas units.
const (
	DefaultAgentSpacing  = 600.0
	DefaultColumnSpacing = 250.0
	DefaultRowSpacing    = 200.0
)

// Options tunes the layout. Zero values fall back to the defaults.
type Options struct {
	// AgentSpacing is the minimum horizontal distance between agents. It
	// widens when the rows of two neighbouring agents would overlap.
	AgentSpacing float64
	// ColumnSpacing separates nodes within an input, output or grid row.
	ColumnSpacing float64
	// RowSpacing separates the agent row from its input and output rows, and the grid rows.
	RowSpacing float64
	// AgentKind is the kind laid out in the central row. Defaults to catalog.KindAgent.
	AgentKind string
}

func (o Options) withDefaults() Options {
	if o.AgentSpacing <= 0 {
		o.AgentSpacing = DefaultAgentSpacing
	}
	if o.ColumnSpacing <= 0 {
		o.ColumnSpacing = DefaultColumnSpacing
	}
	if o.RowSpacing <= 0 {
		o.RowSpacing = DefaultRowSpacing
	}
	if o.AgentKind == "" {
		o.AgentKind = catalog.KindAgent
	}
	return o
}

// Compute returns the new position of every node. It does not modify w.
func Compute(w *graph.Workflow, opts Options) map[string]geometry.Point {
	opts = opts.withDefaults()

	nodes := w.Nodes()
	conns := w.Connections()
	kind := make(map[string]string, len(nodes))
	for _, n := range nodes {
		kind[n.ID] = n.Kind
	}

	pos := make(map[string]geometry.Point, len(nodes))

	x, prevHalf := 0.0, 0.0
	first := true
	for _, n := range nodes {
		if n.Kind != opts.AgentKind {
			continue
		}

		var inputs, outputs []string
		for _, c := range conns {
			switch {
			case c.Target.NodeID == n.ID && kind[c.Source.NodeID] != opts.AgentKind:
				inputs = appendUnplaced(inputs, c.Source.NodeID, pos)
			case c.Source.NodeID == n.ID && kind[c.Target.NodeID] != opts.AgentKind:
				outputs = appendUnplaced(outputs, c.Target.NodeID, pos)
			}
		}
		// a node both feeding and fed by the agent is placed once, as an input
		outputs = slices.DeleteFunc(outputs, func(id string) bool { return slices.Contains(inputs, id) })

		// neighbouring rows keep at least one column of clearance
		half := float64(max(len(inputs), len(outputs), 1)-1) * opts.ColumnSpacing / 2
		if !first {
			x += max(opts.AgentSpacing, prevHalf+half+opts.ColumnSpacing)
		}
		first, prevHalf = false, half

		agent := geometry.Pt(x, 0)
		pos[n.ID] = agent
		placeRow(pos, inputs, agent.X, agent.Y-opts.RowSpacing, opts.ColumnSpacing)
		placeRow(pos, outputs, agent.X, agent.Y+opts.RowSpacing, opts.ColumnSpacing)
	}

	var rest []string
	maxY := math.Inf(-1)
	for _, n := range nodes {
		if p, ok := pos[n.ID]; ok {
			maxY = math.Max(maxY, p.Y)
			continue
		}
		rest = append(rest, n.ID)
	}
	if len(rest) == 0 {
		return pos
	}

	startY := 0.0
	if !math.IsInf(maxY, -1) {
		startY = maxY + opts.RowSpacing
	}
	cols := int(math.Ceil(math.Sqrt(float64(len(rest)))))
	for i, id := range rest {
		pos[id] = geometry.Pt(float64(i%cols)*opts.ColumnSpacing, startY+float64(i/cols)*opts.RowSpacing)
	}
	return pos
}

// Apply computes the layout and moves every node. It returns the number of nodes moved.
func Apply(w *graph.Workflow, opts Options) int {
	pos := Compute(w, opts)
	moved := w.ApplyPositions(pos)
	w.Logger().Debug("layout moved %d node(s)", moved)
	return moved
}

// placeRow centres ids on centerX at height y.
func placeRow(pos map[string]geometry.Point, ids []string, centerX, y, spacing float64) {
	start := centerX - float64(len(ids)-1)*spacing/2
	for i, id := range ids {
		pos[id] = geometry.Pt(start+float64(i)*spacing, y)
	}
}

func appendUnplaced(ids []string, id string, pos map[string]geometry.Point) []string {
	if _, placed := pos[id]; placed {
		return ids
	}
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
