package editor

import (
	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/geometry"
	"github.com/smallnest/agentflow/graph"
)

// Scene is a render-ready snapshot of the editor: everything a drawing
// surface needs, in canvas space, plus the viewport to map it to the screen.
type Scene struct {
	WorkflowID  string            `json:"workflowId"`
	Name        string            `json:"name"`
	Viewport    Viewport          `json:"viewport"`
	Mode        Mode              `json:"mode"`
	Selection   Selection         `json:"selection"`
	Hover       Hover             `json:"hover"`
	Nodes       []SceneNode       `json:"nodes"`
	Connections []SceneConnection `json:"connections"`
	Draft       *SceneDraft       `json:"draft,omitempty"`
}

// SceneNode is a node with its display state.
type SceneNode struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Label       string         `json:"label"`
	Color       string         `json:"color"`
	Bounds      geometry.Rect  `json:"bounds"`
	Properties  map[string]any `json:"properties"`
	Ports       []ScenePort    `json:"ports"`
	Selected    bool           `json:"selected"`
	Hovered     bool           `json:"hovered"`
	MemoryBound bool           `json:"memoryBound,omitempty"`
}

// ScenePort is a port with its anchor and highlighting flags.
type ScenePort struct {
	Name      string            `json:"name"`
	Direction catalog.Direction `json:"direction"`
	Anchor    geometry.Point    `json:"anchor"`
	Occupied  bool              `json:"occupied"`
	Eligible  bool              `json:"eligible"`
	Hovered   bool              `json:"hovered"`
}

// SceneConnection is a routed connection.
type SceneConnection struct {
	ID       string         `json:"id"`
	Source   graph.PortRef  `json:"source"`
	Target   graph.PortRef  `json:"target"`
	Label    string         `json:"label"`
	Path     string         `json:"path"`
	LabelAt  geometry.Point `json:"labelAt"`
	Selected bool           `json:"selected"`
	Hovered  bool           `json:"hovered"`
}

// SceneDraft is the connection being drawn.
type SceneDraft struct {
	Source graph.PortRef  `json:"source"`
	From   geometry.Point `json:"from"`
	To     geometry.Point `json:"to"`
	Path   string         `json:"path"`
}

// Scene builds the current snapshot.
func (e *Editor) Scene() Scene {
	w := e.workflow
	reg := w.Registry()
	draft, drafting := e.state.(Drafting)

	s := Scene{
		WorkflowID:  w.ID(),
		Name:        w.Name(),
		Viewport:    e.viewport,
		Mode:        e.state.Mode(),
		Selection:   e.selection,
		Hover:       e.hover,
		Nodes:       make([]SceneNode, 0, w.NodeCount()),
		Connections: make([]SceneConnection, 0, w.ConnectionCount()),
	}

	for _, n := range w.Nodes() {
		sn := SceneNode{
			ID:         n.ID,
			Kind:       n.Kind,
			Label:      n.Label,
			Bounds:     n.Bounds(),
			Properties: n.Properties,
			Selected:   e.selection.NodeID == n.ID,
			Hovered:    e.hover.NodeID == n.ID,
		}
		if nt, ok := reg.Get(n.Kind); ok {
			sn.Color = nt.Color
		}
		if n.Kind == catalog.KindAgent {
			sn.MemoryBound = w.HasMemorySource(n.ID)
		}
		for _, dir := range []catalog.Direction{catalog.DirectionInput, catalog.DirectionOutput} {
			for i, port := range n.Ports(dir) {
				ref := graph.PortRef{NodeID: n.ID, Port: port, Direction: dir}
				sn.Ports = append(sn.Ports, ScenePort{
					Name:      port,
					Direction: dir,
					Anchor:    geometry.PortAnchor(n.Position, i, dir),
					Occupied:  w.IsPortOccupied(n.ID, port, dir),
					Eligible:  drafting && draft.IsEligible(ref),
					Hovered:   e.hover.Port != nil && *e.hover.Port == ref,
				})
			}
		}
		s.Nodes = append(s.Nodes, sn)
	}

	for _, r := range w.Routes() {
		c := r.Connection
		s.Connections = append(s.Connections, SceneConnection{
			ID:       c.ID,
			Source:   c.Source,
			Target:   c.Target,
			Label:    c.Label,
			Path:     r.Curve.Path(),
			LabelAt:  r.LabelAt,
			Selected: e.selection.ConnectionID == c.ID,
			Hovered:  e.hover.ConnectionID == c.ID,
		})
	}

	if drafting {
		if curve, ok := w.DraftCurve(draft.Source, draft.Pointer); ok {
			s.Draft = &SceneDraft{Source: draft.Source, From: curve.P0, To: curve.P3, Path: curve.Path()}
		}
	}
	return s
}
