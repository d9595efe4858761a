package graph

import (
	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/geometry"
)

// Route is a connection with its computed curve.
type Route struct {
	Connection Connection
	Curve      geometry.Curve
	// LabelAt is the curve midpoint, where the label is drawn.
	LabelAt geometry.Point
}

// PortAnchor returns the canvas-space anchor of a port.
func (w *Workflow) PortAnchor(ref PortRef) (geometry.Point, bool) {
	n, ok := w.nodeIndex[ref.NodeID]
	if !ok {
		return geometry.Point{}, false
	}
	i := n.PortIndex(ref.Port, ref.Direction)
	if i < 0 {
		return geometry.Point{}, false
	}
	return geometry.PortAnchor(n.Position, i, ref.Direction), true
}

type nodePair struct {
	source, target string
}

// Routes computes the curve of every connection in drawing order. Connections
// between the same pair of nodes are staggered so they do not overlap.
func (w *Workflow) Routes() []Route {
	sizes := make(map[nodePair]int)
	for _, c := range w.connections {
		sizes[nodePair{c.Source.NodeID, c.Target.NodeID}]++
	}

	seen := make(map[nodePair]int)
	routes := make([]Route, 0, len(w.connections))
	for _, c := range w.connections {
		key := nodePair{c.Source.NodeID, c.Target.NodeID}
		index := seen[key]
		seen[key]++

		src, ok := w.PortAnchor(c.Source)
		if !ok {
			continue
		}
		dst, ok := w.PortAnchor(c.Target)
		if !ok {
			continue
		}
		curve := geometry.ConnectionCurve(src, dst, index, sizes[key])
		routes = append(routes, Route{Connection: *c, Curve: curve, LabelAt: curve.Midpoint()})
	}
	return routes
}

// Route returns the route of one connection.
func (w *Workflow) Route(id string) (Route, bool) {
	for _, r := range w.Routes() {
		if r.Connection.ID == id {
			return r, true
		}
	}
	return Route{}, false
}

// DraftCurve is the curve drawn while a connection is being dragged from
// source to a free canvas point.
func (w *Workflow) DraftCurve(source PortRef, to geometry.Point) (geometry.Curve, bool) {
	from, ok := w.PortAnchor(source)
	if !ok {
		return geometry.Curve{}, false
	}
	if source.Direction == catalog.DirectionInput {
		from, to = to, from
	}
	return geometry.ConnectionCurve(from, to, 0, 1), true
}
