package graph

import (
	"math"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/geometry"
)

// DefaultHitTolerance is how far, in canvas units, a point may be from a
// connection curve and still hit it.
const DefaultHitTolerance = 6.0

// NodeAt returns the topmost node whose box contains p. Later nodes are drawn
// above earlier ones.
func (w *Workflow) NodeAt(p geometry.Point) (Node, bool) {
	for i := len(w.nodes) - 1; i >= 0; i-- {
		if w.nodes[i].Bounds().Contains(p) {
			return w.nodes[i].Clone(), true
		}
	}
	return Node{}, false
}

// PortAt returns the port whose hitbox contains p, searching from the topmost node.
func (w *Workflow) PortAt(p geometry.Point) (PortRef, bool) {
	for i := len(w.nodes) - 1; i >= 0; i-- {
		n := w.nodes[i]
		if !n.Bounds().Inflate(geometry.PortHitRadius).Contains(p) {
			continue
		}
		for _, dir := range []catalog.Direction{catalog.DirectionOutput, catalog.DirectionInput} {
			for idx, port := range n.Ports(dir) {
				anchor := geometry.PortAnchor(n.Position, idx, dir)
				if geometry.PortHitbox(anchor).Contains(p) {
					return PortRef{NodeID: n.ID, Port: port, Direction: dir}, true
				}
			}
		}
	}
	return PortRef{}, false
}

// ConnectionAt returns the connection whose curve passes closest to p, if
// that distance is within tolerance.
func (w *Workflow) ConnectionAt(p geometry.Point, tolerance float64) (Connection, bool) {
	best := math.Inf(1)
	var hit Connection
	for _, r := range w.Routes() {
		if d := r.Curve.DistanceTo(p); d <= tolerance && d < best {
			best, hit = d, r.Connection
		}
	}
	return hit, !math.IsInf(best, 1)
}
