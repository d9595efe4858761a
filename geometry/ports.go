package geometry

import "github.com/smallnest/agentflow/catalog"

// PortAnchor returns the canvas-space attachment point of the index-th port in
// the given direction for a node at pos. Inputs sit on the left edge, outputs
// on the right edge.
func PortAnchor(pos Point, index int, dir catalog.Direction) Point {
	if dir == catalog.DirectionInput {
		return Point{X: pos.X, Y: pos.Y + InputBaseOffset + float64(index)*PortSpacing}
	}
	return Point{X: pos.X + NodeWidth, Y: pos.Y + OutputBaseOffset + float64(index)*PortSpacing}
}

// PortHitbox is the square around a port anchor that accepts pointer hits.
func PortHitbox(anchor Point) Rect {
	return Rect{
		X: anchor.X - PortHitRadius,
		Y: anchor.Y - PortHitRadius,
		W: 2 * PortHitRadius,
		H: 2 * PortHitRadius,
	}
}
