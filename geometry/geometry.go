package geometry

import "math"

// Logical dimensions shared by placement, routing and rendering. All values
// are canvas-space units.
const (
	NodeWidth   = 200.0
	NodeHeight  = 150.0
	NodePadding = 40.0

	InputBaseOffset  = 40.0
	OutputBaseOffset = 80.0
	PortSpacing      = 20.0
	PortHitRadius    = 8.0

	MinControlOffset = 80.0
	MaxControlOffset = 150.0
	StaggerSpacing   = 30.0

	SpiralStep        = 50.0
	MaxSpiralAttempts = 400
)

// FallbackOffset is added to the desired position when the spiral search gives up.
var FallbackOffset = Point{X: 30, Y: 30}

// Point is a position in canvas or screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul scales both coordinates by k.
func (p Point) Mul(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Intersects reports whether r and o share interior area. Touching edges do not count.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Inflate grows r by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Union returns the smallest rectangle covering r and o. A zero rectangle is treated as empty.
func (r Rect) Union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	if o == (Rect{}) {
		return r
	}
	minX, minY := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	maxX, maxY := math.Max(r.X+r.W, o.X+o.W), math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// NodeBounds is the unpadded box of a node placed at pos.
func NodeBounds(pos Point) Rect {
	return Rect{X: pos.X, Y: pos.Y, W: NodeWidth, H: NodeHeight}
}

// PaddedBounds is the box used for overlap avoidance: the node box grown by half the padding on each side.
func PaddedBounds(pos Point) Rect {
	return NodeBounds(pos).Inflate(NodePadding / 2)
}

// Overlaps reports whether nodes at a and b are closer than the padded node size on both axes.
func Overlaps(a, b Point) bool {
	return PaddedBounds(a).Intersects(PaddedBounds(b))
}
