package geometry

import (
	"fmt"
	"math"
	"strconv"
)

// Curve is a cubic bezier from P0 to P3 with control points C1 and C2.
type Curve struct {
	P0, C1, C2, P3 Point
}

// ConnectionCurve routes a connection from the source anchor src to the target
// anchor dst. index and groupSize place the connection within the set of
// connections sharing the same source and target nodes; the group is staggered
// vertically around zero and mirrored when the target lies left of the source.
func ConnectionCurve(src, dst Point, index, groupSize int) Curve {
	offset := ControlOffset(src, dst)
	stagger := Stagger(index, groupSize)
	if dst.X < src.X {
		stagger = -stagger
	}
	return Curve{
		P0: src,
		C1: Point{X: src.X + offset, Y: src.Y + stagger},
		C2: Point{X: dst.X - offset, Y: dst.Y + stagger},
		P3: dst,
	}
}

// ControlOffset is the horizontal distance of the control points from their
// anchors: half the horizontal span, clamped to [MinControlOffset, MaxControlOffset].
func ControlOffset(src, dst Point) float64 {
	return clamp(math.Abs(dst.X-src.X)*0.5, MinControlOffset, MaxControlOffset)
}

// Stagger returns the vertical control point shift for the index-th of groupSize parallel connections.
func Stagger(index, groupSize int) float64 {
	if groupSize <= 1 {
		return 0
	}
	return (float64(index) - float64(groupSize-1)/2) * StaggerSpacing
}

// PointAt evaluates the curve at t in [0, 1].
func (c Curve) PointAt(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.P0.X + b*c.C1.X + d*c.C2.X + e*c.P3.X,
		Y: a*c.P0.Y + b*c.C1.Y + d*c.C2.Y + e*c.P3.Y,
	}
}

// Midpoint is where a connection's label is drawn.
func (c Curve) Midpoint() Point {
	return c.PointAt(0.5)
}

// Sample returns n+1 evenly spaced points in t, including both endpoints.
func (c Curve) Sample(n int) []Point {
	if n < 1 {
		n = 1
	}
	pts := make([]Point, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = c.PointAt(float64(i) / float64(n))
	}
	pts[0], pts[n] = c.P0, c.P3
	return pts
}

// DistanceTo approximates the shortest distance from p to the curve using a
// 32-segment polyline.
func (c Curve) DistanceTo(p Point) float64 {
	pts := c.Sample(32)
	best := math.Inf(1)
	for i := 1; i < len(pts); i++ {
		best = math.Min(best, segmentDistance(p, pts[i-1], pts[i]))
	}
	return best
}

// Path renders the curve as SVG path data.
func (c Curve) Path() string {
	return fmt.Sprintf("M %s %s C %s %s, %s %s, %s %s",
		num(c.P0.X), num(c.P0.Y),
		num(c.C1.X), num(c.C1.Y),
		num(c.C2.X), num(c.C2.Y),
		num(c.P3.X), num(c.P3.Y))
}

func segmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := clamp(((p.X-a.X)*ab.X+(p.Y-a.Y)*ab.Y)/l2, 0, 1)
	return p.Dist(a.Add(ab.Mul(t)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
