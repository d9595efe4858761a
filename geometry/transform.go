package geometry

// Transform maps canvas space to screen space: screen = canvas*Scale + Offset.
type Transform struct {
	Offset Point   `json:"offset"`
	Scale  float64 `json:"scale"`
}

// Identity is the transform of a freshly reset viewport.
var Identity = Transform{Scale: 1}

// ToCanvas converts a screen-space point to canvas space.
func (t Transform) ToCanvas(screen Point) Point {
	s := t.scale()
	return Point{X: (screen.X - t.Offset.X) / s, Y: (screen.Y - t.Offset.Y) / s}
}

// ToScreen converts a canvas-space point to screen space.
func (t Transform) ToScreen(canvas Point) Point {
	s := t.scale()
	return Point{X: canvas.X*s + t.Offset.X, Y: canvas.Y*s + t.Offset.Y}
}

func (t Transform) scale() float64 {
	if t.Scale == 0 {
		return 1
	}
	return t.Scale
}
