package editor

import (
	"math"

	"github.com/smallnest/agentflow/geometry"
)

// Zoom limits and step.
const (
	MinScale  = 0.5
	MaxScale  = 2.0
	ZoomStep  = 0.1
	baseScale = 1.0
)

// Viewport is the pan and zoom state of the canvas plus the size of the
// visible area in screen pixels. It is not persisted.
type Viewport struct {
	Scale  float64        `json:"scale"`
	Offset geometry.Point `json:"offset"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
}

// Transform returns the canvas-to-screen transform.
func (v Viewport) Transform() geometry.Transform {
	return geometry.Transform{Offset: v.Offset, Scale: v.Scale}
}

// Center returns the canvas-space point at the middle of the visible area.
func (v Viewport) Center() geometry.Point {
	return v.Transform().ToCanvas(geometry.Pt(v.Width/2, v.Height/2))
}

// clampScale snaps s to the zoom step and keeps it within [MinScale, MaxScale].
func clampScale(s float64) float64 {
	s = math.Round(s/ZoomStep) * ZoomStep
	s = math.Round(s*100) / 100
	return math.Max(MinScale, math.Min(MaxScale, s))
}

// Zoom sets the scale, clamped and snapped to the zoom step.
func (e *Editor) Zoom(scale float64) float64 {
	e.viewport.Scale = clampScale(scale)
	return e.viewport.Scale
}

// ZoomIn increases the scale by one step.
func (e *Editor) ZoomIn() float64 {
	return e.Zoom(e.viewport.Scale + ZoomStep)
}

// ZoomOut decreases the scale by one step.
func (e *Editor) ZoomOut() float64 {
	return e.Zoom(e.viewport.Scale - ZoomStep)
}

// ZoomAt changes the scale by steps (negative zooms out) while keeping the
// canvas point under the screen position fixed.
func (e *Editor) ZoomAt(screen geometry.Point, steps int) float64 {
	anchor := e.viewport.Transform().ToCanvas(screen)
	scale := e.Zoom(e.viewport.Scale + float64(steps)*ZoomStep)
	e.viewport.Offset = screen.Sub(anchor.Mul(scale))
	return scale
}

// PanBy moves the canvas by a screen-space delta.
func (e *Editor) PanBy(dx, dy float64) {
	e.viewport.Offset = e.viewport.Offset.Add(geometry.Pt(dx, dy))
}

// ResetView restores scale 1 and a zero offset.
func (e *Editor) ResetView() {
	e.viewport.Scale = baseScale
	e.viewport.Offset = geometry.Point{}
}

// SetViewportSize records the size of the visible canvas area in screen pixels.
func (e *Editor) SetViewportSize(width, height float64) {
	e.viewport.Width = math.Max(0, width)
	e.viewport.Height = math.Max(0, height)
}

// Viewport returns the current viewport.
func (e *Editor) Viewport() Viewport {
	return e.viewport
}
