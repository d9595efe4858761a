// Package render draws editor scenes and workflows for display outside the
// browser: an SVG image of the canvas, HTML previews of multiline property
// values, and a styled terminal summary.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/editor"
	"github.com/smallnest/agentflow/geometry"
)

// Drawing constants shared by every SVG.
const (
	headerHeight   = 28
	cornerRadius   = 8
	portRadius     = 6
	defaultPadding = 40
	defaultStroke  = "#94a3b8"
	selectedStroke = "#f59e0b"
	eligibleFill   = "#22c55e"
	defaultFill    = "#ffffff"
	defaultNodeHue = "#64748b"
)

// SVGOptions controls how a scene is drawn.
type SVGOptions struct {
	// Fit frames the whole workflow instead of the current viewport.
	Fit bool
	// Padding around the workflow when Fit is set. Zero means 40.
	Padding float64
	// Background fills the image when not empty.
	Background string
	// HidePorts omits port circles and names.
	HidePorts bool
}

func (o SVGOptions) withDefaults() SVGOptions {
	if o.Padding <= 0 {
		o.Padding = defaultPadding
	}
	return o
}

// SVG draws the scene as a standalone SVG document. Without Fit the image has
// the viewport's size and the canvas is transformed by its pan and zoom, so it
// matches what the user sees.
func SVG(s editor.Scene, opts SVGOptions) string {
	opts = opts.withDefaults()

	var b bytes.Buffer
	width, height, viewBox, transform := frame(s, opts)

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="agentflow" width="%s" height="%s" viewBox="%s" data-workflow="%s">`,
		num(width), num(height), viewBox, esc(s.WorkflowID))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "<title>%s</title>\n", esc(s.Name))
	if opts.Background != "" {
		fmt.Fprintf(&b, `<rect class="background" x="0" y="0" width="100%%" height="100%%" fill="%s"/>`+"\n", esc(opts.Background))
	}

	if transform != "" {
		fmt.Fprintf(&b, `<g class="canvas" transform="%s">`+"\n", transform)
	} else {
		b.WriteString(`<g class="canvas">` + "\n")
	}

	b.WriteString(`<g class="connections">` + "\n")
	for _, c := range s.Connections {
		writeConnection(&b, c)
	}
	b.WriteString("</g>\n")

	b.WriteString(`<g class="nodes">` + "\n")
	for _, n := range s.Nodes {
		writeNode(&b, n, opts)
	}
	b.WriteString("</g>\n")

	if s.Draft != nil {
		fmt.Fprintf(&b, `<path class="draft" d="%s" fill="none" stroke="%s" stroke-width="2" stroke-dasharray="6 4"/>`+"\n",
			s.Draft.Path, defaultStroke)
	}

	b.WriteString("</g>\n</svg>\n")
	return b.String()
}

func frame(s editor.Scene, opts SVGOptions) (width, height float64, viewBox, transform string) {
	if opts.Fit || s.Viewport.Width <= 0 || s.Viewport.Height <= 0 {
		var bounds geometry.Rect
		for _, n := range s.Nodes {
			bounds = bounds.Union(n.Bounds)
		}
		if bounds.W == 0 && bounds.H == 0 {
			bounds = geometry.Rect{W: geometry.NodeWidth, H: geometry.NodeHeight}
		}
		bounds = bounds.Inflate(opts.Padding)
		viewBox = strings.Join([]string{num(bounds.X), num(bounds.Y), num(bounds.W), num(bounds.H)}, " ")
		return bounds.W, bounds.H, viewBox, ""
	}

	v := s.Viewport
	viewBox = "0 0 " + num(v.Width) + " " + num(v.Height)
	transform = fmt.Sprintf("translate(%s %s) scale(%s)", num(v.Offset.X), num(v.Offset.Y), num(v.Scale))
	return v.Width, v.Height, viewBox, transform
}

func writeConnection(b *bytes.Buffer, c editor.SceneConnection) {
	stroke := defaultStroke
	if c.Selected {
		stroke = selectedStroke
	}
	fmt.Fprintf(b, `<path class="%s" data-id="%s" d="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
		classes("connection", c.Selected, "selected", c.Hovered, "hovered"), esc(c.ID), c.Path, stroke)
	if c.Label != "" {
		fmt.Fprintf(b, `<text class="connection-label" data-id="%s" x="%s" y="%s" text-anchor="middle" font-size="11">%s</text>`+"\n",
			esc(c.ID), num(c.LabelAt.X), num(c.LabelAt.Y-6), esc(c.Label))
	}
}

func writeNode(b *bytes.Buffer, n editor.SceneNode, opts SVGOptions) {
	color := n.Color
	if color == "" {
		color = defaultNodeHue
	}
	stroke := color
	if n.Selected {
		stroke = selectedStroke
	}
	r := n.Bounds

	fmt.Fprintf(b, `<g class="%s" data-id="%s" data-kind="%s">`+"\n",
		classes("node", n.Selected, "selected", n.Hovered, "hovered"), esc(n.ID), esc(n.Kind))
	fmt.Fprintf(b, `<rect class="body" x="%s" y="%s" width="%s" height="%s" rx="%d" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
		num(r.X), num(r.Y), num(r.W), num(r.H), cornerRadius, defaultFill, esc(stroke))
	fmt.Fprintf(b, `<rect class="header" x="%s" y="%s" width="%s" height="%d" rx="%d" fill="%s"/>`+"\n",
		num(r.X), num(r.Y), num(r.W), headerHeight, cornerRadius, esc(color))
	fmt.Fprintf(b, `<text class="title" x="%s" y="%s" font-size="13" font-weight="bold" fill="#ffffff">%s</text>`+"\n",
		num(r.X+12), num(r.Y+19), esc(n.Label))
	fmt.Fprintf(b, `<text class="kind" x="%s" y="%s" font-size="10" fill="#64748b">%s</text>`+"\n",
		num(r.X+12), num(r.Y+r.H-10), esc(n.Kind))

	if !opts.HidePorts {
		for _, p := range n.Ports {
			writePort(b, n.ID, p)
		}
	}
	b.WriteString("</g>\n")
}

func writePort(b *bytes.Buffer, nodeID string, p editor.ScenePort) {
	fill := defaultFill
	switch {
	case p.Eligible:
		fill = eligibleFill
	case p.Occupied:
		fill = defaultStroke
	}
	fmt.Fprintf(b, `<circle class="%s" data-node="%s" data-port="%s" cx="%s" cy="%s" r="%d" fill="%s" stroke="%s"/>`+"\n",
		classes("port "+p.Direction.String(), p.Occupied, "occupied", p.Eligible, "eligible", p.Hovered, "hovered"),
		esc(nodeID), esc(p.Name), num(p.Anchor.X), num(p.Anchor.Y), portRadius, fill, defaultStroke)

	x, anchor := p.Anchor.X+10, "start"
	if p.Direction == catalog.DirectionOutput {
		x, anchor = p.Anchor.X-10, "end"
	}
	fmt.Fprintf(b, `<text class="port-label" x="%s" y="%s" text-anchor="%s" font-size="10">%s</text>`+"\n",
		num(x), num(p.Anchor.Y+4), anchor, esc(p.Name))
}

// classes joins base with every name whose flag is set. Pairs are flag, name.
func classes(base string, pairs ...any) string {
	out := base
	for i := 0; i+1 < len(pairs); i += 2 {
		if on, _ := pairs[i].(bool); on {
			out += " " + pairs[i+1].(string)
		}
	}
	return out
}

func esc(s string) string {
	return html.EscapeString(s)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
