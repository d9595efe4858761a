package editor

import (
	"errors"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/geometry"
	"github.com/smallnest/agentflow/graph"
)

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// PointerEvent is a pointer event in screen space.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button Button  `json:"button"`
	Alt    bool    `json:"alt"`
}

func (ev PointerEvent) screen() geometry.Point {
	return geometry.Pt(ev.X, ev.Y)
}

// Key identifies a keyboard key.
type Key string

const (
	KeyEscape    Key = "Escape"
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
)

func (e *Editor) toCanvas(ev PointerEvent) geometry.Point {
	return e.viewport.Transform().ToCanvas(ev.screen())
}

// PointerDown starts a gesture.
//
// The middle button, or the left button with Alt held, pans. On an output
// port the left button starts a draft; on an occupied input it selects the
// connection there. On a node it selects the node and starts a drag, on a
// connection it selects the connection, and on empty canvas it clears the
// selection. While drafting, a press on an input port completes the draft,
// replacing any connection already on that port; a press anywhere else
// cancels the draft and is then handled as above.
func (e *Editor) PointerDown(ev PointerEvent) {
	p := e.toCanvas(ev)

	if d, ok := e.state.(Drafting); ok {
		if ref, hit := e.workflow.PortAt(p); hit && ref.Direction == catalog.DirectionInput {
			e.commit(d, ref, true)
			return
		}
		e.cancelDraft("pointer down elsewhere")
	}

	if ev.Button == ButtonMiddle || (ev.Button == ButtonLeft && ev.Alt) {
		e.setState(Panning{Last: ev.screen()})
		return
	}
	if ev.Button != ButtonLeft {
		return
	}

	if ref, hit := e.workflow.PortAt(p); hit {
		if ref.Direction == catalog.DirectionOutput {
			e.startDraft(ref)
			return
		}
		if c, ok := e.workflow.IncomingConnection(ref.NodeID, ref.Port); ok {
			e.selection = Selection{ConnectionID: c.ID}
		}
		return
	}

	if n, hit := e.workflow.NodeAt(p); hit {
		e.selection = Selection{NodeID: n.ID}
		e.setState(Dragging{NodeID: n.ID, StartPointer: ev.screen(), StartPosition: n.Position})
		return
	}

	if c, hit := e.workflow.ConnectionAt(p, e.hitTolerance()); hit {
		e.selection = Selection{ConnectionID: c.ID}
		return
	}

	e.selection = Selection{}
}

// PointerMove updates the active gesture and the hover state.
func (e *Editor) PointerMove(ev PointerEvent) {
	p := e.toCanvas(ev)

	switch s := e.state.(type) {
	case Panning:
		e.PanBy(ev.X-s.Last.X, ev.Y-s.Last.Y)
		e.state = Panning{Last: ev.screen()}
		p = e.toCanvas(ev)
	case Dragging:
		delta := ev.screen().Sub(s.StartPointer).Mul(1 / e.viewport.Scale)
		e.workflow.MoveNode(s.NodeID, s.StartPosition.Add(delta))
	case Drafting:
		s.Pointer = p
		s.Eligible = e.workflow.EligibleTargets(s.Source)
		if anchor, ok := e.workflow.PortAnchor(s.Source); ok {
			s.Anchor = anchor
		}
		e.state = s
	}

	e.updateHover(p)
}

// PointerUp ends the active gesture. A draft released on an input port is
// committed there if the port is free and allowed; a catalog rule violation
// is shown to the user. Released on its own source port the draft stays open
// so the target can be clicked instead. Any other release cancels it.
func (e *Editor) PointerUp(ev PointerEvent) {
	switch s := e.state.(type) {
	case Panning, Dragging:
		e.setState(Idle{})
	case Drafting:
		ref, hit := e.workflow.PortAt(e.toCanvas(ev))
		switch {
		case hit && ref == s.Source:
			return
		case hit && ref.Direction == catalog.DirectionInput:
			e.commit(s, ref, false)
		default:
			e.cancelDraft("released away from an input")
		}
	}
}

// KeyDown handles keyboard shortcuts. Escape cancels a draft at any time;
// Delete and Backspace delete the selection when no gesture is in progress.
// It reports whether the key was handled.
func (e *Editor) KeyDown(key Key) bool {
	switch key {
	case KeyEscape:
		if _, ok := e.state.(Drafting); ok {
			e.cancelDraft("escape")
			return true
		}
		return false
	case KeyDelete, KeyBackspace:
		if e.Mode() != ModeIdle {
			return false
		}
		return e.DeleteSelection()
	}
	return false
}

// CancelDraft abandons an in-progress draft. It reports whether there was one.
func (e *Editor) CancelDraft() bool {
	if _, ok := e.state.(Drafting); !ok {
		return false
	}
	e.cancelDraft("cancelled")
	return true
}

func (e *Editor) startDraft(source graph.PortRef) {
	anchor, ok := e.workflow.PortAnchor(source)
	if !ok {
		return
	}
	e.setState(Drafting{
		Source:   source,
		Anchor:   anchor,
		Pointer:  anchor,
		Eligible: e.workflow.EligibleTargets(source),
	})
}

func (e *Editor) cancelDraft(reason string) {
	e.logger.Debug("draft cancelled: %s", reason)
	e.setState(Idle{})
}

// commit resolves a draft onto target. replace is set for the click flow,
// which may take over an occupied input. The label is asked for only after
// the connection has passed validation.
func (e *Editor) commit(d Drafting, target graph.PortRef, replace bool) {
	defer e.setState(Idle{})

	opts := []graph.ConnectOption{graph.WithLabelFunc(func() string {
		suggested := graph.DefaultLabel(d.Source.Port, target.Port)
		if label, ok := e.prompter.PromptLabel(suggested); ok {
			return label
		}
		return suggested
	})}
	if replace {
		opts = append(opts, graph.ReplaceExisting())
	}

	c, err := e.workflow.Connect(d.Source, target, "", opts...)
	if err != nil {
		e.reject(err)
		return
	}
	e.selection = Selection{ConnectionID: c.ID}
}

func (e *Editor) reject(err error) {
	var rv *graph.RuleViolation
	if errors.As(err, &rv) {
		e.logger.Info("connection rejected: %s", rv.Error())
		e.message(rv.Error())
		return
	}
	e.logger.Debug("connection not made: %v", err)
}

func (e *Editor) setState(s Interaction) {
	if e.state.Mode() != s.Mode() {
		e.logger.Debug("editor: %s -> %s", e.state.Mode(), s.Mode())
	}
	e.state = s
}

func (e *Editor) updateHover(p geometry.Point) {
	h := Hover{}
	if ref, ok := e.workflow.PortAt(p); ok {
		h.Port = &ref
		h.NodeID = ref.NodeID
	} else if n, ok := e.workflow.NodeAt(p); ok {
		h.NodeID = n.ID
	} else if c, ok := e.workflow.ConnectionAt(p, e.hitTolerance()); ok {
		h.ConnectionID = c.ID
	}
	e.hover = h
}

// hitTolerance keeps the connection hit area constant in screen pixels.
func (e *Editor) hitTolerance() float64 {
	return graph.DefaultHitTolerance / e.viewport.Scale
}
