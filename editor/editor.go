// Package editor is the interaction controller of the workflow canvas.
//
// An Editor owns a graph.Workflow together with the viewport, the selection
// and the transient pointer state. Pointer and keyboard events are fed in by
// the embedding surface; the editor converts them to canvas space, hit tests
// against the workflow and mutates it. Everything happens synchronously in
// the calling goroutine, so an Editor must not be used concurrently.
package editor

import (
	"github.com/smallnest/agentflow/document"
	"github.com/smallnest/agentflow/geometry"
	"github.com/smallnest/agentflow/graph"
	"github.com/smallnest/agentflow/layout"
	"github.com/smallnest/agentflow/log"
)

// Notifier shows a message to the user, for example when a connection is rejected.
type Notifier func(message string)

// LabelPrompter asks the user for a connection label. It returns false when
// the prompt is dismissed.
type LabelPrompter interface {
	PromptLabel(suggested string) (label string, ok bool)
}

// LabelPrompterFunc is a function adapter for LabelPrompter.
type LabelPrompterFunc func(suggested string) (string, bool)

// PromptLabel implements LabelPrompter.
func (f LabelPrompterFunc) PromptLabel(suggested string) (string, bool) {
	return f(suggested)
}

// AcceptSuggested is the prompter used when none is configured: it accepts the suggested label.
var AcceptSuggested LabelPrompter = LabelPrompterFunc(func(s string) (string, bool) { return s, true })

// Editor is the interaction controller for one workflow.
type Editor struct {
	workflow *graph.Workflow
	unlisten func()

	viewport  Viewport
	selection Selection
	state     Interaction
	hover     Hover

	notify     Notifier
	prompter   LabelPrompter
	logger     log.Logger
	layoutOpts layout.Options
}

// Option configures an Editor.
type Option func(*Editor)

// WithNotifier sets the function that receives user-visible messages.
func WithNotifier(n Notifier) Option {
	return func(e *Editor) { e.notify = n }
}

// WithLabelPrompter sets how new connection labels are obtained.
func WithLabelPrompter(p LabelPrompter) Option {
	return func(e *Editor) {
		if p != nil {
			e.prompter = p
		}
	}
}

// WithViewportSize sets the size of the visible canvas in screen pixels.
func WithViewportSize(width, height float64) Option {
	return func(e *Editor) { e.SetViewportSize(width, height) }
}

// WithLogger sets the logger. The workflow's logger is used otherwise.
func WithLogger(l log.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLayoutOptions sets the options used by AutoLayout.
func WithLayoutOptions(opts layout.Options) Option {
	return func(e *Editor) { e.layoutOpts = opts }
}

// New creates an editor for w. A nil workflow starts an empty one with the default catalog.
func New(w *graph.Workflow, opts ...Option) *Editor {
	if w == nil {
		w = graph.New(nil)
	}
	e := &Editor{
		viewport: Viewport{Scale: baseScale},
		state:    Idle{},
		prompter: AcceptSuggested,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = w.Logger()
	}
	e.attach(w)
	return e
}

func (e *Editor) attach(w *graph.Workflow) {
	if e.unlisten != nil {
		e.unlisten()
	}
	e.workflow = w
	e.unlisten = w.AddListener(graph.ListenerFunc(e.onWorkflowEvent))
	e.selection = Selection{}
	e.hover = Hover{}
	e.state = Idle{}
}

// onWorkflowEvent drops references to entities removed behind the editor's back.
func (e *Editor) onWorkflowEvent(ev graph.Event) {
	switch ev.Type {
	case graph.EventNodeRemoved:
		if e.selection.NodeID == ev.NodeID {
			e.selection = Selection{}
		}
		if e.hover.NodeID == ev.NodeID || (e.hover.Port != nil && e.hover.Port.NodeID == ev.NodeID) {
			e.hover = Hover{}
		}
		switch s := e.state.(type) {
		case Dragging:
			if s.NodeID == ev.NodeID {
				e.state = Idle{}
			}
		case Drafting:
			if s.Source.NodeID == ev.NodeID {
				e.state = Idle{}
			}
		}
	case graph.EventConnectionRemoved:
		if e.selection.ConnectionID == ev.ConnectionID {
			e.selection = Selection{}
		}
		if e.hover.ConnectionID == ev.ConnectionID {
			e.hover.ConnectionID = ""
		}
	case graph.EventCleared:
		e.selection = Selection{}
		e.hover = Hover{}
		e.state = Idle{}
	}
}

// Workflow returns the edited workflow.
func (e *Editor) Workflow() *graph.Workflow { return e.workflow }

// State returns the current interaction.
func (e *Editor) State() Interaction { return e.state }

// Mode is shorthand for State().Mode().
func (e *Editor) Mode() Mode { return e.state.Mode() }

// Hover returns what is under the pointer.
func (e *Editor) Hover() Hover { return e.hover }

// Selection returns the current selection.
func (e *Editor) Selection() Selection { return e.selection }

// SelectNode selects a node and clears any connection selection.
func (e *Editor) SelectNode(id string) bool {
	if !e.workflow.HasNode(id) {
		return false
	}
	e.selection = Selection{NodeID: id}
	return true
}

// SelectConnection selects a connection and clears any node selection.
func (e *Editor) SelectConnection(id string) bool {
	if _, ok := e.workflow.Connection(id); !ok {
		return false
	}
	e.selection = Selection{ConnectionID: id}
	return true
}

// ClearSelection deselects everything.
func (e *Editor) ClearSelection() {
	e.selection = Selection{}
}

// PlaceNode adds a node from the palette at the centre of the visible area,
// moved off any node it would overlap, and selects it.
func (e *Editor) PlaceNode(kind string) (graph.Node, bool) {
	desired := e.viewport.Center().Sub(geometry.Pt(geometry.NodeWidth/2, geometry.NodeHeight/2))
	return e.place(kind, desired)
}

// DropNode adds a node dropped from the palette with its centre at a screen position.
func (e *Editor) DropNode(kind string, screen geometry.Point) (graph.Node, bool) {
	at := e.viewport.Transform().ToCanvas(screen)
	return e.place(kind, at.Sub(geometry.Pt(geometry.NodeWidth/2, geometry.NodeHeight/2)))
}

func (e *Editor) place(kind string, desired geometry.Point) (graph.Node, bool) {
	n, ok := e.workflow.PlaceNode(kind, desired)
	if ok {
		e.selection = Selection{NodeID: n.ID}
	}
	return n, ok
}

// SetNodeProperty edits a property of a node.
func (e *Editor) SetNodeProperty(id, key string, value any) bool {
	return e.workflow.SetNodeProperty(id, key, value)
}

// SetConnectionLabel edits a connection label.
func (e *Editor) SetConnectionLabel(id, label string) bool {
	return e.workflow.SetConnectionLabel(id, label)
}

// RelabelConnection prompts for a new label for an existing connection.
// A dismissed prompt keeps the current label.
func (e *Editor) RelabelConnection(id string) bool {
	c, ok := e.workflow.Connection(id)
	if !ok {
		return false
	}
	label, ok := e.prompter.PromptLabel(c.Label)
	if !ok {
		return false
	}
	return e.workflow.SetConnectionLabel(id, label)
}

// DeleteSelection deletes the selected node (with its connections) or connection.
func (e *Editor) DeleteSelection() bool {
	sel := e.selection
	e.selection = Selection{}
	switch {
	case sel.NodeID != "":
		return e.workflow.DeleteNode(sel.NodeID)
	case sel.ConnectionID != "":
		return e.workflow.DeleteConnection(sel.ConnectionID)
	}
	return false
}

// AutoLayout rearranges every node and returns how many moved.
func (e *Editor) AutoLayout() int {
	return layout.Apply(e.workflow, e.layoutOpts)
}

// Document returns the export document of the workflow.
func (e *Editor) Document() document.Document {
	return document.FromWorkflow(e.workflow)
}

// ExportJSON returns the pretty-printed export document.
func (e *Editor) ExportJSON() (string, error) {
	data, err := document.Marshal(e.Document())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Load replaces the edited workflow with one rebuilt from doc and resets the
// selection and interaction state. The viewport is kept.
func (e *Editor) Load(doc document.Document, opts ...graph.Option) []document.Issue {
	opts = append([]graph.Option{graph.WithLogger(e.workflow.Logger())}, opts...)
	w, issues := document.ToWorkflow(doc, e.workflow.Registry(), opts...)
	e.attach(w)
	return issues
}

func (e *Editor) message(msg string) {
	if e.notify != nil {
		e.notify(msg)
	}
}
