package editor

import (
	"github.com/smallnest/agentflow/geometry"
	"github.com/smallnest/agentflow/graph"
)

// Mode names the kind of interaction in progress.
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModePanning  Mode = "panning"
	ModeDragging Mode = "dragging"
	ModeDrafting Mode = "drafting"
)

// Interaction is the transient pointer state. Exactly one variant is active,
// so dragging and drafting at the same time cannot be expressed.
type Interaction interface {
	Mode() Mode
	interaction()
}

// Idle means no gesture is in progress.
type Idle struct{}

// Panning moves the canvas with the pointer.
type Panning struct {
	// Last is the previous pointer position in screen space.
	Last geometry.Point
}

// Dragging moves one node with the pointer.
type Dragging struct {
	NodeID string
	// StartPointer is the screen position of the pointer-down.
	StartPointer geometry.Point
	// StartPosition is the node position at pointer-down.
	StartPosition geometry.Point
}

// Drafting draws a connection that has not been committed yet.
type Drafting struct {
	Source graph.PortRef
	// Anchor is the source port anchor in canvas space.
	Anchor geometry.Point
	// Pointer is the floating end of the draft in canvas space.
	Pointer geometry.Point
	// Eligible lists the input ports the draft may end on.
	Eligible []graph.PortRef
}

func (Idle) Mode() Mode     { return ModeIdle }
func (Panning) Mode() Mode  { return ModePanning }
func (Dragging) Mode() Mode { return ModeDragging }
func (Drafting) Mode() Mode { return ModeDrafting }

func (Idle) interaction()     {}
func (Panning) interaction()  {}
func (Dragging) interaction() {}
func (Drafting) interaction() {}

// IsEligible reports whether ref is one of the draft's eligible targets.
func (d Drafting) IsEligible(ref graph.PortRef) bool {
	for _, p := range d.Eligible {
		if p == ref {
			return true
		}
	}
	return false
}

// Selection holds at most one selected node or connection.
type Selection struct {
	NodeID       string `json:"nodeId,omitempty"`
	ConnectionID string `json:"connectionId,omitempty"`
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return s.NodeID == "" && s.ConnectionID == ""
}

// Hover is what lies under the pointer. Port, when set, takes precedence
// over NodeID for highlighting.
type Hover struct {
	NodeID       string         `json:"nodeId,omitempty"`
	ConnectionID string         `json:"connectionId,omitempty"`
	Port         *graph.PortRef `json:"port,omitempty"`
}
