package graph

import (
	"maps"
	"slices"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/geometry"
	"github.com/smallnest/agentflow/log"
)

const (
	// DefaultID is the id given to a workflow when none is set.
	DefaultID = "workflow-1"

	// DefaultName is the name given to a workflow when none is set.
	DefaultName = "My Agent Workflow"
)

// Node is a placed instance of a node type.
type Node struct {
	// ID is unique within the workflow and stable for its lifetime.
	ID string `json:"id"`

	// Kind names the catalog node type.
	Kind string `json:"kind"`

	// Label is the text shown in the node header.
	Label string `json:"label"`

	// Position is the top-left corner in canvas space.
	Position geometry.Point `json:"position"`

	// Properties holds the current property values keyed by schema key.
	Properties map[string]any `json:"properties"`

	// Inputs and Outputs are copied from the node type when the node is created,
	// so later catalog changes do not alter existing nodes.
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// Ports returns the node's port names for one direction.
func (n Node) Ports(dir catalog.Direction) []string {
	if dir == catalog.DirectionInput {
		return n.Inputs
	}
	return n.Outputs
}

// PortIndex returns the index of a port in its direction's list, or -1.
func (n Node) PortIndex(port string, dir catalog.Direction) int {
	return slices.Index(n.Ports(dir), port)
}

// Bounds returns the node's box in canvas space.
func (n Node) Bounds() geometry.Rect {
	return geometry.NodeBounds(n.Position)
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	n.Properties = maps.Clone(n.Properties)
	if n.Properties == nil {
		n.Properties = map[string]any{}
	}
	n.Inputs = slices.Clone(n.Inputs)
	n.Outputs = slices.Clone(n.Outputs)
	return n
}

// PortRef identifies one port of one node.
type PortRef struct {
	NodeID    string            `json:"nodeId"`
	Port      string            `json:"port"`
	Direction catalog.Direction `json:"direction"`
}

// Input refers to an input port.
func Input(nodeID, port string) PortRef {
	return PortRef{NodeID: nodeID, Port: port, Direction: catalog.DirectionInput}
}

// Output refers to an output port.
func Output(nodeID, port string) PortRef {
	return PortRef{NodeID: nodeID, Port: port, Direction: catalog.DirectionOutput}
}

// Connection is a directed edge from an output port to an input port.
type Connection struct {
	ID     string  `json:"id"`
	Source PortRef `json:"source"`
	Target PortRef `json:"target"`
	Label  string  `json:"label"`
}

// Touches reports whether the connection starts or ends at the node.
func (c Connection) Touches(nodeID string) bool {
	return c.Source.NodeID == nodeID || c.Target.NodeID == nodeID
}

// DefaultLabel is the label suggested for a new connection between two ports.
func DefaultLabel(sourcePort, targetPort string) string {
	return sourcePort + " → " + targetPort
}

// Workflow is the editable graph: ordered nodes and connections plus the
// catalog they are checked against. Insertion order is preserved and used
// as drawing order. A Workflow is not safe for concurrent use.
type Workflow struct {
	id       string
	name     string
	registry *catalog.Registry

	nodes     []*Node
	nodeIndex map[string]*Node

	connections []*Connection
	connIndex   map[string]*Connection

	ids       IDGenerator
	logger    log.Logger
	listeners []*listenerEntry
	nextToken int
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithID sets the workflow id.
func WithID(id string) Option {
	return func(w *Workflow) {
		if id != "" {
			w.id = id
		}
	}
}

// WithName sets the workflow name.
func WithName(name string) Option {
	return func(w *Workflow) {
		if name != "" {
			w.name = name
		}
	}
}

// WithIDGenerator replaces the default UUID-based id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(w *Workflow) {
		if g != nil {
			w.ids = g
		}
	}
}

// WithLogger sets the logger. The package default logger is used otherwise.
func WithLogger(l log.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithListener registers a listener at construction time.
func WithListener(l Listener) Option {
	return func(w *Workflow) {
		w.AddListener(l)
	}
}

// New creates an empty workflow backed by reg. A nil registry means catalog.Default().
func New(reg *catalog.Registry, opts ...Option) *Workflow {
	if reg == nil {
		reg = catalog.Default()
	}
	w := &Workflow{
		id:        DefaultID,
		name:      DefaultName,
		registry:  reg,
		nodeIndex: make(map[string]*Node),
		connIndex: make(map[string]*Connection),
		ids:       UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.GetDefaultLogger()
	}
	return w
}

// ID returns the workflow id.
func (w *Workflow) ID() string { return w.id }

// Name returns the workflow name.
func (w *Workflow) Name() string { return w.name }

// SetName renames the workflow. An empty name is ignored.
func (w *Workflow) SetName(name string) {
	if name != "" {
		w.name = name
	}
}

// Registry returns the catalog the workflow validates against.
func (w *Workflow) Registry() *catalog.Registry { return w.registry }

// Logger returns the workflow's logger.
func (w *Workflow) Logger() log.Logger { return w.logger }

// Node returns a copy of the node with the given id.
func (w *Workflow) Node(id string) (Node, bool) {
	n, ok := w.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return n.Clone(), true
}

// HasNode reports whether id names a node.
func (w *Workflow) HasNode(id string) bool {
	_, ok := w.nodeIndex[id]
	return ok
}

// Nodes returns copies of all nodes in insertion order.
func (w *Workflow) Nodes() []Node {
	out := make([]Node, len(w.nodes))
	for i, n := range w.nodes {
		out[i] = n.Clone()
	}
	return out
}

// NodeCount returns the number of nodes.
func (w *Workflow) NodeCount() int { return len(w.nodes) }

// Connection returns the connection with the given id.
func (w *Workflow) Connection(id string) (Connection, bool) {
	c, ok := w.connIndex[id]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// Connections returns all connections in insertion order.
func (w *Workflow) Connections() []Connection {
	out := make([]Connection, len(w.connections))
	for i, c := range w.connections {
		out[i] = *c
	}
	return out
}

// ConnectionCount returns the number of connections.
func (w *Workflow) ConnectionCount() int { return len(w.connections) }

// ConnectionsOf returns every connection that starts or ends at the node.
func (w *Workflow) ConnectionsOf(nodeID string) []Connection {
	var out []Connection
	for _, c := range w.connections {
		if c.Touches(nodeID) {
			out = append(out, *c)
		}
	}
	return out
}

// IsPortOccupied reports whether any connection is attached to the port.
func (w *Workflow) IsPortOccupied(nodeID, port string, dir catalog.Direction) bool {
	for _, c := range w.connections {
		ref := c.Target
		if dir == catalog.DirectionOutput {
			ref = c.Source
		}
		if ref.NodeID == nodeID && ref.Port == port {
			return true
		}
	}
	return false
}

// IncomingConnection returns the connection entering an input port, if any.
func (w *Workflow) IncomingConnection(nodeID, port string) (Connection, bool) {
	for _, c := range w.connections {
		if c.Target.NodeID == nodeID && c.Target.Port == port {
			return *c, true
		}
	}
	return Connection{}, false
}

// HasMemorySource reports whether an agent's memory input is fed by a memory node.
func (w *Workflow) HasMemorySource(agentID string) bool {
	for _, c := range w.connections {
		if c.Target.NodeID != agentID || c.Target.Port != catalog.MemoryPort {
			continue
		}
		if src, ok := w.nodeIndex[c.Source.NodeID]; ok && src.Kind == catalog.KindMemory {
			return true
		}
	}
	return false
}

// Positions returns every node position keyed by id.
func (w *Workflow) Positions() map[string]geometry.Point {
	out := make(map[string]geometry.Point, len(w.nodes))
	for _, n := range w.nodes {
		out[n.ID] = n.Position
	}
	return out
}

// Bounds returns the box covering all nodes, or a zero Rect for an empty workflow.
func (w *Workflow) Bounds() geometry.Rect {
	var r geometry.Rect
	for _, n := range w.nodes {
		r = r.Union(n.Bounds())
	}
	return r
}

func (w *Workflow) positions() []geometry.Point {
	out := make([]geometry.Point, len(w.nodes))
	for i, n := range w.nodes {
		out[i] = n.Position
	}
	return out
}
