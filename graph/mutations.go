package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/smallnest/agentflow/geometry"
)

// PlaceNode creates a node of the given kind as close to desired as the
// overlap rule allows. Label, property values and ports come from the catalog.
// It returns false and changes nothing when the kind is unknown.
func (w *Workflow) PlaceNode(kind string, desired geometry.Point) (Node, bool) {
	nt, ok := w.registry.Get(kind)
	if !ok {
		w.logger.Debug("place node: unknown kind %q", kind)
		return Node{}, false
	}

	pos, free := geometry.FindFreePosition(desired, w.positions())
	if !free {
		w.logger.Debug("place node: no free position near (%g, %g), using fallback", desired.X, desired.Y)
	}

	n := &Node{
		ID:         w.newID(NodePrefix),
		Kind:       nt.Kind,
		Label:      nt.DisplayName,
		Position:   pos,
		Properties: nt.Defaults(),
		Inputs:     nt.Inputs,
		Outputs:    nt.Outputs,
	}
	w.insertNode(n)
	w.logger.Debug("placed %s %s at (%g, %g)", n.Kind, n.ID, pos.X, pos.Y)
	return n.Clone(), true
}

// AddNode inserts n as given, without overlap avoidance. An empty id is
// generated. Nil port lists are taken from the catalog, so the kind must be
// known unless both are provided.
func (w *Workflow) AddNode(n Node) (Node, error) {
	if n.ID == "" {
		n.ID = w.newID(NodePrefix)
	}
	if w.HasNode(n.ID) || w.hasConnection(n.ID) {
		return Node{}, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
	}
	nt, known := w.registry.Get(n.Kind)
	if n.Inputs == nil && n.Outputs == nil {
		if !known {
			return Node{}, fmt.Errorf("%w: %q", ErrUnknownKind, n.Kind)
		}
		n.Inputs, n.Outputs = nt.Inputs, nt.Outputs
	}
	if n.Label == "" && known {
		n.Label = nt.DisplayName
	}

	c := n.Clone()
	w.insertNode(&c)
	return c.Clone(), nil
}

func (w *Workflow) insertNode(n *Node) {
	w.nodes = append(w.nodes, n)
	w.nodeIndex[n.ID] = n
	w.notify(Event{Type: EventNodeAdded, NodeID: n.ID})
}

// DeleteNode removes a node and every connection that touches it.
// It returns false when the node does not exist.
func (w *Workflow) DeleteNode(id string) bool {
	if !w.HasNode(id) {
		return false
	}
	for _, c := range w.ConnectionsOf(id) {
		w.removeConnection(c.ID)
	}
	w.nodes = slices.DeleteFunc(w.nodes, func(n *Node) bool { return n.ID == id })
	delete(w.nodeIndex, id)
	w.notify(Event{Type: EventNodeRemoved, NodeID: id})
	return true
}

// DeleteConnection removes one connection. It returns false when it does not exist.
func (w *Workflow) DeleteConnection(id string) bool {
	return w.removeConnection(id)
}

func (w *Workflow) removeConnection(id string) bool {
	if !w.hasConnection(id) {
		return false
	}
	w.connections = slices.DeleteFunc(w.connections, func(c *Connection) bool { return c.ID == id })
	delete(w.connIndex, id)
	w.notify(Event{Type: EventConnectionRemoved, ConnectionID: id})
	return true
}

func (w *Workflow) hasConnection(id string) bool {
	_, ok := w.connIndex[id]
	return ok
}

// UpdateNodeProperty sets one property value after coercing it with the
// node type's schema. Properties of kinds missing from the catalog can only
// be updated when the key already exists, and are stored unchanged.
func (w *Workflow) UpdateNodeProperty(id, key string, value any) error {
	return w.SetNodeProperties(id, map[string]any{key: value})
}

// SetNodeProperty is UpdateNodeProperty for UI callbacks: invalid references
// and values are ignored and reported as false.
func (w *Workflow) SetNodeProperty(id, key string, value any) bool {
	if err := w.UpdateNodeProperty(id, key, value); err != nil {
		w.logger.Debug("set property ignored: %v", err)
		return false
	}
	return true
}

// SetNodeProperties applies several property values at once. Every value is
// checked first; if any fails the node is left unchanged and the first error
// in key order is returned.
func (w *Workflow) SetNodeProperties(id string, values map[string]any) error {
	n, ok := w.nodeIndex[id]
	if !ok {
		return notFound(ErrNodeNotFound, id)
	}

	coerced := make(map[string]any, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		v, err := w.coerceProperty(n, key, values[key])
		if err != nil {
			return err
		}
		coerced[key] = v
	}
	if len(coerced) == 0 {
		return nil
	}

	if n.Properties == nil {
		n.Properties = make(map[string]any, len(coerced))
	}
	maps.Copy(n.Properties, coerced)
	w.notify(Event{Type: EventNodeUpdated, NodeID: id})
	return nil
}

func (w *Workflow) coerceProperty(n *Node, key string, value any) (any, error) {
	nt, known := w.registry.Get(n.Kind)
	if !known {
		if _, ok := n.Properties[key]; !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrPropertyNotFound, n.Kind, key)
		}
		return value, nil
	}
	spec, ok := nt.Property(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrPropertyNotFound, n.Kind, key)
	}
	return spec.Coerce(value)
}

// SetNodeLabel changes a node's header text.
func (w *Workflow) SetNodeLabel(id, label string) bool {
	n, ok := w.nodeIndex[id]
	if !ok {
		return false
	}
	n.Label = label
	w.notify(Event{Type: EventNodeUpdated, NodeID: id})
	return true
}

// SetConnectionLabel changes a connection's label.
func (w *Workflow) SetConnectionLabel(id, label string) bool {
	c, ok := w.connIndex[id]
	if !ok {
		return false
	}
	c.Label = label
	w.notify(Event{Type: EventConnectionUpdated, ConnectionID: id})
	return true
}

// MoveNode sets a node's position. Overlap avoidance is not applied.
func (w *Workflow) MoveNode(id string, pos geometry.Point) bool {
	n, ok := w.nodeIndex[id]
	if !ok {
		return false
	}
	n.Position = pos
	w.notify(Event{Type: EventNodeMoved, NodeID: id})
	return true
}

// ApplyPositions moves every listed node and emits a single EventLayout.
// Unknown ids are ignored. It returns the number of nodes moved.
func (w *Workflow) ApplyPositions(positions map[string]geometry.Point) int {
	moved := 0
	for _, n := range w.nodes {
		if p, ok := positions[n.ID]; ok {
			n.Position = p
			moved++
		}
	}
	if moved > 0 {
		w.notify(Event{Type: EventLayout})
	}
	return moved
}

// Clear removes every node and connection.
func (w *Workflow) Clear() {
	w.nodes = nil
	w.connections = nil
	clear(w.nodeIndex)
	clear(w.connIndex)
	w.notify(Event{Type: EventCleared})
}
