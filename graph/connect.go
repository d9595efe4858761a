package graph

import (
	"errors"
	"fmt"

	"github.com/smallnest/agentflow/catalog"
)

type connectOptions struct {
	replace   bool
	id        string
	labelFunc func() string
}

// ConnectOption adjusts a single Connect call.
type ConnectOption func(*connectOptions)

// ReplaceExisting lets Connect remove the connection already occupying the
// target input instead of failing with ErrPortOccupied. Catalog rules are still
// checked against the workflow as it is before the replacement.
func ReplaceExisting() ConnectOption {
	return func(o *connectOptions) { o.replace = true }
}

// WithConnectionID uses id instead of a generated one.
func WithConnectionID(id string) ConnectOption {
	return func(o *connectOptions) { o.id = id }
}

// WithLabelFunc computes the label only once the connection has been
// accepted, replacing the label argument. Use it to prompt the user without
// prompting for connections that will be refused.
func WithLabelFunc(f func() string) ConnectOption {
	return func(o *connectOptions) { o.labelFunc = f }
}

// CanConnect reports why a connection from source to target would be
// refused, or nil if it would be accepted. An occupied target is reported
// as ErrPortOccupied.
func (w *Workflow) CanConnect(source, target PortRef) error {
	return w.check(source, target, false)
}

func (w *Workflow) check(source, target PortRef, replace bool) error {
	if source.Direction != catalog.DirectionOutput || target.Direction != catalog.DirectionInput {
		return ErrWrongDirection
	}
	src, ok := w.nodeIndex[source.NodeID]
	if !ok {
		return notFound(ErrNodeNotFound, source.NodeID)
	}
	dst, ok := w.nodeIndex[target.NodeID]
	if !ok {
		return notFound(ErrNodeNotFound, target.NodeID)
	}
	if src.PortIndex(source.Port, catalog.DirectionOutput) < 0 {
		return fmt.Errorf("%w: output %s.%s", ErrPortNotFound, src.ID, source.Port)
	}
	if dst.PortIndex(target.Port, catalog.DirectionInput) < 0 {
		return fmt.Errorf("%w: input %s.%s", ErrPortNotFound, dst.ID, target.Port)
	}
	if src.ID == dst.ID {
		return ErrSelfLoop
	}

	for _, rule := range w.registry.RulesFor(src.Kind, dst.Kind, target.Port) {
		if w.countRuleSources(rule, target) >= rule.Max {
			return &RuleViolation{Rule: rule, Target: target}
		}
	}

	if !replace && w.IsPortOccupied(target.NodeID, target.Port, catalog.DirectionInput) {
		return fmt.Errorf("%w: %s.%s", ErrPortOccupied, target.NodeID, target.Port)
	}
	return nil
}

func (w *Workflow) countRuleSources(rule catalog.Rule, target PortRef) int {
	dst := w.nodeIndex[target.NodeID]
	count := 0
	for _, c := range w.connections {
		if c.Target.NodeID != target.NodeID || c.Target.Port != target.Port {
			continue
		}
		src, ok := w.nodeIndex[c.Source.NodeID]
		if ok && rule.Applies(src.Kind, dst.Kind, target.Port) {
			count++
		}
	}
	return count
}

// Connect creates a connection from an output port to an input port.
//
// The connection is refused with ErrWrongDirection, ErrNodeNotFound,
// ErrPortNotFound, ErrSelfLoop, a *RuleViolation, or ErrPortOccupied unless
// ReplaceExisting is given. A refused connection leaves the workflow unchanged.
func (w *Workflow) Connect(source, target PortRef, label string, opts ...ConnectOption) (Connection, error) {
	var o connectOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := w.check(source, target, o.replace); err != nil {
		var rv *RuleViolation
		if errors.As(err, &rv) {
			w.logger.Info("connection %s.%s -> %s.%s rejected: %s",
				source.NodeID, source.Port, target.NodeID, target.Port, rv.Error())
			w.notify(Event{Type: EventConnectionRejected, NodeID: target.NodeID, Message: rv.Error()})
		}
		return Connection{}, err
	}

	id := o.id
	if id == "" {
		id = w.newID(ConnectionPrefix)
	} else if w.hasConnection(id) || w.HasNode(id) {
		return Connection{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	if o.labelFunc != nil {
		label = o.labelFunc()
	}

	if existing, ok := w.IncomingConnection(target.NodeID, target.Port); ok {
		w.logger.Debug("replacing connection %s on %s.%s", existing.ID, target.NodeID, target.Port)
		w.removeConnection(existing.ID)
	}

	c := &Connection{ID: id, Source: source, Target: target, Label: label}
	w.connections = append(w.connections, c)
	w.connIndex[id] = c
	w.notify(Event{Type: EventConnectionAdded, ConnectionID: id})
	return *c, nil
}

// EligibleTargets returns every input port a connection from source could end
// on right now: ports on other nodes that are free and allowed by the catalog
// rules. Ports are listed in node order, then port order.
func (w *Workflow) EligibleTargets(source PortRef) []PortRef {
	var out []PortRef
	for _, n := range w.nodes {
		for _, port := range n.Inputs {
			target := Input(n.ID, port)
			if w.CanConnect(source, target) == nil {
				out = append(out, target)
			}
		}
	}
	return out
}
