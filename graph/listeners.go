package graph

import "slices"

// EventType describes a change to a workflow.
type EventType string

const (
	// EventNodeAdded fires after a node is placed or imported.
	EventNodeAdded EventType = "node_added"

	// EventNodeRemoved fires after a node is deleted.
	EventNodeRemoved EventType = "node_removed"

	// EventNodeMoved fires after a single node changes position.
	EventNodeMoved EventType = "node_moved"

	// EventNodeUpdated fires after a property or label change.
	EventNodeUpdated EventType = "node_updated"

	// EventConnectionAdded fires after a connection is created.
	EventConnectionAdded EventType = "connection_added"

	// EventConnectionRemoved fires after a connection is deleted, directly or by cascade.
	EventConnectionRemoved EventType = "connection_removed"

	// EventConnectionUpdated fires after a connection label change.
	EventConnectionUpdated EventType = "connection_updated"

	// EventConnectionRejected fires when Connect refuses a connection because of a rule.
	EventConnectionRejected EventType = "connection_rejected"

	// EventLayout fires once after many nodes are repositioned together.
	EventLayout EventType = "layout"

	// EventCleared fires after the workflow is emptied.
	EventCleared EventType = "cleared"
)

// Event describes one change. Only the fields relevant to the type are set.
type Event struct {
	Type         EventType
	NodeID       string
	ConnectionID string
	Message      string
}

// Listener observes workflow changes.
type Listener interface {
	// OnEvent is called synchronously after the change has been applied.
	OnEvent(event Event)
}

// ListenerFunc is a function adapter for Listener.
type ListenerFunc func(event Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

type listenerEntry struct {
	token    int
	listener Listener
}

// AddListener registers l and returns a function that unregisters it.
func (w *Workflow) AddListener(l Listener) (remove func()) {
	if l == nil {
		return func() {}
	}
	w.nextToken++
	token := w.nextToken
	w.listeners = append(w.listeners, &listenerEntry{token: token, listener: l})
	return func() {
		for i, e := range w.listeners {
			if e.token == token {
				w.listeners = append(w.listeners[:i], w.listeners[i+1:]...)
				return
			}
		}
	}
}

func (w *Workflow) notify(event Event) {
	for _, e := range slices.Clone(w.listeners) {
		w.deliver(e.listener, event)
	}
}

func (w *Workflow) deliver(l Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Warn("listener panicked on %s: %v", event.Type, r)
		}
	}()
	l.OnEvent(event)
}
