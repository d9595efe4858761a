// Package graph is the in-memory model of an agent workflow: placed nodes,
// the connections between their ports, and the rules those connections obey.
//
// # Core Concepts
//
// ## Workflow
// A Workflow owns an ordered list of nodes and an ordered list of
// connections. Order is insertion order and doubles as drawing order, so
// the last node added is the topmost one for hit testing.
//
// ## Nodes and Ports
// A Node is an instance of a catalog.NodeType. Its input and output port
// names are copied from the type when the node is created. Inputs sit on
// the left edge of the node and accept at most one connection; outputs sit
// on the right edge and may fan out.
//
// ## Connections
// A Connection runs from an output port to an input port of a different
// node. Connect refuses self loops, unknown ports, occupied inputs (unless
// ReplaceExisting is given) and anything that breaks a catalog rule, such
// as a second memory source on an agent. Rule violations are returned as
// *RuleViolation whose message is meant for the user.
//
// # Error Handling
//
// Operations that UI callbacks call directly (DeleteNode, MoveNode,
// SetNodeProperty, SetConnectionLabel, ...) never fail loudly: an unknown id
// is a no-op reported by a false return. Connect and UpdateNodeProperty
// return errors so callers can tell rejection reasons apart.
//
// # Listeners
//
// Listeners registered with AddListener are called synchronously after each
// change. A panicking listener is recovered and logged.
//
//	w := graph.New(catalog.Default())
//	w.AddListener(graph.ListenerFunc(func(e graph.Event) {
//		fmt.Println(e.Type, e.NodeID, e.ConnectionID)
//	}))
//
// # Example Usage
//
//	w := graph.New(nil, graph.WithName("Support bot"))
//
//	agent, _ := w.PlaceNode(catalog.KindAgent, geometry.Pt(400, 100))
//	memory, _ := w.PlaceNode(catalog.KindMemory, geometry.Pt(100, 100))
//
//	_, err := w.Connect(
//		graph.Output(memory.ID, "context"),
//		graph.Input(agent.ID, "memory"),
//		"ctx",
//	)
//
//	for _, r := range w.Routes() {
//		fmt.Println(r.Connection.ID, r.Curve.Path())
//	}
//
// # Visualization
//
// Exporter renders a workflow as a Mermaid flowchart, a Graphviz DOT graph or
// an ASCII tree of the data flow.
//
// A Workflow is not safe for concurrent use; callers that share one across
// goroutines must serialise access.
package graph
