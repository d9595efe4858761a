// Package catalog defines the node types that can be placed in a workflow.
//
// A NodeType fixes a kind's input and output ports and the schema of its
// editable properties. The Registry is read-only: extensions build a new
// registry, and nodes already placed keep the ports they were created with.
//
// Connection rules limit how many connections of a given source kind may
// enter a port. The built-in "single-memory" rule allows one memory source
// per agent.
//
// Extra node types can be loaded from TOML, YAML or JSON files:
//
//	[[node_types]]
//	kind = "router"
//	display_name = "Router"
//	inputs = ["input"]
//	outputs = ["left", "right"]
//
//	[[node_types.properties]]
//	key = "strategy"
//	kind = "select"
//	options = ["round-robin", "random"]
//	default = "round-robin"
package catalog
