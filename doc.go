// AgentFlow - the graph-editing core of a visual AI agent pipeline editor
//
// AgentFlow models the canvas of a node-based editor for AI agent pipelines.
// Users place typed nodes (agents, memories, retrievers, tools, ...), wire
// their output ports to input ports, tune node properties and export the
// result as a JSON document. AgentFlow does not run pipelines; it builds and
// validates them.
//
// # Quick Start
//
// Install the command line tool:
//
//	go install github.com/smallnest/agentflow/cmd/agentflow@latest
//
// Build a workflow in code:
//
//	package main
//
//	import (
//		"fmt"
//
//		"github.com/smallnest/agentflow/catalog"
//		"github.com/smallnest/agentflow/document"
//		"github.com/smallnest/agentflow/geometry"
//		"github.com/smallnest/agentflow/graph"
//	)
//
//	func main() {
//		w := graph.New(catalog.Default(), graph.WithName("Support bot"))
//
//		mem, _ := w.PlaceNode(catalog.KindMemory, geometry.Pt(0, 0))
//		agent, _ := w.PlaceNode(catalog.KindAgent, geometry.Pt(400, 0))
//
//		_, err := w.Connect(
//			graph.Output(mem.ID, "context"),
//			graph.Input(agent.ID, catalog.MemoryPort),
//			"conversation history",
//		)
//		if err != nil {
//			panic(err)
//		}
//
//		data, _ := document.Marshal(document.FromWorkflow(w))
//		fmt.Println(string(data))
//	}
//
// # Key Features
//
//   - Node Catalog: seven built-in node types, extensible from TOML, YAML or JSON files
//   - Connection Rules: catalog rules such as "an agent has one memory source"
//   - Canvas Interaction: drag to move, drag or click to connect, pan and zoom
//   - Auto Layout: agents in a row with their inputs above and outputs below
//   - Import and Export: a tolerant JSON document format
//   - Rendering: SVG scenes, Mermaid, DOT and ASCII diagrams, terminal summaries
//   - HTTP API: editor sessions behind a chi router with Prometheus metrics
//
// # Package Structure
//
// catalog/
// Node types, their ports and property schemas, and connection rules
//
// geometry/
// Points, rectangles, node and port metrics, connection curves and free
// position search
//
// graph/
// The workflow model: nodes, connections, validation, change listeners and
// Mermaid/DOT/ASCII exporters
//
//	w := graph.New(catalog.Default(), graph.WithListener(graph.ListenerFunc(func(ev graph.Event) {
//		fmt.Println(ev.Type)
//	})))
//
// layout/
// Automatic arrangement of a workflow
//
// document/
// The export document and the tolerant importer
//
// editor/
// Viewport, selection and pointer/keyboard interaction over a workflow. An
// Editor turns pointer events into graph mutations and produces a Scene for
// drawing.
//
//	e := editor.New(w, editor.WithNotifier(func(msg string) { fmt.Println(msg) }))
//	e.PointerDown(editor.PointerEvent{X: 200, Y: 80})
//	e.PointerMove(editor.PointerEvent{X: 400, Y: 40})
//	e.PointerUp(editor.PointerEvent{X: 400, Y: 40})
//
// render/
// SVG for scenes, sanitised Markdown previews of long text properties, and
// the terminal summary
//
// server/
// The HTTP API serving editor sessions
//
// config/
// The TOML config file
//
// # Configuration
//
// The command line tool reads $XDG_CONFIG_HOME/agentflow/config.toml
// (~/.config/agentflow/config.toml by default). Run `agentflow init` to
// write one with the defaults.
//
// # License
//
// This project is licensed under the MIT License - see the LICENSE file for details.
package agentflow // import "github.com/smallnest/agentflow"
