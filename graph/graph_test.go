package graph

import (
	"testing"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/geometry"
	"github.com/smallnest/agentflow/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkflow(opts ...Option) *Workflow {
	opts = append([]Option{WithIDGenerator(NewSequentialGenerator()), WithLogger(&log.NoOpLogger{})}, opts...)
	return New(catalog.Default(), opts...)
}

func mustPlace(t *testing.T, w *Workflow, kind string, x, y float64) Node {
	t.Helper()
	n, ok := w.PlaceNode(kind, geometry.Pt(x, y))
	require.True(t, ok, "place %s", kind)
	return n
}

func TestNewDefaults(t *testing.T) {
	w := New(nil)
	assert.Equal(t, DefaultID, w.ID())
	assert.Equal(t, DefaultName, w.Name())
	assert.Same(t, catalog.Default(), w.Registry())

	w = New(nil, WithID("wf-9"), WithName("Support bot"), WithID(""))
	assert.Equal(t, "wf-9", w.ID())
	assert.Equal(t, "Support bot", w.Name())

	w.SetName("")
	assert.Equal(t, "Support bot", w.Name())
}

func TestPlaceNode(t *testing.T) {
	w := newTestWorkflow()

	n := mustPlace(t, w, catalog.KindAgent, 100, 100)
	assert.Equal(t, "node-1", n.ID)
	assert.Equal(t, "AI Agent", n.Label)
	assert.Equal(t, geometry.Pt(100, 100), n.Position)
	assert.Equal(t, []string{"memory", "tools", "retriever"}, n.Inputs)
	assert.Equal(t, "gpt-4", n.Properties["model"])
	assert.Equal(t, 0.7, n.Properties["temperature"])

	_, ok := w.PlaceNode("spaceship", geometry.Pt(0, 0))
	assert.False(t, ok)
	assert.Equal(t, 1, w.NodeCount())
}

func TestPlaceNodeAvoidsOverlap(t *testing.T) {
	w := newTestWorkflow()
	for i := 0; i < 6; i++ {
		mustPlace(t, w, catalog.KindTool, 0, 0)
	}
	nodes := w.Nodes()
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			assert.False(t, geometry.Overlaps(nodes[i].Position, nodes[j].Position),
				"%s overlaps %s", nodes[i].ID, nodes[j].ID)
		}
	}
}

func TestPlacedNodesDoNotShareState(t *testing.T) {
	w := newTestWorkflow()
	a := mustPlace(t, w, catalog.KindTool, 0, 0)
	b := mustPlace(t, w, catalog.KindTool, 500, 0)

	require.True(t, w.SetNodeProperty(a.ID, "name", "Search"))
	got, _ := w.Node(b.ID)
	assert.Equal(t, "New Tool", got.Properties["name"])

	// returned copies are detached from the workflow
	a.Properties["name"] = "mutated"
	got, _ = w.Node(a.ID)
	assert.Equal(t, "Search", got.Properties["name"])
}

func TestAddNode(t *testing.T) {
	w := newTestWorkflow()

	n, err := w.AddNode(Node{ID: "a", Kind: catalog.KindMemory, Position: geometry.Pt(5, 5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"context"}, n.Outputs)
	assert.Equal(t, "Memory", n.Label)

	_, err = w.AddNode(Node{ID: "a", Kind: catalog.KindMemory})
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = w.AddNode(Node{ID: "b", Kind: "spaceship"})
	assert.ErrorIs(t, err, ErrUnknownKind)

	n, err = w.AddNode(Node{Kind: "legacy", Inputs: []string{"in"}, Outputs: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "node-1", n.ID)
}

func TestDeleteNodeCascades(t *testing.T) {
	w := newTestWorkflow()
	agent := mustPlace(t, w, catalog.KindAgent, 600, 0)
	memory := mustPlace(t, w, catalog.KindMemory, 0, 0)
	tool := mustPlace(t, w, catalog.KindTool, 0, 400)
	transformer := mustPlace(t, w, catalog.KindOutputTransformer, 1200, 0)

	_, err := w.Connect(Output(memory.ID, "context"), Input(agent.ID, "memory"), "")
	require.NoError(t, err)
	_, err = w.Connect(Output(tool.ID, "result"), Input(agent.ID, "tools"), "")
	require.NoError(t, err)
	keep, err := w.Connect(Output(memory.ID, "context"), Input(transformer.ID, "input"), "")
	require.NoError(t, err)

	assert.True(t, w.DeleteNode(agent.ID))
	assert.False(t, w.HasNode(agent.ID))
	assert.Equal(t, 3, w.NodeCount())
	for _, c := range w.Connections() {
		assert.False(t, c.Touches(agent.ID))
	}
	assert.Equal(t, []Connection{keep}, w.Connections())

	assert.False(t, w.DeleteNode(agent.ID))
	assert.False(t, w.DeleteConnection("missing"))
}

func TestSetNodeProperty(t *testing.T) {
	w := newTestWorkflow()
	agent := mustPlace(t, w, catalog.KindAgent, 0, 0)

	assert.True(t, w.SetNodeProperty(agent.ID, "temperature", "0.2"))
	assert.True(t, w.SetNodeProperty(agent.ID, "systemPrompt", "Be brief."))
	assert.False(t, w.SetNodeProperty(agent.ID, "temperature", 3))
	assert.False(t, w.SetNodeProperty(agent.ID, "colour", "red"))
	assert.False(t, w.SetNodeProperty("missing", "name", "x"))

	got, _ := w.Node(agent.ID)
	assert.Equal(t, 0.2, got.Properties["temperature"])
	assert.Equal(t, "Be brief.", got.Properties["systemPrompt"])

	err := w.UpdateNodeProperty(agent.ID, "colour", "red")
	assert.ErrorIs(t, err, ErrPropertyNotFound)
	err = w.UpdateNodeProperty("missing", "name", "x")
	assert.ErrorIs(t, err, ErrNodeNotFound)
	err = w.UpdateNodeProperty(agent.ID, "model", "gpt-2")
	assert.ErrorIs(t, err, catalog.ErrInvalidValue)

	err = w.SetNodeProperties(agent.ID, map[string]any{"name": "Planner", "model": "claude-2"})
	require.NoError(t, err)
	got, _ = w.Node(agent.ID)
	assert.Equal(t, "Planner", got.Properties["name"])
	assert.Equal(t, "claude-2", got.Properties["model"])
}

func TestSetNodePropertiesIsAllOrNothing(t *testing.T) {
	w := newTestWorkflow()
	mem := mustPlace(t, w, catalog.KindMemory, 0, 0)

	var updates int
	w.AddListener(ListenerFunc(func(ev Event) {
		if ev.Type == EventNodeUpdated {
			updates++
		}
	}))

	err := w.SetNodeProperties(mem.ID, map[string]any{"maxTokens": 10, "type": "bogus"})
	assert.ErrorIs(t, err, catalog.ErrInvalidValue)
	err = w.SetNodeProperties(mem.ID, map[string]any{"maxTokens": 10, "colour": "red"})
	assert.ErrorIs(t, err, ErrPropertyNotFound)
	assert.False(t, w.SetNodeProperty(mem.ID, "maxTokens", "NaN"))

	got, _ := w.Node(mem.ID)
	assert.Equal(t, mem.Properties, got.Properties)
	assert.Zero(t, updates)

	require.NoError(t, w.SetNodeProperties(mem.ID, map[string]any{"maxTokens": "512", "type": "vector"}))
	got, _ = w.Node(mem.ID)
	assert.Equal(t, 512.0, got.Properties["maxTokens"])
	assert.Equal(t, "vector", got.Properties["type"])
	assert.Equal(t, 1, updates)

	assert.ErrorIs(t, w.SetNodeProperties("missing", map[string]any{}), ErrNodeNotFound)
}

func TestLabelsAndMove(t *testing.T) {
	w := newTestWorkflow()
	a := mustPlace(t, w, catalog.KindMemory, 0, 0)
	b := mustPlace(t, w, catalog.KindAgent, 400, 0)
	c, err := w.Connect(Output(a.ID, "context"), Input(b.ID, "memory"), "ctx")
	require.NoError(t, err)

	assert.True(t, w.SetNodeLabel(a.ID, "Chat history"))
	assert.True(t, w.SetConnectionLabel(c.ID, "history"))
	assert.False(t, w.SetConnectionLabel("nope", "x"))

	// manual moves may overlap
	assert.True(t, w.MoveNode(b.ID, geometry.Pt(10, 10)))
	assert.False(t, w.MoveNode("nope", geometry.Pt(0, 0)))

	na, _ := w.Node(a.ID)
	nb, _ := w.Node(b.ID)
	cc, _ := w.Connection(c.ID)
	assert.Equal(t, "Chat history", na.Label)
	assert.Equal(t, geometry.Pt(10, 10), nb.Position)
	assert.Equal(t, "history", cc.Label)
}

func TestApplyPositionsAndClear(t *testing.T) {
	w := newTestWorkflow()
	a := mustPlace(t, w, catalog.KindMemory, 0, 0)
	b := mustPlace(t, w, catalog.KindAgent, 400, 0)

	moved := w.ApplyPositions(map[string]geometry.Point{
		a.ID:    geometry.Pt(1, 2),
		"ghost": geometry.Pt(9, 9),
	})
	assert.Equal(t, 1, moved)
	assert.Equal(t, geometry.Pt(1, 2), w.Positions()[a.ID])
	assert.Equal(t, geometry.Pt(400, 0), w.Positions()[b.ID])

	w.Clear()
	assert.Zero(t, w.NodeCount())
	assert.Zero(t, w.ConnectionCount())
	assert.Equal(t, geometry.Rect{}, w.Bounds())
}

func TestBounds(t *testing.T) {
	w := newTestWorkflow()
	mustPlace(t, w, catalog.KindMemory, 0, 0)
	mustPlace(t, w, catalog.KindAgent, 600, 300)

	assert.Equal(t, geometry.Rect{X: 0, Y: 0, W: 800, H: 450}, w.Bounds())
}

func TestSequentialGenerator(t *testing.T) {
	g := NewSequentialGenerator()
	assert.Equal(t, "node-1", g.NewID(NodePrefix))
	assert.Equal(t, "node-2", g.NewID(NodePrefix))
	assert.Equal(t, "conn-1", g.NewID(ConnectionPrefix))

	var zero SequentialGenerator
	assert.Equal(t, "x-1", zero.NewID("x"))
}

func TestGeneratedIDsSkipTakenOnes(t *testing.T) {
	w := newTestWorkflow()
	_, err := w.AddNode(Node{ID: "node-1", Kind: catalog.KindTool})
	require.NoError(t, err)

	n := mustPlace(t, w, catalog.KindTool, 500, 500)
	assert.Equal(t, "node-2", n.ID)
}

func TestUUIDGeneratorIsUnique(t *testing.T) {
	w := New(nil, WithLogger(&log.NoOpLogger{}))
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := w.newID(NodePrefix)
		assert.Regexp(t, `^node-[0-9a-f-]{36}$`, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

type constantGenerator string

func (g constantGenerator) NewID(prefix string) string { return string(g) }

func TestStuckGeneratorFallsBackToUUID(t *testing.T) {
	w := newTestWorkflow(WithIDGenerator(constantGenerator("fixed")))
	first := mustPlace(t, w, catalog.KindTool, 0, 0)
	assert.Equal(t, "fixed", first.ID)

	second := mustPlace(t, w, catalog.KindTool, 500, 500)
	assert.Regexp(t, `^node-[0-9a-f-]{36}$`, second.ID)
}
