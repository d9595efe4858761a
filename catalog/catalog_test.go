package catalog

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default()

	assert.Equal(t, []string{
		KindAgent, KindMemory, KindRetriever, KindDocumentLoader,
		KindVectorStore, KindOutputTransformer, KindTool,
	}, reg.Kinds())

	agent, ok := reg.Get(KindAgent)
	require.True(t, ok)
	assert.Equal(t, []string{"memory", "tools", "retriever"}, agent.Inputs)
	assert.Equal(t, []string{"response"}, agent.Outputs)
	assert.Equal(t, 0, agent.PortIndex("memory", DirectionInput))
	assert.Equal(t, 2, agent.PortIndex("retriever", DirectionInput))
	assert.Equal(t, -1, agent.PortIndex("memory", DirectionOutput))

	model, ok := agent.Property("model")
	require.True(t, ok)
	assert.Equal(t, "gpt-4", model.Default)
	assert.Contains(t, model.Options, "gpt-3.5-turbo")

	memory, ok := reg.Get(KindMemory)
	require.True(t, ok)
	assert.Empty(t, memory.Inputs)
	assert.Equal(t, 2000.0, memory.Defaults()["maxTokens"])

	_, ok = reg.Get("unknown")
	assert.False(t, ok)
}

func TestRegistryGetReturnsCopies(t *testing.T) {
	reg := Default()

	agent, _ := reg.Get(KindAgent)
	agent.Inputs[0] = "mutated"
	agent.Properties[0].Default = "mutated"

	again, _ := reg.Get(KindAgent)
	assert.Equal(t, "memory", again.Inputs[0])
	assert.Equal(t, "New Agent", again.Properties[0].Default)
}

func TestDefaultsAreFresh(t *testing.T) {
	tool, _ := Default().Get(KindTool)
	a := tool.Defaults()
	a["name"] = "changed"
	assert.Equal(t, "New Tool", tool.Defaults()["name"])
}

func TestDefaultRules(t *testing.T) {
	reg := Default()

	rules := reg.RulesFor(KindMemory, KindAgent, MemoryPort)
	require.Len(t, rules, 1)
	assert.Equal(t, "single-memory", rules[0].Name)
	assert.Equal(t, 1, rules[0].Max)
	assert.Equal(t, "An agent can only have one memory source", rules[0].Violation())

	assert.Empty(t, reg.RulesFor(KindTool, KindAgent, "tools"))
	assert.Empty(t, reg.RulesFor(KindMemory, KindAgent, "tools"))
}

func TestNewRejectsInvalidTypes(t *testing.T) {
	cases := map[string]NodeType{
		"empty kind":     {Kind: " "},
		"duplicate port": {Kind: "x", Inputs: []string{"a", "a"}},
		"empty port":     {Kind: "x", Outputs: []string{""}},
		"select without options": {Kind: "x", Properties: []PropertySpec{
			{Key: "k", Kind: PropertySelect, Default: "a"},
		}},
		"default not an option": {Kind: "x", Properties: []PropertySpec{
			{Key: "k", Kind: PropertySelect, Options: []string{"a"}, Default: "b"},
		}},
		"range default out of bounds": {Kind: "x", Properties: []PropertySpec{
			{Key: "k", Kind: PropertyRange, Min: 0, Max: 1, Default: 2.0},
		}},
		"unknown property kind": {Kind: "x", Properties: []PropertySpec{
			{Key: "k", Kind: "color", Default: "red"},
		}},
		"duplicate property": {Kind: "x", Properties: []PropertySpec{
			{Key: "k", Kind: PropertyText, Default: ""},
			{Key: "k", Kind: PropertyText, Default: ""},
		}},
	}
	for name, nt := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New([]NodeType{nt}, nil)
			assert.Error(t, err)
		})
	}

	_, err := New([]NodeType{{Kind: "x"}, {Kind: "x"}}, nil)
	assert.ErrorContains(t, err, "duplicate node type")
}

func TestInputsAndOutputsMayShareNames(t *testing.T) {
	_, err := New([]NodeType{{Kind: "pass", Inputs: []string{"data"}, Outputs: []string{"data"}}}, nil)
	assert.NoError(t, err)
}

func TestNewRejectsInvalidRules(t *testing.T) {
	types := DefaultNodeTypes()

	_, err := New(types, []Rule{{Name: "r", TargetKind: "nope", TargetPort: "memory", Max: 1}})
	assert.ErrorContains(t, err, "unknown target kind")

	_, err = New(types, []Rule{{Name: "r", TargetKind: KindAgent, TargetPort: "response", Max: 1}})
	assert.ErrorContains(t, err, "has no input")

	_, err = New(types, []Rule{{Name: "r", TargetKind: KindAgent, TargetPort: "tools", Max: 0}})
	assert.ErrorContains(t, err, "max must be at least 1")
}

func TestPropertyCoerce(t *testing.T) {
	agent, _ := Default().Get(KindAgent)
	temp, _ := agent.Property("temperature")

	v, err := temp.Coerce("0.3")
	require.NoError(t, err)
	assert.Equal(t, 0.3, v)

	v, err = temp.Coerce(1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	_, err = temp.Coerce(1.5)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = temp.Coerce("hot")
	assert.ErrorIs(t, err, ErrInvalidValue)

	memory, _ := Default().Get(KindMemory)
	maxTokens, _ := memory.Property("maxTokens")
	for _, spec := range []PropertySpec{temp, maxTokens} {
		for _, bad := range []any{"NaN", "nan", "Inf", "-Inf", math.NaN(), math.Inf(1)} {
			_, err = spec.Coerce(bad)
			assert.ErrorIs(t, err, ErrInvalidValue, "%s = %v", spec.Key, bad)
		}
	}

	model, _ := agent.Property("model")
	_, err = model.Coerce("gpt-5-preview")
	assert.ErrorIs(t, err, ErrInvalidValue)

	prompt, _ := agent.Property("systemPrompt")
	v, err = prompt.Coerce("Be brief.")
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", v)

	_, err = prompt.Coerce(42)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestExtendOverridesAndAppends(t *testing.T) {
	base := Default()

	ext, err := base.Extend([]NodeType{
		{Kind: KindTool, DisplayName: "Custom Tool", Inputs: []string{"args"}, Outputs: []string{"result"}},
		{Kind: "router", DisplayName: "Router", Inputs: []string{"input"}, Outputs: []string{"a", "b"}},
	}, []Rule{
		{Name: "single-router", SourceKind: "router", TargetKind: KindAgent, TargetPort: "tools", Max: 1},
	})
	require.NoError(t, err)

	assert.Len(t, ext.Kinds(), 8)
	assert.Equal(t, "router", ext.Kinds()[7])

	tool, _ := ext.Get(KindTool)
	assert.Equal(t, "Custom Tool", tool.DisplayName)
	assert.Len(t, ext.Rules(), 2)

	// the base registry is untouched
	baseTool, _ := base.Get(KindTool)
	assert.Equal(t, "Tool", baseTool.DisplayName)
	assert.Len(t, base.Kinds(), 7)
}

const tomlExtension = `
[[node_types]]
kind = "router"
display_name = "Router"
color = "#f97316"
inputs = ["input"]
outputs = ["left", "right"]

[[node_types.properties]]
key = "strategy"
kind = "select"
label = "Strategy"
options = ["round-robin", "random"]
default = "round-robin"

[[node_types.properties]]
key = "weight"
kind = "number"
label = "Weight"
default = 3

[[rules]]
name = "single-tools"
target_kind = "agent"
target_port = "tools"
max = 1
message = "Only one tool per agent"
`

const yamlExtension = `
node_types:
  - kind: router
    display_name: Router
    inputs: [input]
    outputs: [left, right]
    properties:
      - key: weight
        kind: range
        min: 0
        max: 10
        step: 1
        default: 3
`

const jsonExtension = `{
  "nodeTypes": [
    {"kind": "router", "displayName": "Router", "inputs": ["input"], "outputs": ["left"],
     "properties": [{"key": "weight", "kind": "number", "default": 3}]}
  ]
}`

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"ext.toml": tomlExtension,
		"ext.yaml": yamlExtension,
		"ext.json": jsonExtension,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		f, err := LoadFile(path)
		require.NoError(t, err, name)
		require.Len(t, f.NodeTypes, 1, name)
		assert.Equal(t, "router", f.NodeTypes[0].Kind, name)
		assert.Equal(t, "Router", f.NodeTypes[0].DisplayName, name)

		reg, err := Default().ExtendFiles(path)
		require.NoError(t, err, name)
		router, ok := reg.Get("router")
		require.True(t, ok, name)
		// integer defaults are normalised to float64 whatever the decoder produced
		assert.Equal(t, 3.0, router.Defaults()["weight"], name)
	}

	f, err := LoadFile(filepath.Join(dir, "ext.toml"))
	require.NoError(t, err)
	require.Len(t, f.Rules, 1)
	assert.Equal(t, "Only one tool per agent", f.Rules[0].Message)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Decode([]byte("x"), ".ini")
	assert.ErrorContains(t, err, "unsupported catalog format")

	_, err = Decode([]byte("[[node_types]\n"), ".toml")
	assert.Error(t, err)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "input", DirectionInput.String())
	assert.Equal(t, "output", DirectionOutput.String())
	assert.Equal(t, "unknown", Direction(9).String())
}

func TestDirectionText(t *testing.T) {
	b, err := DirectionOutput.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "output", string(b))

	var d Direction
	require.NoError(t, d.UnmarshalText([]byte("input")))
	assert.Equal(t, DirectionInput, d)
	assert.Error(t, d.UnmarshalText([]byte("sideways")))

	_, err = Direction(7).MarshalText()
	assert.Error(t, err)
}
