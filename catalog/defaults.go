package catalog

import (
	openai "github.com/sashabaranov/go-openai"
)

// Node kinds of the built-in catalog.
const (
	KindAgent             = "agent"
	KindMemory            = "memory"
	KindRetriever         = "retriever"
	KindDocumentLoader    = "documentLoader"
	KindVectorStore       = "vectorStore"
	KindOutputTransformer = "outputTransformer"
	KindTool              = "tool"
)

// MemoryPort is the agent input that receives a memory source.
const MemoryPort = "memory"

// AgentModels lists the choices of the agent "model" property. The first entry is the default.
var AgentModels = []string{openai.GPT4, openai.GPT3Dot5Turbo, "claude-2", "llama-2"}

// DefaultNodeTypes returns the built-in node types in palette order.
func DefaultNodeTypes() []NodeType {
	return []NodeType{
		{
			Kind:        KindAgent,
			DisplayName: "AI Agent",
			Color:       "#3b82f6",
			Inputs:      []string{MemoryPort, "tools", "retriever"},
			Outputs:     []string{"response"},
			Properties: []PropertySpec{
				{Key: "name", Kind: PropertyText, Label: "Agent Name", Default: "New Agent"},
				{Key: "model", Kind: PropertySelect, Label: "Model", Options: AgentModels, Default: AgentModels[0]},
				{Key: "temperature", Kind: PropertyRange, Label: "Temperature", Min: 0, Max: 1, Step: 0.1, Default: 0.7},
				{Key: "systemPrompt", Kind: PropertyMultiline, Label: "System Prompt", Default: "You are a helpful assistant."},
			},
		},
		{
			Kind:        KindMemory,
			DisplayName: "Memory",
			Color:       "#a855f7",
			Inputs:      []string{},
			Outputs:     []string{"context"},
			Properties: []PropertySpec{
				{Key: "type", Kind: PropertySelect, Label: "Memory Type", Options: []string{"buffer", "conversation", "vector"}, Default: "conversation"},
				{Key: "maxTokens", Kind: PropertyNumber, Label: "Max Tokens", Default: 2000.0},
			},
		},
		{
			Kind:        KindRetriever,
			DisplayName: "Retriever",
			Color:       "#22c55e",
			Inputs:      []string{"query"},
			Outputs:     []string{"documents"},
			Properties: []PropertySpec{
				{Key: "type", Kind: PropertySelect, Label: "Retriever Type", Options: []string{"similarity", "mmr", "contextual"}, Default: "similarity"},
				{Key: "topK", Kind: PropertyNumber, Label: "Top K Results", Default: 5.0},
			},
		},
		{
			Kind:        KindDocumentLoader,
			DisplayName: "Document Loader",
			Color:       "#eab308",
			Inputs:      []string{},
			Outputs:     []string{"documents"},
			Properties: []PropertySpec{
				{Key: "source", Kind: PropertySelect, Label: "Source Type", Options: []string{"file", "url", "database"}, Default: "file"},
				{Key: "format", Kind: PropertySelect, Label: "Format", Options: []string{"pdf", "txt", "html", "json"}, Default: "pdf"},
			},
		},
		{
			Kind:        KindVectorStore,
			DisplayName: "Vector Store",
			Color:       "#ef4444",
			Inputs:      []string{"documents"},
			Outputs:     []string{"vectors"},
			Properties: []PropertySpec{
				{Key: "type", Kind: PropertySelect, Label: "Store Type", Options: []string{"pinecone", "chroma", "faiss", "milvus"}, Default: "chroma"},
				{Key: "dimensions", Kind: PropertyNumber, Label: "Dimensions", Default: 1536.0},
			},
		},
		{
			Kind:        KindOutputTransformer,
			DisplayName: "Output Transformer",
			Color:       "#6366f1",
			Inputs:      []string{"input"},
			Outputs:     []string{"output"},
			Properties: []PropertySpec{
				{Key: "operation", Kind: PropertySelect, Label: "Operation", Options: []string{"format", "filter", "extract", "summarize"}, Default: "format"},
				{Key: "template", Kind: PropertyMultiline, Label: "Template", Default: "{{ input }}"},
			},
		},
		{
			Kind:        KindTool,
			DisplayName: "Tool",
			Color:       "#14b8a6",
			Inputs:      []string{"parameters"},
			Outputs:     []string{"result"},
			Properties: []PropertySpec{
				{Key: "name", Kind: PropertyText, Label: "Tool Name", Default: "New Tool"},
				{Key: "type", Kind: PropertySelect, Label: "Tool Type", Options: []string{"web-search", "calculator", "weather", "custom"}, Default: "web-search"},
				{Key: "description", Kind: PropertyMultiline, Label: "Description", Default: "A tool that performs a specific function."},
			},
		},
	}
}

// DefaultRules returns the built-in connection rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "single-memory",
			SourceKind: KindMemory,
			TargetKind: KindAgent,
			TargetPort: MemoryPort,
			Max:        1,
			Message:    "An agent can only have one memory source",
		},
	}
}
