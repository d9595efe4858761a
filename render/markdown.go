package render

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/graph"
)

// MarkdownPreview converts markdown text, such as a system prompt, to
// sanitized HTML suitable for a properties panel.
func MarkdownPreview(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(text))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)
	htmlBytes := markdown.Render(doc, renderer)

	sanitizer := bluemonday.UGCPolicy()
	return string(sanitizer.SanitizeBytes(htmlBytes))
}

// PropertyPreviews renders every multiline property of a node that holds a
// string. It returns false when the node does not exist.
func PropertyPreviews(w *graph.Workflow, nodeID string) (map[string]string, bool) {
	n, ok := w.Node(nodeID)
	if !ok {
		return nil, false
	}
	out := make(map[string]string)
	nt, ok := w.Registry().Get(n.Kind)
	if !ok {
		return out, true
	}
	for _, p := range nt.Properties {
		if p.Kind != catalog.PropertyMultiline {
			continue
		}
		if s, ok := n.Properties[p.Key].(string); ok {
			out[p.Key] = MarkdownPreview(s)
		}
	}
	return out, true
}
