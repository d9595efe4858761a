// Package document converts workflows to and from the exported JSON document.
//
// The document is the only persisted artifact of the editor:
//
//	{
//	  "id": "workflow-1",
//	  "name": "My Agent Workflow",
//	  "nodes": [{"id": "...", "type": "agent", "position": {"x": 0, "y": 0}, "data": {...}, "label": "AI Agent"}],
//	  "connections": [{"id": "...", "sourceNodeId": "...", "sourcePortId": "context", "targetNodeId": "...", "targetPortId": "memory", "label": "ctx"}]
//	}
//
// Import is tolerant: nodes and connections that cannot be restored are
// skipped and reported as issues instead of failing the whole load.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/smallnest/agentflow/geometry"
	"github.com/smallnest/agentflow/graph"
)

// DefaultFileName is the name offered when a document is downloaded.
const DefaultFileName = "agent-workflow.json"

// Document is the exported form of a workflow.
type Document struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Nodes       []NodeRecord       `json:"nodes"`
	Connections []ConnectionRecord `json:"connections"`
}

// NodeRecord is one exported node.
type NodeRecord struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position geometry.Point `json:"position"`
	Data     map[string]any `json:"data"`
	Label    string         `json:"label"`
}

// ConnectionRecord is one exported connection.
type ConnectionRecord struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"sourceNodeId"`
	SourcePortID string `json:"sourcePortId"`
	TargetNodeID string `json:"targetNodeId"`
	TargetPortID string `json:"targetPortId"`
	Label        string `json:"label"`
}

// FromWorkflow snapshots w. The result shares no memory with the workflow.
func FromWorkflow(w *graph.Workflow) Document {
	doc := Document{
		ID:          w.ID(),
		Name:        w.Name(),
		Nodes:       make([]NodeRecord, 0, w.NodeCount()),
		Connections: make([]ConnectionRecord, 0, w.ConnectionCount()),
	}
	for _, n := range w.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeRecord{
			ID:       n.ID,
			Type:     n.Kind,
			Position: n.Position,
			Data:     n.Properties,
			Label:    n.Label,
		})
	}
	for _, c := range w.Connections() {
		doc.Connections = append(doc.Connections, ConnectionRecord{
			ID:           c.ID,
			SourceNodeID: c.Source.NodeID,
			SourcePortID: c.Source.Port,
			TargetNodeID: c.Target.NodeID,
			TargetPortID: c.Target.Port,
			Label:        c.Label,
		})
	}
	return doc
}

// Marshal encodes doc as pretty-printed JSON with two-space indentation.
// HTML characters are not escaped, so templates such as "{{ input }}" and
// arrows in labels are written as is.
func Marshal(doc Document) ([]byte, error) {
	if doc.Nodes == nil {
		doc.Nodes = []NodeRecord{}
	}
	if doc.Connections == nil {
		doc.Connections = []ConnectionRecord{}
	}
	for i := range doc.Nodes {
		if doc.Nodes[i].Data == nil {
			doc.Nodes[i].Data = map[string]any{}
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode reads one JSON document from r.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

// Unmarshal parses a JSON document.
func Unmarshal(data []byte) (Document, error) {
	return Decode(bytes.NewReader(data))
}

// ReadFile loads a document from disk.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile writes doc to path, followed by a newline.
func WriteFile(path string, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// Clone returns a deep copy of doc.
func (doc Document) Clone() Document {
	out := doc
	out.Nodes = make([]NodeRecord, len(doc.Nodes))
	for i, n := range doc.Nodes {
		n.Data = maps.Clone(n.Data)
		out.Nodes[i] = n
	}
	out.Connections = append([]ConnectionRecord(nil), doc.Connections...)
	return out
}
