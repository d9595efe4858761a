package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/document"
	"github.com/smallnest/agentflow/editor"
	"github.com/smallnest/agentflow/graph"
	"github.com/smallnest/agentflow/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t       *testing.T
	server  *Server
	handler http.Handler
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	opts = append([]Option{WithLogger(&log.NoOpLogger{})}, opts...)
	s := New(nil, opts...)
	return &testServer{t: t, server: s, handler: s.Handler()}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(ts.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createSession() string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/sessions", nil)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJSON[SessionResponse](ts.t, rec).ID
}

func (ts *testServer) placeNode(session, kind string, x, y float64) graph.Node {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/sessions/"+session+"/nodes", map[string]any{
		"kind":     kind,
		"position": map[string]float64{"x": x, "y": y},
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJSON[graph.Node](ts.t, rec)
}

func connectBody(src, srcPort, dst, dstPort string) map[string]any {
	return map[string]any{
		"sourceNodeId": src, "sourcePortId": srcPort,
		"targetNodeId": dst, "targetPortId": dstPort,
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeJSON[map[string]string](t, rec)["error"]
}

func TestHealthAndCatalog(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeJSON[map[string]any](t, rec)["status"])

	rec = ts.do(http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON[struct {
		NodeTypes []catalog.NodeType `json:"nodeTypes"`
		Rules     []catalog.Rule     `json:"rules"`
	}](t, rec)
	assert.Len(t, body.NodeTypes, 7)
	assert.Equal(t, catalog.KindAgent, body.NodeTypes[0].Kind)
	require.Len(t, body.Rules, 1)
	assert.Equal(t, "single-memory", body.Rules[0].Name)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	assert.Equal(t, 1, ts.server.Sessions().Len())

	rec := ts.do(http.MethodGet, "/api/sessions/"+id+"/scene", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	scene := decodeJSON[editor.Scene](t, rec)
	assert.Equal(t, graph.DefaultID, scene.WorkflowID)
	assert.Equal(t, editor.ModeIdle, scene.Mode)
	assert.Empty(t, scene.Nodes)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/sessions/"+id+"/scene", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/sessions/"+id, nil).Code)
}

func TestCreateSessionWithOptions(t *testing.T) {
	ts := newTestServer(t, WithWorkflowOptions(graph.WithID("wf-9"), graph.WithName("Support bot")))

	rec := ts.do(http.MethodPost, "/api/sessions", map[string]any{"viewportWidth": 800, "viewportHeight": 600})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeJSON[SessionResponse](t, rec)
	assert.Equal(t, "wf-9", resp.Scene.WorkflowID)
	assert.Equal(t, "Support bot", resp.Scene.Name)
	assert.Equal(t, 800.0, resp.Scene.Viewport.Width)
	assert.Empty(t, resp.Issues)

	rec = ts.do(http.MethodPost, "/api/sessions", map[string]any{"viewportWidth": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "viewportwidth must be at least 0")

	rec = ts.do(http.MethodPost, "/api/sessions", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSessionFromDocument(t *testing.T) {
	ts := newTestServer(t)
	doc := document.Document{
		ID:   "imported",
		Name: "Imported",
		Nodes: []document.NodeRecord{
			{ID: "m", Type: catalog.KindMemory, Data: map[string]any{"maxTokens": "lots"}},
			{ID: "x", Type: "spaceship"},
		},
	}
	rec := ts.do(http.MethodPost, "/api/sessions", map[string]any{"document": doc})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeJSON[SessionResponse](t, rec)
	assert.Equal(t, "imported", resp.Scene.WorkflowID)
	assert.Len(t, resp.Scene.Nodes, 1)
	assert.Len(t, resp.Issues, 2)
}

func TestNodesAndConnections(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	base := "/api/sessions/" + id

	mem := ts.placeNode(id, catalog.KindMemory, 0, 0)
	agent := ts.placeNode(id, catalog.KindAgent, 400, 0)
	mem2 := ts.placeNode(id, catalog.KindMemory, 0, 600)
	tool := ts.placeNode(id, catalog.KindTool, 0, 300)
	assert.Equal(t, "AI Agent", agent.Label)
	assert.Equal(t, 400.0, agent.Position.X)

	rec := ts.do(http.MethodPost, base+"/nodes", map[string]any{"kind": "spaceship"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodPost, base+"/nodes", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "kind is required")

	rec = ts.do(http.MethodPost, base+"/connections", connectBody(mem.ID, "context", agent.ID, "memory"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decodeJSON[graph.Connection](t, rec)
	assert.Equal(t, "context → memory", c.Label)

	// second memory source
	rec = ts.do(http.MethodPost, base+"/connections", connectBody(mem2.ID, "context", agent.ID, "memory"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "An agent can only have one memory source", errorMessage(t, rec))

	body := connectBody(tool.ID, "result", agent.ID, "tools")
	body["label"] = "search"
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, base+"/connections", body).Code)

	tool2 := ts.placeNode(id, catalog.KindTool, 800, 300)
	body = connectBody(tool2.ID, "result", agent.ID, "tools")
	assert.Equal(t, http.StatusConflict, ts.do(http.MethodPost, base+"/connections", body).Code)
	body["replace"] = true
	assert.Equal(t, http.StatusCreated, ts.do(http.MethodPost, base+"/connections", body).Code)

	assert.Equal(t, http.StatusNotFound,
		ts.do(http.MethodPost, base+"/connections", connectBody("nope", "context", agent.ID, "memory")).Code)
	assert.Equal(t, http.StatusNotFound,
		ts.do(http.MethodPost, base+"/connections", connectBody(tool.ID, "nope", agent.ID, "retriever")).Code)
	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodPost, base+"/connections", connectBody(tool.ID, "result", tool.ID, "parameters")).Code)
	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodPost, base+"/connections", map[string]any{"sourceNodeId": tool.ID}).Code)

	rec = ts.do(http.MethodPatch, base+"/connections/"+c.ID, map[string]any{"label": "ctx"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ctx", decodeJSON[graph.Connection](t, rec).Label)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPatch, base+"/connections/nope", map[string]any{"label": "x"}).Code)

	rec = ts.do(http.MethodGet, base+"/scene", nil)
	scene := decodeJSON[editor.Scene](t, rec)
	assert.Len(t, scene.Nodes, 5)
	assert.Len(t, scene.Connections, 2)

	// delete cascades
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, base+"/nodes/"+agent.ID, nil).Code)
	scene = decodeJSON[editor.Scene](t, ts.do(http.MethodGet, base+"/scene", nil))
	assert.Len(t, scene.Nodes, 4)
	assert.Empty(t, scene.Connections)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, base+"/nodes/"+agent.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, base+"/connections/"+c.ID, nil).Code)
}

func TestMoveAndProperties(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	base := "/api/sessions/" + id
	agent := ts.placeNode(id, catalog.KindAgent, 0, 0)

	rec := ts.do(http.MethodPut, base+"/nodes/"+agent.ID+"/position", map[string]any{"x": 120, "y": 80})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 120.0, decodeJSON[graph.Node](t, rec).Position.X)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPut, base+"/nodes/nope/position", map[string]any{"x": 1}).Code)

	rec = ts.do(http.MethodPatch, base+"/nodes/"+agent.ID+"/properties", map[string]any{
		"temperature":  0.3,
		"systemPrompt": "Be **brief**.",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	n := decodeJSON[graph.Node](t, rec)
	assert.Equal(t, 0.3, n.Properties["temperature"])

	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodPatch, base+"/nodes/"+agent.ID+"/properties", map[string]any{"temperature": 4}).Code)
	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodPatch, base+"/nodes/"+agent.ID+"/properties", map[string]any{"colour": "red"}).Code)
	assert.Equal(t, http.StatusNotFound,
		ts.do(http.MethodPatch, base+"/nodes/nope/properties", map[string]any{"temperature": 0.1}).Code)

	rec = ts.do(http.MethodGet, base+"/nodes/"+agent.ID+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeJSON[map[string]string](t, rec)["systemPrompt"], "<strong>brief</strong>")
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, base+"/nodes/nope/preview", nil).Code)
}

func TestRejectedPropertyPatchLeavesNodeUnchanged(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	mem := ts.placeNode(id, catalog.KindMemory, 0, 0)
	path := "/api/sessions/" + id + "/nodes/" + mem.ID + "/properties"

	rec := ts.do(http.MethodPatch, path, map[string]any{"maxTokens": 10, "type": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "type must be one of")

	rec = ts.do(http.MethodPatch, path, map[string]any{"maxTokens": "NaN"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/sessions/"+id+"/document", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeJSON[document.Document](t, rec)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, 2000.0, doc.Nodes[0].Data["maxTokens"])
}

func TestDocumentRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	base := "/api/sessions/" + id
	mem := ts.placeNode(id, catalog.KindMemory, 0, 0)
	agent := ts.placeNode(id, catalog.KindAgent, 400, 0)
	body := connectBody(mem.ID, "context", agent.ID, "memory")
	body["label"] = "ctx"
	require.Equal(t, http.StatusCreated, ts.do(http.MethodPost, base+"/connections", body).Code)

	rec := ts.do(http.MethodGet, base+"/document", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), document.DefaultFileName)
	raw := rec.Body.String()
	assert.Contains(t, raw, `"sourcePortId": "context"`)
	assert.Contains(t, raw, `"label": "ctx"`)

	other := ts.createSession()
	rec = ts.do(http.MethodPut, "/api/sessions/"+other+"/document", raw)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeJSON[struct {
		Issues []document.Issue `json:"issues"`
		Scene  editor.Scene     `json:"scene"`
	}](t, rec)
	assert.Empty(t, resp.Issues)
	assert.Len(t, resp.Scene.Nodes, 2)
	assert.Len(t, resp.Scene.Connections, 1)

	rec = ts.do(http.MethodGet, "/api/sessions/"+other+"/document", nil)
	assert.JSONEq(t, raw, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPut, base+"/document", "not json").Code)
}

func TestExportFormats(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	base := "/api/sessions/" + id
	mem := ts.placeNode(id, catalog.KindMemory, 0, 0)
	agent := ts.placeNode(id, catalog.KindAgent, 400, 0)
	require.Equal(t, http.StatusCreated,
		ts.do(http.MethodPost, base+"/connections", connectBody(mem.ID, "context", agent.ID, "memory")).Code)

	cases := map[string]string{
		"mermaid": "flowchart LR",
		"dot":     "digraph",
		"ascii":   "My Agent Workflow:",
		"json":    `"nodes": [`,
		"svg":     "<svg ",
	}
	for format, want := range cases {
		rec := ts.do(http.MethodGet, base+"/export?format="+format, nil)
		require.Equal(t, http.StatusOK, rec.Code, format)
		assert.Contains(t, rec.Body.String(), want, format)
	}

	rec := ts.do(http.MethodGet, base+"/export?format=svg", nil)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `viewBox="-40 -40 680 230"`)

	rec = ts.do(http.MethodGet, base+"/scene.svg?background=%23fff", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="background"`)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, base+"/export?format=png", nil).Code)
}

func TestEventsDriveTheEditor(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	base := "/api/sessions/" + id
	ts.placeNode(id, catalog.KindMemory, 0, 0)
	ts.placeNode(id, catalog.KindAgent, 400, 0)
	ts.placeNode(id, catalog.KindMemory, 0, 600)

	drag := func(fromX, fromY, toX, toY float64) EventsResponse {
		rec := ts.do(http.MethodPost, base+"/events", map[string]any{"events": []map[string]any{
			{"type": "pointerdown", "x": fromX, "y": fromY},
			{"type": "pointermove", "x": toX, "y": toY},
			{"type": "pointerup", "x": toX, "y": toY},
		}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decodeJSON[EventsResponse](t, rec)
	}

	resp := drag(200, 80, 400, 40)
	assert.Len(t, resp.Scene.Connections, 1)
	assert.Empty(t, resp.Messages)
	assert.Equal(t, resp.Scene.Connections[0].ID, resp.Scene.Selection.ConnectionID)

	resp = drag(200, 680, 400, 40)
	assert.Len(t, resp.Scene.Connections, 1)
	assert.Equal(t, []string{"An agent can only have one memory source"}, resp.Messages)

	// messages are delivered once
	rec := ts.do(http.MethodPost, base+"/events", map[string]any{"events": []map[string]any{
		{"type": "keydown", "key": "Escape"},
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeJSON[EventsResponse](t, rec).Messages)

	rec = ts.do(http.MethodPost, base+"/events", map[string]any{"events": []map[string]any{{"type": "keydown"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodPost, base+"/events", map[string]any{"events": []map[string]any{{"type": "wheel"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodPost, base+"/events", map[string]any{"events": []map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewportAndLayout(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	base := "/api/sessions/" + id

	rec := ts.do(http.MethodPost, base+"/viewport", map[string]any{"zoomSteps": 5, "width": 800, "height": 600})
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeJSON[editor.Viewport](t, rec)
	assert.InDelta(t, 1.5, v.Scale, 1e-9)
	assert.Equal(t, 800.0, v.Width)

	rec = ts.do(http.MethodPost, base+"/viewport", map[string]any{"reset": true, "pan": map[string]float64{"x": 10, "y": 5}})
	v = decodeJSON[editor.Viewport](t, rec)
	assert.Equal(t, 1.0, v.Scale)
	assert.Equal(t, 10.0, v.Offset.X)

	rec = ts.do(http.MethodPost, base+"/viewport", map[string]any{"scale": 9})
	assert.Equal(t, 2.0, decodeJSON[editor.Viewport](t, rec).Scale)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, base+"/viewport", map[string]any{"zoomSteps": 99}).Code)

	mem := ts.placeNode(id, catalog.KindMemory, 0, 0)
	agent := ts.placeNode(id, catalog.KindAgent, 400, 0)
	require.Equal(t, http.StatusCreated,
		ts.do(http.MethodPost, base+"/connections", connectBody(mem.ID, "context", agent.ID, "memory")).Code)

	rec = ts.do(http.MethodPost, base+"/layout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[struct {
		Moved int          `json:"moved"`
		Scene editor.Scene `json:"scene"`
	}](t, rec)
	assert.Positive(t, resp.Moved)
	for _, n := range resp.Scene.Nodes {
		if n.ID == agent.ID {
			assert.Equal(t, 0.0, n.Bounds.Y)
		} else {
			assert.Less(t, n.Bounds.Y, 0.0)
		}
	}
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession()
	ts.placeNode(id, catalog.KindMemory, 0, 0)
	ts.do(http.MethodGet, "/api/sessions/"+id+"/scene", nil)

	rec := ts.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `agentflow_workflow_events_total{type="node_added"} 1`)
	assert.Contains(t, out, `agentflow_sessions 1`)
	assert.Contains(t, out, `agentflow_http_requests_total{method="GET",route="/api/sessions/{sessionID}/scene",status="200"} 1`)
	assert.Contains(t, out, `agentflow_http_request_duration_seconds`)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, WithAllowedOrigins("http://editor.local"))

	req := httptest.NewRequest(http.MethodOptions, "/api/catalog", nil)
	req.Header.Set("Origin", "http://editor.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://editor.local", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/catalog", nil)
	req.Header.Set("Origin", "http://evil.local")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestValidateStruct(t *testing.T) {
	err := ValidateStruct(ConnectRequest{SourceNodeID: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sourceportid is required")
	assert.Contains(t, err.Error(), "; ")

	err = ValidateStruct(InputEvent{Type: "keydown"})
	assert.ErrorContains(t, err, "key is required when Type keydown")

	assert.NoError(t, ValidateStruct(LabelRequest{Label: "ok"}))
}
