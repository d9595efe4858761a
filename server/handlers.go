package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/document"
	"github.com/smallnest/agentflow/editor"
	"github.com/smallnest/agentflow/geometry"
	"github.com/smallnest/agentflow/graph"
	"github.com/smallnest/agentflow/render"
)

// CreateSessionRequest represents the request body for creating a session.
// An empty body starts an empty workflow.
type CreateSessionRequest struct {
	Document       *document.Document `json:"document,omitempty"`
	ViewportWidth  float64            `json:"viewportWidth" validate:"gte=0"`
	ViewportHeight float64            `json:"viewportHeight" validate:"gte=0"`
}

// SessionResponse describes a session.
type SessionResponse struct {
	ID     string           `json:"id"`
	Issues []document.Issue `json:"issues"`
	Scene  editor.Scene     `json:"scene"`
}

// PlaceNodeRequest adds a node. Without a position it lands at the centre of the viewport.
type PlaceNodeRequest struct {
	Kind     string          `json:"kind" validate:"required"`
	Position *geometry.Point `json:"position,omitempty"`
}

// PositionRequest moves a node.
type PositionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ConnectRequest creates a connection. An empty label gets the default
// "source → target" label. Replace takes over an occupied input.
type ConnectRequest struct {
	SourceNodeID string `json:"sourceNodeId" validate:"required"`
	SourcePortID string `json:"sourcePortId" validate:"required"`
	TargetNodeID string `json:"targetNodeId" validate:"required"`
	TargetPortID string `json:"targetPortId" validate:"required"`
	Label        string `json:"label" validate:"max=200"`
	Replace      bool   `json:"replace"`
}

// LabelRequest changes a connection label.
type LabelRequest struct {
	Label string `json:"label" validate:"max=200"`
}

// ViewportRequest changes the viewport. Reset is applied first, then Scale,
// then ZoomSteps around Anchor (or the viewport centre), then Pan.
type ViewportRequest struct {
	Reset     bool            `json:"reset"`
	Scale     *float64        `json:"scale,omitempty" validate:"omitempty,gt=0"`
	ZoomSteps int             `json:"zoomSteps" validate:"gte=-20,lte=20"`
	Anchor    *geometry.Point `json:"anchor,omitempty"`
	Pan       *geometry.Point `json:"pan,omitempty"`
	Width     *float64        `json:"width,omitempty" validate:"omitempty,gte=0"`
	Height    *float64        `json:"height,omitempty" validate:"omitempty,gte=0"`
}

// InputEvent is one pointer or keyboard event in screen space.
type InputEvent struct {
	Type   string  `json:"type" validate:"required,oneof=pointerdown pointermove pointerup keydown"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button" validate:"gte=0,lte=2"`
	Alt    bool    `json:"alt"`
	Key    string  `json:"key" validate:"required_if=Type keydown"`
}

// EventsRequest feeds a batch of input events to the editor.
type EventsRequest struct {
	Events []InputEvent `json:"events" validate:"required,min=1,dive"`
}

// EventsResponse is the scene after the events plus any messages for the user.
type EventsResponse struct {
	Scene    editor.Scene `json:"scene"`
	Messages []string     `json:"messages"`
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"nodeTypes": s.registry.All(),
		"rules":     s.registry.Rules(),
	})
}

func (s *Server) graphOptions() []graph.Option {
	return []graph.Option{graph.WithLogger(s.logger), graph.WithListener(s.metrics.Listener())}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}
	if err := ValidateStruct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	var (
		wf     *graph.Workflow
		issues []document.Issue
	)
	if req.Document != nil {
		wf, issues = document.ToWorkflow(*req.Document, s.registry, s.graphOptions()...)
	} else {
		opts := append(append([]graph.Option{}, s.workflowOpts...), s.graphOptions()...)
		wf = graph.New(s.registry, opts...)
	}

	sess := s.sessions.Create(func(notify editor.Notifier) *editor.Editor {
		return editor.New(wf,
			editor.WithNotifier(notify),
			editor.WithLogger(s.logger),
			editor.WithLayoutOptions(s.layoutOpts),
			editor.WithViewportSize(req.ViewportWidth, req.ViewportHeight))
	})
	s.metrics.Sessions.Set(float64(s.sessions.Len()))
	s.logger.Info("session %s created with %d nodes", sess.ID, wf.NodeCount())

	resp := SessionResponse{ID: sess.ID, Issues: nonNil(issues)}
	sess.Do(func(e *editor.Editor) { resp.Scene = e.Scene() })
	s.respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "sessionID")) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.metrics.Sessions.Set(float64(s.sessions.Len()))
	w.WriteHeader(http.StatusNoContent)
}

// withSession resolves the session of the request and runs fn under its lock.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(sess *Session, e *editor.Editor)) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	sess.Do(func(e *editor.Editor) { fn(sess, e) })
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		data, err := document.Marshal(e.Document())
		if err != nil {
			s.logger.Error("marshal document: %v", err)
			s.respondError(w, http.StatusInternalServerError, "failed to encode document")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", document.DefaultFileName))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(append(data, '\n'))
	})
}

func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := document.Decode(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid document: "+err.Error())
		return
	}
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		issues := e.Load(doc, graph.WithListener(s.metrics.Listener()))
		s.respondJSON(w, http.StatusOK, map[string]any{
			"issues": nonNil(issues),
			"scene":  e.Scene(),
		})
	})
}

func (s *Server) getScene(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		s.respondJSON(w, http.StatusOK, e.Scene())
	})
}

func (s *Server) getSceneSVG(w http.ResponseWriter, r *http.Request) {
	s.writeSVG(w, r, render.SVGOptions{
		Fit:        r.URL.Query().Get("fit") == "true",
		Background: r.URL.Query().Get("background"),
	})
}

func (s *Server) writeSVG(w http.ResponseWriter, r *http.Request, opts render.SVGOptions) {
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(render.SVG(e.Scene(), opts)))
	})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" || format == "json" {
		s.getDocument(w, r)
		return
	}
	if format == "svg" {
		s.writeSVG(w, r, render.SVGOptions{Fit: true})
		return
	}

	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		exporter := graph.NewExporter(e.Workflow())
		var out string
		switch format {
		case "mermaid":
			out = exporter.DrawMermaid()
		case "dot":
			out = exporter.DrawDOT()
		case "ascii":
			out = exporter.DrawASCII()
		default:
			s.respondError(w, http.StatusBadRequest, "format must be one of: json mermaid dot ascii svg")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out))
	})
}

func (s *Server) placeNode(w http.ResponseWriter, r *http.Request) {
	var req PlaceNodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		if !e.Workflow().Registry().Has(req.Kind) {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("%v: %s", graph.ErrUnknownKind, req.Kind))
			return
		}
		var n graph.Node
		if req.Position != nil {
			n, _ = e.Workflow().PlaceNode(req.Kind, *req.Position)
			e.SelectNode(n.ID)
		} else {
			n, _ = e.PlaceNode(req.Kind)
		}
		s.respondJSON(w, http.StatusCreated, n)
	})
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		if !e.Workflow().DeleteNode(id) {
			s.respondError(w, http.StatusNotFound, "node not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) moveNode(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "nodeID")
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		if !e.Workflow().MoveNode(id, geometry.Pt(req.X, req.Y)) {
			s.respondError(w, http.StatusNotFound, "node not found")
			return
		}
		n, _ := e.Workflow().Node(id)
		s.respondJSON(w, http.StatusOK, n)
	})
}

func (s *Server) updateProperties(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	id := chi.URLParam(r, "nodeID")
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		if err := e.Workflow().SetNodeProperties(id, values); err != nil {
			s.respondGraphError(w, err)
			return
		}
		n, _ := e.Workflow().Node(id)
		s.respondJSON(w, http.StatusOK, n)
	})
}

func (s *Server) previewNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		previews, ok := render.PropertyPreviews(e.Workflow(), id)
		if !ok {
			s.respondError(w, http.StatusNotFound, "node not found")
			return
		}
		s.respondJSON(w, http.StatusOK, previews)
	})
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		source := graph.Output(req.SourceNodeID, req.SourcePortID)
		target := graph.Input(req.TargetNodeID, req.TargetPortID)

		label := req.Label
		if label == "" {
			label = graph.DefaultLabel(req.SourcePortID, req.TargetPortID)
		}
		var opts []graph.ConnectOption
		if req.Replace {
			opts = append(opts, graph.ReplaceExisting())
		}

		c, err := e.Workflow().Connect(source, target, label, opts...)
		if err != nil {
			s.respondGraphError(w, err)
			return
		}
		e.SelectConnection(c.ID)
		s.respondJSON(w, http.StatusCreated, c)
	})
}

func (s *Server) relabelConnection(w http.ResponseWriter, r *http.Request) {
	var req LabelRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "connectionID")
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		if !e.SetConnectionLabel(id, req.Label) {
			s.respondError(w, http.StatusNotFound, "connection not found")
			return
		}
		c, _ := e.Workflow().Connection(id)
		s.respondJSON(w, http.StatusOK, c)
	})
}

func (s *Server) deleteConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "connectionID")
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		if !e.Workflow().DeleteConnection(id) {
			s.respondError(w, http.StatusNotFound, "connection not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) updateViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		if req.Reset {
			e.ResetView()
		}
		if req.Width != nil || req.Height != nil {
			v := e.Viewport()
			width, height := v.Width, v.Height
			if req.Width != nil {
				width = *req.Width
			}
			if req.Height != nil {
				height = *req.Height
			}
			e.SetViewportSize(width, height)
		}
		if req.Scale != nil {
			e.Zoom(*req.Scale)
		}
		if req.ZoomSteps != 0 {
			anchor := geometry.Pt(e.Viewport().Width/2, e.Viewport().Height/2)
			if req.Anchor != nil {
				anchor = *req.Anchor
			}
			e.ZoomAt(anchor, req.ZoomSteps)
		}
		if req.Pan != nil {
			e.PanBy(req.Pan.X, req.Pan.Y)
		}
		s.respondJSON(w, http.StatusOK, e.Viewport())
	})
}

func (s *Server) autoLayout(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(_ *Session, e *editor.Editor) {
		moved := e.AutoLayout()
		s.respondJSON(w, http.StatusOK, map[string]any{
			"moved": moved,
			"scene": e.Scene(),
		})
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var req EventsRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.withSession(w, r, func(sess *Session, e *editor.Editor) {
		for _, ev := range req.Events {
			pe := editor.PointerEvent{X: ev.X, Y: ev.Y, Button: editor.Button(ev.Button), Alt: ev.Alt}
			switch ev.Type {
			case "pointerdown":
				e.PointerDown(pe)
			case "pointermove":
				e.PointerMove(pe)
			case "pointerup":
				e.PointerUp(pe)
			case "keydown":
				e.KeyDown(editor.Key(ev.Key))
			}
		}
		s.respondJSON(w, http.StatusOK, EventsResponse{Scene: e.Scene(), Messages: sess.drainMessages()})
	})
}

// decode reads and validates a JSON body. It writes the error response and
// returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := ValidateStruct(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return false
	}
	return true
}

// respondGraphError maps graph and catalog errors to status codes.
func (s *Server) respondGraphError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case graph.IsRuleViolation(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, graph.ErrPortOccupied), errors.Is(err, graph.ErrDuplicateID):
		status = http.StatusConflict
	case errors.Is(err, graph.ErrNodeNotFound), errors.Is(err, graph.ErrConnectionNotFound),
		errors.Is(err, graph.ErrPortNotFound):
		status = http.StatusNotFound
	case errors.Is(err, graph.ErrPropertyNotFound), errors.Is(err, catalog.ErrInvalidValue),
		errors.Is(err, graph.ErrSelfLoop), errors.Is(err, graph.ErrWrongDirection):
		status = http.StatusBadRequest
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
