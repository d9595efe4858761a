package document

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/smallnest/agentflow/catalog"
	"github.com/smallnest/agentflow/graph"
)

// Entity kinds reported in an Issue.
const (
	EntityNode       = "node"
	EntityConnection = "connection"
	EntityProperty   = "property"
)

// Issue describes one part of a document that was skipped or repaired on import.
type Issue struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %q: %s", i.Entity, i.ID, i.Reason)
}

// ToWorkflow rebuilds a workflow from doc.
//
// Ports come from the catalog and property values are the catalog defaults
// overlaid with the document's data. Nodes with an unknown type, a missing or
// duplicate id are skipped. Connections whose endpoints are missing, or that
// break a port or catalog rule, are skipped. A property value that does not
// fit its schema is replaced by the default. Every such case is returned as
// an Issue and logged at warn level.
func ToWorkflow(doc Document, reg *catalog.Registry, opts ...graph.Option) (*graph.Workflow, []Issue) {
	if reg == nil {
		reg = catalog.Default()
	}
	opts = append([]graph.Option{graph.WithID(doc.ID), graph.WithName(doc.Name)}, opts...)
	w := graph.New(reg, opts...)

	var issues []Issue
	report := func(entity, id, reason string) {
		issue := Issue{Entity: entity, ID: id, Reason: reason}
		w.Logger().Warn("import: %s", issue)
		issues = append(issues, issue)
	}

	for _, rec := range doc.Nodes {
		if rec.ID == "" {
			report(EntityNode, "", "missing id")
			continue
		}
		nt, ok := reg.Get(rec.Type)
		if !ok {
			report(EntityNode, rec.ID, fmt.Sprintf("unknown type %q", rec.Type))
			continue
		}

		props := nt.Defaults()
		for _, key := range slices.Sorted(maps.Keys(rec.Data)) {
			value := rec.Data[key]
			spec, known := nt.Property(key)
			if !known {
				props[key] = value
				continue
			}
			v, err := spec.Coerce(value)
			if err != nil {
				report(EntityProperty, rec.ID+"."+key, err.Error()+"; default kept")
				continue
			}
			props[key] = v
		}

		_, err := w.AddNode(graph.Node{
			ID:         rec.ID,
			Kind:       rec.Type,
			Label:      rec.Label,
			Position:   rec.Position,
			Properties: props,
		})
		if err != nil {
			report(EntityNode, rec.ID, err.Error())
		}
	}

	for _, rec := range doc.Connections {
		_, err := w.Connect(
			graph.Output(rec.SourceNodeID, rec.SourcePortID),
			graph.Input(rec.TargetNodeID, rec.TargetPortID),
			rec.Label,
			graph.WithConnectionID(rec.ID),
		)
		if err != nil {
			report(EntityConnection, rec.ID, connectionReason(err))
		}
	}

	return w, issues
}

func connectionReason(err error) string {
	var rv *graph.RuleViolation
	if errors.As(err, &rv) {
		return "rule " + rv.Rule.Name + ": " + rv.Error()
	}
	return err.Error()
}
