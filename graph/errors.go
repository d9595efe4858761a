package graph

import (
	"errors"
	"fmt"

	"github.com/smallnest/agentflow/catalog"
)

var (
	// ErrNodeNotFound is returned when an operation references a node id that does not exist.
	ErrNodeNotFound = errors.New("node not found")

	// ErrConnectionNotFound is returned when a connection id does not exist.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrPortNotFound is returned when a node has no port with the given name and direction.
	ErrPortNotFound = errors.New("port not found")

	// ErrPropertyNotFound is returned when a node's schema has no property with the given key.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrSelfLoop is returned when a connection would start and end on the same node.
	ErrSelfLoop = errors.New("cannot connect a node to itself")

	// ErrPortOccupied is returned when the target input already has a connection.
	ErrPortOccupied = errors.New("input port already connected")

	// ErrUnknownKind is returned when a node kind is not in the catalog.
	ErrUnknownKind = errors.New("unknown node kind")

	// ErrWrongDirection is returned when a connection does not run from an output to an input.
	ErrWrongDirection = errors.New("connections run from an output to an input")

	// ErrDuplicateID is returned when an entity is added with an id that is already taken.
	ErrDuplicateID = errors.New("duplicate id")
)

// RuleViolation is returned when a connection would break a catalog rule.
// Its message is meant to be shown to the user as is.
type RuleViolation struct {
	Rule   catalog.Rule
	Target PortRef
}

func (e *RuleViolation) Error() string {
	return e.Rule.Violation()
}

// IsRuleViolation reports whether err is or wraps a *RuleViolation.
func IsRuleViolation(err error) bool {
	var rv *RuleViolation
	return errors.As(err, &rv)
}

func notFound(err error, id string) error {
	return fmt.Errorf("%w: %s", err, id)
}
