package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Direction tells whether a port receives or emits connections.
type Direction int

const (
	// DirectionInput ports sit on the left edge and accept at most one connection.
	DirectionInput Direction = iota
	// DirectionOutput ports sit on the right edge and may fan out.
	DirectionOutput
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	default:
		return "unknown"
	}
}

// MarshalText encodes the direction as "input" or "output".
func (d Direction) MarshalText() ([]byte, error) {
	if d != DirectionInput && d != DirectionOutput {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText parses "input" or "output".
func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "input":
		*d = DirectionInput
	case "output":
		*d = DirectionOutput
	default:
		return fmt.Errorf("invalid direction %q", text)
	}
	return nil
}

// PropertyKind selects the editor widget for a property.
type PropertyKind string

const (
	PropertyText      PropertyKind = "text"
	PropertyNumber    PropertyKind = "number"
	PropertySelect    PropertyKind = "select"
	PropertyRange     PropertyKind = "range"
	PropertyMultiline PropertyKind = "multiline"
)

// Valid reports whether k is one of the known property kinds.
func (k PropertyKind) Valid() bool {
	switch k {
	case PropertyText, PropertyNumber, PropertySelect, PropertyRange, PropertyMultiline:
		return true
	}
	return false
}

// ErrInvalidValue is returned by PropertySpec.Coerce when a value does not fit the property.
var ErrInvalidValue = errors.New("invalid property value")

// PropertySpec describes one editable property of a node type.
type PropertySpec struct {
	Key     string       `json:"key" toml:"key" yaml:"key"`
	Kind    PropertyKind `json:"kind" toml:"kind" yaml:"kind"`
	Label   string       `json:"label" toml:"label" yaml:"label"`
	Default any          `json:"default" toml:"default" yaml:"default"`
	Options []string     `json:"options,omitempty" toml:"options" yaml:"options"`
	Min     float64      `json:"min,omitempty" toml:"min" yaml:"min"`
	Max     float64      `json:"max,omitempty" toml:"max" yaml:"max"`
	Step    float64      `json:"step,omitempty" toml:"step" yaml:"step"`
}

// Coerce converts value into the canonical representation for the property.
// Numbers and ranges become finite float64s (numeric strings are accepted), selects
// must name one of the options, and text kinds must be strings.
func (p PropertySpec) Coerce(value any) (any, error) {
	switch p.Kind {
	case PropertyNumber, PropertyRange:
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a number, got %T", ErrInvalidValue, p.Key, value)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %s must be a finite number", ErrInvalidValue, p.Key)
		}
		if p.Kind == PropertyRange && p.Max > p.Min && (f < p.Min || f > p.Max) {
			return nil, fmt.Errorf("%w: %s must be within [%g, %g]", ErrInvalidValue, p.Key, p.Min, p.Max)
		}
		return f, nil
	case PropertySelect:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidValue, p.Key, value)
		}
		if len(p.Options) > 0 && !slices.Contains(p.Options, s) {
			return nil, fmt.Errorf("%w: %s must be one of %s", ErrInvalidValue, p.Key, strings.Join(p.Options, ", "))
		}
		return s, nil
	case PropertyText, PropertyMultiline:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidValue, p.Key, value)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidValue, p.Key, p.Kind)
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// NodeType is the static definition of one node kind: its ports and property schema.
type NodeType struct {
	Kind        string         `json:"kind" toml:"kind" yaml:"kind"`
	DisplayName string         `json:"displayName" toml:"display_name" yaml:"display_name"`
	Color       string         `json:"color,omitempty" toml:"color" yaml:"color"`
	Inputs      []string       `json:"inputs" toml:"inputs" yaml:"inputs"`
	Outputs     []string       `json:"outputs" toml:"outputs" yaml:"outputs"`
	Properties  []PropertySpec `json:"properties" toml:"properties" yaml:"properties"`
}

// Validate checks the structural invariants of a node type and normalises
// property defaults in place.
func (t *NodeType) Validate() error {
	if strings.TrimSpace(t.Kind) == "" {
		return errors.New("node type has an empty kind")
	}
	if err := uniqueNames(t.Inputs); err != nil {
		return fmt.Errorf("node type %s inputs: %w", t.Kind, err)
	}
	if err := uniqueNames(t.Outputs); err != nil {
		return fmt.Errorf("node type %s outputs: %w", t.Kind, err)
	}

	seen := make(map[string]bool, len(t.Properties))
	for i := range t.Properties {
		p := &t.Properties[i]
		if p.Key == "" {
			return fmt.Errorf("node type %s: property %d has an empty key", t.Kind, i)
		}
		if seen[p.Key] {
			return fmt.Errorf("node type %s: duplicate property %q", t.Kind, p.Key)
		}
		seen[p.Key] = true

		if !p.Kind.Valid() {
			return fmt.Errorf("node type %s: property %s has unknown kind %q", t.Kind, p.Key, p.Kind)
		}
		if p.Kind == PropertySelect && len(p.Options) == 0 {
			return fmt.Errorf("node type %s: select property %s has no options", t.Kind, p.Key)
		}
		if p.Kind == PropertyRange && p.Max <= p.Min {
			return fmt.Errorf("node type %s: range property %s needs max > min", t.Kind, p.Key)
		}
		def, err := p.Coerce(p.Default)
		if err != nil {
			return fmt.Errorf("node type %s: default: %w", t.Kind, err)
		}
		p.Default = def
	}
	return nil
}

func uniqueNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return errors.New("empty port name")
		}
		if seen[n] {
			return fmt.Errorf("duplicate port %q", n)
		}
		seen[n] = true
	}
	return nil
}

// Defaults returns a fresh property map seeded from the schema defaults.
func (t NodeType) Defaults() map[string]any {
	values := make(map[string]any, len(t.Properties))
	for _, p := range t.Properties {
		values[p.Key] = p.Default
	}
	return values
}

// Property looks up a property spec by key.
func (t NodeType) Property(key string) (PropertySpec, bool) {
	for _, p := range t.Properties {
		if p.Key == key {
			return p, true
		}
	}
	return PropertySpec{}, false
}

// Ports returns the port names for one direction.
func (t NodeType) Ports(dir Direction) []string {
	if dir == DirectionInput {
		return t.Inputs
	}
	return t.Outputs
}

// PortIndex returns the position of a port within its direction's list, or -1.
func (t NodeType) PortIndex(name string, dir Direction) int {
	return slices.Index(t.Ports(dir), name)
}

func (t NodeType) clone() NodeType {
	c := t
	c.Inputs = slices.Clone(t.Inputs)
	c.Outputs = slices.Clone(t.Outputs)
	c.Properties = make([]PropertySpec, len(t.Properties))
	for i, p := range t.Properties {
		p.Options = slices.Clone(p.Options)
		c.Properties[i] = p
	}
	return c
}
