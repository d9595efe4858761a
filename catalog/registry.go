package catalog

import (
	"fmt"
	"slices"
	"sync"
)

// Registry is a read-only catalog of node types and connection rules.
// Lookups return copies, so callers may not mutate the registry through them.
type Registry struct {
	types  []NodeType
	byKind map[string]int
	rules  []Rule
}

// New validates the node types and rules and builds a registry. Types keep
// the order in which they are given; that order is the palette order.
func New(types []NodeType, rules []Rule) (*Registry, error) {
	r := &Registry{
		types:  make([]NodeType, 0, len(types)),
		byKind: make(map[string]int, len(types)),
	}
	for _, t := range types {
		t = t.clone()
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byKind[t.Kind]; dup {
			return nil, fmt.Errorf("duplicate node type %q", t.Kind)
		}
		r.byKind[t.Kind] = len(r.types)
		r.types = append(r.types, t)
	}
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		target, ok := r.Get(rule.TargetKind)
		if !ok {
			return nil, fmt.Errorf("rule %s: unknown target kind %q", rule.Name, rule.TargetKind)
		}
		if target.PortIndex(rule.TargetPort, DirectionInput) < 0 {
			return nil, fmt.Errorf("rule %s: %s has no input %q", rule.Name, rule.TargetKind, rule.TargetPort)
		}
		r.rules = append(r.rules, rule)
	}
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the built-in registry. It is built once and shared.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := New(DefaultNodeTypes(), DefaultRules())
		if err != nil {
			panic(fmt.Sprintf("catalog: invalid built-in catalog: %v", err))
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// Get returns the node type registered under kind.
func (r *Registry) Get(kind string) (NodeType, bool) {
	i, ok := r.byKind[kind]
	if !ok {
		return NodeType{}, false
	}
	return r.types[i].clone(), true
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	_, ok := r.byKind[kind]
	return ok
}

// All returns every node type in palette order.
func (r *Registry) All() []NodeType {
	out := make([]NodeType, len(r.types))
	for i, t := range r.types {
		out[i] = t.clone()
	}
	return out
}

// Kinds returns the registered kinds in palette order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, len(r.types))
	for i, t := range r.types {
		kinds[i] = t.Kind
	}
	return kinds
}

// Rules returns the connection rules.
func (r *Registry) Rules() []Rule {
	return slices.Clone(r.rules)
}

// RulesFor returns the rules that count a connection with the given endpoints.
func (r *Registry) RulesFor(sourceKind, targetKind, targetPort string) []Rule {
	var out []Rule
	for _, rule := range r.rules {
		if rule.Applies(sourceKind, targetKind, targetPort) {
			out = append(out, rule)
		}
	}
	return out
}

// Extend returns a new registry with additional node types and rules. A type
// whose kind is already registered replaces the existing definition in place.
func (r *Registry) Extend(types []NodeType, rules []Rule) (*Registry, error) {
	merged := r.All()
	for _, t := range types {
		if i, ok := r.byKind[t.Kind]; ok {
			merged[i] = t
			continue
		}
		merged = append(merged, t)
	}
	return New(merged, append(r.Rules(), rules...))
}

// ExtendFiles loads each file with LoadFile and folds it into a new registry.
func (r *Registry) ExtendFiles(paths ...string) (*Registry, error) {
	reg := r
	for _, path := range paths {
		f, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		reg, err = reg.Extend(f.NodeTypes, f.Rules)
		if err != nil {
			return nil, fmt.Errorf("extending catalog with %s: %w", path, err)
		}
	}
	return reg, nil
}
