package catalog

import (
	"errors"
	"fmt"
)

// Rule limits how many connections from nodes of SourceKind may enter
// TargetPort of a single node of TargetKind. An empty SourceKind matches
// any source.
type Rule struct {
	Name       string `json:"name" toml:"name" yaml:"name"`
	SourceKind string `json:"sourceKind,omitempty" toml:"source_kind" yaml:"source_kind"`
	TargetKind string `json:"targetKind" toml:"target_kind" yaml:"target_kind"`
	TargetPort string `json:"targetPort" toml:"target_port" yaml:"target_port"`
	Max        int    `json:"max" toml:"max" yaml:"max"`
	Message    string `json:"message" toml:"message" yaml:"message"`
}

// Applies reports whether a connection with the given endpoints counts against the rule.
func (r Rule) Applies(sourceKind, targetKind, targetPort string) bool {
	if r.TargetKind != targetKind || r.TargetPort != targetPort {
		return false
	}
	return r.SourceKind == "" || r.SourceKind == sourceKind
}

// Validate checks that the rule is usable.
func (r Rule) Validate() error {
	if r.Name == "" {
		return errors.New("rule has an empty name")
	}
	if r.TargetKind == "" || r.TargetPort == "" {
		return fmt.Errorf("rule %s: target kind and port are required", r.Name)
	}
	if r.Max < 1 {
		return fmt.Errorf("rule %s: max must be at least 1", r.Name)
	}
	return nil
}

// Violation returns the user-visible message for the rule.
func (r Rule) Violation() string {
	if r.Message != "" {
		return r.Message
	}
	return fmt.Sprintf("%s accepts at most %d connection(s) from %s", r.TargetPort, r.Max, r.sourceLabel())
}

func (r Rule) sourceLabel() string {
	if r.SourceKind == "" {
		return "any node"
	}
	return r.SourceKind
}
