package models

import (
	"fmt"
	"strings"
)

// Priority is a scheduler hint passed through to the control plane verbatim.
// Preemption is decided remotely.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"

	DefaultPriority = PriorityMedium
)

func PriorityNames() []string {
	return []string{string(PriorityHigh), string(PriorityMedium), string(PriorityLow)}
}

func (p Priority) String() string {
	return string(p)
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.TrimSpace(s))
	if !p.IsValid() {
		return "", fmt.Errorf("%q is not a valid priority, expected one of: %s", s, strings.Join(PriorityNames(), ", "))
	}
	return p, nil
}
