package ecs

import (
	"fmt"
	"reflect"
	"strings"
)

// Policy selects the storage layout of a component pool. It is resolved once
// when the pool for a type is first created.
type Policy uint8

const (
	// PolicyDefault keeps sparse pages for O(1) lookup and swap-remove.
	PolicyDefault Policy = iota
	// PolicyPacked keeps no sparse pages; lookups scan the packed array.
	// Meant for rare, low-cardinality types.
	PolicyPacked
	// PolicyFlag stores membership only, no payload.
	PolicyFlag
)

func (p Policy) String() string {
	switch p {
	case PolicyDefault:
		return "default"
	case PolicyPacked:
		return "packed"
	case PolicyFlag:
		return "flag"
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

// Fits reports whether a pool with policy p can hold values of typ. Flag
// pools keep no payload, so only zero-size types fit them.
func (p Policy) Fits(typ reflect.Type) bool {
	return p != PolicyFlag || typ.Size() == 0
}

// ParsePolicy accepts the names produced by String. "memory" and "optimized"
// are accepted as aliases of packed.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return PolicyDefault, nil
	case "packed", "memory", "optimized":
		return PolicyPacked, nil
	case "flag":
		return PolicyFlag, nil
	}
	return PolicyDefault, fmt.Errorf("ecs: unknown pool policy %q", s)
}

// PolicyTable is the explicit registration table of per-type storage
// policies. Types not listed get PolicyDefault.
type PolicyTable struct {
	byType map[reflect.Type]Policy
	byName map[string]Policy
}

func NewPolicyTable() *PolicyTable {
	return &PolicyTable{
		byType: make(map[reflect.Type]Policy),
		byName: make(map[string]Policy),
	}
}

// RegisterPolicy records the policy for T. It must happen before the first
// pool for T is created in any World sharing the table.
func RegisterPolicy[T any](t *PolicyTable, p Policy) {
	t.byType[reflect.TypeFor[T]()] = p
}

// SetByName records a policy for the type whose reflect name (e.g.
// "component.Selected") matches. Used by configuration.
func (t *PolicyTable) SetByName(name string, p Policy) {
	t.byName[name] = p
}

// Resolve returns the policy for typ. Explicit type registrations win over
// name-based ones.
func (t *PolicyTable) Resolve(typ reflect.Type) Policy {
	if t == nil {
		return PolicyDefault
	}
	if p, ok := t.byType[typ]; ok {
		return p
	}
	if p, ok := t.byName[typ.String()]; ok {
		return p
	}
	return PolicyDefault
}
