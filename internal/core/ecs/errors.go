package ecs

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrStaleEntity       = errors.New("ecs: entity not alive")
	ErrAlreadyPresent    = errors.New("ecs: component already present")
	ErrComponentNotFound = errors.New("ecs: component not found")
	ErrPoolTypeMismatch  = errors.New("ecs: pool type mismatch")
)

// ComponentNotFoundError is returned by Get and Replace when the entity has no
// component of the requested type. It matches ErrComponentNotFound.
type ComponentNotFoundError struct {
	Entity EntityID
	Type   reflect.Type
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("ecs: component %s not found on entity %s", e.Type, e.Entity)
}

func (e *ComponentNotFoundError) Is(target error) bool {
	return target == ErrComponentNotFound
}
