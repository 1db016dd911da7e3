package proxy

import "errors"

var (
	// ErrReleased is returned when a released Requestor is used.
	ErrReleased = errors.New("proxy: requestor released")

	// ErrUnknownSpec is returned when a Requestor's slot has been evicted.
	ErrUnknownSpec = errors.New("proxy: specification not registered")

	// ErrForeignRequestor is returned when a Requestor is passed to a cache
	// that did not issue it.
	ErrForeignRequestor = errors.New("proxy: requestor belongs to another cache")

	// ErrGroupRedeclared is returned when an instance type is bound to a
	// second group after its cache exists.
	ErrGroupRedeclared = errors.New("proxy: instance group already declared")
)
