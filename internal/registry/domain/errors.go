package registry

import "errors"

// ErrNotFound indicates a missing registry entry.
var ErrNotFound = errors.New("registry: tool not found")

// ErrDuplicate indicates a registry entry already exists for the tool id.
var ErrDuplicate = errors.New("registry: tool already exists")

// ErrInvalid indicates a caller-fixable problem with the submitted entry.
var ErrInvalid = errors.New("registry: invalid tool")
