package projects

import "errors"

// ErrNotFound is returned when no project matches the given code or id.
var ErrNotFound = errors.New("project not found")

// ErrInvalidInput marks request validation failures. Wrap it with the reason.
var ErrInvalidInput = errors.New("invalid input")
