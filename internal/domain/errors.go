package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// reservation, route, or rider does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrInvalidArgument is returned when caller input is malformed or refers to
// something the system does not offer (unknown trip type or card type, no
// route between the requested towns, negative ticket count).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidState is returned when an operation is not allowed in the
// reservation's current state, e.g. cancelling a paid reservation.
// Handlers should map this to HTTP 409 Conflict.
var ErrInvalidState = errors.New("invalid state")
