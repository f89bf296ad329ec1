package domain

import "errors"

// Error kinds surfaced by classification, extraction and directory lookups.
// Match them with errors.Is.
var (
	ErrUnsupportedResourceType = errors.New("unsupported resource type")
	ErrUnsupportedResourceName = errors.New("unsupported resource name")
	ErrMalformedResourcePath   = errors.New("malformed resource path")
	ErrAttributeParse          = errors.New("attribute parse error")
	ErrAttributeMissing        = errors.New("attribute missing")
	ErrRoleNotFound            = errors.New("role not found")
	ErrDirectoryLookup         = errors.New("directory lookup failed")
	ErrUnknownRealm            = errors.New("unknown realm")
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// EventError attaches diagnostic detail and an optional cause to an error kind.
type EventError struct {
	Kind   error
	Detail string
	Err    error
}

// NewEventError builds an EventError of the given kind.
func NewEventError(kind error, detail string, cause error) *EventError {
	return &EventError{Kind: kind, Detail: detail, Err: cause}
}

func (e *EventError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is the kind of this error.
func (e *EventError) Is(target error) bool { return e.Kind == target }

// Unwrap returns the underlying cause, if any.
func (e *EventError) Unwrap() error { return e.Err }
