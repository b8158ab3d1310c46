package ai

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure so callers can branch on it.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindUpstream
	KindMalformedResponse
	KindMissingField
	KindTypeCoercion
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindUpstream:
		return "upstream"
	case KindMalformedResponse:
		return "malformed_response"
	case KindMissingField:
		return "missing_field"
	case KindTypeCoercion:
		return "type_coercion"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrConfiguration     = &Error{Kind: KindConfiguration}
	ErrUpstream          = &Error{Kind: KindUpstream}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrMissingField      = &Error{Kind: KindMissingField}
	ErrTypeCoercion      = &Error{Kind: KindTypeCoercion}
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// Error is the single error type produced by the completion clients and the response parser.
type Error struct {
	Kind  Kind
	Stage string // stage name, set by the orchestrator
	Field string // element path for missing field / coercion errors
	Value string // offending text for coercion errors
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" %q", e.Field)
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Stage == "" && t.Field == "" && t.Msg == "" && t.Err == nil
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// WithStage returns a copy of err tagged with the stage name.
// Errors that are not *Error are wrapped as upstream failures.
func WithStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		cp.Stage = stage
		return &cp
	}
	return &Error{Kind: KindUpstream, Stage: stage, Err: err}
}

func Configuration(msg string) error { return &Error{Kind: KindConfiguration, Msg: msg} }

func Upstream(msg string, err error) error {
	return &Error{Kind: KindUpstream, Msg: msg, Err: err}
}

func Malformed(msg string, err error) error {
	return &Error{Kind: KindMalformedResponse, Msg: msg, Err: err}
}

func MissingField(path string) error { return &Error{Kind: KindMissingField, Field: path} }

func TypeCoercion(path, value, msg string) error {
	return &Error{Kind: KindTypeCoercion, Field: path, Value: value, Msg: msg}
}
