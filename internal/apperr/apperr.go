// Package apperr defines the single error taxonomy surfaced by the sync
// engine. Every failure crossing the procedure boundary is classified into
// one of four kinds so downstream consumers (mutation dispatcher, query
// cache, notifications) never have to inspect raw transport errors.
package apperr

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for presentation and retry decisions.
type Kind string

const (
	// KindValidation carries structured per-field messages from the server.
	KindValidation Kind = "validation"
	// KindAuthz is an authentication/authorization failure. The caller
	// decides navigation; it is never retried.
	KindAuthz Kind = "authz"
	// KindGeneric covers transport failures, unparseable error bodies and
	// unexpected exceptions.
	KindGeneric Kind = "generic"
	// KindApp is a locally-raised application error, passed through verbatim.
	KindApp Kind = "app"
)

// Wire error type discriminators used by the server's error envelope.
const (
	wireValidationError = "validation-error"
	wireAuthzError      = "authz-error"
)

// Messages shown when the underlying failure is not user-presentable.
const (
	GenericMessage      = "An error occurred, we are working on it, please try again later!"
	ConnectivityMessage = "Unable to connect to the server, please try again later!"
	ValidationMessage   = "One or more fields are invalid"
)

// Error is the classified error surfaced to every consumer.
type Error struct {
	Kind    Kind
	Message string

	// Fields holds per-field messages for KindValidation.
	Fields map[string][]string

	// Procedure is the remote operation that failed, when known.
	Procedure string

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Procedure != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Procedure)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether retrying the operation could plausibly change
// the outcome. Validation and authz failures are client- or policy-side and
// gain nothing from a retry.
func (e *Error) Retryable() bool {
	return e.Kind == KindGeneric
}

// FieldSummary flattens validation field errors into "field: msg, msg" lines
// for aggregate display when no form is available.
func (e *Error) FieldSummary() string {
	if len(e.Fields) == 0 {
		return ""
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		lines = append(lines, fmt.Sprintf("%s: %s", field, strings.Join(e.Fields[field], ", ")))
	}
	return strings.Join(lines, "\n")
}

// NewApp creates a locally-raised application error.
func NewApp(message string) *Error {
	return &Error{Kind: KindApp, Message: message}
}

// NewGeneric creates a generic error wrapping an underlying cause.
func NewGeneric(message string, cause error) *Error {
	if message == "" {
		message = GenericMessage
	}
	return &Error{Kind: KindGeneric, Message: message, cause: cause}
}

// wireDetails mirrors the structured error body of the procedure envelope:
// either a bare string or {type, ...}.
type wireDetails struct {
	Type    string              `json:"type"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// FromWire classifies the raw `error` member of a procedure response for the
// named procedure. The raw value is either a JSON string or a structured
// object carrying a "type" discriminator; anything else degrades to a
// generic error.
func FromWire(procedure string, raw json.RawMessage) *Error {
	if len(raw) == 0 {
		return &Error{Kind: KindGeneric, Message: GenericMessage, Procedure: procedure}
	}

	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return &Error{Kind: KindGeneric, Message: remapConnectivity(msg), Procedure: procedure}
	}

	var details wireDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return &Error{Kind: KindGeneric, Message: GenericMessage, Procedure: procedure, cause: err}
	}

	switch details.Type {
	case wireValidationError:
		return &Error{
			Kind:      KindValidation,
			Message:   ValidationMessage,
			Fields:    details.Errors,
			Procedure: procedure,
		}
	case wireAuthzError:
		return &Error{Kind: KindAuthz, Message: details.Message, Procedure: procedure}
	default:
		return &Error{Kind: KindGeneric, Message: GenericMessage, Procedure: procedure}
	}
}

// Classify coerces any error into the taxonomy. Errors already classified
// pass through; everything else is wrapped as generic with connectivity
// remapping applied to known transport messages.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*Error); ok {
		return appErr
	}
	return &Error{Kind: KindGeneric, Message: remapConnectivity(err.Error()), cause: err}
}

// remapConnectivity replaces known "server unreachable" messages with a
// connectivity-specific one. The matched substrings come from the transports
// the client runs on.
func remapConnectivity(msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case lower == "load failed",
		strings.HasPrefix(lower, "failed to call procedure"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"):
		return ConnectivityMessage
	}
	if msg == "" {
		return GenericMessage
	}
	return msg
}
