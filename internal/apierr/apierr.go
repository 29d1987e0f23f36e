// Package apierr classifies failed API calls.
//
// Classification is pure: it looks at a status code and a response body and
// never performs side effects. The gateway handler decides what to do with
// each Kind.
package apierr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the category of an API failure
type Kind int

const (
	Unclassified Kind = iota
	Unauthorized
	Forbidden
	NotFound
	ValidationFailed
	ServerError
	NetworkFailure
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case ValidationFailed:
		return "validation_failed"
	case ServerError:
		return "server_error"
	case NetworkFailure:
		return "network_failure"
	default:
		return "unclassified"
	}
}

// Classify maps an HTTP status onto a Kind. Only 500 is a server error;
// other 5xx statuses are unclassified.
func Classify(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return Unauthorized
	case http.StatusForbidden:
		return Forbidden
	case http.StatusNotFound:
		return NotFound
	case http.StatusUnprocessableEntity:
		return ValidationFailed
	case http.StatusInternalServerError:
		return ServerError
	default:
		return Unclassified
	}
}

// FieldError is one validation message for one field
type FieldError struct {
	Field   string
	Message string
}

// Error is a failed API call
type Error struct {
	Kind    Kind
	Status  int // 0 for network failures
	Method  string
	Path    string
	Message string       // server-provided message, if any
	Fields  []FieldError // 422 field errors in response order
	Err     error        // transport error for network failures
}

func (e *Error) Error() string {
	if e.Kind == NetworkFailure {
		return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s failed (status %d): %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s failed (status %d)", e.Method, e.Path, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FromResponse builds an Error from a non-2xx response
func FromResponse(method, path string, status int, body []byte) *Error {
	e := &Error{
		Kind:   Classify(status),
		Status: status,
		Method: method,
		Path:   path,
	}

	e.Message = extractMessage(body)
	if e.Kind == ValidationFailed {
		e.Fields = extractFieldErrors(body)
	}

	return e
}

// Network builds an Error for a request that never got a response
func Network(method, path string, err error) *Error {
	return &Error{
		Kind:   NetworkFailure,
		Method: method,
		Path:   path,
		Err:    err,
	}
}

// As extracts an *Error from err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an API error of kind k
func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.Status
	}
	return 0
}

func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if s, ok := payload.Error.(string); ok {
		return s
	}
	return ""
}

// extractFieldErrors reads {"errors": {"field": "msg" | ["msg", ...]}} and
// keeps the object's key order. encoding/json maps would lose it, so the
// object is walked token by token.
func extractFieldErrors(body []byte) []FieldError {
	var envelope struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Errors) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.Errors))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var fields []FieldError
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fields
		}
		field, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fields
		}

		for _, msg := range messagesOf(raw) {
			fields = append(fields, FieldError{Field: field, Message: msg})
		}
	}

	return fields
}

func messagesOf(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if s := strings.TrimSpace(single); s != "" {
			return []string{s}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		out := make([]string, 0, len(many))
		for _, m := range many {
			if s := strings.TrimSpace(m); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	return nil
}
