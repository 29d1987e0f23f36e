package api

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Envelope is the {data, message, success} wrapper most endpoints return
type Envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Success *bool  `json:"success,omitempty"`
}

// List is an envelope whose data is a JSON array
type List[T any] struct {
	Data    []T    `json:"data" validate:"required,dive"`
	Message string `json:"message,omitempty"`
	Success *bool  `json:"success,omitempty"`
}

// Message is the envelope of endpoints that only acknowledge
type Message struct {
	Message string `json:"message"`
	Success *bool  `json:"success,omitempty"`
}

// DecodeError means a 2xx response did not have the shape the caller expected
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unexpected response from %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks v's `validate` struct tags. Non-struct values pass.
func Validate(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return validatorInstance().Struct(v)
}

// DecodeEnvelope unmarshals an {data, message, success} body and validates
// the payload. Shape problems come back as *DecodeError.
func DecodeEnvelope[T any](method, path string, body []byte) (*Envelope[T], error) {
	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Method: method, Path: path, Err: err}
	}
	if err := Validate(&env); err != nil {
		return nil, &DecodeError{Method: method, Path: path, Err: err}
	}
	return &env, nil
}
