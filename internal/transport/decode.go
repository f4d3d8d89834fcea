package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrInvalidBody = errors.New("invalid body")

type Validator interface {
	Validate() error
}

// Decode reads exactly one JSON object into v, rejecting unknown fields, and
// validates it.
func Decode(r io.Reader, v Validator) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBody, describe(err))
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after object", ErrInvalidBody)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after object", ErrInvalidBody)
	}
	return v.Validate()
}

func describe(err error) string {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return "empty body"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %q must be %s", typeErr.Field, typeErr.Type)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return strings.TrimPrefix(err.Error(), "json: ")
	default:
		return "malformed json"
	}
}

// FieldError is a boundary validation failure.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Msg
}

func (e *FieldError) Unwrap() error { return ErrInvalidBody }

func fieldErr(field, msg string) error {
	return &FieldError{Field: field, Msg: msg}
}
