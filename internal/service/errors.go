package service

import (
	"errors"
	"fmt"
)

// Kinds. Every service error wraps exactly one kind.
var (
	ErrValidation   = errors.New("validation")   // 400
	ErrStock        = errors.New("stock")        // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrForbidden    = errors.New("forbidden")    // 403
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
)

// Reasons.
var (
	ErrAddressRequired    = errors.New("address required")
	ErrEmptyOrder         = errors.New("empty order")
	ErrProductNotFound    = errors.New("product not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrOutOfStock         = errors.New("out of stock")
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrPriceMismatch      = errors.New("price mismatch")
	ErrEmailTaken         = errors.New("email taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrProductInUse       = errors.New("product in use")
)

type Error struct {
	Kind   error
	Reason error
	Msg    string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() []error {
	if e.Reason == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Reason}
}

func newError(kind, reason error, format string, args ...any) error {
	return &Error{Kind: kind, Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) error {
	return newError(ErrValidation, nil, format, args...)
}

func productNotFound(id uint) error {
	return newError(ErrNotFound, ErrProductNotFound, "product %d not found", id)
}

func insufficientStock(name string) error {
	return newError(ErrStock, ErrInsufficientStock, "insufficient stock for %q", name)
}
