package errors

import (
	"fmt"

	"github.com/bazaarhub/marketplace-api/internal/domain"
)

// ErrValidation indicates a malformed or missing request field.
type ErrValidation struct {
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Message
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ErrInsufficientStock indicates the requested quantity exceeds what is on hand.
// The message names the product and the available count so the storefront can
// surface it directly.
type ErrInsufficientStock struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d available, %d requested", e.ProductName, e.Available, e.Requested)
}

// ErrForbidden indicates the caller has the wrong role or is not the owner.
type ErrForbidden struct {
	Message string
}

func (e *ErrForbidden) Error() string {
	if e.Message == "" {
		return "access denied"
	}
	return e.Message
}

// ErrUnauthorized indicates a missing or invalid credential.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// ErrSignatureMismatch indicates a payment confirmation whose signature does
// not match the server-side recomputation.
type ErrSignatureMismatch struct{}

func (e *ErrSignatureMismatch) Error() string {
	return "payment signature verification failed"
}

// ErrInvalidStateTransition indicates an order status change the state
// machine does not allow.
type ErrInvalidStateTransition struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid order status transition from %s to %s", e.From, e.To)
}
