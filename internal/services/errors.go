package services

import (
	"errors"
	"fmt"

	"autobuy_panel_echo/internal/store"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidProduct      = errors.New("invalid product type")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateID         = errors.New("transaction id already in use")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrGatewayTimeout      = errors.New("payment gateway timeout")
	ErrGatewayRejected     = errors.New("payment gateway rejected the request")
	ErrProvisioningFailed  = errors.New("panel provisioning failed")
	ErrPersistenceFailed   = store.ErrPersistenceFailed

	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	ErrPromoNotFound      = errors.New("coupon is invalid or inactive")
	ErrPromoExpired       = errors.New("coupon has expired")
	ErrPromoExhausted     = errors.New("coupon usage limit reached")
	ErrPromoExists        = errors.New("coupon code already exists")
	ErrAlreadyClaimed     = errors.New("coupon already claimed")
	ErrDiscountNotFound   = errors.New("discount not found")
)

// GatewayError is a failed payment gateway call. Kind is one of
// ErrGatewayUnavailable, ErrGatewayTimeout or ErrGatewayRejected.
type GatewayError struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, msg)
}

func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func gatewayError(kind error, op, message string, err error) *GatewayError {
	return &GatewayError{Kind: kind, Op: op, Message: message, Err: err}
}

// ProvisioningError wraps a failure from the panel API with the branch that was attempted.
type ProvisioningError struct {
	Step   string
	Detail string
	Err    error
}

func (e *ProvisioningError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("provisioning %s: %s", e.Step, e.Detail)
	}
	return fmt.Sprintf("provisioning %s: %v", e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProvisioningFailed}
	}
	return []error{ErrProvisioningFailed, e.Err}
}

// storeError translates record storage errors into the service's own kinds
func storeError(err, notFound, conflict error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, store.ErrConflict) && conflict != nil:
		return conflict
	}
	return err
}
