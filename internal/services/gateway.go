package services

import (
	"context"
	"errors"
	"net"
	"time"
)

// Per-call deadlines for the payment gateway.
const (
	CreateChargeTimeout = 30 * time.Second
	StatusTimeout       = 10 * time.Second
	CancelTimeout       = 10 * time.Second
)

// ChargeRequest asks the gateway for a QRIS charge
type ChargeRequest struct {
	Amount    int64
	Reference string
}

// Charge is the gateway's answer to a ChargeRequest.
// ExpiresAt is zero when the gateway did not send a usable expiry.
type Charge struct {
	ID         string
	QRString   string
	QRImage    string
	ExpiresAt  time.Time
	Fee        int64
	GetBalance int64
}

// ChargeStatus is the reported state of a charge
type ChargeStatus struct {
	Status string
}

// CancelAck reports whether the gateway accepted a cancellation
type CancelAck struct {
	Acknowledged bool
	Message      string
}

// PaymentGateway is the external QRIS payment provider.
// Errors returned are *GatewayError.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	GetStatus(ctx context.Context, chargeID string) (*ChargeStatus, error)
	CancelCharge(ctx context.Context, chargeID string) (*CancelAck, error)
}

// classifyTransportError maps a failed round trip to a gateway error kind
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrGatewayTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrGatewayTimeout
	}
	return ErrGatewayUnavailable
}
