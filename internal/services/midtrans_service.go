package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

// MidtransGateway issues QRIS charges through the Midtrans Core API
type MidtransGateway struct {
	CoreClient coreapi.Client
	acquirer   string
}

func NewMidtransGateway(serverKey, clientKey, acquirer string, isProduction bool) *MidtransGateway {
	env := midtrans.Sandbox
	if isProduction {
		env = midtrans.Production
	}

	var c coreapi.Client
	c.New(serverKey, env)

	// Set Default Options
	midtrans.ServerKey = serverKey
	midtrans.ClientKey = clientKey
	midtrans.Environment = env

	if acquirer == "" {
		acquirer = "gopay"
	}

	return &MidtransGateway{CoreClient: c, acquirer: acquirer}
}

// CreateCharge creates a QRIS charge using the reference as the Midtrans order id.
// The Core API client has no context support, so the call runs on its own goroutine.
func (g *MidtransGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	param := &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeQris,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.Reference,
			GrossAmt: req.Amount,
		},
		Qris: &coreapi.QrisDetails{Acquirer: g.acquirer},
	}

	resp, err := callMidtrans(ctx, "charge", CreateChargeTimeout, func() (*coreapi.ChargeResponse, *midtrans.Error) {
		return g.CoreClient.ChargeTransaction(param)
	})
	if err != nil {
		return nil, err
	}

	charge := &Charge{
		ID:         resp.TransactionID,
		QRString:   resp.QRString,
		GetBalance: req.Amount,
		ExpiresAt:  parseGatewayTime(resp.ExpiryTime),
	}
	for _, action := range resp.Actions {
		if action.Name == "generate-qr-code" {
			charge.QRImage = action.URL
		}
	}
	return charge, nil
}

// GetStatus maps Midtrans settlement/capture to the success status
func (g *MidtransGateway) GetStatus(ctx context.Context, chargeID string) (*ChargeStatus, error) {
	resp, err := callMidtrans(ctx, "status", StatusTimeout, func() (*coreapi.TransactionStatusResponse, *midtrans.Error) {
		return g.CoreClient.CheckTransaction(chargeID)
	})
	if err != nil {
		return nil, err
	}
	return &ChargeStatus{Status: midtransStatus(resp.TransactionStatus)}, nil
}

// CancelCharge cancels a pending Midtrans charge
func (g *MidtransGateway) CancelCharge(ctx context.Context, chargeID string) (*CancelAck, error) {
	resp, err := callMidtrans(ctx, "cancel", CancelTimeout, func() (*coreapi.CancelResponse, *midtrans.Error) {
		return g.CoreClient.CancelTransaction(chargeID)
	})
	if err != nil {
		var gwErr *GatewayError
		if errors.As(err, &gwErr) && errors.Is(gwErr.Kind, ErrGatewayRejected) {
			return &CancelAck{Acknowledged: false, Message: gwErr.Message}, err
		}
		return nil, err
	}
	return &CancelAck{Acknowledged: true, Message: resp.StatusMessage}, nil
}

func midtransStatus(s string) string {
	switch s {
	case "settlement", "capture":
		return "success"
	default:
		return s
	}
}

type midtransResult[T any] struct {
	resp *T
	err  *midtrans.Error
}

func callMidtrans[T any](ctx context.Context, op string, timeout time.Duration, fn func() (*T, *midtrans.Error)) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan midtransResult[T], 1)
	go func() {
		resp, err := fn()
		done <- midtransResult[T]{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, gatewayError(classifyTransportError(ctx, ctx.Err()), op, "", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, midtransError(op, res.err)
		}
		if res.resp == nil {
			return nil, gatewayError(ErrGatewayUnavailable, op, "empty response from gateway", nil)
		}
		return res.resp, nil
	}
}

func midtransError(op string, err *midtrans.Error) error {
	code := err.GetStatusCode()
	switch {
	case err.RawError != nil && code == 0:
		var netErr net.Error
		if errors.As(err.RawError, &netErr) && netErr.Timeout() {
			return gatewayError(ErrGatewayTimeout, op, err.GetMessage(), err.RawError)
		}
		return gatewayError(ErrGatewayUnavailable, op, err.GetMessage(), err.RawError)
	case code >= 500 || code == 0:
		return gatewayError(ErrGatewayUnavailable, op, fmt.Sprintf("midtrans status %d: %s", code, err.GetMessage()), nil)
	default:
		return gatewayError(ErrGatewayRejected, op, err.GetMessage(), nil)
	}
}
