package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

type midtransCall struct {
	method string
	url    string
	body   []byte
}

// fakeMidtransClient answers Core API calls with canned JSON keyed by URL suffix
type fakeMidtransClient struct {
	responses map[string]string
	errs      map[string]*midtrans.Error
	calls     []midtransCall
}

func (f *fakeMidtransClient) Call(method, url string, _ *string, _ *midtrans.ConfigOptions, body io.Reader, result interface{}) *midtrans.Error {
	call := midtransCall{method: method, url: url}
	if body != nil {
		call.body, _ = io.ReadAll(body)
	}
	f.calls = append(f.calls, call)

	for suffix, err := range f.errs {
		if strings.HasSuffix(url, suffix) {
			return err
		}
	}
	for suffix, raw := range f.responses {
		if strings.HasSuffix(url, suffix) {
			if err := json.Unmarshal([]byte(raw), result); err != nil {
				return &midtrans.Error{Message: err.Error(), RawError: err}
			}
			return nil
		}
	}
	return &midtrans.Error{Message: "not found", StatusCode: 404}
}

func newTestMidtransGateway(fake *fakeMidtransClient) *MidtransGateway {
	return &MidtransGateway{
		CoreClient: coreapi.Client{ServerKey: "SB-Mid-server-test", Env: midtrans.Sandbox, HttpClient: fake},
		acquirer:   "gopay",
	}
}

func TestMidtransCreateCharge(t *testing.T) {
	fake := &fakeMidtransClient{responses: map[string]string{
		"/v2/charge": `{
			"status_code": "201",
			"transaction_id": "T1",
			"order_id": "ORD-1",
			"transaction_status": "pending",
			"qr_string": "00020101QR",
			"expiry_time": "2026-10-14 09:00:00",
			"actions": [
				{"name": "deeplink-redirect", "method": "GET", "url": "gojek://pay"},
				{"name": "generate-qr-code", "method": "GET", "url": "https://api.sandbox.midtrans.com/v2/qris/T1/qr-code"}
			]
		}`,
	}}
	g := newTestMidtransGateway(fake)

	charge, err := g.CreateCharge(context.Background(), ChargeRequest{Reference: "ORD-1", Amount: 15000})
	if err != nil {
		t.Fatalf("CreateCharge() error = %v", err)
	}

	if charge.ID != "T1" || charge.QRString != "00020101QR" {
		t.Errorf("charge = %+v", charge)
	}
	if charge.QRImage != "https://api.sandbox.midtrans.com/v2/qris/T1/qr-code" {
		t.Errorf("QRImage = %q; want generate-qr-code action url", charge.QRImage)
	}
	if charge.GetBalance != 15000 {
		t.Errorf("GetBalance = %d; want 15000", charge.GetBalance)
	}
	wantExpiry := time.Date(2026, 10, 14, 2, 0, 0, 0, time.UTC)
	if !charge.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("ExpiresAt = %v; want %v", charge.ExpiresAt, wantExpiry)
	}

	if len(fake.calls) != 1 || fake.calls[0].method != "POST" {
		t.Fatalf("calls = %+v", fake.calls)
	}
	var sent struct {
		PaymentType        string `json:"payment_type"`
		TransactionDetails struct {
			OrderID  string `json:"order_id"`
			GrossAmt int64  `json:"gross_amount"`
		} `json:"transaction_details"`
		Qris struct {
			Acquirer string `json:"acquirer"`
		} `json:"qris"`
	}
	if err := json.Unmarshal(fake.calls[0].body, &sent); err != nil {
		t.Fatalf("charge body: %v", err)
	}
	if sent.PaymentType != "qris" || sent.TransactionDetails.OrderID != "ORD-1" ||
		sent.TransactionDetails.GrossAmt != 15000 || sent.Qris.Acquirer != "gopay" {
		t.Errorf("charge body = %+v", sent)
	}
}

func TestMidtransCreateChargeWithoutExpiry(t *testing.T) {
	fake := &fakeMidtransClient{responses: map[string]string{
		"/v2/charge": `{"transaction_id": "T2", "qr_string": "QR"}`,
	}}
	charge, err := newTestMidtransGateway(fake).CreateCharge(context.Background(), ChargeRequest{Reference: "ORD-2", Amount: 1000})
	if err != nil {
		t.Fatalf("CreateCharge() error = %v", err)
	}
	if !charge.ExpiresAt.IsZero() || charge.QRImage != "" {
		t.Errorf("charge = %+v; want zero expiry and no image", charge)
	}
}

func TestMidtransGetStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "settlement", body: `{"transaction_status": "settlement"}`, want: "success"},
		{name: "pending", body: `{"transaction_status": "pending"}`, want: "pending"},
		{name: "expire", body: `{"transaction_status": "expire"}`, want: "expire"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeMidtransClient{responses: map[string]string{"/v2/T1/status": tt.body}}
			st, err := newTestMidtransGateway(fake).GetStatus(context.Background(), "T1")
			if err != nil {
				t.Fatalf("GetStatus() error = %v", err)
			}
			if st.Status != tt.want {
				t.Errorf("Status = %q; want %q", st.Status, tt.want)
			}
			if fake.calls[0].method != "GET" {
				t.Errorf("method = %s; want GET", fake.calls[0].method)
			}
		})
	}
}

func TestMidtransCancelCharge(t *testing.T) {
	t.Run("acknowledged", func(t *testing.T) {
		fake := &fakeMidtransClient{responses: map[string]string{
			"/v2/T1/cancel": `{"status_code": "200", "status_message": "Success, transaction is canceled"}`,
		}}
		ack, err := newTestMidtransGateway(fake).CancelCharge(context.Background(), "T1")
		if err != nil {
			t.Fatalf("CancelCharge() error = %v", err)
		}
		if !ack.Acknowledged || ack.Message != "Success, transaction is canceled" {
			t.Errorf("ack = %+v", ack)
		}
		if fake.calls[0].method != "POST" {
			t.Errorf("method = %s; want POST", fake.calls[0].method)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		fake := &fakeMidtransClient{errs: map[string]*midtrans.Error{
			"/v2/T1/cancel": {Message: "transaction cannot be updated", StatusCode: 412},
		}}
		ack, err := newTestMidtransGateway(fake).CancelCharge(context.Background(), "T1")
		if !errors.Is(err, ErrGatewayRejected) {
			t.Fatalf("CancelCharge() error = %v; want ErrGatewayRejected", err)
		}
		if ack == nil || ack.Acknowledged {
			t.Errorf("ack = %+v; want unacknowledged", ack)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		fake := &fakeMidtransClient{errs: map[string]*midtrans.Error{
			"/v2/T1/cancel": {Message: "bad gateway", StatusCode: 502},
		}}
		ack, err := newTestMidtransGateway(fake).CancelCharge(context.Background(), "T1")
		if !errors.Is(err, ErrGatewayUnavailable) || ack != nil {
			t.Fatalf("CancelCharge() = %+v, %v; want nil ack and ErrGatewayUnavailable", ack, err)
		}
	})
}

func TestMidtransStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "settlement", want: "success"},
		{in: "capture", want: "success"},
		{in: "pending", want: "pending"},
		{in: "expire", want: "expire"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := midtransStatus(tt.in); got != tt.want {
				t.Errorf("midtransStatus(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMidtransErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  *midtrans.Error
		want error
	}{
		{name: "transport", err: &midtrans.Error{Message: "dial failed", RawError: errors.New("connection refused")}, want: ErrGatewayUnavailable},
		{name: "server error", err: &midtrans.Error{Message: "busy", StatusCode: 503}, want: ErrGatewayUnavailable},
		{name: "validation", err: &midtrans.Error{Message: "order id taken", StatusCode: 406}, want: ErrGatewayRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := midtransError("charge", tt.err); !errors.Is(err, tt.want) {
				t.Errorf("midtransError() = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestCallMidtransTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	_, err := callMidtrans(context.Background(), "status", 20*time.Millisecond, func() (*struct{}, *midtrans.Error) {
		<-release
		return &struct{}{}, nil
	})
	if !errors.Is(err, ErrGatewayTimeout) {
		t.Fatalf("callMidtrans() error = %v; want ErrGatewayTimeout", err)
	}
}
