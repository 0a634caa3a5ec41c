package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AtlanticGateway talks to the Atlantic H2H deposit API
type AtlanticGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAtlanticGateway(baseURL, apiKey string) *AtlanticGateway {
	if baseURL == "" {
		baseURL = "https://atlantich2h.com"
	}
	return &AtlanticGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

// atlanticResponse is the envelope shared by every deposit endpoint
type atlanticResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type atlanticDeposit struct {
	ID         flexString `json:"id"`
	QRString   string     `json:"qr_string"`
	QRImage    string     `json:"qr_image"`
	ExpiredAt  string     `json:"expired_at"`
	Fee        flexInt    `json:"fee"`
	GetBalance flexInt    `json:"get_balance"`
	Status     string     `json:"status"`
}

func (g *AtlanticGateway) postForm(ctx context.Context, op, endpoint string, form url.Values, timeout time.Duration) (*atlanticResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	form.Set("api_key", g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, gatewayError(ErrGatewayUnavailable, op, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "AutoBuyPanel/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, gatewayError(classifyTransportError(ctx, err), op, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gatewayError(classifyTransportError(ctx, err), op, "failed to read response", err)
	}

	if resp.StatusCode >= 500 {
		return nil, gatewayError(ErrGatewayUnavailable, op, fmt.Sprintf("gateway returned status %d", resp.StatusCode), nil)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, gatewayError(ErrGatewayUnavailable, op, "empty response from gateway", nil)
	}

	var parsed atlanticResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, gatewayError(ErrGatewayUnavailable, op, "malformed response from gateway", err)
	}

	if !parsed.Status {
		msg := parsed.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return &parsed, gatewayError(ErrGatewayRejected, op, msg, nil)
	}

	return &parsed, nil
}

func (g *AtlanticGateway) decodeDeposit(op string, resp *atlanticResponse) (*atlanticDeposit, error) {
	raw := bytes.TrimSpace(resp.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, gatewayError(ErrGatewayUnavailable, op, "no transaction data received", nil)
	}
	var dep atlanticDeposit
	if err := json.Unmarshal(raw, &dep); err != nil {
		return nil, gatewayError(ErrGatewayUnavailable, op, "malformed transaction data", err)
	}
	return &dep, nil
}

// CreateCharge creates a QRIS e-wallet deposit
func (g *AtlanticGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	form := url.Values{}
	form.Set("reff_id", req.Reference)
	form.Set("nominal", strconv.FormatInt(req.Amount, 10))
	form.Set("type", "ewallet")
	form.Set("metode", "qris")

	resp, err := g.postForm(ctx, "deposit/create", "/deposit/create", form, CreateChargeTimeout)
	if err != nil {
		return nil, err
	}
	dep, err := g.decodeDeposit("deposit/create", resp)
	if err != nil {
		return nil, err
	}

	return &Charge{
		ID:         string(dep.ID),
		QRString:   dep.QRString,
		QRImage:    dep.QRImage,
		ExpiresAt:  parseGatewayTime(dep.ExpiredAt),
		Fee:        int64(dep.Fee),
		GetBalance: int64(dep.GetBalance),
	}, nil
}

// GetStatus checks a deposit by its gateway id
func (g *AtlanticGateway) GetStatus(ctx context.Context, chargeID string) (*ChargeStatus, error) {
	form := url.Values{}
	form.Set("id", chargeID)

	resp, err := g.postForm(ctx, "deposit/status", "/deposit/status", form, StatusTimeout)
	if err != nil {
		return nil, err
	}
	dep, err := g.decodeDeposit("deposit/status", resp)
	if err != nil {
		return nil, err
	}
	return &ChargeStatus{Status: dep.Status}, nil
}

// CancelCharge cancels a pending deposit. A status:false answer is returned
// as an unacknowledged CancelAck together with a rejection error.
func (g *AtlanticGateway) CancelCharge(ctx context.Context, chargeID string) (*CancelAck, error) {
	form := url.Values{}
	form.Set("id", chargeID)

	resp, err := g.postForm(ctx, "deposit/cancel", "/deposit/cancel", form, CancelTimeout)
	if err != nil {
		if resp != nil {
			return &CancelAck{Acknowledged: false, Message: resp.Message}, err
		}
		return nil, err
	}
	return &CancelAck{Acknowledged: true, Message: resp.Message}, nil
}

// gatewayZone is Asia/Jakarta (WIB, no DST). Both gateways report zoneless
// datetimes in it.
var gatewayZone = time.FixedZone("WIB", 7*60*60)

// parseGatewayTime accepts RFC 3339 and "2006-01-02 15:04:05" in gatewayZone.
// Unparseable or empty values yield the zero time.
func parseGatewayTime(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", v, gatewayZone); err == nil {
		return t
	}
	return time.Time{}
}

// flexString decodes a JSON string or number into a string
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt decodes a JSON number or numeric string into an integer
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	if n, err := strconv.ParseInt(string(s), 10, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	fl, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*f = flexInt(fl)
	return nil
}
