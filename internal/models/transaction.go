package models

import "time"

// TransactionStatus is the payment state reported by the gateway.
// Values other than the constants below are stored as reported.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
)

// Transaction is an in-flight purchase awaiting payment. It lives only in memory.
type Transaction struct {
	ID              string            `json:"id"`
	Reference       string            `json:"reff"`
	GatewayChargeID string            `json:"atlanticId"`
	ProductType     string            `json:"productType"`
	Username        string            `json:"username"`
	IsAdminPanel    bool              `json:"isAdminPanel"`
	OriginalPrice   int64             `json:"originalPrice"`
	DiscountApplied int64             `json:"discountApplied"`
	FinalPrice      int64             `json:"finalPrice"`
	DiscountID      string            `json:"discountId,omitempty"`
	UserID          string            `json:"userId,omitempty"`
	Status          TransactionStatus `json:"status"`
	Provisioned     bool              `json:"provisioned"`
	CreatedAt       time.Time         `json:"createdAt"`
	ExpiresAt       time.Time         `json:"expiresAt"`
}

// PanelType is the label used in notifications for the provisioning branch.
func (t Transaction) PanelType() string {
	if t.IsAdminPanel {
		return "Admin Panel"
	}
	return "User Panel"
}

// Expired reports whether the gateway expiry has passed or the transaction is older than maxAge.
func (t Transaction) Expired(now time.Time, maxAge time.Duration) bool {
	if !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt) {
		return true
	}
	return !t.CreatedAt.IsZero() && now.Sub(t.CreatedAt) > maxAge
}
