package models

import "time"

// Promo is a coupon code that users can claim for a percentage discount
type Promo struct {
	Code      string    `gorm:"primaryKey;type:varchar(64)" json:"code"`
	Discount  int       `json:"discount"`
	MaxUses   int       `json:"maxUses"`
	UsedCount int       `json:"usedCount"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
}

// PromoState is the display state of a promo at a point in time
type PromoState string

const (
	PromoStateActive   PromoState = "active"
	PromoStateInactive PromoState = "inactive"
	PromoStateExpired  PromoState = "expired"
)

// State reports whether the promo is usable at now
func (p Promo) State(now time.Time) PromoState {
	if p.ExpiresAt.Before(now) {
		return PromoStateExpired
	}
	if !p.IsActive {
		return PromoStateInactive
	}
	return PromoStateActive
}

// Exhausted reports whether every allowed claim has been used
func (p Promo) Exhausted() bool {
	return p.UsedCount >= p.MaxUses
}

// Discount is a claimed coupon owned by a single user
type Discount struct {
	ID              string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID          string     `gorm:"type:varchar(64);index" json:"userId"`
	CouponCode      string     `gorm:"type:varchar(64);index" json:"couponCode"`
	DiscountPercent int        `json:"discountPercent"`
	ClaimedAt       time.Time  `json:"claimedAt"`
	ExpiresAt       time.Time  `gorm:"index" json:"expiresAt"`
	IsUsed          bool       `json:"isUsed"`
	UsedAt          *time.Time `json:"usedAt,omitempty"`
}

// Usable reports whether the discount can still be applied to an order
func (d Discount) Usable(now time.Time) bool {
	return !d.IsUsed && d.ExpiresAt.After(now)
}
