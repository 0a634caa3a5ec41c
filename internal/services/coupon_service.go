package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"autobuy_panel_echo/internal/models"
	"autobuy_panel_echo/internal/store"
)

const (
	DiscountValidity     = 7 * 24 * time.Hour
	defaultPromoLifetime = 30
	generatedPromoLength = 8
	generatedPromoPct    = 10
	generatedPromoUses   = 50
	promoAlphabet        = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CreatePromoInput is an admin request for a new coupon code
type CreatePromoInput struct {
	Code          string `json:"code"`
	Discount      int    `json:"discount"`
	MaxUses       int    `json:"maxUses"`
	ExpiresInDays int    `json:"expiresInDays"`
}

// CouponService manages promo codes and the discounts users claim from them
type CouponService struct {
	store    store.Store
	notifier Notifier
	now      func() time.Time

	// claims touch a promo, a user and a discount together
	mu sync.Mutex
}

func NewCouponService(s store.Store, notifier Notifier) *CouponService {
	return &CouponService{store: s, notifier: notifier, now: time.Now}
}

// DiscountAmount is percent of price rounded half away from zero
func DiscountAmount(price int64, percent int) int64 {
	if percent <= 0 || price <= 0 {
		return 0
	}
	amount := decimal.NewFromInt(price).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
	if amount > price {
		return price
	}
	return amount
}

// Claim turns a promo code into a discount owned by userID
func (s *CouponService) Claim(ctx context.Context, userID, code string) (models.Discount, models.Promo, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if userID == "" || code == "" {
		return models.Discount{}, models.Promo{}, fmt.Errorf("%w: user id and coupon code are required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.Discount{}, models.Promo{}, storeError(err, ErrUserNotFound, nil)
	}

	owned, err := s.store.ListDiscounts(ctx, userID)
	if err != nil {
		return models.Discount{}, models.Promo{}, err
	}
	for _, d := range owned {
		if d.CouponCode == code {
			return models.Discount{}, models.Promo{}, ErrAlreadyClaimed
		}
	}

	now := s.now()
	promo, err := s.store.UpdatePromo(ctx, code, func(p *models.Promo) error {
		switch {
		case !p.IsActive:
			return ErrPromoNotFound
		case p.ExpiresAt.Before(now):
			return ErrPromoExpired
		case p.Exhausted():
			return ErrPromoExhausted
		}
		p.UsedCount++
		return nil
	})
	if err != nil {
		return models.Discount{}, models.Promo{}, storeError(err, ErrPromoNotFound, nil)
	}

	discount := models.Discount{
		ID:              fmt.Sprintf("DISC_%d_%s", now.UnixMilli(), uuid.NewString()[:8]),
		UserID:          userID,
		CouponCode:      code,
		DiscountPercent: promo.Discount,
		ClaimedAt:       now,
		ExpiresAt:       now.Add(DiscountValidity),
	}
	if err := s.store.CreateDiscount(ctx, discount); err != nil {
		s.rollbackClaim(ctx, code)
		return models.Discount{}, models.Promo{}, err
	}

	if _, err := s.store.UpdateUser(ctx, userID, func(u *models.User) error {
		u.CouponsClaimed++
		return nil
	}); err != nil {
		log.Printf("Failed to count claimed coupon for %s: %v", userID, err)
	}

	log.Printf("Coupon %s claimed by %s", code, user.Username)
	dispatchNotification(s.notifier, couponClaimMessage(user, promo, discount))
	return discount, promo, nil
}

func (s *CouponService) rollbackClaim(ctx context.Context, code string) {
	_, err := s.store.UpdatePromo(ctx, code, func(p *models.Promo) error {
		if p.UsedCount > 0 {
			p.UsedCount--
		}
		return nil
	})
	if err != nil {
		log.Printf("Failed to roll back claim of %s: %v", code, err)
	}
}

// ActiveDiscount returns the oldest usable discount of userID, or nil
func (s *CouponService) ActiveDiscount(ctx context.Context, userID string) (*models.Discount, error) {
	discounts, err := s.store.ListDiscounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, d := range discounts {
		if d.Usable(now) {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}

// Consume applies the active discount of userID to price and marks it used.
// It returns a zero amount and empty id when the user has nothing to apply.
func (s *CouponService) Consume(ctx context.Context, userID string, price int64) (int64, string, error) {
	d, err := s.ActiveDiscount(ctx, userID)
	if err != nil || d == nil {
		return 0, "", err
	}
	now := s.now()
	_, err = s.store.UpdateDiscount(ctx, d.ID, func(x *models.Discount) error {
		if !x.Usable(now) {
			return ErrDiscountNotFound
		}
		x.IsUsed = true
		x.UsedAt = &now
		return nil
	})
	if errors.Is(err, ErrDiscountNotFound) || errors.Is(err, store.ErrNotFound) {
		// spent by a parallel order in the meantime
		return 0, "", nil
	}
	if err != nil {
		return 0, "", err
	}
	amount := DiscountAmount(price, d.DiscountPercent)
	log.Printf("Discount %d%% applied for %s: %s", d.DiscountPercent, userID, FormatRupiah(amount))
	return amount, d.ID, nil
}

// Use marks a discount as spent
func (s *CouponService) Use(ctx context.Context, discountID string) error {
	now := s.now()
	_, err := s.store.UpdateDiscount(ctx, discountID, func(d *models.Discount) error {
		d.IsUsed = true
		d.UsedAt = &now
		return nil
	})
	return storeError(err, ErrDiscountNotFound, nil)
}

// Release gives back a discount consumed for an order that never got a charge
func (s *CouponService) Release(ctx context.Context, discountID string) error {
	_, err := s.store.UpdateDiscount(ctx, discountID, func(d *models.Discount) error {
		d.IsUsed = false
		d.UsedAt = nil
		return nil
	})
	return storeError(err, ErrDiscountNotFound, nil)
}

func (s *CouponService) CreatePromo(ctx context.Context, in CreatePromoInput) (models.Promo, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" || in.Discount == 0 || in.MaxUses == 0 {
		return models.Promo{}, fmt.Errorf("%w: code, discount and maxUses are required", ErrInvalidInput)
	}
	if in.Discount < 0 || in.Discount > 100 || in.MaxUses < 0 || in.ExpiresInDays < 0 {
		return models.Promo{}, fmt.Errorf("%w: discount must be 1-100 and limits positive", ErrInvalidInput)
	}
	days := in.ExpiresInDays
	if days == 0 {
		days = defaultPromoLifetime
	}

	now := s.now()
	promo := models.Promo{
		Code:      code,
		Discount:  in.Discount,
		MaxUses:   in.MaxUses,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(days) * 24 * time.Hour),
		IsActive:  true,
	}
	if err := s.store.CreatePromo(ctx, promo); err != nil {
		return models.Promo{}, storeError(err, nil, ErrPromoExists)
	}

	log.Printf("Promo created: %s - %d%%", promo.Code, promo.Discount)
	return promo, nil
}

// GeneratePromo creates a promo with a random code and the standard terms
func (s *CouponService) GeneratePromo(ctx context.Context) (models.Promo, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := randomString(promoAlphabet, generatedPromoLength)
		if err != nil {
			return models.Promo{}, fmt.Errorf("failed to generate promo code: %w", err)
		}
		promo, err := s.CreatePromo(ctx, CreatePromoInput{
			Code:          code,
			Discount:      generatedPromoPct,
			MaxUses:       generatedPromoUses,
			ExpiresInDays: defaultPromoLifetime,
		})
		if errors.Is(err, ErrPromoExists) {
			continue
		}
		return promo, err
	}
	return models.Promo{}, ErrPromoExists
}

func (s *CouponService) ListPromos(ctx context.Context) ([]models.Promo, error) {
	return s.store.ListPromos(ctx)
}

// CleanupExpired deletes discounts whose validity has passed
func (s *CouponService) CleanupExpired(ctx context.Context) (int, error) {
	removed, err := s.store.DeleteExpiredDiscounts(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Printf("Cleaned up %d expired discounts", removed)
	}
	return removed, nil
}
