// Package store persists user accounts, promo codes and claimed discounts.
package store

import (
	"context"
	"errors"
	"time"

	"autobuy_panel_echo/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists")
	ErrPersistenceFailed = errors.New("failed to persist data")
)

// Store is the record storage behind accounts and coupons.
// Update functions run with the record locked; returning an error aborts the write.
type Store interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
	CreateUser(ctx context.Context, user models.User) error
	UpdateUser(ctx context.Context, id string, fn func(*models.User) error) (models.User, error)

	ListPromos(ctx context.Context) ([]models.Promo, error)
	GetPromo(ctx context.Context, code string) (models.Promo, error)
	CreatePromo(ctx context.Context, promo models.Promo) error
	UpdatePromo(ctx context.Context, code string, fn func(*models.Promo) error) (models.Promo, error)

	ListDiscounts(ctx context.Context, userID string) ([]models.Discount, error)
	CreateDiscount(ctx context.Context, discount models.Discount) error
	UpdateDiscount(ctx context.Context, id string, fn func(*models.Discount) error) (models.Discount, error)
	DeleteExpiredDiscounts(ctx context.Context, now time.Time) (int, error)
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*GormStore)(nil)
)
