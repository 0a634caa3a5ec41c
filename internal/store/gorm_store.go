package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"autobuy_panel_echo/internal/models"
)

// GormStore keeps records in Postgres
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func dbError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at asc").Find(&users).Error
	return users, dbError(err)
}

func (s *GormStore) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	return user, dbError(err)
}

func (s *GormStore) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&user).Error
	return user, dbError(err)
}

func (s *GormStore) CreateUser(ctx context.Context, user models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		q := tx.Model(&models.User{}).Where("username = ?", user.Username)
		if user.Email != "" {
			q = q.Or("email = ?", user.Email)
		}
		if err := q.Count(&count).Error; err != nil {
			return dbError(err)
		}
		if count > 0 {
			return ErrConflict
		}
		return dbError(tx.Create(&user).Error)
	})
}

func (s *GormStore) UpdateUser(ctx context.Context, id string, fn func(*models.User) error) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", id).Error; err != nil {
			return dbError(err)
		}
		if err := fn(&user); err != nil {
			return err
		}
		user.ID = id
		return dbError(tx.Save(&user).Error)
	})
	return user, err
}

func (s *GormStore) ListPromos(ctx context.Context) ([]models.Promo, error) {
	var promos []models.Promo
	err := s.db.WithContext(ctx).Order("created_at asc").Find(&promos).Error
	return promos, dbError(err)
}

func (s *GormStore) GetPromo(ctx context.Context, code string) (models.Promo, error) {
	var promo models.Promo
	err := s.db.WithContext(ctx).First(&promo, "code = ?", code).Error
	return promo, dbError(err)
}

func (s *GormStore) CreatePromo(ctx context.Context, promo models.Promo) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Promo{}).Where("code = ?", promo.Code).Count(&count).Error; err != nil {
			return dbError(err)
		}
		if count > 0 {
			return ErrConflict
		}
		return dbError(tx.Create(&promo).Error)
	})
}

func (s *GormStore) UpdatePromo(ctx context.Context, code string, fn func(*models.Promo) error) (models.Promo, error) {
	var promo models.Promo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&promo, "code = ?", code).Error; err != nil {
			return dbError(err)
		}
		if err := fn(&promo); err != nil {
			return err
		}
		promo.Code = code
		return dbError(tx.Save(&promo).Error)
	})
	return promo, err
}

func (s *GormStore) ListDiscounts(ctx context.Context, userID string) ([]models.Discount, error) {
	var discounts []models.Discount
	q := s.db.WithContext(ctx).Order("claimed_at asc")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	err := q.Find(&discounts).Error
	return discounts, dbError(err)
}

func (s *GormStore) CreateDiscount(ctx context.Context, discount models.Discount) error {
	return dbError(s.db.WithContext(ctx).Create(&discount).Error)
}

func (s *GormStore) UpdateDiscount(ctx context.Context, id string, fn func(*models.Discount) error) (models.Discount, error) {
	var discount models.Discount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&discount, "id = ?", id).Error; err != nil {
			return dbError(err)
		}
		if err := fn(&discount); err != nil {
			return err
		}
		discount.ID = id
		return dbError(tx.Save(&discount).Error)
	})
	return discount, err
}

func (s *GormStore) DeleteExpiredDiscounts(ctx context.Context, now time.Time) (int, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Discount{})
	return int(res.RowsAffected), dbError(res.Error)
}
