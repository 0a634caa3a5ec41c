package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// PlaceOrderInput is a purchase request as received from the storefront
type PlaceOrderInput struct {
	ProductType   string `json:"productType"`
	Username      string `json:"username"`
	IsAdminPanel  bool   `json:"isAdminPanel"`
	UserID        string `json:"userId"`
	ApplyDiscount bool   `json:"applyDiscount"`
}

// OrderService resolves discounts and account stats around TransactionService.Create
type OrderService struct {
	transactions *TransactionService
	coupons      *CouponService
	users        *UserService
}

func NewOrderService(transactions *TransactionService, coupons *CouponService, users *UserService) *OrderService {
	return &OrderService{transactions: transactions, coupons: coupons, users: users}
}

// PlaceOrder consumes the buyer's discount when asked, creates the charge and
// records the order on the account. A discount is given back if no charge was created.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*OrderDescriptor, error) {
	in.ProductType = strings.TrimSpace(in.ProductType)
	in.Username = strings.TrimSpace(in.Username)
	if in.ProductType == "" || in.Username == "" {
		return nil, fmt.Errorf("%w: product type and username are required", ErrInvalidInput)
	}
	price, ok := s.transactions.Catalog().Price(in.ProductType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProduct, in.ProductType)
	}

	var discount int64
	var discountID string
	if in.ApplyDiscount && in.UserID != "" && s.coupons != nil {
		amount, id, err := s.coupons.Consume(ctx, in.UserID, price)
		if err != nil {
			log.Printf("Failed to apply discount for %s, charging full price: %v", in.UserID, err)
		} else {
			discount, discountID = amount, id
		}
	}

	desc, err := s.transactions.Create(ctx, CreateOrderInput{
		ProductType:     in.ProductType,
		Username:        in.Username,
		IsAdminPanel:    in.IsAdminPanel,
		UserID:          in.UserID,
		DiscountApplied: discount,
		DiscountID:      discountID,
	})
	if err != nil {
		if discountID != "" {
			if rerr := s.coupons.Release(context.WithoutCancel(ctx), discountID); rerr != nil {
				log.Printf("Failed to release discount %s: %v", discountID, rerr)
			}
		}
		return nil, err
	}

	if in.UserID != "" && s.users != nil {
		if err := s.users.RecordOrder(ctx, in.UserID, desc.FinalPrice); err != nil && !errors.Is(err, ErrUserNotFound) {
			log.Printf("Failed to update order stats for %s: %v", in.UserID, err)
		}
	}
	return desc, nil
}
