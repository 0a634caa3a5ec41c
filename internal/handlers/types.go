package handlers

import (
	"context"

	"autobuy_panel_echo/internal/models"
	"autobuy_panel_echo/internal/services"
)

// OrderPlacer creates charges for storefront orders
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, in services.PlaceOrderInput) (*services.OrderDescriptor, error)
}

// TransactionManager reconciles and cancels in-flight transactions
type TransactionManager interface {
	CheckStatus(ctx context.Context, id string) (*services.StatusResult, error)
	Cancel(ctx context.Context, id string) (*services.CancelResult, error)
	ActiveTransactions() []models.Transaction
	ActiveCount() int
}

type UserDirectory interface {
	Register(ctx context.Context, in services.RegisterInput) (models.User, error)
	Login(ctx context.Context, login, password string) (models.User, error)
	Get(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type CouponManager interface {
	Claim(ctx context.Context, userID, code string) (models.Discount, models.Promo, error)
	ActiveDiscount(ctx context.Context, userID string) (*models.Discount, error)
	Use(ctx context.Context, discountID string) error
	ListPromos(ctx context.Context) ([]models.Promo, error)
	CreatePromo(ctx context.Context, in services.CreatePromoInput) (models.Promo, error)
}

// TaskRunner exposes the background scheduler to admins
type TaskRunner interface {
	Jobs() []models.ScheduledTask
	RunNow(ctx context.Context, name string) (models.ScheduledTaskHistory, error)
	History(name string) ([]models.ScheduledTaskHistory, error)
}

type transactionRequest struct {
	TransactionID string `json:"transactionId"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type claimCouponRequest struct {
	UserID     string `json:"userId"`
	CouponCode string `json:"couponCode"`
}

type useDiscountRequest struct {
	DiscountID string `json:"discountId"`
}

// transactionView is a transaction as returned to the buyer, with the panel
// credentials attached on the call that provisioned it
type transactionView struct {
	models.Transaction
	PanelInfo *services.PanelResult `json:"panelInfo,omitempty"`
}

type createOrderResponse struct {
	Success bool `json:"success"`
	*services.OrderDescriptor
}
