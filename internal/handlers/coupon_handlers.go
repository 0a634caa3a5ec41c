package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"autobuy_panel_echo/internal/models"
	"autobuy_panel_echo/internal/services"
)

type CouponHandler struct {
	coupons CouponManager
}

func NewCouponHandler(coupons CouponManager) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

// ClaimCoupon turns a promo code into a personal discount
func (h *CouponHandler) ClaimCoupon(c echo.Context) error {
	var req claimCouponRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request body")
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.CouponCode) == "" {
		return badRequest("User ID and coupon code are required")
	}

	discount, promo, err := h.coupons.Claim(c.Request().Context(), req.UserID, req.CouponCode)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf("Coupon claimed! You get a %d%% discount", promo.Discount),
		"discount":  promo.Discount,
		"expiresAt": discount.ExpiresAt,
	})
}

// UserDiscount reports the first usable discount of a user
func (h *CouponHandler) UserDiscount(c echo.Context) error {
	discount, err := h.coupons.ActiveDiscount(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return serviceError(err)
	}

	if discount == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":     true,
			"hasDiscount": false,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"hasDiscount": true,
		"discount":    discount,
	})
}

// UseDiscount marks a discount as spent
func (h *CouponHandler) UseDiscount(c echo.Context) error {
	var req useDiscountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request body")
	}
	if strings.TrimSpace(req.DiscountID) == "" {
		return badRequest("Discount ID is required")
	}

	if err := h.coupons.Use(c.Request().Context(), req.DiscountID); err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Discount applied",
	})
}

func (h *CouponHandler) ListPromos(c echo.Context) error {
	promos, err := h.coupons.ListPromos(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	if promos == nil {
		promos = []models.Promo{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"promos":  promos,
	})
}

func (h *CouponHandler) CreatePromo(c echo.Context) error {
	var req services.CreatePromoInput
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request body")
	}
	if strings.TrimSpace(req.Code) == "" || req.Discount == 0 || req.MaxUses == 0 {
		return badRequest("Code, discount and max uses are required")
	}

	promo, err := h.coupons.CreatePromo(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Coupon created",
		"promo":   promo,
	})
}
