package handlers

import "github.com/labstack/echo/v4"

// Handlers groups every route handler of the server
type Handlers struct {
	Public  *PublicHandler
	Orders  *OrderHandler
	Users   *UserHandler
	Coupons *CouponHandler
	Admin   *AdminHandler
}

// RegisterRoutes mounts the storefront and the JSON API. requireAdmin guards the admin-only routes.
func RegisterRoutes(e *echo.Echo, h Handlers, requireAdmin echo.MiddlewareFunc) {
	e.GET("/", h.Public.Storefront)

	api := e.Group("/api")
	api.GET("/products", h.Public.Products)
	api.GET("/health", h.Public.Health)
	api.GET("/ping", h.Public.Ping)

	// Purchase flow
	api.POST("/create-order", h.Orders.CreateOrder)
	api.POST("/check-payment-status", h.Orders.CheckPaymentStatus)
	api.POST("/cancel-transaction", h.Orders.CancelTransaction)

	// Accounts and coupons
	api.POST("/login", h.Users.Login)
	api.POST("/register", h.Users.Register)
	api.GET("/user/:userId", h.Users.GetUser)
	api.POST("/claim-coupon", h.Coupons.ClaimCoupon)
	api.GET("/user-discount/:userId", h.Coupons.UserDiscount)
	api.POST("/use-discount", h.Coupons.UseDiscount)

	// Admin routes
	api.GET("/active-transactions", h.Orders.ActiveTransactions, requireAdmin)
	api.GET("/users", h.Users.ListUsers, requireAdmin)
	api.GET("/promos", h.Coupons.ListPromos, requireAdmin)
	api.POST("/create-promo", h.Coupons.CreatePromo, requireAdmin)
	api.GET("/admin/session", h.Admin.Session, requireAdmin)
	api.GET("/admin/tasks", h.Admin.ListTasks, requireAdmin)
	api.GET("/admin/tasks/:name/history", h.Admin.TaskHistory, requireAdmin)
	api.POST("/admin/tasks/:name/run", h.Admin.RunTask, requireAdmin)
}
