package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"autobuy_panel_echo/internal/models"
	"autobuy_panel_echo/internal/services"
	"autobuy_panel_echo/web/templates/pages"
)

const serverName = "Auto Buy Panel"

// PublicHandler serves the storefront and the unauthenticated status endpoints
type PublicHandler struct {
	catalog      *models.Catalog
	transactions TransactionManager
	startedAt    time.Time
}

func NewPublicHandler(catalog *models.Catalog, transactions TransactionManager) *PublicHandler {
	return &PublicHandler{catalog: catalog, transactions: transactions, startedAt: time.Now()}
}

// Storefront renders the product catalogue
func (h *PublicHandler) Storefront(c echo.Context) error {
	props := pages.StorefrontProps{
		Title:       serverName,
		Products:    h.catalog.Products(),
		FormatPrice: services.FormatRupiah,
	}

	return pages.Storefront(props).Render(c.Request().Context(), c.Response())
}

func (h *PublicHandler) Products(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Products())
}

func (h *PublicHandler) Health(c echo.Context) error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":             "OK",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"uptime":             time.Since(h.startedAt).Seconds(),
		"activeTransactions": h.transactions.ActiveCount(),
		"environment":        env,
	})
}

func (h *PublicHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "pong",
		"timestamp": time.Now().UnixMilli(),
		"server":    serverName,
	})
}
