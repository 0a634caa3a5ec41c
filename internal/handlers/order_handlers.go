package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"autobuy_panel_echo/internal/services"
)

// OrderHandler serves the purchase flow
type OrderHandler struct {
	orders       OrderPlacer
	transactions TransactionManager
}

func NewOrderHandler(orders OrderPlacer, transactions TransactionManager) *OrderHandler {
	return &OrderHandler{orders: orders, transactions: transactions}
}

// CreateOrder creates a QRIS charge for a product
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req services.PlaceOrderInput
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request body")
	}
	if strings.TrimSpace(req.ProductType) == "" || strings.TrimSpace(req.Username) == "" {
		return badRequest("Product type and username are required")
	}

	order, err := h.orders.PlaceOrder(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, createOrderResponse{Success: true, OrderDescriptor: order})
}

// CheckPaymentStatus reconciles a transaction with the gateway, provisioning on success
func (h *OrderHandler) CheckPaymentStatus(c echo.Context) error {
	id, err := bindTransactionID(c)
	if err != nil {
		return err
	}

	result, err := h.transactions.CheckStatus(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"status":      result.Status,
		"message":     result.Message,
		"transaction": transactionView{Transaction: result.Transaction, PanelInfo: result.Panel},
	})
}

// CancelTransaction voids a charge. The transaction is forgotten locally even when the gateway refuses.
func (h *OrderHandler) CancelTransaction(c echo.Context) error {
	id, err := bindTransactionID(c)
	if err != nil {
		return err
	}

	result, err := h.transactions.Cancel(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": result.Message,
	})
}

// ActiveTransactions dumps every in-flight transaction
func (h *OrderHandler) ActiveTransactions(c echo.Context) error {
	transactions := h.transactions.ActiveTransactions()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"count":        len(transactions),
		"transactions": transactions,
	})
}

func bindTransactionID(c echo.Context) (string, error) {
	var req transactionRequest
	if err := c.Bind(&req); err != nil {
		return "", badRequest("Invalid request body")
	}
	id := strings.TrimSpace(req.TransactionID)
	if id == "" {
		return "", badRequest("Transaction ID is required")
	}
	return id, nil
}
