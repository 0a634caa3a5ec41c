package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"autobuy_panel_echo/internal/services"
	"autobuy_panel_echo/internal/tasks"
)

// serviceError translates a service failure into the HTTP error rendered by the error handler
func serviceError(err error) error {
	var gwErr *services.GatewayError

	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidProduct),
		errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrPromoNotFound),
		errors.Is(err, services.ErrPromoExpired),
		errors.Is(err, services.ErrPromoExhausted),
		errors.Is(err, services.ErrPromoExists),
		errors.Is(err, services.ErrAlreadyClaimed),
		errors.Is(err, tasks.ErrAlreadyRunning):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrTransactionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Transaction not found")
	case errors.Is(err, services.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrDiscountNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Discount not found")
	case errors.Is(err, tasks.ErrUnknownTask):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &gwErr):
		return echo.NewHTTPError(http.StatusInternalServerError, gatewayMessage(gwErr))
	case errors.Is(err, services.ErrPersistenceFailed):
		log.Printf("Persistence failure: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save data")
	default:
		log.Printf("Unexpected service error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

func gatewayMessage(err *services.GatewayError) string {
	switch {
	case errors.Is(err.Kind, services.ErrGatewayTimeout):
		return "Timed out contacting the payment gateway. Please try again."
	case errors.Is(err.Kind, services.ErrGatewayUnavailable) && err.Message == "":
		return "Cannot reach the payment gateway. Please try again."
	case err.Message != "":
		return "Payment gateway error: " + err.Message
	default:
		return "Payment gateway error: " + err.Kind.Error()
	}
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, message)
}
