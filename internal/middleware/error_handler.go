package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"autobuy_panel_echo/web/templates/pages"
)

// CustomErrorHandler answers API routes with {"error": "..."} and renders an error page elsewhere
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := ""

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		}
	}

	if message == "" {
		switch code {
		case http.StatusNotFound:
			message = "The page you're looking for doesn't exist."
		case http.StatusUnauthorized:
			message = "Please log in to continue."
		case http.StatusForbidden:
			message = "You don't have permission to access this resource."
		case http.StatusBadRequest:
			message = "The request could not be processed."
		default:
			message = "Something went wrong. Please try again later."
		}
	}

	c.Logger().Error(err)

	if strings.HasPrefix(c.Request().URL.Path, "/api") {
		if jsonErr := c.JSON(code, map[string]string{"error": message}); jsonErr != nil {
			c.Logger().Error(jsonErr)
		}
		return
	}

	props := pages.ErrorPageProps{
		Title:        http.StatusText(code),
		ErrorTitle:   http.StatusText(code),
		ErrorMessage: message,
		BackLink:     "/",
		BackText:     "Back to shop",
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	if renderErr := pages.ErrorPage(props).Render(c.Request().Context(), c.Response()); renderErr != nil {
		c.Logger().Error(fmt.Errorf("failed to render error page: %w", renderErr))
	}
}
