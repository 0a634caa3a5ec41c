package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"autobuy_panel_echo/internal/models"
	"autobuy_panel_echo/internal/services"
)

type UserHandler struct {
	users UserDirectory
}

func NewUserHandler(users UserDirectory) *UserHandler {
	return &UserHandler{users: users}
}

// Login checks a username or email against the stored password hash
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request body")
	}
	login := strings.TrimSpace(req.Username)
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}
	if login == "" || req.Password == "" {
		return badRequest("Username/email and password are required")
	}

	user, err := h.users.Login(c.Request().Context(), login, req.Password)
	if err != nil {
		return serviceError(err)
	}

	log.Printf("User login: %s (%s)", user.Username, user.ID)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"user":    user.Public(),
	})
}

// Register creates a member account
func (h *UserHandler) Register(c echo.Context) error {
	var req services.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request body")
	}

	user, err := h.users.Register(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Registration successful",
		"user":    user.Public(),
	})
}

// GetUser returns one account without its password hash
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user.Public(),
	})
}

// ListUsers returns every account for the admin
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}

	public := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   public,
	})
}
