package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminHandler exposes the caller's identity and the background jobs
type AdminHandler struct {
	tasks TaskRunner
}

func NewAdminHandler(tasks TaskRunner) *AdminHandler {
	return &AdminHandler{tasks: tasks}
}

// Session returns the Firebase identity set by the admin middleware
func (h *AdminHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"uid":     getStringFromContext(c, "userUID"),
		"email":   getStringFromContext(c, "userEmail"),
	})
}

func (h *AdminHandler) ListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"tasks":   h.tasks.Jobs(),
	})
}

// RunTask executes a scheduled job immediately
func (h *AdminHandler) RunTask(c echo.Context) error {
	run, err := h.tasks.RunNow(c.Request().Context(), c.Param("name"))
	if err != nil && run.TaskName == "" {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": err == nil,
		"run":     run,
	})
}

// TaskHistory lists the recorded runs of one job, oldest first
func (h *AdminHandler) TaskHistory(c echo.Context) error {
	name := c.Param("name")
	history, err := h.tasks.History(name)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"task":    name,
		"count":   len(history),
		"history": history,
	})
}

// Helper to safely get string from context
func getStringFromContext(c echo.Context, key string) string {
	val := c.Get(key)
	if val == nil {
		return ""
	}
	strVal, ok := val.(string)
	if !ok {
		return ""
	}
	return strVal
}
