package handlers

import (
	"github.com/labstack/echo/v4"
)

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RootHandler answers GET / without touching the store.
type RootHandler struct {
	appName string
}

func NewRootHandler(appName string) *RootHandler {
	return &RootHandler{appName: appName}
}

func (h *RootHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Get)
}

func (h *RootHandler) Get(c echo.Context) error {
	return SuccessResponse(c, StatusResponse{
		Status:  "ok",
		Message: h.appName + " is running",
	})
}
