package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/repositories"
)

type StatsHandler struct {
	repo repositories.OrderRepo
}

func NewStatsHandler(repo repositories.OrderRepo) *StatsHandler {
	return &StatsHandler{repo: repo}
}

func (h *StatsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/stats/order-status", h.OrderStatus)
}

// OrderStatus handles GET /stats/order-status
func (h *StatsHandler) OrderStatus(c echo.Context) error {
	counts, err := h.repo.StatusCounts(c.Request().Context())
	if err != nil {
		return err
	}
	return SuccessResponse(c, counts)
}
