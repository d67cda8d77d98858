package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/repositories"
)

type CustomerHandler struct {
	repo repositories.CustomerRepo
}

func NewCustomerHandler(repo repositories.CustomerRepo) *CustomerHandler {
	return &CustomerHandler{
		repo: repo,
	}
}

func (h *CustomerHandler) RegisterRoutes(e *echo.Echo) {
	customers := e.Group("/customers")
	customers.GET("", h.List)
	customers.GET("/:customer_id", h.Get)
}

// List handles GET /customers
func (h *CustomerHandler) List(c echo.Context) error {
	limit, err := ParseLimit(c)
	if err != nil {
		return err
	}

	customers, err := h.repo.List(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return SuccessResponse(c, customers)
}

// Get handles GET /customers/:customer_id
func (h *CustomerHandler) Get(c echo.Context) error {
	customer, err := h.repo.GetByID(c.Request().Context(), c.Param("customer_id"))
	if err != nil {
		return err
	}
	return SuccessResponse(c, customer)
}
