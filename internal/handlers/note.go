package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/repositories"
)

type NoteHandler struct {
	repo repositories.NoteRepo
}

func NewNoteHandler(repo repositories.NoteRepo) *NoteHandler {
	return &NoteHandler{repo: repo}
}

func (h *NoteHandler) RegisterRoutes(e *echo.Echo) {
	notes := e.Group("/notes")
	notes.POST("", h.Create)
	notes.GET("", h.List)
}

// Create handles POST /notes
func (h *NoteHandler) Create(c echo.Context) error {
	req, err := BindRequest[models.CreateNoteRequest](c)
	if err != nil {
		return err
	}

	note, err := h.repo.Create(c.Request().Context(), *req.Note)
	if err != nil {
		return err
	}
	return CreatedResponse(c, note)
}

// List handles GET /notes
func (h *NoteHandler) List(c echo.Context) error {
	limit, err := ParseLimit(c)
	if err != nil {
		return err
	}

	notes, err := h.repo.List(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return SuccessResponse(c, notes)
}
