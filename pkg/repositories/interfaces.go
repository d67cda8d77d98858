package repositories

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/models"
)

// CustomerRepo reads ingested customers.
type CustomerRepo interface {
	List(ctx context.Context, limit int) ([]models.CustomerSummary, error)
	GetByID(ctx context.Context, customerID string) (*models.Customer, error)
}

// OrderRepo reads order aggregates.
type OrderRepo interface {
	StatusCounts(ctx context.Context) ([]models.OrderStatusCount, error)
}

// NoteRepo appends and lists api notes.
type NoteRepo interface {
	Create(ctx context.Context, note string) (*models.Note, error)
	List(ctx context.Context, limit int) ([]models.Note, error)
}
