package repositories

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const notesTable = "api_notes"

var noteStruct = database.NewStruct(new(models.Note))

type NoteRepository struct {
	*Repository
}

func NewNoteRepository(db database.DB, logger ectologger.Logger, queryTimeout time.Duration) *NoteRepository {
	return &NoteRepository{
		Repository: NewRepository(db, logger, queryTimeout),
	}
}

// Create inserts a note inside a transaction and returns the stored row.
func (r *NoteRepository) Create(ctx context.Context, note string) (*models.Note, error) {
	ctx, span := tracing.StartSpan(ctx, "NoteRepository.Create")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(notesTable).
		Cols("note").
		Values(note).
		Returning("id", "note", "created_at")

	query, args := ib.Build()
	ctx, done := r.begin(ctx, "notes.create")
	defer done()

	ctx, tx, err := r.DB().GetTx(ctx, nil)
	if err != nil {
		return nil, Internal("failed to create note")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var created models.Note
	if err := tx.QueryRowxContext(ctx, query, args...).StructScan(&created); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert note")
		return nil, Internal("failed to create note")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, Internal("failed to create note")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"note_id": created.ID,
	}).Debugf("Created %s row", notesTable)
	return &created, nil
}

// List returns up to limit notes, newest first.
func (r *NoteRepository) List(ctx context.Context, limit int) ([]models.Note, error) {
	ctx, span := tracing.StartSpan(ctx, "NoteRepository.List")
	defer span.End()

	sb := noteStruct.SelectFrom(notesTable)
	sb.OrderBy("id").Desc()
	sb.Limit(limit)

	query, args := sb.Build()
	ctx, done := r.begin(ctx, "notes.list")
	defer done()

	notes := []models.Note{}
	if err := r.DB().SelectContext(ctx, &notes, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"limit": limit,
		}).Error("failed to list notes")
		return nil, Internal("failed to list notes")
	}

	return notes, nil
}
