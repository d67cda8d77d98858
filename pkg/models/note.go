package models

import "time"

type Note struct {
	ID        int64     `db:"id" json:"id"`
	Note      string    `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (Note) TableName() string {
	return "api_notes"
}

// CreateNoteRequest is the POST /notes body. Note is a pointer so an absent
// field can be told apart from an empty one.
type CreateNoteRequest struct {
	Note *string `json:"note" validate:"required"`
}
