package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// History is an append-only audit log entry. Entries are written as a
// best-effort side effect of successful shares and never updated.
type History struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
	UserEmail string    `gorm:"index" json:"-"`
}

func (h *History) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
