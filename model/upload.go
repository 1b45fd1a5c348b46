package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Upload struct {
	ID string `gorm:"primaryKey" json:"id"`

	// Name is the sanitized client-supplied file name. It doubles as the
	// object key inside the owner's storage namespace
	Name string `json:"name"`
	Path string `json:"path"`

	// Declared type tag from the upload request, not a MIME type
	Type string `json:"type"`

	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	OwnerID   string    `gorm:"index" json:"-"`
}

func (u *Upload) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
