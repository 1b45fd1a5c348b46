package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SharedUpload records one share action on an upload. A single upload
// can be shared many times, each action gets its own row. Rows are
// never mutated after creation.
type SharedUpload struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	UploadID    string    `gorm:"index" json:"upload_id"`
	TimeShared  time.Time `json:"time_shared"`
	Permission  string    `json:"permission"` // "read" or "write"
	Description string    `json:"description"`

	Recipients []SharedRecipient `gorm:"foreignKey:SharedUploadID" json:"-"`
}

// SharedRecipient names one recipient of a share action. The upload ID
// is denormalized onto the row so visibility queries don't need to walk
// through shared_uploads.
type SharedRecipient struct {
	ID             string `gorm:"primaryKey" json:"id"`
	SharedUploadID string `gorm:"index" json:"shared_upload_id"`
	RecipientEmail string `gorm:"index" json:"recipient_email"`
	UploadID       string `gorm:"index" json:"upload_id"`
}

func (s *SharedUpload) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.TimeShared.IsZero() {
		s.TimeShared = time.Now().UTC()
	}
	return nil
}

func (s *SharedRecipient) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
