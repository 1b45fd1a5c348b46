package service

import (
	"errors"
	"fmt"
	"xendpal/file-api/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ShareService creates share records and schedules their side effects.
// The share itself is one transaction, the history entry and the
// notification mail ride the task queue afterwards.
type ShareService struct {
	DB    *gorm.DB
	Tasks *TaskQueue

	// Notify delivers the share mail. Swappable so tests don't need an
	// SMTP server
	Notify func(recipient, sharerEmail string, upload *model.Upload, description string) error
}

func NewShareService(db *gorm.DB, tasks *TaskQueue) *ShareService {
	return &ShareService{
		DB:     db,
		Tasks:  tasks,
		Notify: SendShareMail,
	}
}

// Share links an owned upload to a recipient. Permission defaults to
// read. A committed share stays committed even when the history append
// or the mail never happen.
func (s *ShareService) Share(owner *model.User, uploadID, recipientEmail, permission, description string) error {
	var upload model.Upload

	err := s.DB.Where("id = ? AND owner_id = ?", uploadID, owner.Email).First(&upload).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOwned
		}
		return fmt.Errorf("%w, %w", ErrPersistence, err)
	}

	if permission == "" {
		permission = "read"
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		sharedUpload := &model.SharedUpload{
			UploadID:    upload.ID,
			Permission:  permission,
			Description: description,
		}

		if err := tx.Create(sharedUpload).Error; err != nil {
			return err
		}

		return tx.Create(&model.SharedRecipient{
			SharedUploadID: sharedUpload.ID,
			RecipientEmail: recipientEmail,
			UploadID:       upload.ID,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("%w, %w", ErrPersistence, err)
	}

	ownerEmail := owner.Email

	err = s.Tasks.Enqueue(&Task{
		Name: "share-history",
		Run: func() error {
			return s.DB.Create(&model.History{
				Message:   fmt.Sprintf("Your file share - %v - to %v was successful", upload.Name, recipientEmail),
				UserEmail: ownerEmail,
			}).Error
		},
	})
	if err != nil {
		zap.L().Warn("Dropped history append", zap.Error(err))
	}

	err = s.Tasks.Enqueue(&Task{
		Name: "share-mail",
		Run: func() error {
			return s.Notify(recipientEmail, ownerEmail, &upload, description)
		},
	})
	if err != nil {
		zap.L().Warn("Dropped share notification", zap.Error(err))
	}

	return nil
}
