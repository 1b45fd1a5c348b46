package service

import (
	"context"
	"errors"
	"fmt"
	"xendpal/file-api/model"
	"xendpal/file-api/storage"
	"xendpal/file-api/util"
	"xendpal/file-api/validators"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPersistence = errors.New("failed to persist upload")
	ErrNotOwned    = errors.New("upload not found")
)

// Uploader owns upload records, the user's space bookkeeping and
// physical file placement. Nothing else writes the space column.
type Uploader struct {
	DB    *gorm.DB
	Files storage.Store
}

func NewUploader(db *gorm.DB, files storage.Store) *Uploader {
	return &Uploader{DB: db, Files: files}
}

// Upload validates the archive, stores its bytes and records the
// upload row together with the owner's space increment in one
// transaction. The quota check is re-run inside the transaction as a
// conditional update so two concurrent uploads can't both squeeze
// past the ceiling.
func (u *Uploader) Upload(ctx context.Context, user *model.User, fileType string, content []byte, filename string) (*model.Upload, error) {
	format, err := validators.ArchiveValidator(content, filename, user.MaxSpace-user.Space)
	if err != nil {
		return nil, err
	}

	name := util.SecureFilename(filename)

	path, size, err := u.Files.Save(ctx, user.Email, name, content)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrPersistence, err)
	}

	if fileType == "" {
		fileType = "unknown"
	}

	upload := &model.Upload{
		Name:    name,
		Path:    path,
		Type:    fileType,
		Size:    size,
		OwnerID: user.Email,
	}

	zap.L().Debug("Storing upload",
		zap.String("owner", user.Email),
		zap.String("name", name),
		zap.String("format", format),
		zap.Int64("size", size))

	err = u.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(model.User{}).
			Where("email = ? AND space + ? <= max_space", user.Email, size).
			Update("space", gorm.Expr("space + ?", size))
		if res.Error != nil {
			return res.Error
		}

		// Zero rows means a concurrent upload ate the remaining quota
		// between the precheck and now
		if res.RowsAffected == 0 {
			return validators.ErrNoSpace
		}

		return tx.Create(upload).Error
	})
	if err != nil {
		// The stored file is an orphan now, try to take it with us
		if rmErr := u.Files.Remove(context.Background(), user.Email, name); rmErr != nil {
			zap.L().Warn("Failed to clean up file after aborted upload", zap.String("name", name), zap.Error(rmErr))
		}

		if errors.Is(err, validators.ErrNoSpace) {
			return nil, err
		}

		return nil, fmt.Errorf("%w, %w", ErrPersistence, err)
	}

	user.Space += size

	return upload, nil
}

// ListVisible returns the uploads a user can see: the ones they own
// plus the ones shared to their email, each at most once, newest
// first.
func (u *Uploader) ListVisible(email string) ([]model.Upload, error) {
	var uploads []model.Upload

	err := u.DB.
		Where("owner_id = ? OR id IN (?)", email,
			u.DB.Model(model.SharedRecipient{}).Select("upload_id").Where("recipient_email = ?", email)).
		Order("created_at desc").
		Find(&uploads).
		Error

	return uploads, err
}

// Delete removes an upload the user owns and gives the bytes back to
// their quota. The stored file is removed after the transaction
// commits, a failure there is logged and swallowed.
func (u *Uploader) Delete(ctx context.Context, user *model.User, uploadID string) error {
	var upload model.Upload

	err := u.DB.Where("id = ? AND owner_id = ?", uploadID, user.Email).First(&upload).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOwned
		}
		return fmt.Errorf("%w, %w", ErrPersistence, err)
	}

	err = u.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", upload.ID).Delete(model.Upload{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotOwned
		}

		// Conditional decrement so the subtraction can't push space
		// below zero under concurrent deletes
		res = tx.
			Model(model.User{}).
			Where("email = ? AND space - ? >= 0", user.Email, upload.Size).
			Update("space", gorm.Expr("space - ?", upload.Size))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			zap.L().Warn("Space bookkeeping went negative, clamping to zero",
				zap.String("owner", user.Email),
				zap.Int64("upload_size", upload.Size))

			return tx.Model(model.User{}).Where("email = ?", user.Email).Update("space", 0).Error
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotOwned) {
			return err
		}
		return fmt.Errorf("%w, %w", ErrPersistence, err)
	}

	user.Space -= upload.Size
	if user.Space < 0 {
		user.Space = 0
	}

	if err := u.Files.Remove(ctx, user.Email, upload.Name); err != nil {
		zap.L().Warn("Failed to remove stored file after delete", zap.String("name", upload.Name), zap.Error(err))
	}

	return nil
}
