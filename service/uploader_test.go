package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"xendpal/file-api/model"
	"xendpal/file-api/storage"
	"xendpal/file-api/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A file-backed database because :memory: hands every pooled
	// connection its own empty schema
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)

	err = db.AutoMigrate(model.User{}, model.Upload{}, model.SharedUpload{}, model.SharedRecipient{}, model.History{})
	require.NoError(t, err)

	return db
}

func testUploader(t *testing.T) (*Uploader, string) {
	t.Helper()

	root := t.TempDir()

	files, err := storage.NewLocal(root)
	require.NoError(t, err)

	return NewUploader(testDB(t), files), root
}

func makeUser(t *testing.T, db *gorm.DB, email string, maxSpace int64) *model.User {
	t.Helper()

	user := &model.User{
		Email:    email,
		Sub:      "sub-" + email,
		MaxSpace: maxSpace,
	}
	require.NoError(t, db.Create(user).Error)

	return user
}

// zipBytes returns a payload of exactly n bytes starting with the ZIP
// local-file-header signature.
func zipBytes(n int) []byte {
	b := make([]byte, n)
	copy(b, []byte{'P', 'K', 0x03, 0x04})
	return b
}

func loadSpace(t *testing.T, db *gorm.DB, email string) int64 {
	t.Helper()

	var user model.User
	require.NoError(t, db.Where("email = ?", email).First(&user).Error)
	return user.Space
}

func TestUploadQuotaScenario(t *testing.T) {
	u, _ := testUploader(t)
	user := makeUser(t, u.DB, "owner@example.com", 100)

	up, err := u.Upload(context.Background(), user, "file", zipBytes(60), "first.zip")
	require.NoError(t, err)
	assert.Equal(t, int64(60), up.Size)
	assert.Equal(t, int64(60), loadSpace(t, u.DB, user.Email))

	_, err = u.Upload(context.Background(), user, "file", zipBytes(50), "second.zip")
	assert.ErrorIs(t, err, validators.ErrNoSpace)
	assert.Equal(t, int64(60), loadSpace(t, u.DB, user.Email))

	err = u.Delete(context.Background(), user, up.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), loadSpace(t, u.DB, user.Email))

	uploads, err := u.ListVisible(user.Email)
	require.NoError(t, err)
	assert.Empty(t, uploads)
}

func TestUploadRejectsNonZip(t *testing.T) {
	u, root := testUploader(t)
	user := makeUser(t, u.DB, "owner@example.com", 1000)

	_, err := u.Upload(context.Background(), user, "file", []byte("definitely not a zip"), "notes.txt")
	assert.ErrorIs(t, err, validators.ErrNotAZip)

	var count int64
	require.NoError(t, u.DB.Model(model.Upload{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, int64(0), loadSpace(t, u.DB, user.Email))

	// Nothing may have touched the user's namespace
	_, err = os.Stat(filepath.Join(root, user.Email))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadRejectsOverQuota(t *testing.T) {
	u, root := testUploader(t)
	user := makeUser(t, u.DB, "owner@example.com", 10)

	_, err := u.Upload(context.Background(), user, "file", zipBytes(11), "big.zip")
	assert.ErrorIs(t, err, validators.ErrNoSpace)

	var count int64
	require.NoError(t, u.DB.Model(model.Upload{}).Count(&count).Error)
	assert.Zero(t, count)

	_, err = os.Stat(filepath.Join(root, user.Email))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadSanitizesFilename(t *testing.T) {
	u, root := testUploader(t)
	user := makeUser(t, u.DB, "owner@example.com", 1000)

	up, err := u.Upload(context.Background(), user, "file", zipBytes(20), "../../etc/passwd.zip")
	require.NoError(t, err)
	assert.NotContains(t, up.Name, "/")
	assert.NotContains(t, up.Name, "..")

	// The file must land inside the owner's directory
	_, err = os.Stat(filepath.Join(root, user.Email, up.Name))
	assert.NoError(t, err)
}

func TestUploadWritesFileToDisk(t *testing.T) {
	u, root := testUploader(t)
	user := makeUser(t, u.DB, "owner@example.com", 1000)

	up, err := u.Upload(context.Background(), user, "backup", zipBytes(30), "backup.zip")
	require.NoError(t, err)
	assert.Equal(t, "backup", up.Type)

	stat, err := os.Stat(filepath.Join(root, user.Email, "backup.zip"))
	require.NoError(t, err)
	assert.Equal(t, int64(30), stat.Size())
	assert.Equal(t, stat.Size(), up.Size)
}

func TestDeleteRemovesFile(t *testing.T) {
	u, root := testUploader(t)
	user := makeUser(t, u.DB, "owner@example.com", 1000)

	up, err := u.Upload(context.Background(), user, "file", zipBytes(25), "gone.zip")
	require.NoError(t, err)

	require.NoError(t, u.Delete(context.Background(), user, up.ID))

	_, err = os.Stat(filepath.Join(root, user.Email, "gone.zip"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteForeignUpload(t *testing.T) {
	u, _ := testUploader(t)
	owner := makeUser(t, u.DB, "owner@example.com", 1000)
	other := makeUser(t, u.DB, "other@example.com", 1000)

	up, err := u.Upload(context.Background(), owner, "file", zipBytes(40), "mine.zip")
	require.NoError(t, err)

	err = u.Delete(context.Background(), other, up.ID)
	assert.ErrorIs(t, err, ErrNotOwned)

	err = u.Delete(context.Background(), owner, "no-such-id")
	assert.ErrorIs(t, err, ErrNotOwned)

	assert.Equal(t, int64(40), loadSpace(t, u.DB, owner.Email))
	assert.Equal(t, int64(0), loadSpace(t, u.DB, other.Email))
}

func TestSpaceMatchesUploadsAfterMixedOperations(t *testing.T) {
	u, _ := testUploader(t)
	user := makeUser(t, u.DB, "owner@example.com", 1000)

	first, err := u.Upload(context.Background(), user, "file", zipBytes(100), "a.zip")
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), user, "file", zipBytes(200), "b.zip")
	require.NoError(t, err)

	require.NoError(t, u.Delete(context.Background(), user, first.ID))

	_, err = u.Upload(context.Background(), user, "file", zipBytes(300), "c.zip")
	require.NoError(t, err)

	var total int64
	require.NoError(t, u.DB.Model(model.Upload{}).Where("owner_id = ?", user.Email).Select("COALESCE(SUM(size), 0)").Scan(&total).Error)
	assert.Equal(t, total, loadSpace(t, u.DB, user.Email))
	assert.Equal(t, int64(500), total)
}

func TestListVisibleDeduplicatesShares(t *testing.T) {
	u, _ := testUploader(t)
	owner := makeUser(t, u.DB, "owner@example.com", 1000)
	makeUser(t, u.DB, "friend@example.com", 1000)
	makeUser(t, u.DB, "stranger@example.com", 1000)

	up, err := u.Upload(context.Background(), owner, "file", zipBytes(10), "shared.zip")
	require.NoError(t, err)

	// Two separate share actions to the same recipient
	for range 2 {
		su := &model.SharedUpload{UploadID: up.ID, Permission: "read"}
		require.NoError(t, u.DB.Create(su).Error)
		require.NoError(t, u.DB.Create(&model.SharedRecipient{
			SharedUploadID: su.ID,
			RecipientEmail: "friend@example.com",
			UploadID:       up.ID,
		}).Error)
	}

	visible, err := u.ListVisible("friend@example.com")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, up.ID, visible[0].ID)

	visible, err = u.ListVisible("stranger@example.com")
	require.NoError(t, err)
	assert.Empty(t, visible)

	visible, err = u.ListVisible(owner.Email)
	require.NoError(t, err)
	require.Len(t, visible, 1)
}
