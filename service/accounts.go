package service

import (
	"errors"
	"time"
	"xendpal/file-api/model"

	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrForbidden = errors.New("not authorized to perform requested action")

// Demo account sentinel. The demo login only ever provisions and
// matches this exact account.
const (
	demoEmail   = "demouser@email.com"
	demoSub     = "10660460994372209672$"
	demoName    = "Demo User"
	demoPicture = "https://images.unsplash.com/photo-1510915228340-29c85a43dcfe?auto=format&fit=crop&w=500&q=60"
)

type AccountStore struct {
	DB *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{DB: db}
}

func defaultMaxSpace() int64 {
	if m := viper.GetInt64("storage.max_space"); m > 0 {
		return m
	}
	return model.DefaultMaxSpace
}

// ResolveOrCreate finds the user behind a provider profile, creating
// the account on first login. The insert is an upsert so two
// concurrent first logins for the same subject collapse into one row.
func (a *AccountStore) ResolveOrCreate(profile *GoogleProfile) (*model.User, error) {
	var user model.User

	err := a.DB.Where("sub = ?", profile.Sub).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = a.DB.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(&model.User{
			Email:    profile.Email,
			Sub:      profile.Sub,
			Name:     profile.Name,
			Picture:  profile.Picture,
			Space:    0,
			MaxSpace: defaultMaxSpace(),
		}).
		Error
	if err != nil {
		return nil, err
	}

	err = a.DB.Where("sub = ?", profile.Sub).First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// DemoLogin matches the passwordless evaluation account. The presented
// password is compared against the provider subject column, which is
// where the demo sentinel lives. Provisions the canned account on
// first use.
func (a *AccountStore) DemoLogin(email, password string) (*model.User, error) {
	var user model.User

	err := a.DB.Where("email = ? AND sub = ?", email, password).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = a.DB.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(&model.User{
			Email:    demoEmail,
			Sub:      demoSub,
			Name:     demoName,
			Picture:  demoPicture,
			Space:    0,
			MaxSpace: defaultMaxSpace(),
		}).
		Error
	if err != nil {
		return nil, err
	}

	err = a.DB.Where("email = ? AND sub = ?", email, password).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	return &user, nil
}

// MonthlyUsage sums the sizes of uploads the user created in the
// trailing 30 days.
func (a *AccountStore) MonthlyUsage(email string) (int64, error) {
	var total int64

	err := a.DB.
		Model(model.Upload{}).
		Where("owner_id = ? AND created_at >= ?", email, time.Now().AddDate(0, 0, -30)).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).
		Error

	return total, err
}

// YearlyUsage returns bytes uploaded per calendar month of the current
// year. Months without uploads are absent from the map.
func (a *AccountStore) YearlyUsage(email string) (map[time.Month]int64, error) {
	yearStart := time.Date(time.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	var rows []model.Upload

	err := a.DB.
		Where("owner_id = ? AND created_at >= ?", email, yearStart).
		Select("created_at", "size").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	usage := make(map[time.Month]int64)
	for _, r := range rows {
		usage[r.CreatedAt.Month()] += r.Size
	}

	return usage, nil
}

// DayHistory returns the user's history entries for the current
// calendar day.
func (a *AccountStore) DayHistory(email string) ([]model.History, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var entries []model.History

	err := a.DB.
		Where("user_email = ? AND created_at >= ? AND created_at < ?", email, dayStart, dayStart.AddDate(0, 0, 1)).
		Order("created_at desc").
		Find(&entries).
		Error

	return entries, err
}
