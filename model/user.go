// Package model defines database models
package model

import "time"

// DefaultMaxSpace is the quota ceiling given to new accounts
// unless the configuration overrides it.
const DefaultMaxSpace int64 = 2 << 30

type User struct {
	// Users are keyed by their email address, not a surrogate ID
	Email   string `gorm:"primaryKey" json:"email"`
	Sub     string `gorm:"index" json:"-"` // Subject identifier at the identity provider
	Name    string `json:"name"`
	Picture string `json:"picture"`

	// Space is the number of bytes currently consumed by the user's
	// uploads. Only the uploader mutates it, always inside the same
	// transaction as the upload row change
	Space    int64 `gorm:"not null;default:0" json:"space"`
	MaxSpace int64 `json:"max_space"`

	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`

	Uploads        []Upload  `gorm:"foreignKey:OwnerID;references:Email" json:"-"`
	HistoryEntries []History `gorm:"foreignKey:UserEmail;references:Email" json:"-"`
}
