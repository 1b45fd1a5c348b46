// Package storage handles physical placement of uploaded archives.
// Every user gets their own namespace (a directory or an object key
// prefix) under the configured root.
package storage

import (
	"context"

	"github.com/spf13/viper"
)

type Store interface {
	// Save writes the archive into the user's namespace and returns the
	// storage path together with the size the backend actually recorded
	Save(ctx context.Context, userEmail, name string, content []byte) (path string, size int64, err error)

	// Remove deletes a previously saved archive. Callers treat failures
	// as best-effort cleanup and only log them
	Remove(ctx context.Context, userEmail, name string) error
}

// New picks the backend based on the storage.type config value.
func New() (Store, error) {
	if viper.GetString("storage.type") == "s3" {
		return NewS3()
	}

	return NewLocal(viper.GetString("storage.root"))
}
