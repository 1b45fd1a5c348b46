package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type LocalStore struct {
	root string
}

func NewLocal(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root, %w", err)
	}

	return &LocalStore{root: root}, nil
}

func (l *LocalStore) Save(ctx context.Context, userEmail, name string, content []byte) (string, int64, error) {
	dir := filepath.Join(l.root, userEmail)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create user directory, %w", err)
	}

	p := filepath.Join(dir, name)

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	if err := os.WriteFile(p, content, 0o644); err != nil {
		return "", 0, fmt.Errorf("failed to write file, %w", err)
	}

	// The filesystem may normalize what we handed it, so the recorded
	// size comes from a stat and not from len(content)
	stat, err := os.Stat(p)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat written file, %w", err)
	}

	return p, stat.Size(), nil
}

func (l *LocalStore) Remove(ctx context.Context, userEmail, name string) error {
	p := filepath.Join(l.root, userEmail, name)

	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return os.Remove(p)
}
