package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps files under a root directory and serves them from baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a LocalStore rooted at root.
func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: baseURL}
}

// Root returns the directory files are written under.
func (s *LocalStore) Root() string { return s.root }

// Save writes to a temporary file next to the target and renames it into
// place, so a failed write never leaves a partial file under key.
func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader, _ string) (err error) {
	key, err = cleanKey(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod file: %w", err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

// Delete removes the file for key.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns baseURL/key.
func (s *LocalStore) URL(key string) string {
	return joinURL(s.baseURL, key)
}
