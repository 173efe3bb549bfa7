package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore writes ticket files under one attachment directory, the
// layout desk tools expect: <root>/<ticketNo>.html next to <root>/<ticketNo>/
// folders of attachments. Writes land in a temp file first and are renamed
// into place, so readers never observe a half-written body.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "attachments"
	}
	cleanRoot := filepath.Clean(root)
	if err := os.MkdirAll(cleanRoot, 0o750); err != nil {
		return nil, err
	}
	return &FilesystemStore{root: cleanRoot}, nil
}

// Root returns the attachment directory. Ticket rows record body paths
// relative to this directory's base name.
func (s *FilesystemStore) Root() string {
	return s.root
}

func (s *FilesystemStore) Put(_ context.Context, key, _ string, body []byte) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != s.root {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, body, 0o640); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func (s *FilesystemStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *FilesystemStore) Delete(_ context.Context, key string) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// keyPath maps a blob key onto a file under the attachment directory.
// Cleaning the key behind a leading slash pins every ".." at the key's own
// root, so attachment filenames can never name a file outside the directory.
func (s *FilesystemStore) keyPath(key string) (string, error) {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(filepath.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", errors.New("empty attachment key")
	}
	path := filepath.Join(s.root, key)
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("attachment key escapes the root")
	}
	return path, nil
}
