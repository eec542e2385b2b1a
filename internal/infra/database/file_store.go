package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"birthday_reminder_bot/internal/domain/birthday"
)

// ErrStoreIO marks persistence read/write failures. Callers surface it to the
// user as a generic failure; the command is then not reliably committed.
var ErrStoreIO = fmt.Errorf("store i/o failure")

// FileStore persists the birthday document as a single JSON file. Every save
// rewrites the whole document through a temp file rename so a crashed write
// never leaves a half-written state behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (*birthday.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return birthday.NewDocument(), nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStoreIO, s.path, err)
	}
	doc := &birthday.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrStoreIO, s.path, err)
	}
	doc.EnsureInit()
	return doc, nil
}

func (s *FileStore) Save(_ context.Context, doc *birthday.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding document: %v", ErrStoreIO, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".birthdays-*.json")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %v", ErrStoreIO, dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %v", ErrStoreIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing %s: %v", ErrStoreIO, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: renaming %s to %s: %v", ErrStoreIO, tmpName, s.path, err)
	}
	return nil
}
