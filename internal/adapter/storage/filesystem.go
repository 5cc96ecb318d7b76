package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bookshelf/internal/domain"
)

// DefaultDir is the storage root used when none is configured.
const DefaultDir = "./books"

// FileStore implements domain.BookStore with one JSON file per book under a
// single directory. Writes go straight to the target path; there is no
// temp-file rename and no locking.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir. The directory is
// created lazily on the first Save.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileStore{dir: dir}
}

// Dir returns the storage root.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file that holds the book with the given name.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, SanitizeName(name)+".json")
}

func (s *FileStore) Save(_ context.Context, book domain.Book) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.CauseError("FileStore.Save", domain.ErrBookSave, fmt.Errorf("create dir: %w", err))
	}
	data, err := domain.EncodeBook(book)
	if err != nil {
		return domain.CauseError("FileStore.Save", domain.ErrBookSave, err)
	}
	if err := os.WriteFile(s.Path(book.Name), data, 0o644); err != nil {
		return domain.CauseError("FileStore.Save", domain.ErrBookSave, err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, name string) (domain.Book, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Book{}, domain.CauseError("FileStore.Load", domain.ErrNotFound, err)
		}
		return domain.Book{}, domain.CauseError("FileStore.Load", domain.ErrBookLoad, err)
	}
	book, err := domain.DecodeBook(data)
	if err != nil {
		return domain.Book{}, domain.CauseError("FileStore.Load", domain.ErrBookLoad, err)
	}
	return book, nil
}

func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := os.Remove(s.Path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.CauseError("FileStore.Delete", domain.ErrNotFound, err)
		}
		return domain.CauseError("FileStore.Delete", domain.ErrBookDelete, err)
	}
	return nil
}

func (s *FileStore) Name() string { return "file" }
