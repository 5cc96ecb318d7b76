package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"bookshelf/internal/domain"
)

// SQLiteStore implements domain.BookStore on a single SQLite table. Rows are
// keyed by SanitizeName(name) so that collisions behave exactly like the
// file backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs the
// schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open book db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate book db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS books (
			key        TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			author     TEXT NOT NULL,
			published  TEXT NOT NULL,
			data       TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, book domain.Book) error {
	data, err := domain.EncodeBook(book)
	if err != nil {
		return domain.CauseError("SQLiteStore.Save", domain.ErrBookSave, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO books (key, name, author, published, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			author = excluded.author,
			published = excluded.published,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		SanitizeName(book.Name), book.Name, book.Author, book.Published.String(),
		string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return domain.CauseError("SQLiteStore.Save", domain.ErrBookSave, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (domain.Book, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM books WHERE key = ?", SanitizeName(name)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Book{}, domain.NewDomainError("SQLiteStore.Load", domain.ErrNotFound, name)
	}
	if err != nil {
		return domain.Book{}, domain.CauseError("SQLiteStore.Load", domain.ErrBookLoad, err)
	}
	book, err := domain.DecodeBook([]byte(data))
	if err != nil {
		return domain.Book{}, domain.CauseError("SQLiteStore.Load", domain.ErrBookLoad, err)
	}
	return book, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE key = ?", SanitizeName(name))
	if err != nil {
		return domain.CauseError("SQLiteStore.Delete", domain.ErrBookDelete, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.NewDomainError("SQLiteStore.Delete", domain.ErrNotFound, name)
	}
	return nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }
