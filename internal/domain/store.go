package domain

import "context"

// BookStore persists books keyed by name. Implementations do not coordinate
// concurrent calls for the same name; the last completed write wins.
type BookStore interface {
	// Save creates or overwrites the book stored under book.Name.
	Save(ctx context.Context, book Book) error
	// Load returns the book stored under name. A missing book yields an
	// error matching ErrNotFound.
	Load(ctx context.Context, name string) (Book, error)
	// Delete removes the book stored under name. A missing book yields an
	// error matching ErrNotFound.
	Delete(ctx context.Context, name string) error
	// Name identifies the backend in logs and spans.
	Name() string
}
