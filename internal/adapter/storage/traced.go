package storage

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"bookshelf/internal/domain"
	"bookshelf/internal/infra/tracer"
)

// TracedStore wraps a BookStore and records one span per operation.
type TracedStore struct {
	inner domain.BookStore
}

// NewTracedStore wraps inner with tracing.
func NewTracedStore(inner domain.BookStore) *TracedStore {
	return &TracedStore{inner: inner}
}

func (t *TracedStore) start(ctx context.Context, op, name string) (context.Context, trace.Span) {
	return tracer.StartSpan(ctx, "bookstore."+op,
		trace.WithAttributes(
			tracer.StringAttr("book.name", name),
			tracer.StringAttr("book.key", SanitizeName(name)),
			tracer.StringAttr("store.backend", t.inner.Name()),
		),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		tracer.RecordError(span, err)
	} else {
		tracer.SetOK(span)
	}
	span.End()
}

func (t *TracedStore) Save(ctx context.Context, book domain.Book) error {
	ctx, span := t.start(ctx, "save", book.Name)
	err := t.inner.Save(ctx, book)
	finish(span, err)
	return err
}

func (t *TracedStore) Load(ctx context.Context, name string) (domain.Book, error) {
	ctx, span := t.start(ctx, "load", name)
	book, err := t.inner.Load(ctx, name)
	finish(span, err)
	return book, err
}

func (t *TracedStore) Delete(ctx context.Context, name string) error {
	ctx, span := t.start(ctx, "delete", name)
	err := t.inner.Delete(ctx, name)
	finish(span, err)
	return err
}

func (t *TracedStore) Name() string { return t.inner.Name() }
