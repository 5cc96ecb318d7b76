package tracer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"bookshelf/internal/infra/config"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: false, Exporter: "stdout"}, Identity{})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(context.Background())

	if _, ok := otel.GetTracerProvider().(noop.TracerProvider); !ok {
		t.Errorf("expected noop provider, got %T", otel.GetTracerProvider())
	}
}

func TestSetupNoopExporters(t *testing.T) {
	for _, exp := range []string{"noop", ""} {
		shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: exp}, Identity{})
		if err != nil {
			t.Fatalf("Setup(%q): %v", exp, err)
		}
		if _, ok := otel.GetTracerProvider().(noop.TracerProvider); !ok {
			t.Errorf("exporter %q: expected noop provider, got %T", exp, otel.GetTracerProvider())
		}
		shutdown(context.Background())
	}
}

func TestSetupStdoutCarriesIdentity(t *testing.T) {
	var buf bytes.Buffer
	id := Identity{Version: "1.2.3", Backend: "sqlite", ListenAddr: "127.0.0.1:3030"}
	shutdown, err := setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "stdout"}, id, &buf)
	require.NoError(t, err)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	_, span := StartSpan(context.Background(), "bookstore.save")
	span.SetAttributes(StringAttr("book.name", "Dune"), IntAttr("http.status", 200))
	SetOK(span)
	span.End()

	// Shutdown flushes the batcher.
	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	for _, want := range []string{
		"bookstore.save",
		"Dune",
		`"service.name"`,
		`"bookshelf"`,
		`"service.version"`,
		`"1.2.3"`,
		`"bookshelf.store.backend"`,
		`"sqlite"`,
		`"bookshelf.listen.addr"`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestIdentityAttributesSkipEmpty(t *testing.T) {
	attrs := Identity{Backend: "file"}.attributes()
	keys := make([]string, 0, len(attrs))
	for _, kv := range attrs {
		keys = append(keys, string(kv.Key))
	}
	assert.Equal(t, "service.name,bookshelf.store.backend", strings.Join(keys, ","))
	assert.Equal(t, ServiceName, attrs[0].Value.AsString())
}

func TestSetupUnsupportedExporter(t *testing.T) {
	_, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "zipkin"}, Identity{})
	if err == nil {
		t.Error("expected error for unsupported exporter")
	}
}

func TestSpanHelpersOnNoop(t *testing.T) {
	otel.SetTracerProvider(noop.NewTracerProvider())

	ctx, span := StartSpan(context.Background(), "test-span")
	if ctx == nil {
		t.Error("context should not be nil")
	}
	SetOK(span)
	RecordError(span, errors.New("test error"))
	span.End()
}

func TestAttrHelpers(t *testing.T) {
	s := StringAttr("book.key", "Dune")
	if string(s.Key) != "book.key" || s.Value.AsString() != "Dune" {
		t.Errorf("StringAttr = %v", s)
	}
	i := IntAttr("http.status", 404)
	if string(i.Key) != "http.status" || i.Value.AsInt64() != 404 {
		t.Errorf("IntAttr = %v", i)
	}
}
