package tracer

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"bookshelf/internal/infra/config"
)

// ServiceName is both the instrumentation scope and the resource
// service.name of every span this process emits.
const ServiceName = "bookshelf"

// Resource attribute keys describing the running service.
const (
	attrServiceName    = "service.name"
	attrServiceVersion = "service.version"
	attrStoreBackend   = "bookshelf.store.backend"
	attrListenAddr     = "bookshelf.listen.addr"
)

// Identity is stamped on the trace resource so exported spans can be told
// apart by build and storage backend.
type Identity struct {
	Version    string
	Backend    string
	ListenAddr string
}

func (id Identity) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(attrServiceName, ServiceName)}
	if id.Version != "" {
		attrs = append(attrs, attribute.String(attrServiceVersion, id.Version))
	}
	if id.Backend != "" {
		attrs = append(attrs, attribute.String(attrStoreBackend, id.Backend))
	}
	if id.ListenAddr != "" {
		attrs = append(attrs, attribute.String(attrListenAddr, id.ListenAddr))
	}
	return attrs
}

// Setup installs the global TracerProvider and returns its shutdown
// function. Disabled tracing and the "noop" exporter install a noop provider.
func Setup(ctx context.Context, cfg config.TracerConfig, id Identity) (func(context.Context) error, error) {
	return setup(ctx, cfg, id, os.Stdout)
}

func setup(ctx context.Context, cfg config.TracerConfig, id Identity, out io.Writer) (func(context.Context) error, error) {
	if !cfg.Enabled || cfg.Exporter == "noop" || cfg.Exporter == "" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}
	if cfg.Exporter != "stdout" {
		return nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(id.attributes()...),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// StartSpan starts a span on the service tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(ServiceName).Start(ctx, name, opts...)
}

// RecordError records err on span and marks it failed.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks span successful.
func SetOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// StringAttr and IntAttr keep callers free of the attribute import.
func StringAttr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

func IntAttr(key string, value int) attribute.KeyValue {
	return attribute.Int(key, value)
}
