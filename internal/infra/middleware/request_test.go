package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	require.NotEmpty(t, seen)
	_, err := ulid.ParseStrict(seen)
	assert.NoError(t, err, "generated id should be a ULID")
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}

func TestRequestIDReusesIncoming(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRequestIDRejectsOversizedIncoming(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	w := httptest.NewRecorder()
	RequestID(okHandler()).ServeHTTP(w, req)

	assert.Len(t, w.Header().Get(RequestIDHeader), ulid.EncodedSize)
}

func TestRequestIDFromEmptyContext(t *testing.T) {
	assert.Empty(t, RequestIDFrom(context.Background()))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("NOT_FOUND"))
	}), RequestID, RequestLogger(logger))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/get/Missing", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/get/Missing", entry["path"])
	assert.EqualValues(t, 404, entry["status"])
	assert.EqualValues(t, len("NOT_FOUND"), entry["bytes"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestRequestLoggerServerErrorIsWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "INTERNAL_SERVER_ERROR", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/save", nil))

	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestStatusWriterDefaultsTo200(t *testing.T) {
	sw := wrapStatus(httptest.NewRecorder())
	_, _ = sw.Write([]byte("ok"))
	sw.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, sw.status)
	assert.Equal(t, 2, sw.written)
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
	return rec
}

func TestTraceNamesSpanAfterRoute(t *testing.T) {
	rec := recordSpans(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /get/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	Trace(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/get/Dune", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "http GET /get/{name}", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)

	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "GET", attrs["http.method"])
	assert.Equal(t, "GET /get/{name}", attrs["http.route"])
	assert.Equal(t, "200", attrs["http.status"])
}

func TestTraceMarksServerErrors(t *testing.T) {
	rec := recordSpans(t)

	h := Trace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/save", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "http unmatched", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
