package httpapi

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics counts completed operations and rejections.
type Metrics struct {
	SavesTotal   atomic.Int64
	LoadsTotal   atomic.Int64
	DeletesTotal atomic.Int64

	BadRequests    atomic.Int64
	NotFounds      atomic.Int64
	InternalErrors atomic.Int64
}

func (m *Metrics) reject(status int) {
	switch status {
	case http.StatusBadRequest:
		m.BadRequests.Add(1)
	case http.StatusNotFound:
		m.NotFounds.Add(1)
	default:
		m.InternalErrors.Add(1)
	}
}

// metricsHandler serves GET /metrics in the Prometheus text format.
func metricsHandler(m *Metrics, started time.Time, backend string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		fmt.Fprintf(w, "# HELP bookshelf_operations_total Successful book operations.\n")
		fmt.Fprintf(w, "# TYPE bookshelf_operations_total counter\n")
		fmt.Fprintf(w, "bookshelf_operations_total{op=\"save\"} %d\n", m.SavesTotal.Load())
		fmt.Fprintf(w, "bookshelf_operations_total{op=\"get\"} %d\n", m.LoadsTotal.Load())
		fmt.Fprintf(w, "bookshelf_operations_total{op=\"delete\"} %d\n", m.DeletesTotal.Load())

		fmt.Fprintf(w, "# HELP bookshelf_rejections_total Requests answered with an error status.\n")
		fmt.Fprintf(w, "# TYPE bookshelf_rejections_total counter\n")
		fmt.Fprintf(w, "bookshelf_rejections_total{status=\"400\"} %d\n", m.BadRequests.Load())
		fmt.Fprintf(w, "bookshelf_rejections_total{status=\"404\"} %d\n", m.NotFounds.Load())
		fmt.Fprintf(w, "bookshelf_rejections_total{status=\"500\"} %d\n", m.InternalErrors.Load())

		fmt.Fprintf(w, "# HELP bookshelf_store_info Active storage backend.\n")
		fmt.Fprintf(w, "# TYPE bookshelf_store_info gauge\n")
		fmt.Fprintf(w, "bookshelf_store_info{backend=%q} 1\n", backend)

		fmt.Fprintf(w, "# HELP bookshelf_uptime_seconds Seconds since the server was built.\n")
		fmt.Fprintf(w, "# TYPE bookshelf_uptime_seconds gauge\n")
		fmt.Fprintf(w, "bookshelf_uptime_seconds %.0f\n", time.Since(started).Seconds())

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		fmt.Fprintf(w, "# HELP go_goroutines Number of goroutines.\n")
		fmt.Fprintf(w, "# TYPE go_goroutines gauge\n")
		fmt.Fprintf(w, "go_goroutines %d\n", runtime.NumGoroutine())

		fmt.Fprintf(w, "# HELP go_memstats_alloc_bytes Bytes allocated and still in use.\n")
		fmt.Fprintf(w, "# TYPE go_memstats_alloc_bytes gauge\n")
		fmt.Fprintf(w, "go_memstats_alloc_bytes %d\n", mem.Alloc)
	}
}
