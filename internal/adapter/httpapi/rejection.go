package httpapi

import (
	"errors"
	"net/http"

	"bookshelf/internal/domain"
	"bookshelf/internal/infra/logger"
	"bookshelf/internal/infra/middleware"
)

// Plain-text rejection bodies.
const (
	bodyNotFound   = "NOT_FOUND"
	bodyBadRequest = "BAD_REQUEST"
	bodyInternal   = "INTERNAL_SERVER_ERROR"
)

// handlerFunc is a route handler that reports failure instead of writing it.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.reject(w, r, err)
		}
	}
}

// notFound serves every request no route matched.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.reject(w, r, routeNotFound(r))
}

func routeNotFound(r *http.Request) error {
	return domain.NewDomainError("route", domain.ErrNotFound, r.Method+" "+r.URL.Path)
}

// reject writes the status and token for err. Only unclassified errors are
// logged; their detail never reaches the client.
func (s *Server) reject(w http.ResponseWriter, r *http.Request, err error) {
	status, body := rejection(err)
	s.metrics.reject(status)
	if status == http.StatusInternalServerError {
		s.logger.Error("unhandled rejection",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFrom(r.Context()),
			logger.Err(err),
		)
	}
	writeText(w, status, body)
}

// rejection classifies err. ErrInvalidParameter is checked first so that a
// failed delete of a missing book stays a 400 even though its cause is
// ErrNotFound.
func rejection(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest, bodyBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, bodyNotFound
	default:
		return http.StatusInternalServerError, bodyInternal
	}
}
