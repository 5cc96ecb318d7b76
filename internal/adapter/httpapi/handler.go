package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"bookshelf/internal/domain"
	"bookshelf/internal/infra/logger"
)

const (
	savedMessage   = "Book saved successfully"
	deletedMessage = "Book deleted successfully"
)

// handleSave decodes a Book from the body and persists it. Every failure,
// including storage faults, is reported to the client as a bad request.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		return domain.CauseError("save", domain.ErrInvalidParameter, err)
	}
	book, err := domain.DecodeBook(body)
	if err != nil {
		return domain.CauseError("save", domain.ErrInvalidParameter, err)
	}
	if err := s.store.Save(r.Context(), book); err != nil {
		s.logger.Warn("save failed", "name", book.Name, logger.Err(err))
		return domain.CauseError("save", domain.ErrInvalidParameter, err)
	}
	s.metrics.SavesTotal.Add(1)
	return writeJSON(w, savedMessage)
}

// handleGet returns the stored Book. Any load failure reads as not found.
// The GET pattern also matches HEAD, which is treated as an unknown route.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		return routeNotFound(r)
	}
	name := r.PathValue("name")
	book, err := s.store.Load(r.Context(), name)
	if err != nil {
		s.logger.Debug("load failed", "name", name, logger.Err(err))
		return domain.CauseError("get", domain.ErrNotFound, err)
	}
	data, err := domain.EncodeBook(book)
	if err != nil {
		return err
	}
	s.metrics.LoadsTotal.Add(1)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return nil
}

// handleDelete removes the stored Book. A missing book is a bad request.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) error {
	name := r.PathValue("name")
	if err := s.store.Delete(r.Context(), name); err != nil {
		s.logger.Debug("delete failed", "name", name, logger.Err(err))
		return domain.CauseError("delete", domain.ErrInvalidParameter, err)
	}
	s.metrics.DeletesTotal.Add(1)
	writeText(w, http.StatusOK, deletedMessage)
	return nil
}

func writeJSON(w http.ResponseWriter, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return nil
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
