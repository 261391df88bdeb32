package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/helpsearch/internal/indexer"
	"github.com/hyperjump/helpsearch/internal/models"
	"github.com/hyperjump/helpsearch/internal/search"
	"github.com/hyperjump/helpsearch/internal/storage"
	"github.com/hyperjump/helpsearch/internal/vector"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	var query models.FindQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(s.config.Search.DefaultK, s.config.Search.MaxK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("Find request", zap.String("query", query.Query), zap.Int("k", query.K))

	start := time.Now()
	results, err := s.engine.FindResults(r.Context(), query.Query, query.K)
	if err != nil {
		if vector.IsDimensionMismatch(err) {
			s.logger.Error("Find failed: embedder and corpus dimensions differ", zap.Error(err))
		}
		s.respondError(w, findErrorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, search.BuildResponse(r.Context(), query.Query, results, s.storage, time.Since(start)))
}

// findErrorStatus maps engine errors to HTTP status codes. A dimension
// mismatch means the embedder and the stored corpus disagree, which is a
// server configuration problem rather than a bad request.
func findErrorStatus(err error) int {
	var embErr *search.EmbeddingError
	if errors.As(err, &embErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	entries, err := s.storage.ListEntries(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("List entries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*models.HelpEntry{}
	}
	total, err := s.storage.CountEntries(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   total,
		"offset":  offset,
		"limit":   limit,
	})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) handleIndexEntry(w http.ResponseWriter, r *http.Request) {
	var input models.EntryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("Index entry request", zap.String("id", input.ID), zap.String("title", input.Title))
	entry, err := s.indexer.IndexEntry(r.Context(), &input)
	if err != nil {
		var embErr *search.EmbeddingError
		switch {
		case errors.Is(err, indexer.ErrEmptyEntry):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &embErr):
			s.respondError(w, http.StatusBadGateway, err.Error())
		default:
			s.logger.Error("Indexing failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	if !s.rebuildAfterWrite(w, r) {
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": entry.ID, "status": "indexed"})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := s.storage.GetEntry(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "entry not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("Delete entry request", zap.String("id", id))
	if err := s.indexer.DeleteEntry(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "entry not found")
			return
		}
		s.logger.Error("Deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !s.rebuildAfterWrite(w, r) {
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// rebuildAfterWrite rebuilds the corpus unless the request has rebuild=false.
// It writes an error response and returns false on failure.
func (s *Server) rebuildAfterWrite(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("rebuild") == "false" {
		return true
	}
	if _, err := s.indexer.Rebuild(r.Context()); err != nil {
		s.logger.Error("Corpus rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	return true
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	corpus, err := s.indexer.Rebuild(r.Context())
	if err != nil {
		s.logger.Error("Reload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "reloaded",
		"entries":   corpus.Count(),
		"dimension": corpus.Dimension(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := BuildStatus(r.Context(), s.engine, s.storage, s.config)
	if err != nil {
		s.logger.Error("Status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
