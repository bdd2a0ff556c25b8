package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/mdsearch/internal/fileid"
	"github.com/hyperjump/mdsearch/internal/index"
	"github.com/hyperjump/mdsearch/internal/models"
	"github.com/hyperjump/mdsearch/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if maxLimit := s.config.Search.MaxLimit; maxLimit > 0 && query.Limit > maxLimit {
		query.Limit = maxLimit
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondErr(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	refs, err := s.engine.List()
	if err != nil {
		s.respondErr(w, "list documents failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": refs, "total": len(refs)})
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "document storage not enabled")
		return
	}
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.ID == "" {
		s.respondError(w, http.StatusBadRequest, models.ErrInvalidDocument.Error()+": id is required")
		return
	}
	s.logger.Debug("index document request", zap.String("id", input.ID), zap.String("title", input.Title))
	// Snapshots never revert to nil once published.
	if s.engine.Snapshot() == nil {
		s.respondErr(w, "indexing failed", models.ErrIndexNotBuilt)
		return
	}
	doc := input.Document()
	if err := s.storage.SaveDocument(r.Context(), doc); err != nil {
		s.respondErr(w, "store document failed", err)
		return
	}
	snap, err := s.engine.Put(doc)
	if err != nil {
		s.respondErr(w, "indexing failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         input.ID,
		"status":     "indexed",
		"generation": snap.Generation,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}
	doc, err := s.engine.Get(id)
	if err != nil {
		s.respondErr(w, "get document failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}
	s.logger.Debug("delete document request", zap.String("id", id))
	stored := false
	if s.storage != nil {
		err := s.storage.DeleteDocument(r.Context(), id)
		switch {
		case err == nil:
			stored = true
		case !errors.Is(err, storage.ErrNotFound):
			s.respondErr(w, "deletion failed", err)
			return
		}
	}
	removed, err := s.engine.Remove(id)
	if err != nil {
		s.respondErr(w, "deletion failed", err)
		return
	}
	if !stored && !removed {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// handleReadResource serves an indexed document by its file:// URI. Only documents in the
// current snapshot are returned; the filesystem is never read.
func (s *Server) handleReadResource(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		s.respondError(w, http.StatusBadRequest, "uri is required")
		return
	}
	path, err := fileid.PathFromURI(uri)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := s.engine.Get(path)
	if err != nil {
		s.respondErr(w, "read resource failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"uri":      uri,
		"mimeType": "text/markdown",
		"title":    doc.Title(),
		"text":     doc.Body(),
	})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap, err := s.engine.Rebuild(r.Context())
	if err != nil {
		s.respondErr(w, "rebuild failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot_id": snap.ID,
		"generation":  snap.Generation,
		"documents":   snap.Index.DocCount(),
		"terms":       snap.Index.TermCount(),
		"took_ms":     time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"index": s.engine.Status(),
	}
	if s.storage != nil {
		count, err := s.storage.CountDocuments(r.Context())
		if err != nil {
			s.respondErr(w, "status: count documents failed", err)
			return
		}
		resp["stored_documents"] = count
		if diskBytes, err := storage.DiskUsageBytes(storage.DatabaseFiles(s.config.Storage.DatabasePath)...); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	if s.watch != nil {
		resp["watched_directories"] = s.watch.Directories()
	}

	sc := s.config.Search
	resp["config"] = map[string]interface{}{
		"directories":   s.config.Corpus.Directories,
		"extensions":    s.config.Corpus.Extensions,
		"default_limit": sc.DefaultLimit,
		"max_limit":     sc.MaxLimit,
		"prefix":        sc.PrefixOrDefault(),
		"fuzzy":         sc.FuzzyOrDefault(),
		"max_fuzzy":     sc.MaxFuzzy,
		"boost":         sc.Boost,
		"database_path": s.config.Storage.DatabasePath,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// documentID reads the wildcard document ID, which may contain escaped slashes.
func (s *Server) documentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || id == "" {
		s.respondError(w, http.StatusBadRequest, "document id is required")
		return "", false
	}
	return id, true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidQuery),
		errors.Is(err, models.ErrInvalidDocument),
		errors.Is(err, index.ErrDuplicateDocument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDocumentNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrIndexNotBuilt):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
