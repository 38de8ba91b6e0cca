package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ahmetzturk/yt-summarizer/internal/apperrors"
	"github.com/ahmetzturk/yt-summarizer/internal/logger"
	"github.com/ahmetzturk/yt-summarizer/internal/summarizer"
)

// SummarizeRequest is the POST /summarize body
type SummarizeRequest struct {
	URLOrID             string   `json:"url_or_id"`
	Language            string   `json:"language,omitempty"`
	TranscriptLanguages []string `json:"transcript_languages,omitempty"`
	Model               string   `json:"model,omitempty"`
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// summarizeHandler summarizes one video
func (s *Server) summarizeHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apperrors.E(apperrors.InvalidInput, "handlers.summarize", nil,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)))
			return
		}
		writeError(w, apperrors.E(apperrors.InvalidInput, "handlers.summarize", err, "invalid request body"))
		return
	}

	resp, err := s.service.Summarize(r.Context(), summarizer.Request{
		URLOrID:             req.URLOrID,
		Language:            req.Language,
		TranscriptLanguages: req.TranscriptLanguages,
		Model:               req.Model,
	})
	if err != nil {
		logger.FromContext(r.Context()).
			WithField("kind", apperrors.KindOf(err).String()).
			WithError(err).
			Warn("Summarize request failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// cacheStatsHandler returns cache statistics
func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	if s.cacheManager == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"backend": "none", "total_entries": 0})
		return
	}

	stats, err := s.cacheManager.GetStats(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("getting cache stats: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// cacheClearHandler clears the cache
func (s *Server) cacheClearHandler(w http.ResponseWriter, r *http.Request) {
	if s.cacheManager != nil {
		if err := s.cacheManager.Clear(r.Context()); err != nil {
			writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("clearing cache: %v", err))
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Cache cleared successfully",
	})
}
