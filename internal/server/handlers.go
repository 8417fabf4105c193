package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/packcheck/internal/searcher"
	"github.com/dshills/packcheck/internal/storage"
	"github.com/dshills/packcheck/pkg/types"
)

type searchRequest struct {
	Query   string `json:"query"`
	Top     *int   `json:"top,omitempty"`
	FTSOnly bool   `json:"fts_only"`
}

type searchResponse struct {
	Pack string `json:"pack"`
	*searcher.SearchResponse
}

type verifyResponse struct {
	OK bool `json:"ok"`
	*storage.VerifyReport
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "pack": s.backend.PackPath()})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	stats, err := s.backend.Info(r.Context())
	if err != nil {
		s.respondFailure(w, "info", err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	top := s.defaultTop
	if req.Top != nil {
		top = *req.Top
	}

	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("top", top), zap.Bool("fts_only", req.FTSOnly))
	resp, err := s.backend.Search(r.Context(), searcher.SearchRequest{
		Query:    req.Query,
		Top:      top,
		FTSOnly:  req.FTSOnly,
		UseCache: true,
	})
	if err != nil {
		s.respondFailure(w, "search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, searchResponse{Pack: s.backend.PackPath(), SearchResponse: resp})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	report, err := s.backend.Verify(r.Context())
	if err != nil {
		s.respondFailure(w, "verify", err)
		return
	}
	s.respondJSON(w, http.StatusOK, verifyResponse{OK: report.OK(), VerifyReport: report})
}

// respondFailure maps invalid arguments to 400 and everything else to 500.
func (s *Server) respondFailure(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, types.ErrInvalidArgument) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error(op+" failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
