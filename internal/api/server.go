// Package api exposes the compile pipeline as an HTTP service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/bonsai"
	apperrors "github.com/rocket-internet-berlin/mathemads-bonspy/pkg/errors"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/observability"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/pipeline"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/store"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/tree"
	"github.com/rocket-internet-berlin/mathemads-bonspy/pkg/treeio"
)

// Server handles compile and validate requests.
type Server struct {
	runner  *pipeline.Runner
	archive *store.Archive
	logger  *log.Logger
	metrics *Metrics
}

// NewServer creates a server. The archive is optional; when nil, compiled
// programs are not persisted.
func NewServer(runner *pipeline.Runner, archive *store.Archive, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	metrics := NewMetrics()
	observability.SetCacheHooks(&cacheHooks{metrics: metrics})
	return &Server{
		runner:  runner,
		archive: archive,
		logger:  logger,
		metrics: metrics,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/compile", s.instrument("/v1/compile", s.handleCompile))
		r.Post("/validate", s.instrument("/v1/validate", s.handleValidate))
	})
	return r
}

// instrument wraps a handler with request metrics.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next(ww, r)
		s.metrics.ObserveRequest(route, ww.Status(), time.Since(start))
	}
}

// compileRequest is the body of POST /v1/compile.
type compileRequest struct {
	Graph   *treeio.Graph `json:"graph"`
	Formats []string      `json:"formats,omitempty"`
}

// compileResponse is the body of a successful compile.
type compileResponse struct {
	RunID     string             `json:"run_id"`
	GraphHash string             `json:"graph_hash"`
	Program   string             `json:"program"`
	Stats     pipeline.Stats     `json:"stats"`
	CacheInfo pipeline.CacheInfo `json:"cache_info"`
	ArchiveID string             `json:"archive_id,omitempty"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Graph == nil {
		s.writeError(w, http.StatusBadRequest, "request has no graph")
		return
	}

	t, err := treeio.ToTree(req.Graph)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{Tree: t, Formats: req.Formats})
	if err != nil {
		s.metrics.ObserveCompile("error", false)
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.metrics.ObserveCompile("ok", result.CacheInfo.ProgramHit)

	resp := compileResponse{
		RunID:     result.RunID,
		GraphHash: result.GraphHash,
		Program:   result.Program,
		Stats:     result.Stats,
		CacheInfo: result.CacheInfo,
	}

	if s.archive != nil {
		rec, err := s.archive.Save(r.Context(), req.Graph, result.GraphHash, result.Program)
		if err != nil {
			s.logger.Error("archiving failed", "err", err)
		} else {
			resp.ArchiveID = rec.ID
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// validateResponse is the body of POST /v1/validate.
type validateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Graph == nil {
		s.writeError(w, http.StatusBadRequest, "request has no graph")
		return
	}

	t, err := treeio.ToTree(req.Graph)
	if err == nil {
		err = t.Validate()
	}
	if err != nil {
		s.writeJSON(w, http.StatusOK, validateResponse{Valid: false, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, validateResponse{Valid: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps pipeline errors to HTTP status codes: defects in the
// submitted tree are the client's fault, everything else is ours.
func statusFor(err error) int {
	var serr *tree.StructuralError
	var ferr *bonsai.FormatError
	var uerr *bonsai.UnknownNodeKindError
	var cerr *bonsai.UnknownConditionKindError
	if errors.As(err, &serr) || errors.As(err, &ferr) || errors.As(err, &uerr) || errors.As(err, &cerr) {
		return http.StatusUnprocessableEntity
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidFormat, apperrors.ErrCodeInvalidModel:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writing response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
