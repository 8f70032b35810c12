package ui

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/willpearse/bayesianflows/adapters/render"
	"github.com/willpearse/bayesianflows/app"
	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/internal"
	apperrors "github.com/willpearse/bayesianflows/internal/errors"
	"github.com/willpearse/bayesianflows/ports"
)

// Server exposes stored validation runs over HTTP: raw payloads for
// programmatic use and rendered HTML reports for eyeballing.
type Server struct {
	runs     ports.RunRepository
	renderer ports.Renderer
	log      *internal.Logger
}

// NewServer creates the report server.
func NewServer(runs ports.RunRepository, log *internal.Logger) *Server {
	return &Server{
		runs:     runs,
		renderer: render.NewMarkdownRenderer(),
		log:      log.With("ui"),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/runs", s.handleListRuns)
	r.Get("/api/runs/{id}", s.handleGetRun)
	r.Get("/runs/{id}/report", s.handleReport)

	return r
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.List(r.Context(), 50)
	if err != nil {
		s.log.Error("list runs: %v", err)
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}

	type runSummary struct {
		ID          string         `json:"id"`
		Kind        core.RunKind   `json:"kind"`
		Fingerprint string         `json:"fingerprint"`
		CreatedAt   core.Timestamp `json:"created_at"`
	}
	out := make([]runSummary, 0, len(runs))
	for _, rec := range runs {
		out = append(out, runSummary{
			ID:          rec.ID.String(),
			Kind:        rec.Kind,
			Fingerprint: rec.Fingerprint.String(),
			CreatedAt:   rec.CreatedAt,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.fetchRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(rec.Payload)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.fetchRun(w, r)
	if !ok {
		return
	}

	md, err := s.renderRun(rec)
	if err != nil {
		s.log.Error("render run %s: %v", rec.ID, err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(render.ToHTML(md))
}

func (s *Server) fetchRun(w http.ResponseWriter, r *http.Request) (ports.RunRecord, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return ports.RunRecord{}, false
	}
	rec, err := s.runs.Get(r.Context(), id)
	if errors.Is(err, core.ErrRunNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return ports.RunRecord{}, false
	}
	if err != nil {
		s.log.Error("get run %s [%s]: %v", id, apperrors.GetCode(err), err)
		http.Error(w, "failed to load run", http.StatusInternalServerError)
		return ports.RunRecord{}, false
	}
	return rec, true
}

// renderRun rebuilds the stored result and renders the report matching
// its kind.
func (s *Server) renderRun(rec ports.RunRecord) ([]byte, error) {
	switch rec.Kind {
	case core.RunCalibration:
		var result app.CalibrationResult
		if err := json.Unmarshal(rec.Payload, &result); err != nil {
			return nil, err
		}
		var out []byte
		for _, rep := range result.Reports {
			md, err := s.renderer.RenderRecovery(rep)
			if err != nil {
				return nil, err
			}
			out = append(out, md...)
			out = append(out, '\n')
		}
		return out, nil
	case core.RunCheck:
		var result app.CheckResult
		if err := json.Unmarshal(rec.Payload, &result); err != nil {
			return nil, err
		}
		return s.renderer.RenderComparison(result.Comparison)
	default:
		return []byte("# Unknown run kind\n"), nil
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
