package http

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/flood-impact-service/internal/adapter/geofile"
	"github.com/couchcryptid/flood-impact-service/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// problem is an RFC 7807 error body.
type problem struct {
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Status    int      `json:"status"`
	Detail    string   `json:"detail,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, title, detail string, errs ...string) {
	p := problem{
		Type:      "about:blank",
		Title:     title,
		Status:    status,
		Detail:    detail,
		Errors:    errs,
		RequestID: middleware.GetReqID(r.Context()),
	}
	w.Header().Set("Content-Type", "application/problem+json")
	writeJSON(w, status, p)
}

// handleDashboard renders the view for the selection in the query string.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sel, errs := s.queries.parse(r.URL.Query(), s.svc.DefaultSelection())
	if len(errs) > 0 {
		writeProblem(w, r, http.StatusBadRequest, "Invalid query", errs[0], errs...)
		return
	}

	view, err := s.svc.Render(r.Context(), sel)
	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrUnknownScenario):
		writeProblem(w, r, http.StatusBadRequest, "Invalid query", err.Error())
		return
	case errors.Is(err, pipeline.ErrNotInitialized):
		writeProblem(w, r, http.StatusServiceUnavailable, "Not ready", err.Error())
		return
	default:
		s.logger.Error("render failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeProblem(w, r, http.StatusInternalServerError, "Render failed", "")
		return
	}
	render.JSON(w, r, view)
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"scenarios": s.svc.Scenarios()})
}

// handleLayer streams one layer as a GeoJSON FeatureCollection in EPSG:4326.
func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	layer, err := s.svc.LayerGeoJSON(name)
	if errors.Is(err, pipeline.ErrUnknownLayer) {
		writeProblem(w, r, http.StatusNotFound, "Unknown layer", err.Error())
		return
	}
	if err != nil {
		s.logger.Error("layer export failed", "layer", name, "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "Layer unavailable", "")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := geofile.EncodeGeoJSON(w, layer); err != nil {
		s.logger.Warn("layer write failed", "layer", name, "error", err)
	}
}
