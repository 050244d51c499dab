package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pictophone/pictophone/internal/config"
	"github.com/pictophone/pictophone/internal/credentials"
	"github.com/pictophone/pictophone/internal/export"
	"github.com/pictophone/pictophone/internal/gallery"
	"github.com/pictophone/pictophone/internal/providers"
)

// Handler serves the local web UI API. It is a presentation shell: all
// provider calls still go straight out with the user's credential.
type Handler struct {
	cfg       *config.Config
	registry  *gallery.Registry
	creds     *credentials.Store
	exporter  *export.Exporter
	images    providers.ImageGenerator
	describer providers.Describer
}

// New creates a handler
func New(cfg *config.Config, creds *credentials.Store, images providers.ImageGenerator, describer providers.Describer) *Handler {
	return &Handler{
		cfg:       cfg,
		registry:  gallery.NewRegistry(),
		creds:     creds,
		exporter:  export.NewExporter(),
		images:    images,
		describer: describer,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Run helpers
func (h *Handler) getRunOrError(w http.ResponseWriter, runID string) (*gallery.RunState, bool) {
	state, exists := h.registry.Get(runID)
	if !exists {
		h.writeError(w, "Run not found", http.StatusNotFound)
		return nil, false
	}
	return state, true
}
