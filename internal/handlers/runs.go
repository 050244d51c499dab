package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pictophone/pictophone/internal/engine"
	"github.com/pictophone/pictophone/internal/export"
	"github.com/pictophone/pictophone/internal/gallery"
	"github.com/pictophone/pictophone/internal/models"
)

func (h *Handler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		states := h.registry.All()
		runs := make([]models.Run, 0, len(states))
		for _, state := range states {
			runs = append(runs, state.Summary())
		}
		h.writeJSON(w, runs)
	case "POST":
		h.handleStartRun(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var request models.StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	credential := request.APIKey
	if credential == "" {
		stored, err := h.creds.Load()
		if err != nil {
			h.writeError(w, "Failed to load stored API key: "+err.Error(), http.StatusInternalServerError)
			return
		}
		credential = stored
	}

	engineReq := engine.Request{
		Prompt:     request.Prompt,
		Iterations: request.Iterations,
		Credential: credential,
	}
	if err := engine.Validate(engineReq); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Remember is opt-in and only honored once the submission validated.
	if request.Remember && request.APIKey != "" {
		if err := h.creds.Save(request.APIKey); err != nil {
			slog.Error("Failed to store API key", "error", err)
		}
	}

	state := gallery.NewRunState(uuid.NewString(), request.Prompt, request.Iterations)
	h.registry.Add(state)

	go func() {
		runner := engine.New(h.images, h.describer, state.Store)
		session, err := runner.Run(context.Background(), engineReq, state.Token)
		if err != nil {
			state.Finish(engine.OutcomeFailed, err)
			return
		}
		state.Finish(session.Outcome, nil)
	}()

	h.writeJSON(w, state.Summary())
}

func (h *Handler) HandleRunDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	runID, action, _ := strings.Cut(rest, "/")

	state, ok := h.getRunOrError(w, runID)
	if !ok {
		return
	}

	switch {
	case action == "" && r.Method == "GET":
		h.writeJSON(w, state.Detail())
	case action == "" && r.Method == "DELETE":
		// A still-running engine goroutine honors the stop at its next
		// check point; without it the run would keep issuing provider
		// calls into an unreachable store.
		state.Token.Stop()
		state.Store.ClearAll()
		h.registry.Delete(runID)
		w.WriteHeader(http.StatusNoContent)
	case action == "stop" && r.Method == "POST":
		state.Token.Stop()
		h.writeJSON(w, state.Summary())
	case action == "export" && r.Method == "GET":
		h.handleExport(w, state)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, state *gallery.RunState) {
	records := state.Store.Snapshot()
	if len(records) == 0 {
		h.writeError(w, "Run has no records to export", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(time.Now())+`"`)

	result, err := h.exporter.Export(records, w)
	if err != nil {
		// Headers are already out; all we can do is log.
		slog.Error("Failed to export PDF", "run_id", state.ID, "error", err)
		return
	}
	slog.Info("Exported PDF", "run_id", state.ID, "pages", result.Pages,
		"images", result.ImagesEmbedded, "skipped", result.ImagesSkipped)
}
