package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

func (h *Handler) HandleCredential(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		stored, err := h.creds.Load()
		if err != nil {
			h.writeError(w, "Failed to load API key: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, map[string]bool{"stored": stored != ""})
	case "PUT":
		var request struct {
			APIKey string `json:"api_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if !strings.HasPrefix(request.APIKey, "sk-") {
			h.writeError(w, `API key must start with "sk-"`, http.StatusBadRequest)
			return
		}
		if err := h.creds.Save(request.APIKey); err != nil {
			h.writeError(w, "Failed to store API key: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, map[string]bool{"stored": true})
	case "DELETE":
		if err := h.creds.Clear(); err != nil {
			h.writeError(w, "Failed to clear API key: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
