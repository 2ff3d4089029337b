package handlers

import (
	"net/http"

	"github.com/linkbay/linkbay-ai/utils"
)

// Healthz handles GET /healthz and reports process liveness
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz. The service is ready when at least one
// registered provider answers its availability probe.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	statuses := make(map[string]bool, len(h.providers))
	ready := false
	for _, p := range h.providers {
		available := p.IsAvailable(r.Context())
		statuses[p.Name()] = available
		if available {
			ready = true
		}
	}

	body := map[string]interface{}{
		"ready":     ready,
		"providers": statuses,
	}
	if !ready {
		utils.WriteJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	utils.WriteJSON(w, http.StatusOK, body)
}
