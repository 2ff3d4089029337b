package handlers

import (
	"net/http"

	"github.com/linkbay/linkbay-ai/utils"
)

// Usage handles GET /api/v1/usage and reports the current budget windows
func (h *Handlers) Usage(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.orchestrator.Usage())
}

// Analytics handles GET /api/v1/analytics and summarizes the request history
func (h *Handlers) Analytics(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.orchestrator.Analytics())
}

// Tools handles GET /api/v1/tools and lists the registered tool definitions
func (h *Handlers) Tools(w http.ResponseWriter, r *http.Request) {
	if h.tools == nil {
		utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"tools": []interface{}{}})
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"tools": h.tools.Definitions()})
}
