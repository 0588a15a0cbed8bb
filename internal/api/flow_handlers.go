// Package api provides flow administration handlers.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/advocata/intakepipe/internal/models"
)

// getFlowHandler handles GET /flow
func (s *Server) getFlowHandler(w http.ResponseWriter, r *http.Request) {
	def, err := s.orc.Flows().Get()
	if err != nil {
		slog.Error("Server.getFlowHandler: failed to load flow", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load flow definition"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(def))
}

// updateFlowHandler handles PUT /flow. The uploaded definition replaces the
// stored one and takes effect immediately.
func (s *Server) updateFlowHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var def models.FlowDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		slog.Warn("Server.updateFlowHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if len(def.Steps) == 0 {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("flow must have at least one step"))
		return
	}
	for _, step := range def.Steps {
		if step.ID <= 0 || step.Question == "" {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("every step needs a positive id and a question"))
			return
		}
	}

	if err := s.orc.Flows().Save(&def); err != nil {
		slog.Error("Server.updateFlowHandler: failed to save flow", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save flow definition"))
		return
	}
	slog.Info("Server.updateFlowHandler: flow definition updated", "steps", len(def.Steps))
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flow updated", nil))
}
