// Package api provides the conversation endpoint handlers consumed by the
// website chat widget.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/advocata/intakepipe/internal/models"
)

type startConversationRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

type respondRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Platform  string `json:"platform,omitempty"`
}

type submitPhoneRequest struct {
	SessionID   string `json:"session_id"`
	PhoneNumber string `json:"phone_number"`
}

// platformOrDefault maps the request's platform string to a known platform,
// defaulting to the website widget.
func platformOrDefault(p string) models.Platform {
	if models.Platform(p) == models.PlatformWhatsApp {
		return models.PlatformWhatsApp
	}
	return models.PlatformWeb
}

// startConversationHandler handles POST /conversation/start
func (s *Server) startConversationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.startConversationHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	result := s.orc.Start(r.Context(), req.SessionID, platformOrDefault(req.Platform))
	slog.Info("Server.startConversationHandler: conversation started", "session_id", result.SessionID)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// respondHandler handles POST /conversation/respond
func (s *Server) respondHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.respondHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.SessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("session_id is required"))
		return
	}
	if req.Message == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("message is required"))
		return
	}

	result := s.orc.Respond(r.Context(), req.SessionID, req.Message, platformOrDefault(req.Platform))
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// submitPhoneHandler handles POST /conversation/submit-phone
func (s *Server) submitPhoneHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req submitPhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.submitPhoneHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.SessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("session_id is required"))
		return
	}
	if req.PhoneNumber == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("phone_number is required"))
		return
	}

	result := s.orc.SubmitPhone(r.Context(), req.SessionID, req.PhoneNumber)
	status := http.StatusOK
	if result.ValidationError {
		status = http.StatusUnprocessableEntity
	}
	writeJSONResponse(w, status, models.Success(result))
}

// conversationStatusHandler handles GET /conversation/status/{id}
func (s *Server) conversationStatusHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("session id is required"))
		return
	}

	status := s.orc.Status(sessionID)
	if !status.Exists {
		writeJSONResponse(w, http.StatusNotFound, models.Success(status))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(status))
}

// healthHandler handles GET /health
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}
