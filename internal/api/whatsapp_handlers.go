// Package api provides WhatsApp webhook and send handlers.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/advocata/intakepipe/internal/messaging"
	"github.com/advocata/intakepipe/internal/models"
)

type whatsappSendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// whatsappWebhookHandler handles POST /whatsapp/webhook. It accepts both the
// Twilio form encoding (From/Body fields, sender prefixed "whatsapp:") and a
// plain JSON body, and feeds the message into the transport's inbound
// channel for the dispatcher to process.
func (s *Server) whatsappWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if s.msgService == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("WhatsApp transport not configured"))
		return
	}

	msg, err := parseWebhookMessage(r)
	if err != nil {
		slog.Warn("Server.whatsappWebhookHandler: bad payload", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid webhook payload"))
		return
	}

	injector, ok := s.msgService.(*messaging.TwilioService)
	if !ok {
		// Whatsmeow delivers inbound messages through its own event stream.
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Webhook ignored for this transport", nil))
		return
	}
	if err := injector.InjectInbound(msg); err != nil {
		slog.Warn("Server.whatsappWebhookHandler: inject failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Message accepted", nil))
}

// parseWebhookMessage extracts the inbound message from a webhook request.
func parseWebhookMessage(r *http.Request) (models.InboundMessage, error) {
	var msg models.InboundMessage
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return msg, err
		}
		msg.From = strings.TrimPrefix(r.PostFormValue("From"), "whatsapp:")
		msg.Body = r.PostFormValue("Body")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			return msg, err
		}
		msg.From = strings.TrimPrefix(msg.From, "whatsapp:")
	}
	if msg.Time == 0 {
		msg.Time = time.Now().Unix()
	}
	return msg, nil
}

// whatsappSendHandler handles POST /whatsapp/send, for manual follow-ups by
// the legal team.
func (s *Server) whatsappSendHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if s.msgService == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("WhatsApp transport not configured"))
		return
	}

	var req whatsappSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.whatsappSendHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Body == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("body is required"))
		return
	}

	canonicalTo, err := s.msgService.ValidateAndCanonicalizeRecipient(req.To)
	if err != nil {
		slog.Warn("Server.whatsappSendHandler: recipient validation failed", "error", err, "to", req.To)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	if err := s.msgService.SendMessage(r.Context(), canonicalTo, req.Body); err != nil {
		slog.Error("Server.whatsappSendHandler: send failed", "error", err, "to", canonicalTo)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to send message"))
		return
	}

	slog.Info("Server.whatsappSendHandler: message sent", "to", canonicalTo)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Message sent successfully", nil))
}

// whatsappStatusHandler handles GET /whatsapp/status, reporting which
// transport is wired for outbound handoff messages.
func (s *Server) whatsappStatusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"configured": s.msgService != nil}
	switch s.msgService.(type) {
	case *messaging.WhatsAppService:
		status["transport"] = "whatsmeow"
	case *messaging.TwilioService:
		status["transport"] = "twilio"
	default:
		status["transport"] = "none"
	}
	writeJSONResponse(w, http.StatusOK, models.Success(status))
}
