package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/advocata/intakepipe/internal/models"
	"github.com/advocata/intakepipe/internal/store"
)

// MaxHandoffSituationLength bounds the situation excerpt in the handoff
// summary sent over WhatsApp.
const MaxHandoffSituationLength = 100

// MessageSender delivers an outbound message to a chat transport address.
type MessageSender interface {
	SendMessage(ctx context.Context, to, body string) error
}

// HandoffCoordinator collects and validates the phone number after the
// guided flow completes, attaches it to the lead, and pushes a case summary
// to the client's WhatsApp. A failed push never fails the turn; it is
// reported through the result's WhatsAppSent flag.
type HandoffCoordinator struct {
	store     store.Store
	bridge    MessageSender
	jidSuffix string
}

// NewHandoffCoordinator returns a coordinator sending through bridge. An
// empty jidSuffix falls back to the WhatsApp default. A nil bridge disables
// delivery; phone collection still succeeds with WhatsAppSent false.
func NewHandoffCoordinator(st store.Store, bridge MessageSender, jidSuffix string) *HandoffCoordinator {
	if jidSuffix == "" {
		jidSuffix = DefaultJIDSuffix
	}
	return &HandoffCoordinator{store: st, bridge: bridge, jidSuffix: jidSuffix}
}

// CollectPhone validates raw, stores the normalized number on the session and
// lead, and sends the handoff summary. Invalid input re-prompts without
// touching the session.
func (h *HandoffCoordinator) CollectPhone(ctx context.Context, sess *models.Session, raw string) (*TurnResult, error) {
	addr, err := NormalizePhone(raw)
	if err != nil {
		if errors.Is(err, models.ErrInvalidPhone) {
			slog.Debug("HandoffCoordinator.CollectPhone: invalid phone number", "session_id", sess.ID)
			result := &TurnResult{
				Question:        phoneRetryPrompt,
				CollectingPhone: true,
				ValidationError: true,
			}
			return result.sessionFlags(sess), nil
		}
		return nil, err
	}

	sess.PhoneNumber = addr.Raw
	sess.PhoneFormatted = addr.MSISDN
	sess.PhoneCollected = true
	sess.Mode = models.ModeAI
	sess.AIMode = true
	sess.Touch()
	if err := h.store.SaveSession(*sess); err != nil {
		return nil, models.NewPersistenceError("save session", err)
	}

	if sess.LeadID != "" {
		upd := store.LeadUpdate{
			PhoneNumber:    addr.Raw,
			PhoneFormatted: addr.MSISDN,
			Status:         models.LeadStatusPhoneCollected,
		}
		if err := h.store.UpdateLead(sess.LeadID, upd); err != nil {
			slog.Error("HandoffCoordinator.CollectPhone: failed to update lead phone",
				"lead_id", sess.LeadID, "error", err)
		}
	}

	sent := h.sendSummary(ctx, sess, addr)

	slog.Info("HandoffCoordinator.CollectPhone: phone collected",
		"session_id", sess.ID, "phone", addr.MSISDN, "whatsapp_sent", sent)
	result := &TurnResult{
		Question:     fmt.Sprintf(phoneConfirmationFormat, addr.Raw),
		PhoneNumber:  addr.MSISDN,
		WhatsAppSent: sent,
		LeadSaved:    sess.LeadSaved,
		LeadID:       sess.LeadID,
	}
	return result.sessionFlags(sess), nil
}

// sendSummary pushes the case summary to the collected number. Delivery is
// best effort.
func (h *HandoffCoordinator) sendSummary(ctx context.Context, sess *models.Session, addr PhoneAddress) bool {
	if h.bridge == nil {
		return false
	}
	body := h.composeSummary(sess)
	if err := h.bridge.SendMessage(ctx, addr.Address(h.jidSuffix), body); err != nil {
		herr := &models.HandoffError{To: addr.MSISDN, Err: err}
		slog.Error("HandoffCoordinator.sendSummary: failed to send handoff message",
			"session_id", sess.ID, "error", herr)
		return false
	}
	return true
}

func (h *HandoffCoordinator) composeSummary(sess *models.Session) string {
	name := valueOrDefault(sess.Responses[FieldName], models.LeadUnknownName)
	area := valueOrDefault(sess.Responses[FieldAreaOfLaw], models.LeadUnspecifiedArea)
	situation := valueOrDefault(sess.Responses[FieldSituation], models.LeadUnknownSituation)
	if len([]rune(situation)) > MaxHandoffSituationLength {
		situation = truncateRunes(situation, MaxHandoffSituationLength) + "..."
	}
	return fmt.Sprintf(handoffMessageFormat, name, area, situation)
}

func valueOrDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
