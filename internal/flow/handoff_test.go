package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/advocata/intakepipe/internal/models"
	"github.com/advocata/intakepipe/internal/store"
)

func sessionAwaitingPhone(t *testing.T, st store.Store) *models.Session {
	t.Helper()
	sess := models.NewSession("sess-1")
	sess.Responses = map[string]string{
		"name":        "Maria Silva",
		"area_of_law": "civil",
		"situation":   strings.Repeat("um problema com contrato ", 10),
	}
	leadID, err := st.CreateLead(models.CompileLead(sess))
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	sess.LeadID = leadID
	sess.LeadSaved = true
	sess.FlowCompleted = true
	sess.Mode = models.ModePhoneCollection
	if err := st.SaveSession(*sess); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return sess
}

func TestCollectPhoneRejectsShortNumber(t *testing.T) {
	st := store.NewInMemoryStore()
	sess := sessionAwaitingPhone(t, st)
	h := NewHandoffCoordinator(st, &mockBridge{}, "")

	result, err := h.CollectPhone(context.Background(), sess, "11999")
	if err != nil {
		t.Fatalf("collect phone: %v", err)
	}
	if !result.ValidationError {
		t.Error("expected validation error flag")
	}
	if result.PhoneCollected {
		t.Error("expected phone_collected to stay false")
	}
	if result.Mode != models.ModePhoneCollection {
		t.Errorf("expected session to stay in phone collection, got %q", result.Mode)
	}

	stored, _ := st.GetSession("sess-1")
	if stored.PhoneNumber != "" {
		t.Error("expected rejected input to leave the session untouched")
	}
}

func TestCollectPhoneSendsHandoffMessage(t *testing.T) {
	st := store.NewInMemoryStore()
	sess := sessionAwaitingPhone(t, st)
	bridge := &mockBridge{}
	h := NewHandoffCoordinator(st, bridge, "")

	result, err := h.CollectPhone(context.Background(), sess, "11987654321")
	if err != nil {
		t.Fatalf("collect phone: %v", err)
	}
	if result.PhoneNumber != "5511987654321" {
		t.Errorf("expected normalized number in result, got %q", result.PhoneNumber)
	}
	if !result.PhoneCollected || result.Mode != models.ModeAI {
		t.Errorf("expected phone collected and assistant mode, got %+v", result)
	}
	if !result.WhatsAppSent {
		t.Error("expected whatsapp_sent true")
	}

	sends := bridge.sent()
	if len(sends) != 1 {
		t.Fatalf("expected exactly one send, got %d", len(sends))
	}
	if sends[0].To != "5511987654321@s.whatsapp.net" {
		t.Errorf("unexpected handoff address %q", sends[0].To)
	}
	if !strings.Contains(sends[0].Body, "Maria Silva") {
		t.Error("expected handoff message to carry the client name")
	}

	// Situation excerpt is capped.
	start := strings.Index(sends[0].Body, "Situação: ")
	if start < 0 {
		t.Fatal("expected situation line in handoff message")
	}
	line := sends[0].Body[start:]
	if end := strings.Index(line, "\n"); end >= 0 {
		line = line[:end]
	}
	excerpt := strings.TrimSuffix(strings.TrimPrefix(line, "Situação: "), "...")
	if len([]rune(excerpt)) > MaxHandoffSituationLength {
		t.Errorf("expected situation excerpt capped at %d runes, got %d",
			MaxHandoffSituationLength, len([]rune(excerpt)))
	}

	lead, _ := st.GetLead(sess.LeadID)
	if lead.PhoneFormatted != "5511987654321" {
		t.Errorf("expected lead updated with phone, got %q", lead.PhoneFormatted)
	}
	if lead.Status != models.LeadStatusPhoneCollected {
		t.Errorf("expected phone_collected status, got %q", lead.Status)
	}
}

func TestCollectPhoneBridgeFailureIsNonFatal(t *testing.T) {
	st := store.NewInMemoryStore()
	sess := sessionAwaitingPhone(t, st)
	h := NewHandoffCoordinator(st, &mockBridge{err: errStoreDown}, "")

	result, err := h.CollectPhone(context.Background(), sess, "11987654321")
	if err != nil {
		t.Fatalf("collect phone: %v", err)
	}
	if result.WhatsAppSent {
		t.Error("expected whatsapp_sent false after bridge failure")
	}
	if !result.PhoneCollected || result.Mode != models.ModeAI {
		t.Error("expected phone collection to succeed despite bridge failure")
	}
}
