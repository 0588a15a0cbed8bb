package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestDefaultFlowDefinition(t *testing.T) {
	flow := DefaultFlowDefinition()
	if len(flow.Steps) != 4 {
		t.Fatalf("expected 4 default steps, got %d", len(flow.Steps))
	}
	fields := []string{"name", "area_of_law", "situation", "wants_meeting"}
	for i, want := range fields {
		if flow.Steps[i].Field != want {
			t.Errorf("step %d field = %q, want %q", i+1, flow.Steps[i].Field, want)
		}
	}
	if flow.LastStepID() != 4 {
		t.Errorf("LastStepID = %d, want 4", flow.LastStepID())
	}
	if flow.FindStep(3) == nil || flow.FindStep(3).Field != "situation" {
		t.Errorf("FindStep(3) did not return the situation step")
	}
	if flow.FindStep(99) != nil {
		t.Errorf("FindStep(99) should return nil for a missing step")
	}
}

func TestSessionAppendHistoryWindow(t *testing.T) {
	s := NewSession("test-session")
	for i := 0; i < HistoryWindowTurns+5; i++ {
		s.AppendHistory(fmt.Sprintf("user %d", i), fmt.Sprintf("assistant %d", i))
	}
	if got, want := len(s.History), HistoryWindowTurns*2; got != want {
		t.Fatalf("history length = %d, want %d", got, want)
	}
	// Oldest retained exchange should be turn 5.
	if s.History[0].Content != "user 5" {
		t.Errorf("oldest retained message = %q, want %q", s.History[0].Content, "user 5")
	}
}

func TestCompileLeadPlaceholders(t *testing.T) {
	s := NewSession("s1")
	s.Responses["name"] = "Maria Silva"
	lead := CompileLead(s)
	if lead.Name != "Maria Silva" {
		t.Errorf("lead name = %q", lead.Name)
	}
	if lead.AreaOfLaw != LeadUnspecifiedArea {
		t.Errorf("missing area should fall back to %q, got %q", LeadUnspecifiedArea, lead.AreaOfLaw)
	}
	if lead.Status != LeadStatusIntakeCompleted {
		t.Errorf("lead status = %q", lead.Status)
	}
	if lead.SessionID != "s1" {
		t.Errorf("lead session id = %q", lead.SessionID)
	}
}

func TestPersistenceErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPersistenceError("save session", cause)
	if !IsPersistenceError(err) {
		t.Fatalf("IsPersistenceError should detect wrapped persistence errors")
	}
	if !errors.Is(err, cause) {
		t.Errorf("wrapped cause should be reachable via errors.Is")
	}
	if IsPersistenceError(cause) {
		t.Errorf("plain errors must not be classified as persistence errors")
	}
}

func TestPlatformMarker(t *testing.T) {
	if PlatformWhatsApp.Marker() != "[WhatsApp]" {
		t.Errorf("whatsapp marker = %q", PlatformWhatsApp.Marker())
	}
	if PlatformWeb.Marker() != "[Website]" {
		t.Errorf("web marker = %q", PlatformWeb.Marker())
	}
}
