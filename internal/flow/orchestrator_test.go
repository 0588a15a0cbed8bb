package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/advocata/intakepipe/internal/models"
	"github.com/advocata/intakepipe/internal/store"
)

func newTestOrchestrator(t *testing.T, st store.Store, gen *mockGenAI, bridge *mockBridge, options ...Option) *Orchestrator {
	t.Helper()
	options = append([]Option{WithSystemPrompt("assistente de teste")}, options...)
	o, err := NewOrchestrator(st, gen, bridge, options...)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o
}

func TestOrchestratorGuidedFirstFullConversation(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	gen := &mockGenAI{reply: "posso ajudar com isso"}
	bridge := &mockBridge{}
	o := newTestOrchestrator(t, st, gen, bridge)

	started := o.Start(ctx, "", models.PlatformWeb)
	if started.SessionID == "" {
		t.Fatal("expected generated session id")
	}
	if started.StepID != 1 {
		t.Fatalf("expected first question, got step %d", started.StepID)
	}
	id := started.SessionID

	for _, answer := range []string{"Maria Silva", "civil", "preciso de ajuda com um contrato", "sim"} {
		result := o.Respond(ctx, id, answer, models.PlatformWeb)
		if result.RedirectMessage || result.ValidationError {
			t.Fatalf("answer %q unexpectedly rejected", answer)
		}
	}

	phoneTurn := o.Respond(ctx, id, "11987654321", models.PlatformWeb)
	if !phoneTurn.PhoneCollected || phoneTurn.Mode != models.ModeAI {
		t.Fatalf("expected phone collected and assistant mode, got %+v", phoneTurn)
	}
	if len(bridge.sent()) != 1 {
		t.Errorf("expected one handoff send, got %d", len(bridge.sent()))
	}

	aiTurn := o.Respond(ctx, id, "quanto custa uma consulta?", models.PlatformWeb)
	if aiTurn.Response != "posso ajudar com isso" {
		t.Errorf("expected assistant reply, got %q", aiTurn.Response)
	}
	if !aiTurn.AIMode {
		t.Error("expected ai_mode in assistant turn")
	}
}

func TestOrchestratorPersistenceFailureFallsBackToAI(t *testing.T) {
	ctx := context.Background()
	inner := store.NewInMemoryStore()
	st := &failingStore{Store: inner}
	gen := &mockGenAI{}
	o := newTestOrchestrator(t, st, gen, &mockBridge{})

	started := o.Start(ctx, "sess-1", models.PlatformWeb)
	if started.StepID != 1 {
		t.Fatalf("start failed: %+v", started)
	}
	for _, answer := range []string{"Maria Silva", "civil", "preciso de ajuda com um contrato"} {
		o.Respond(ctx, "sess-1", answer, models.PlatformWeb)
	}

	// Lead creation breaks on the final answer; the conversation must
	// continue with the assistant instead of surfacing the failure.
	st.failCreateLead = true
	result := o.Respond(ctx, "sess-1", "sim", models.PlatformWeb)
	if result.Response == "" {
		t.Fatal("expected an assistant reply after fallback")
	}
	if !result.AIMode || !result.FlowCompleted || !result.PhoneCollected {
		t.Errorf("expected forced assistant flags, got %+v", result)
	}

	sess, _ := inner.GetSession("sess-1")
	if sess.Mode != models.ModeAI {
		t.Errorf("expected persisted assistant mode, got %q", sess.Mode)
	}
	if gen.calls == 0 {
		t.Error("expected the pending message forwarded to generation")
	}
}

func TestOrchestratorGenerationFailureReturnsApology(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	gen := &mockGenAI{err: errors.New("model overloaded")}
	o := newTestOrchestrator(t, st, gen, &mockBridge{}, WithStrategy(StrategyAIFirst))

	result := o.Respond(ctx, "sess-1", "olá, preciso de ajuda", models.PlatformWhatsApp)
	if result.Response != technicalDifficultyReply {
		t.Errorf("expected fixed apology, got %q", result.Response)
	}

	sess, _ := st.GetSession("sess-1")
	if len(sess.History) != 0 {
		t.Error("expected failed turn kept out of history")
	}
}

func TestOrchestratorAIFirstSavesLeadOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	gen := &mockGenAI{}
	o := newTestOrchestrator(t, st, gen, &mockBridge{}, WithStrategy(StrategyAIFirst))

	first := o.Respond(ctx, "wa-1", "meu nome é maria silva", models.PlatformWhatsApp)
	if first.LeadSaved {
		t.Fatal("expected no lead from a name alone")
	}

	second := o.Respond(ctx, "wa-1", "é um caso trabalhista, fui demitido", models.PlatformWhatsApp)
	if !second.LeadSaved || second.LeadID == "" {
		t.Fatalf("expected lead saved after second field, got %+v", second)
	}

	third := o.Respond(ctx, "wa-1", "sim, pode me ligar", models.PlatformWhatsApp)
	if third.LeadID != second.LeadID {
		t.Error("expected the same lead across turns")
	}

	lead, err := st.GetLead(second.LeadID)
	if err != nil || lead == nil {
		t.Fatalf("expected persisted lead, got %v, %v", lead, err)
	}
	if lead.Status != models.LeadStatusAIQualified {
		t.Errorf("expected ai_qualified status, got %q", lead.Status)
	}
	if lead.Name == "" {
		t.Error("expected extracted name on lead")
	}
}

func TestOrchestratorLeadDataIsMonotonic(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	o := newTestOrchestrator(t, st, &mockGenAI{}, &mockBridge{}, WithStrategy(StrategyAIFirst))

	o.Respond(ctx, "wa-1", "meu nome é maria silva", models.PlatformWhatsApp)
	before, _ := st.GetSession("wa-1")
	name := before.LeadData[FieldName]

	o.Respond(ctx, "wa-1", "na verdade joão pereira", models.PlatformWhatsApp)
	after, _ := st.GetSession("wa-1")
	if after.LeadData[FieldName] != name {
		t.Errorf("expected first extracted name to stick, got %q", after.LeadData[FieldName])
	}
}

func TestOrchestratorTagsPlatformMarker(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	gen := &mockGenAI{}
	o := newTestOrchestrator(t, st, gen, &mockBridge{}, WithStrategy(StrategyAIFirst))

	o.Respond(ctx, "wa-1", "olá", models.PlatformWhatsApp)
	if len(gen.lastMsgs) == 0 {
		t.Fatal("expected generation call")
	}
	last := gen.lastMsgs[len(gen.lastMsgs)-1]
	content := last.OfUser.Content.OfString.Value
	if !strings.HasPrefix(content, "[WhatsApp] ") {
		t.Errorf("expected platform marker prefix, got %q", content)
	}
}

func TestOrchestratorSubmitPhoneValidation(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	o := newTestOrchestrator(t, st, &mockGenAI{}, &mockBridge{})

	o.Start(ctx, "sess-1", models.PlatformWeb)
	result := o.SubmitPhone(ctx, "sess-1", "11999")
	if !result.ValidationError {
		t.Error("expected validation error for short number")
	}
	if result.PhoneCollected {
		t.Error("expected phone_collected to stay false")
	}
}

func TestOrchestratorStatus(t *testing.T) {
	ctx := context.Background()
	st := store.NewInMemoryStore()
	o := newTestOrchestrator(t, st, &mockGenAI{}, &mockBridge{})

	if status := o.Status("missing"); status.Exists {
		t.Error("expected missing session to report exists=false")
	}

	o.Start(ctx, "sess-1", models.PlatformWeb)
	o.Respond(ctx, "sess-1", "Maria Silva", models.PlatformWeb)
	status := o.Status("sess-1")
	if !status.Exists {
		t.Fatal("expected session to exist")
	}
	if status.CurrentStep != 2 {
		t.Errorf("expected current step 2, got %d", status.CurrentStep)
	}
	if status.TotalSteps != 4 {
		t.Errorf("expected 4 total steps, got %d", status.TotalSteps)
	}
	if status.ResponsesCollected != 1 {
		t.Errorf("expected one collected response, got %d", status.ResponsesCollected)
	}
}
