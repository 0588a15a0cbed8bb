package flow

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/advocata/intakepipe/internal/models"
	"github.com/advocata/intakepipe/internal/store"
)

// GuidedFlowEngine walks a session through the fixed intake questions. Each
// accepted answer advances the session by exactly one step; answering the
// last question compiles and persists a lead and moves the session into
// phone collection.
type GuidedFlowEngine struct {
	store      store.Store
	flows      *FlowCache
	heuristics models.Heuristics
}

// NewGuidedFlowEngine returns an engine over st using the cached flow
// definition from flows.
func NewGuidedFlowEngine(st store.Store, flows *FlowCache, h models.Heuristics) *GuidedFlowEngine {
	return &GuidedFlowEngine{store: st, flows: flows, heuristics: h}
}

// Start creates a fresh guided session and returns the first question.
func (e *GuidedFlowEngine) Start(sessionID string, platform models.Platform) (*TurnResult, error) {
	def, err := e.flows.Get()
	if err != nil {
		return nil, err
	}
	first := def.FindStep(1)
	if first == nil {
		return nil, fmt.Errorf("flow has no first step: %w", models.ErrStepNotFound)
	}

	sess := models.NewSession(sessionID)
	sess.Platform = platform
	if err := e.store.SaveSession(*sess); err != nil {
		return nil, models.NewPersistenceError("save session", err)
	}

	slog.Info("GuidedFlowEngine.Start: conversation started", "session_id", sessionID, "platform", platform)
	result := &TurnResult{
		Question:    first.Question,
		StepID:      first.ID,
		IsFinalStep: first.ID == def.LastStepID(),
	}
	return result.sessionFlags(sess), nil
}

// Respond records the user's answer to the current step and advances the
// session. Irrelevant answers do not advance; the current question is asked
// again with a redirect marker. The session must be in guided mode.
func (e *GuidedFlowEngine) Respond(sess *models.Session, text string) (*TurnResult, error) {
	def, err := e.flows.Get()
	if err != nil {
		return nil, err
	}
	step := def.FindStep(sess.CurrentStep)
	if step == nil {
		return nil, fmt.Errorf("step %d: %w", sess.CurrentStep, models.ErrStepNotFound)
	}

	if !e.isRelevant(step, text) {
		slog.Debug("GuidedFlowEngine.Respond: irrelevant answer, re-asking",
			"session_id", sess.ID, "step_id", step.ID)
		result := &TurnResult{
			Question:        fmt.Sprintf(redirectPromptFormat, step.Question),
			StepID:          step.ID,
			RedirectMessage: true,
		}
		return result.sessionFlags(sess), nil
	}

	field := step.Field
	if field == "" {
		field = fmt.Sprintf("step_%d", step.ID)
	}
	if sess.Responses == nil {
		sess.Responses = make(map[string]string)
	}
	sess.Responses[field] = strings.TrimSpace(text)
	sess.Touch()

	next := def.FindStep(step.ID + 1)
	if next == nil {
		return e.completeFlow(sess, def)
	}

	sess.CurrentStep = next.ID
	if err := e.store.SaveSession(*sess); err != nil {
		return nil, models.NewPersistenceError("save session", err)
	}
	slog.Debug("GuidedFlowEngine.Respond: advanced to next step",
		"session_id", sess.ID, "step_id", next.ID)
	result := &TurnResult{
		Question:    next.Question,
		StepID:      next.ID,
		IsFinalStep: next.ID == def.LastStepID(),
	}
	return result.sessionFlags(sess), nil
}

// completeFlow compiles the collected answers into a lead record and switches
// the session into phone collection.
func (e *GuidedFlowEngine) completeFlow(sess *models.Session, def *models.FlowDefinition) (*TurnResult, error) {
	lead := models.CompileLead(sess)
	leadID, err := e.store.CreateLead(lead)
	if err != nil {
		return nil, models.NewPersistenceError("create lead", err)
	}

	sess.LeadID = leadID
	sess.LeadSaved = true
	sess.FlowCompleted = true
	sess.Mode = models.ModePhoneCollection
	sess.Touch()
	if err := e.store.SaveSession(*sess); err != nil {
		return nil, models.NewPersistenceError("save session", err)
	}

	slog.Info("GuidedFlowEngine.completeFlow: flow completed, collecting phone",
		"session_id", sess.ID, "lead_id", leadID)
	result := &TurnResult{
		Question:        phoneRequestPrompt,
		CollectingPhone: true,
		LeadSaved:       true,
		LeadID:          leadID,
	}
	return result.sessionFlags(sess), nil
}

// isRelevant applies a light plausibility check before an answer is accepted.
// Very short answers and stock greetings never count; name answers must not
// be purely numeric; area answers must mention a known legal area or pick a
// numbered choice. Boolean steps skip the stock-answer check since "sim" and
// "não" are exactly what those steps ask for.
func (e *GuidedFlowEngine) isRelevant(step *models.Step, text string) bool {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	if len([]rune(trimmed)) < 2 {
		return false
	}
	if step.Type != models.StepTypeBoolean {
		for _, tok := range e.heuristics.IrrelevantTokens {
			if lower == tok {
				return false
			}
		}
	}
	switch step.Field {
	case FieldName:
		if isNumeric(trimmed) {
			return false
		}
	case FieldAreaOfLaw:
		for _, kw := range e.heuristics.AreaKeywords {
			if strings.Contains(lower, kw.Keyword) {
				return true
			}
		}
		for _, choice := range e.heuristics.AreaChoiceTokens {
			if strings.Contains(lower, choice) {
				return true
			}
		}
		return false
	}
	return true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
