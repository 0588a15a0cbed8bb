package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"

	"github.com/advocata/intakepipe/internal/genai"
	"github.com/advocata/intakepipe/internal/models"
	"github.com/advocata/intakepipe/internal/store"
)

// Strategy selects how the orchestrator routes the first turns of a session.
type Strategy string

const (
	// StrategyGuidedFirst runs the fixed intake questions before the
	// assistant takes over. Used by the website widget.
	StrategyGuidedFirst Strategy = "guided_first"
	// StrategyAIFirst goes straight to the assistant and extracts lead
	// fields from free conversation. Used by the WhatsApp inbox.
	StrategyAIFirst Strategy = "ai_first"
)

// Opts holds the orchestrator configuration set through Options.
type Opts struct {
	Strategy     Strategy
	Heuristics   models.Heuristics
	SystemPrompt string
	PromptFile   string
	JIDSuffix    string
	FlowCacheTTL time.Duration
}

// Option configures the orchestrator.
type Option func(*Opts)

// WithStrategy selects the routing strategy.
func WithStrategy(s Strategy) Option {
	return func(o *Opts) { o.Strategy = s }
}

// WithHeuristics replaces the default extraction and relevance heuristics.
func WithHeuristics(h models.Heuristics) Option {
	return func(o *Opts) { o.Heuristics = h }
}

// WithSystemPrompt sets the assistant system prompt directly, bypassing
// environment and file resolution.
func WithSystemPrompt(p string) Option {
	return func(o *Opts) { o.SystemPrompt = p }
}

// WithPromptFile points prompt resolution at a JSON file.
func WithPromptFile(path string) Option {
	return func(o *Opts) { o.PromptFile = path }
}

// WithJIDSuffix overrides the WhatsApp address suffix for handoff delivery.
func WithJIDSuffix(suffix string) Option {
	return func(o *Opts) { o.JIDSuffix = suffix }
}

// WithFlowCacheTTL overrides how long the flow definition is cached.
func WithFlowCacheTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.FlowCacheTTL = ttl }
}

// Orchestrator routes conversation turns between the guided flow engine, the
// phone collection handoff, and the assistant. It never surfaces an error to
// its caller: every failure path degrades into an assistant turn or a fixed
// apology, and the session is forced into assistant mode when persistence
// breaks so the conversation can continue.
type Orchestrator struct {
	strategy     Strategy
	store        store.Store
	flows        *FlowCache
	engine       *GuidedFlowEngine
	handoff      *HandoffCoordinator
	extractor    *LeadExtractor
	gen          genai.ClientInterface
	systemPrompt string
	locks        *sessionLocks
}

// NewOrchestrator wires the conversation components over st, generating
// replies through gen and delivering handoff messages through bridge. The
// default strategy is StrategyGuidedFirst.
func NewOrchestrator(st store.Store, gen genai.ClientInterface, bridge MessageSender, options ...Option) (*Orchestrator, error) {
	opts := Opts{
		Strategy:   StrategyGuidedFirst,
		Heuristics: models.DefaultHeuristics(),
	}
	for _, opt := range options {
		opt(&opts)
	}

	prompt := opts.SystemPrompt
	if prompt == "" {
		var err error
		prompt, err = LoadSystemPrompt(opts.PromptFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load system prompt: %w", err)
		}
	}

	flows := NewFlowCache(st, opts.FlowCacheTTL)
	return &Orchestrator{
		strategy:     opts.Strategy,
		store:        st,
		flows:        flows,
		engine:       NewGuidedFlowEngine(st, flows, opts.Heuristics),
		handoff:      NewHandoffCoordinator(st, bridge, opts.JIDSuffix),
		extractor:    NewLeadExtractor(opts.Heuristics),
		gen:          gen,
		systemPrompt: prompt,
		locks:        newSessionLocks(),
	}, nil
}

// Flows exposes the flow definition cache for admin endpoints.
func (o *Orchestrator) Flows() *FlowCache { return o.flows }

// Start opens a new conversation. An empty sessionID gets a generated id.
func (o *Orchestrator) Start(ctx context.Context, sessionID string, platform models.Platform) *TurnResult {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	release := o.locks.acquire(sessionID)
	defer release()

	if o.strategy == StrategyAIFirst {
		sess := o.newAISession(sessionID, platform)
		if err := o.store.SaveSession(*sess); err != nil {
			slog.Error("Orchestrator.Start: failed to save session", "session_id", sessionID, "error", err)
		}
		result := &TurnResult{Response: aiGreeting}
		return result.sessionFlags(sess)
	}

	result, err := o.engine.Start(sessionID, platform)
	if err != nil {
		slog.Error("Orchestrator.Start: guided start failed, falling back to assistant",
			"session_id", sessionID, "error", err)
		return o.fallbackToAI(ctx, nil, sessionID, "Olá", platform)
	}
	return result
}

// Respond processes one user message and returns the next thing to show.
func (o *Orchestrator) Respond(ctx context.Context, sessionID, message string, platform models.Platform) *TurnResult {
	release := o.locks.acquire(sessionID)
	defer release()

	sess, err := o.store.GetSession(sessionID)
	if err != nil {
		slog.Error("Orchestrator.Respond: failed to load session, falling back to assistant",
			"session_id", sessionID, "error", err)
		return o.fallbackToAI(ctx, nil, sessionID, message, platform)
	}

	if o.strategy == StrategyAIFirst {
		if sess == nil {
			sess = o.newAISession(sessionID, platform)
		}
		return o.respondAI(ctx, sess, message, platform)
	}

	if sess == nil {
		result, err := o.engine.Start(sessionID, platform)
		if err != nil {
			slog.Error("Orchestrator.Respond: guided start failed, falling back to assistant",
				"session_id", sessionID, "error", err)
			return o.fallbackToAI(ctx, nil, sessionID, message, platform)
		}
		return result
	}

	switch {
	case sess.AIMode:
		return o.respondAI(ctx, sess, message, platform)
	case sess.FlowCompleted && !sess.PhoneCollected:
		result, err := o.handoff.CollectPhone(ctx, sess, message)
		if err != nil {
			slog.Error("Orchestrator.Respond: phone collection failed, falling back to assistant",
				"session_id", sessionID, "error", err)
			return o.fallbackToAI(ctx, sess, sessionID, message, platform)
		}
		return result
	default:
		result, err := o.engine.Respond(sess, message)
		if err != nil {
			slog.Error("Orchestrator.Respond: guided step failed, falling back to assistant",
				"session_id", sessionID, "error", err)
			return o.fallbackToAI(ctx, sess, sessionID, message, platform)
		}
		return result
	}
}

// SubmitPhone records a phone number submitted out of band, for clients that
// collect it through a dedicated form instead of the chat input.
func (o *Orchestrator) SubmitPhone(ctx context.Context, sessionID, phone string) *TurnResult {
	release := o.locks.acquire(sessionID)
	defer release()

	sess, err := o.store.GetSession(sessionID)
	if err != nil {
		slog.Error("Orchestrator.SubmitPhone: failed to load session", "session_id", sessionID, "error", err)
	}
	if sess == nil {
		sess = models.NewSession(sessionID)
		sess.Mode = models.ModePhoneCollection
		sess.FlowCompleted = true
	}

	result, err := o.handoff.CollectPhone(ctx, sess, phone)
	if err != nil {
		slog.Error("Orchestrator.SubmitPhone: phone collection failed, falling back to assistant",
			"session_id", sessionID, "error", err)
		return o.fallbackToAI(ctx, sess, sessionID, phone, sess.Platform)
	}
	return result
}

// Status reports a read-only snapshot of the session.
func (o *Orchestrator) Status(sessionID string) *StatusResult {
	sess, err := o.store.GetSession(sessionID)
	if err != nil {
		slog.Error("Orchestrator.Status: failed to load session", "session_id", sessionID, "error", err)
	}
	if sess == nil {
		return &StatusResult{Exists: false, SessionID: sessionID}
	}

	totalSteps := 0
	if def, err := o.flows.Get(); err == nil {
		totalSteps = len(def.Steps)
	}
	return &StatusResult{
		Exists:             true,
		SessionID:          sess.ID,
		Mode:               sess.Mode,
		Platform:           sess.Platform,
		CurrentStep:        sess.CurrentStep,
		TotalSteps:         totalSteps,
		FlowCompleted:      sess.FlowCompleted,
		PhoneCollected:     sess.PhoneCollected,
		AIMode:             sess.AIMode,
		ResponsesCollected: len(sess.Responses),
		MessageCount:       sess.MessageCount,
		StartedAt:          sess.CreatedAt,
		LastUpdated:        sess.LastUpdated,
	}
}

// aiGreeting opens assistant-first conversations.
const aiGreeting = "Olá! Sou o assistente jurídico do escritório. Como posso ajudá-lo?"

func (o *Orchestrator) newAISession(sessionID string, platform models.Platform) *models.Session {
	sess := models.NewSession(sessionID)
	sess.Mode = models.ModeAI
	sess.AIMode = true
	sess.CurrentStep = 0
	sess.Platform = platform
	return sess
}

// respondAI runs one assistant turn: extract lead fields in assistant-first
// mode, generate a reply over the rolling history, save the lead once enough
// fields accumulated, and persist the session.
func (o *Orchestrator) respondAI(ctx context.Context, sess *models.Session, message string, platform models.Platform) *TurnResult {
	if platform != "" {
		sess.Platform = platform
	}
	sess.MessageCount++

	if o.strategy == StrategyAIFirst {
		if sess.LeadData == nil {
			sess.LeadData = make(map[string]string)
		}
		for field, value := range o.extractor.Extract(message, sess.LeadData) {
			sess.LeadData[field] = value
			slog.Debug("Orchestrator.respondAI: extracted lead field",
				"session_id", sess.ID, "field", field)
		}
	}

	reply, genErr := o.generate(ctx, sess, message)
	if genErr != nil {
		slog.Error("Orchestrator.respondAI: generation failed",
			"session_id", sess.ID, "error", &models.GenerationError{Err: genErr})
		reply = technicalDifficultyReply
	} else {
		sess.AppendHistory(message, reply)
	}

	if o.strategy == StrategyAIFirst {
		o.maybeSaveLead(sess)
	}

	sess.Touch()
	if err := o.store.SaveSession(*sess); err != nil {
		slog.Error("Orchestrator.respondAI: failed to save session",
			"session_id", sess.ID, "error", err)
	}

	result := &TurnResult{
		Response:     reply,
		MessageCount: sess.MessageCount,
		LeadSaved:    sess.LeadSaved,
		LeadID:       sess.LeadID,
	}
	if o.strategy == StrategyAIFirst && len(sess.LeadData) > 0 {
		result.LeadData = sess.LeadData
	}
	return result.sessionFlags(sess)
}

// generate builds the chat completion request from the system prompt, the
// accumulated lead context, the rolling history, and the platform-tagged
// user message.
func (o *Orchestrator) generate(ctx context.Context, sess *models.Session, message string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(o.systemPrompt),
	}
	if cc := o.conversationContext(sess); cc != "" {
		messages = append(messages, openai.SystemMessage(cc))
	}
	for _, m := range sess.History {
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	tagged := message
	if marker := sess.Platform.Marker(); marker != "" {
		tagged = marker + " " + message
	}
	messages = append(messages, openai.UserMessage(tagged))
	return o.gen.GenerateWithMessages(ctx, messages)
}

// maybeSaveLead persists an assistant-qualified lead exactly once, as soon
// as a name plus at least one more field have been extracted.
func (o *Orchestrator) maybeSaveLead(sess *models.Session) {
	if sess.LeadSaved || sess.LeadData[FieldName] == "" || len(sess.LeadData) < 2 {
		return
	}
	leadID, err := o.store.CreateLead(models.CompileLeadFromExtraction(sess))
	if err != nil {
		slog.Error("Orchestrator.maybeSaveLead: failed to create lead",
			"session_id", sess.ID, "error", models.NewPersistenceError("create lead", err))
		return
	}
	sess.LeadSaved = true
	sess.LeadID = leadID
	slog.Info("Orchestrator.maybeSaveLead: lead created from conversation",
		"session_id", sess.ID, "lead_id", leadID)
}

// fallbackToAI forces the session into assistant mode after an unrecoverable
// guided-path failure and answers the pending message there. Completion flags
// are forced so the guided path is never re-entered for this session.
func (o *Orchestrator) fallbackToAI(ctx context.Context, sess *models.Session, sessionID, message string, platform models.Platform) *TurnResult {
	if sess == nil {
		sess = models.NewSession(sessionID)
	}
	sess.Mode = models.ModeAI
	sess.AIMode = true
	sess.FlowCompleted = true
	sess.PhoneCollected = true
	sess.Touch()
	if err := o.store.SaveSession(*sess); err != nil {
		slog.Error("Orchestrator.fallbackToAI: failed to save session",
			"session_id", sessionID, "error", err)
	}
	slog.Warn("Orchestrator.fallbackToAI: session switched to assistant mode", "session_id", sessionID)
	return o.respondAI(ctx, sess, message, platform)
}

// conversationContext renders accumulated lead fields, and on the AI-first
// strategy the conversation metadata, as an extra system message so the
// assistant does not re-ask for known facts.
func (o *Orchestrator) conversationContext(sess *models.Session) string {
	var b strings.Builder
	if o.strategy == StrategyAIFirst {
		fmt.Fprintf(&b, "Contexto da conversa: plataforma %s, %d mensagens trocadas, iniciada há %d minutos.\n",
			sess.Platform, sess.MessageCount, sess.AgeMinutes())
	}
	if len(sess.LeadData) > 0 {
		keys := make([]string, 0, len(sess.LeadData))
		for k := range sess.LeadData {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("Dados já coletados do cliente nesta conversa:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, truncateRunes(sess.LeadData[k], MaxSituationLength))
		}
		b.WriteString("Use essas informações no atendimento e não pergunte novamente pelo que já foi informado.")
	}
	return b.String()
}
