package flow

import (
	"context"
	"errors"
	"sync"

	"github.com/openai/openai-go"

	"github.com/advocata/intakepipe/internal/models"
	"github.com/advocata/intakepipe/internal/store"
)

// mockGenAI returns a canned reply and records the messages it was given.
type mockGenAI struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	lastMsgs []openai.ChatCompletionMessageParamUnion
}

func (m *mockGenAI) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.GenerateWithMessages(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	})
}

func (m *mockGenAI) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastMsgs = messages
	if m.err != nil {
		return "", m.err
	}
	if m.reply == "" {
		return "resposta do assistente", nil
	}
	return m.reply, nil
}

// mockBridge records sent messages and optionally fails every send.
type mockBridge struct {
	mu    sync.Mutex
	err   error
	sends []sentMessage
}

type sentMessage struct {
	To   string
	Body string
}

func (m *mockBridge) SendMessage(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sends = append(m.sends, sentMessage{To: to, Body: body})
	return nil
}

func (m *mockBridge) sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sends))
	copy(out, m.sends)
	return out
}

// failingStore wraps a real store and fails selected operations.
type failingStore struct {
	store.Store
	failSaveSession bool
	failCreateLead  bool
	failGetSession  bool
	failGetFlow     bool
}

var errStoreDown = errors.New("store unavailable")

func (f *failingStore) SaveSession(s models.Session) error {
	if f.failSaveSession {
		return errStoreDown
	}
	return f.Store.SaveSession(s)
}

func (f *failingStore) CreateLead(lead models.LeadRecord) (string, error) {
	if f.failCreateLead {
		return "", errStoreDown
	}
	return f.Store.CreateLead(lead)
}

func (f *failingStore) GetSession(id string) (*models.Session, error) {
	if f.failGetSession {
		return nil, errStoreDown
	}
	return f.Store.GetSession(id)
}

func (f *failingStore) GetFlow() (*models.FlowDefinition, error) {
	if f.failGetFlow {
		return nil, errStoreDown
	}
	return f.Store.GetFlow()
}
