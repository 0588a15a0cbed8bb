package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/advocata/intakepipe/internal/flow"
	"github.com/advocata/intakepipe/internal/models"
)

// mockService is an in-memory transport for dispatcher tests.
type mockService struct {
	mu        sync.Mutex
	sent      []struct{ To, Body string }
	responses chan models.InboundMessage
}

func newMockService() *mockService {
	return &mockService{responses: make(chan models.InboundMessage, 10)}
}

func (m *mockService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizeRecipient(recipient, DefaultRegion)
}

func (m *mockService) SendMessage(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, struct{ To, Body string }{to, body})
	return nil
}

func (m *mockService) Start(ctx context.Context) error { return nil }
func (m *mockService) Stop() error                     { return nil }

func (m *mockService) Responses() <-chan models.InboundMessage { return m.responses }

func (m *mockService) sentMessages() []struct{ To, Body string } {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]struct{ To, Body string }, len(m.sent))
	copy(out, m.sent)
	return out
}

// mockResponder returns a fixed reply and records session ids.
type mockResponder struct {
	mu       sync.Mutex
	sessions []string
}

func (m *mockResponder) Respond(ctx context.Context, sessionID, message string, platform models.Platform) *flow.TurnResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, sessionID)
	return &flow.TurnResult{SessionID: sessionID, Response: "resposta", AIMode: true, Mode: models.ModeAI}
}

func TestCanonicalizeRecipient(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"+5511987654321", "5511987654321", true},
		{"5511987654321", "5511987654321", true},
		{"11987654321", "5511987654321", true},
		{"5511987654321@s.whatsapp.net", "5511987654321", true},
		{"", "", false},
		{"abc", "", false},
	}
	for _, c := range cases {
		got, err := canonicalizeRecipient(c.in, DefaultRegion)
		if c.ok && err != nil {
			t.Errorf("canonicalizeRecipient(%q): unexpected error %v", c.in, err)
			continue
		}
		if !c.ok {
			if err == nil {
				t.Errorf("canonicalizeRecipient(%q): expected error", c.in)
			}
			continue
		}
		if got != c.want {
			t.Errorf("canonicalizeRecipient(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDispatcherRoutesInboundMessages(t *testing.T) {
	svc := newMockService()
	responder := &mockResponder{}
	d := NewDispatcher(svc, responder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	svc.responses <- models.InboundMessage{From: "5511987654321", Body: "olá", Time: time.Now().Unix()}
	close(svc.responses)
	d.Wait()

	responder.mu.Lock()
	sessions := responder.sessions
	responder.mu.Unlock()
	if len(sessions) != 1 || sessions[0] != "whatsapp_5511987654321" {
		t.Errorf("expected one turn under the namespaced session, got %v", sessions)
	}

	sent := svc.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected one outbound reply, got %d", len(sent))
	}
	if sent[0].To != "5511987654321" || sent[0].Body != "resposta" {
		t.Errorf("unexpected reply %+v", sent[0])
	}
}

func TestTwilioServiceInjectInbound(t *testing.T) {
	svc := NewTwilioService(nil)

	if err := svc.InjectInbound(models.InboundMessage{From: "+5511987654321", Body: "olá"}); err != nil {
		t.Fatalf("inject: %v", err)
	}
	select {
	case msg := <-svc.Responses():
		if msg.From != "5511987654321" {
			t.Errorf("expected canonical sender, got %q", msg.From)
		}
	default:
		t.Fatal("expected message on responses channel")
	}

	if err := svc.InjectInbound(models.InboundMessage{From: "abc", Body: "olá"}); err == nil {
		t.Error("expected validation error for bad sender")
	}

	if err := svc.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := svc.InjectInbound(models.InboundMessage{From: "+5511987654321", Body: "olá"}); err != ErrServiceStopped {
		t.Errorf("expected ErrServiceStopped after stop, got %v", err)
	}
}
