package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/advocata/intakepipe/internal/flow"
	"github.com/advocata/intakepipe/internal/models"
)

// SessionIDPrefix namespaces WhatsApp-originated sessions so they never
// collide with website session ids.
const SessionIDPrefix = "whatsapp_"

// ConversationResponder processes one inbound message and returns the reply
// to show. Satisfied by flow.Orchestrator.
type ConversationResponder interface {
	Respond(ctx context.Context, sessionID, message string, platform models.Platform) *flow.TurnResult
}

// SessionIDForNumber derives the stable session id for a phone number.
func SessionIDForNumber(number string) string {
	return SessionIDPrefix + number
}

// Dispatcher drains a transport's inbound messages, runs each through the
// conversation responder, and sends the reply back on the same transport.
type Dispatcher struct {
	service   Service
	responder ConversationResponder
	wg        sync.WaitGroup
}

// NewDispatcher returns a dispatcher routing svc's inbound messages through
// responder.
func NewDispatcher(svc Service, responder ConversationResponder) *Dispatcher {
	return &Dispatcher{service: svc, responder: responder}
}

// Start launches the dispatch loop. It runs until the context is cancelled
// or the transport's responses channel closes.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		slog.Info("Dispatcher.Start: dispatch loop running")
		for {
			select {
			case <-ctx.Done():
				slog.Debug("Dispatcher.Start: stopping due to context cancellation")
				return
			case msg, ok := <-d.service.Responses():
				if !ok {
					slog.Debug("Dispatcher.Start: responses channel closed")
					return
				}
				d.dispatch(ctx, msg)
			}
		}
	}()
}

// Wait blocks until the dispatch loop has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, msg models.InboundMessage) {
	sessionID := SessionIDForNumber(msg.From)
	slog.Debug("Dispatcher.dispatch: processing inbound message",
		"session_id", sessionID, "body_length", len(msg.Body))

	result := d.responder.Respond(ctx, sessionID, msg.Body, models.PlatformWhatsApp)
	reply := result.Response
	if reply == "" {
		reply = result.Question
	}
	if reply == "" {
		slog.Warn("Dispatcher.dispatch: empty reply, nothing to send", "session_id", sessionID)
		return
	}

	if err := d.service.SendMessage(ctx, msg.From, reply); err != nil {
		slog.Error("Dispatcher.dispatch: failed to send reply",
			"session_id", sessionID, "error", err)
	}
}
