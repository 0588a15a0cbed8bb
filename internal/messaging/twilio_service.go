package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/advocata/intakepipe/internal/models"
	"github.com/advocata/intakepipe/internal/twiliowhatsapp"
)

// TwilioService implements Service over the Twilio REST API. Twilio delivers
// inbound messages through HTTP webhooks, so the responses channel is fed by
// the API layer rather than a background listener.
type TwilioService struct {
	client    twiliowhatsapp.Sender
	responses chan models.InboundMessage

	mu      sync.RWMutex
	stopped bool
}

// NewTwilioService wraps the given Twilio sender.
func NewTwilioService(client twiliowhatsapp.Sender) *TwilioService {
	return &TwilioService{
		client:    client,
		responses: make(chan models.InboundMessage, DefaultChannelBufferSize),
	}
}

// ValidateAndCanonicalizeRecipient validates a recipient phone number and
// returns its digit-only MSISDN form.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	canonical, err := canonicalizeRecipient(recipient, DefaultRegion)
	if err != nil {
		slog.Debug("TwilioService recipient validation failed", "recipient", recipient, "error", err)
		return "", err
	}
	return canonical, nil
}

// Start is a no-op; inbound messages arrive via webhook.
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop closes the responses channel.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.responses)
	slog.Info("TwilioService stopped")
	return nil
}

// SendMessage sends a text message through Twilio.
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	if err := s.client.SendMessage(ctx, to, body); err != nil {
		slog.Error("TwilioService SendMessage error", "error", err, "to", to)
		return err
	}
	slog.Info("TwilioService message sent", "to", to)
	return nil
}

// Responses returns the channel of incoming client messages.
func (s *TwilioService) Responses() <-chan models.InboundMessage {
	return s.responses
}

// InjectInbound feeds a webhook-delivered message into the responses channel.
// The sender number is validated and canonicalized first.
func (s *TwilioService) InjectInbound(msg models.InboundMessage) error {
	canonical, err := s.ValidateAndCanonicalizeRecipient(msg.From)
	if err != nil {
		return err
	}
	msg.From = canonical

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return ErrServiceStopped
	}
	s.responses <- msg
	return nil
}
