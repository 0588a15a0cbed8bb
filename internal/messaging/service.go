// Package messaging provides the pluggable WhatsApp transport used by
// IntakePipe: a Whatsmeow-backed service with live inbound events, a Twilio
// alternative for deployments without a paired device, and the dispatcher
// that turns inbound messages into orchestrated conversation turns.
package messaging

import (
	"context"
	"errors"

	"github.com/advocata/intakepipe/internal/models"
)

// ErrServiceStopped is returned by sends attempted after Stop.
var ErrServiceStopped = errors.New("messaging service is stopped")

// Service defines a pluggable message delivery abstraction.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a
	// recipient identifier. Each transport implements its own rules.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error

	// Start begins any background processing (e.g., listening for events).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Responses returns a channel of incoming client messages.
	Responses() <-chan models.InboundMessage
}
