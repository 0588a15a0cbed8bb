// Package models defines session state structures for IntakePipe conversations.
package models

import "time"

// SessionMode represents the phase a conversation session is in.
type SessionMode string

const (
	// ModeGuided means the session is walking through the step-by-step intake flow.
	ModeGuided SessionMode = "guided"
	// ModePhoneCollection means the intake flow finished and the session is
	// waiting for a phone number.
	ModePhoneCollection SessionMode = "phone_collection"
	// ModeAI means the session is in free-form AI dialogue. This mode is
	// absorbing: a session never leaves it.
	ModeAI SessionMode = "ai"
)

// HistoryWindowTurns is the number of user/assistant turns kept in the rolling
// conversation history sent to the generation service.
const HistoryWindowTurns = 10

// ConversationMessage represents a single message in the conversation history.
type ConversationMessage struct {
	Role      string    `json:"role"`      // "user" or "assistant"
	Content   string    `json:"content"`   // message content
	Timestamp time.Time `json:"timestamp"` // when the message was sent
}

// Session represents the orchestration state of one intake conversation.
// A session is exclusively owned by the orchestrator for the duration of one
// turn and persisted through the session store between turns.
type Session struct {
	ID             string                `json:"session_id"`
	Mode           SessionMode           `json:"mode"`
	CurrentStep    int                   `json:"current_step,omitempty"` // 0 = no guided step active
	Responses      map[string]string     `json:"responses,omitempty"`    // guided path: field -> answer
	LeadData       map[string]string     `json:"lead_data,omitempty"`    // AI path: field -> extracted value
	FlowCompleted  bool                  `json:"flow_completed"`
	PhoneCollected bool                  `json:"phone_collected"`
	AIMode         bool                  `json:"ai_mode"`
	LeadSaved      bool                  `json:"lead_saved"`
	LeadID         string                `json:"lead_id,omitempty"`
	PhoneNumber    string                `json:"phone_number,omitempty"`    // raw digits as submitted
	PhoneFormatted string                `json:"phone_formatted,omitempty"` // canonical MSISDN
	Platform       Platform              `json:"platform,omitempty"`
	MessageCount   int                   `json:"message_count"`
	History        []ConversationMessage `json:"history,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	LastUpdated    time.Time             `json:"last_updated"`
}

// NewSession creates a session positioned at the first guided step.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:          id,
		Mode:        ModeGuided,
		CurrentStep: 1,
		Responses:   make(map[string]string),
		LeadData:    make(map[string]string),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// AppendHistory records a user/assistant exchange and trims the history to
// the rolling window. The caller persists the session afterwards.
func (s *Session) AppendHistory(userMsg, assistantMsg string) {
	now := time.Now()
	s.History = append(s.History,
		ConversationMessage{Role: "user", Content: userMsg, Timestamp: now},
		ConversationMessage{Role: "assistant", Content: assistantMsg, Timestamp: now},
	)
	if max := HistoryWindowTurns * 2; len(s.History) > max {
		s.History = s.History[len(s.History)-max:]
	}
}

// AgeMinutes returns how many minutes ago the session was created.
func (s *Session) AgeMinutes() int {
	return int(time.Since(s.CreatedAt).Minutes())
}

// Touch updates the last-updated timestamp.
func (s *Session) Touch() {
	s.LastUpdated = time.Now()
}
