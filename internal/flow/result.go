package flow

import (
	"time"

	"github.com/advocata/intakepipe/internal/models"
)

// TurnResult is the structured outcome of one conversation turn. Exactly one
// of Question or Response carries the text shown to the user: Question while
// the guided flow or phone collection drives the conversation, Response once
// the assistant does.
type TurnResult struct {
	SessionID       string             `json:"session_id"`
	Question        string             `json:"question,omitempty"`
	Response        string             `json:"response,omitempty"`
	StepID          int                `json:"step_id,omitempty"`
	IsFinalStep     bool               `json:"is_final_step,omitempty"`
	FlowCompleted   bool               `json:"flow_completed"`
	PhoneCollected  bool               `json:"phone_collected"`
	AIMode          bool               `json:"ai_mode"`
	Mode            models.SessionMode `json:"mode"`
	CollectingPhone bool               `json:"collecting_phone,omitempty"`
	RedirectMessage bool               `json:"redirect_message,omitempty"`
	ValidationError bool               `json:"validation_error,omitempty"`
	LeadSaved       bool               `json:"lead_saved,omitempty"`
	LeadID          string             `json:"lead_id,omitempty"`
	PhoneNumber     string             `json:"phone_number,omitempty"`
	WhatsAppSent    bool               `json:"whatsapp_sent,omitempty"`
	LeadData        map[string]string  `json:"lead_data,omitempty"`
	MessageCount    int                `json:"message_count,omitempty"`
}

// StatusResult is a read-only snapshot of a session for status queries.
type StatusResult struct {
	Exists             bool               `json:"exists"`
	SessionID          string             `json:"session_id"`
	Mode               models.SessionMode `json:"mode,omitempty"`
	Platform           models.Platform    `json:"platform,omitempty"`
	CurrentStep        int                `json:"current_step,omitempty"`
	TotalSteps         int                `json:"total_steps,omitempty"`
	FlowCompleted      bool               `json:"flow_completed"`
	PhoneCollected     bool               `json:"phone_collected"`
	AIMode             bool               `json:"ai_mode"`
	ResponsesCollected int                `json:"responses_collected"`
	MessageCount       int                `json:"message_count"`
	StartedAt          time.Time          `json:"started_at,omitempty"`
	LastUpdated        time.Time          `json:"last_updated,omitempty"`
}

// sessionFlags copies the mode flags of s into r so every result reports a
// consistent view of where the conversation stands.
func (r *TurnResult) sessionFlags(s *models.Session) *TurnResult {
	r.SessionID = s.ID
	r.Mode = s.Mode
	r.FlowCompleted = s.FlowCompleted
	r.PhoneCollected = s.PhoneCollected
	r.AIMode = s.AIMode
	return r
}
