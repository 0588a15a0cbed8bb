// Package models defines lead record structures for IntakePipe.
package models

import "time"

// LeadStatus tracks how far a lead has progressed through intake.
type LeadStatus string

const (
	// LeadStatusIntakeCompleted means the guided flow finished and the lead
	// record was compiled from the collected answers.
	LeadStatusIntakeCompleted LeadStatus = "intake_completed"
	// LeadStatusPhoneCollected means a phone number was collected and the
	// WhatsApp handoff was triggered.
	LeadStatusPhoneCollected LeadStatus = "phone_collected"
	// LeadStatusAIQualified means the lead was compiled from fields extracted
	// during free-form AI dialogue.
	LeadStatusAIQualified LeadStatus = "ai_qualified"
)

// LeadSource identifies which path produced the lead.
const (
	LeadSourceChatbotIntake = "chatbot_intake"
	LeadSourceAIChat        = "ai_chat"
)

// LeadRecord is the compiled record of a prospective client's intake answers.
// It is created exactly once per session; the session's LeadSaved flag
// prevents duplicate writes.
type LeadRecord struct {
	ID             string     `json:"id,omitempty"`
	Name           string     `json:"name"`
	AreaOfLaw      string     `json:"area_of_law"`
	Situation      string     `json:"situation"`
	WantsMeeting   string     `json:"wants_meeting,omitempty"`
	PhoneNumber    string     `json:"phone_number,omitempty"`    // raw digits
	PhoneFormatted string     `json:"phone_formatted,omitempty"` // canonical MSISDN
	Platform       Platform   `json:"platform,omitempty"`
	SessionID      string     `json:"session_id"`
	Status         LeadStatus `json:"status"`
	Source         string     `json:"source"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Placeholder values used when a guided answer is missing. These mirror the
// wording shown to the legal team in the handoff summary.
const (
	LeadUnknownName      = "Cliente"
	LeadUnspecifiedArea  = "Não especificada"
	LeadUnknownSituation = "Não informada"
)

// CompileLead builds a LeadRecord from the guided-flow responses of a session.
func CompileLead(s *Session) LeadRecord {
	now := time.Now()
	return LeadRecord{
		Name:         valueOr(s.Responses, "name", LeadUnknownName),
		AreaOfLaw:    valueOr(s.Responses, "area_of_law", LeadUnspecifiedArea),
		Situation:    valueOr(s.Responses, "situation", LeadUnknownSituation),
		WantsMeeting: valueOr(s.Responses, "wants_meeting", ""),
		Platform:     s.Platform,
		SessionID:    s.ID,
		Status:       LeadStatusIntakeCompleted,
		Source:       LeadSourceChatbotIntake,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CompileLeadFromExtraction builds a LeadRecord from fields extracted during
// AI dialogue.
func CompileLeadFromExtraction(s *Session) LeadRecord {
	now := time.Now()
	return LeadRecord{
		Name:         valueOr(s.LeadData, "name", LeadUnknownName),
		AreaOfLaw:    valueOr(s.LeadData, "area_of_law", LeadUnspecifiedArea),
		Situation:    valueOr(s.LeadData, "situation", LeadUnknownSituation),
		WantsMeeting: valueOr(s.LeadData, "consent", ""),
		Platform:     s.Platform,
		SessionID:    s.ID,
		Status:       LeadStatusAIQualified,
		Source:       LeadSourceAIChat,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func valueOr(m map[string]string, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return fallback
}
