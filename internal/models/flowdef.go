// Package models defines the editable guided-flow structures for IntakePipe.
package models

import "time"

// StepType describes how a step's answer should be interpreted.
type StepType string

const (
	// StepTypeText accepts free text.
	StepTypeText StepType = "text"
	// StepTypeChoice accepts an enumerated choice (number or name).
	StepTypeChoice StepType = "choice"
	// StepTypeBoolean accepts a yes/no answer.
	StepTypeBoolean StepType = "boolean"
)

// Step is one question in the guided intake flow. IDs are unique and
// ascending but not required to be contiguous.
type Step struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Field    string   `json:"field"`
	Required bool     `json:"required"`
	Type     StepType `json:"type"`
}

// FlowDefinition is the ordered question sequence lawyers can edit through
// the flow store without touching code. It is immutable within one cache
// window.
type FlowDefinition struct {
	Steps             []Step    `json:"steps"`
	CompletionMessage string    `json:"completion_message,omitempty"`
	Description       string    `json:"description,omitempty"`
	Version           string    `json:"version,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// FindStep returns the step with the given id, or nil if no such step exists.
func (f *FlowDefinition) FindStep(id int) *Step {
	for i := range f.Steps {
		if f.Steps[i].ID == id {
			return &f.Steps[i]
		}
	}
	return nil
}

// LastStepID returns the id of the final step, or 0 for an empty flow.
func (f *FlowDefinition) LastStepID() int {
	if len(f.Steps) == 0 {
		return 0
	}
	return f.Steps[len(f.Steps)-1].ID
}

// DefaultFlowDefinition returns the built-in law-firm intake flow, persisted
// by the flow store on first use when no externally edited flow exists yet.
func DefaultFlowDefinition() FlowDefinition {
	now := time.Now()
	return FlowDefinition{
		Steps: []Step{
			{
				ID:       1,
				Question: "Olá! Bem-vindo ao nosso escritório de advocacia. Para começar, qual é o seu nome completo?",
				Field:    "name",
				Required: true,
				Type:     StepTypeText,
			},
			{
				ID:       2,
				Question: "Em qual área do direito você precisa de ajuda?\n\n1️⃣ Direito Penal\n2️⃣ Direito Civil\n3️⃣ Direito Trabalhista\n4️⃣ Direito de Família\n5️⃣ Outro\n\nPor favor, digite o número ou o nome da área:",
				Field:    "area_of_law",
				Required: true,
				Type:     StepTypeChoice,
			},
			{
				ID:       3,
				Question: "Descreva brevemente sua situação jurídica. Isso nos ajudará a entender como podemos auxiliá-lo:",
				Field:    "situation",
				Required: true,
				Type:     StepTypeText,
			},
			{
				ID:       4,
				Question: "Obrigado pelas informações. Mesmo que o orçamento seja uma preocupação, podemos trabalhar juntos para encontrar um plano de pagamento adequado. Gostaria que eu agendasse uma consulta com um de nossos advogados?\n\nPor favor, responda: Sim ou Não",
				Field:    "wants_meeting",
				Required: true,
				Type:     StepTypeBoolean,
			},
		},
		CompletionMessage: "Obrigado! Suas informações foram registradas e um de nossos advogados entrará em contato em breve.",
		Description:       "Fluxo de captação de leads para escritório de advocacia",
		Version:           "2.0",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
