// Package models defines the externalized heuristic dictionaries for IntakePipe.
//
// The keyword lists driving the relevance heuristic and the lead extractor are
// business data, not logic. They ship with built-in pt-BR defaults and can be
// replaced wholesale from a JSON file for localization or tuning.
package models

// AreaKeyword maps a keyword found in free text to the canonical label of a
// legal practice area. Matching iterates the slice in order, so the slice
// position is a defined total order: the first match wins.
type AreaKeyword struct {
	Keyword string `json:"keyword"`
	Label   string `json:"label"`
}

// Heuristics holds every keyword dictionary used by the guided-flow relevance
// heuristic and the lead extractor.
type Heuristics struct {
	// IrrelevantTokens are low-information messages (greetings,
	// acknowledgements) rejected as answers to any guided step.
	IrrelevantTokens []string `json:"irrelevant_tokens"`
	// AreaKeywords maps legal-domain keywords to canonical area labels, in
	// priority order.
	AreaKeywords []AreaKeyword `json:"area_keywords"`
	// AreaChoiceTokens are the enumerated numeric choices accepted for the
	// area-of-law step.
	AreaChoiceTokens []string `json:"area_choice_tokens"`
	// NarrativeIndicators are words suggesting a message describes a legal
	// situation rather than small talk.
	NarrativeIndicators []string `json:"narrative_indicators"`
	// AffirmativeTokens are words interpreted as consent to a meeting.
	AffirmativeTokens []string `json:"affirmative_tokens"`
}

// DefaultHeuristics returns the built-in pt-BR dictionaries.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		IrrelevantTokens: []string{
			"oi", "olá", "hello", "hi", "tchau", "bye", "obrigado", "obrigada",
			"thanks", "ok", "tá", "sim", "não", "yes", "no", "???",
		},
		AreaKeywords: []AreaKeyword{
			{Keyword: "penal", Label: "Direito Penal"},
			{Keyword: "criminal", Label: "Direito Penal"},
			{Keyword: "crime", Label: "Direito Penal"},
			{Keyword: "trabalhista", Label: "Direito Trabalhista"},
			{Keyword: "trabalho", Label: "Direito Trabalhista"},
			{Keyword: "demitido", Label: "Direito Trabalhista"},
			{Keyword: "demissão", Label: "Direito Trabalhista"},
			{Keyword: "família", Label: "Direito de Família"},
			{Keyword: "divórcio", Label: "Direito de Família"},
			{Keyword: "pensão", Label: "Direito de Família"},
			{Keyword: "guarda", Label: "Direito de Família"},
			{Keyword: "empresarial", Label: "Direito Empresarial"},
			{Keyword: "empresa", Label: "Direito Empresarial"},
			{Keyword: "civil", Label: "Direito Civil"},
			{Keyword: "contrato", Label: "Direito Civil"},
			{Keyword: "indenização", Label: "Direito Civil"},
		},
		AreaChoiceTokens: []string{"1", "2", "3", "4", "5"},
		NarrativeIndicators: []string{
			"problema", "preciso", "aconteceu", "situação", "ajuda",
			"dúvida", "processo", "caso",
		},
		AffirmativeTokens: []string{
			"sim", "quero", "gostaria", "pode ser", "claro", "com certeza",
			"aceito", "por favor",
		},
	}
}
