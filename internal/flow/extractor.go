package flow

import (
	"strings"
	"unicode"

	"github.com/advocata/intakepipe/internal/models"
)

// Lead field keys populated by the extractor.
const (
	FieldName      = "name"
	FieldAreaOfLaw = "area_of_law"
	FieldSituation = "situation"
	FieldConsent   = "consent"
)

// MaxSituationLength bounds the stored free-text situation.
const MaxSituationLength = 200

// LeadExtractor pulls structured lead fields out of free-form chat messages
// using keyword heuristics. Extraction is first-write-wins: a field already
// present in the accumulated data is never overwritten.
type LeadExtractor struct {
	heuristics models.Heuristics
}

// NewLeadExtractor returns an extractor configured with h.
func NewLeadExtractor(h models.Heuristics) *LeadExtractor {
	return &LeadExtractor{heuristics: h}
}

// Extract returns the fields newly recognized in message. Fields already set
// in existing are skipped. The returned map holds only the new fields; merging
// into the session is the caller's job.
func (e *LeadExtractor) Extract(message string, existing map[string]string) map[string]string {
	found := make(map[string]string)
	lower := strings.ToLower(message)

	if existing[FieldName] == "" {
		if name, ok := e.extractName(message, lower); ok {
			found[FieldName] = name
		}
	}
	if existing[FieldAreaOfLaw] == "" {
		if area, ok := e.extractArea(lower); ok {
			found[FieldAreaOfLaw] = area
		}
	}
	if existing[FieldSituation] == "" {
		if situation, ok := e.extractSituation(message, lower); ok {
			found[FieldSituation] = situation
		}
	}
	if existing[FieldConsent] == "" {
		if e.containsAffirmative(lower) {
			found[FieldConsent] = "true"
		}
	}
	return found
}

// extractName treats a message as a name candidate when it holds at least two
// purely alphabetic tokens and mentions no legal-area keyword. The first two
// alphabetic tokens, title-cased, form the name.
func (e *LeadExtractor) extractName(message, lower string) (string, bool) {
	for _, kw := range e.heuristics.AreaKeywords {
		if strings.Contains(lower, kw.Keyword) {
			return "", false
		}
	}
	var alpha []string
	for _, tok := range strings.Fields(message) {
		if isAlphabetic(tok) {
			alpha = append(alpha, tok)
		}
	}
	if len(alpha) < 2 {
		return "", false
	}
	return titleCase(alpha[0]) + " " + titleCase(alpha[1]), true
}

// extractArea returns the label of the first area keyword present in the
// message. Keyword order decides ties.
func (e *LeadExtractor) extractArea(lower string) (string, bool) {
	for _, kw := range e.heuristics.AreaKeywords {
		if strings.Contains(lower, kw.Keyword) {
			return kw.Label, true
		}
	}
	return "", false
}

// extractSituation accepts messages long enough to carry context that also
// contain a narrative indicator, truncated to MaxSituationLength runes.
func (e *LeadExtractor) extractSituation(message, lower string) (string, bool) {
	if len([]rune(message)) <= 20 {
		return "", false
	}
	for _, ind := range e.heuristics.NarrativeIndicators {
		if strings.Contains(lower, ind) {
			return truncateRunes(strings.TrimSpace(message), MaxSituationLength), true
		}
	}
	return "", false
}

func (e *LeadExtractor) containsAffirmative(lower string) bool {
	for _, tok := range e.heuristics.AffirmativeTokens {
		if strings.Contains(tok, " ") {
			if strings.Contains(lower, tok) {
				return true
			}
		} else if containsWord(lower, tok) {
			return true
		}
	}
	return false
}

// containsWord reports whether word appears as a whole whitespace-separated
// token in s, ignoring common trailing punctuation.
func containsWord(s, word string) bool {
	for _, tok := range strings.Fields(s) {
		if strings.TrimFunc(tok, unicode.IsPunct) == word {
			return true
		}
	}
	return false
}

func isAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
