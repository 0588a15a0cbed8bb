package flow

import (
	"strings"
	"testing"

	"github.com/advocata/intakepipe/internal/models"
)

func newTestExtractor() *LeadExtractor {
	return NewLeadExtractor(models.DefaultHeuristics())
}

func TestExtractName(t *testing.T) {
	e := newTestExtractor()

	found := e.Extract("maria silva", nil)
	if found[FieldName] != "Maria Silva" {
		t.Errorf("expected title-cased name, got %q", found[FieldName])
	}

	// A single token is not enough for a name.
	if found := e.Extract("Maria", nil); found[FieldName] != "" {
		t.Errorf("expected no name from single token, got %q", found[FieldName])
	}

	// Messages about legal matters are not name candidates.
	if found := e.Extract("problema trabalhista urgente", nil); found[FieldName] != "" {
		t.Errorf("expected no name from legal message, got %q", found[FieldName])
	}
}

func TestExtractAreaKeywordOrder(t *testing.T) {
	e := newTestExtractor()
	found := e.Extract("fui demitido e acho que foi um crime", nil)
	// Penal keywords precede labor keywords in the dictionary.
	if found[FieldAreaOfLaw] != "Direito Penal" {
		t.Errorf("expected first dictionary match to win, got %q", found[FieldAreaOfLaw])
	}
}

func TestExtractSituation(t *testing.T) {
	e := newTestExtractor()

	long := "Preciso de ajuda com um contrato de aluguel que o proprietário quebrou " + strings.Repeat("de novo ", 30)
	found := e.Extract(long, nil)
	situation := found[FieldSituation]
	if situation == "" {
		t.Fatal("expected situation from long narrative message")
	}
	if len([]rune(situation)) > MaxSituationLength {
		t.Errorf("expected situation capped at %d runes, got %d", MaxSituationLength, len([]rune(situation)))
	}

	// Short messages carry no usable context.
	if found := e.Extract("preciso de ajuda", nil); found[FieldSituation] != "" {
		t.Errorf("expected no situation from short message, got %q", found[FieldSituation])
	}
}

func TestExtractConsent(t *testing.T) {
	e := newTestExtractor()
	if found := e.Extract("sim, pode me ligar", nil); found[FieldConsent] != "true" {
		t.Error("expected consent from affirmative message")
	}
	if found := e.Extract("era algo simples", nil); found[FieldConsent] != "" {
		t.Error("expected no consent from incidental substring")
	}
}

func TestExtractFirstWriteWins(t *testing.T) {
	e := newTestExtractor()
	existing := map[string]string{FieldName: "Maria Silva"}
	found := e.Extract("joão pereira", existing)
	if _, ok := found[FieldName]; ok {
		t.Error("expected existing name to be preserved")
	}
}
