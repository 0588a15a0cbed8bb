// Package flow implements the intake orchestration state machines for
// IntakePipe: the guided question flow, heuristic lead extraction, phone
// normalization, the WhatsApp handoff, and the per-turn orchestrator that
// composes them.
package flow

import (
	"strings"

	"github.com/advocata/intakepipe/internal/models"
)

// Phone normalization constants for Brazilian mobile numbers.
const (
	// CountryCode is prefixed to every normalized number.
	CountryCode = "55"
	// AreaCodeLength is the number of leading digits holding the DDD area code.
	AreaCodeLength = 2
	// DefaultJIDSuffix is the WhatsApp address suffix for regular users.
	DefaultJIDSuffix = "s.whatsapp.net"
)

// PhoneAddress is a validated phone number in its raw and canonical forms.
type PhoneAddress struct {
	Raw    string // digits exactly as extracted from user input
	MSISDN string // canonical 13-digit form: "55" + area code + 9-digit mobile
}

// Address derives the messaging bridge address for the number. An empty
// suffix falls back to the WhatsApp default.
func (p PhoneAddress) Address(suffix string) string {
	if suffix == "" {
		suffix = DefaultJIDSuffix
	}
	return p.MSISDN + "@" + suffix
}

// NormalizePhone turns a raw user-typed phone number into its canonical
// MSISDN form. All non-digit characters are stripped first. A 10-digit number
// is treated as area code plus a legacy 8-digit mobile number and gains a "9"
// after the area code; an 11-digit number is already in modern mobile form.
// Anything else is rejected with models.ErrInvalidPhone. Equivalent legacy
// and modern inputs converge to the same result.
func NormalizePhone(raw string) (PhoneAddress, error) {
	digits := stripNonDigits(raw)
	switch len(digits) {
	case 10:
		return PhoneAddress{
			Raw:    digits,
			MSISDN: CountryCode + digits[:AreaCodeLength] + "9" + digits[AreaCodeLength:],
		}, nil
	case 11:
		return PhoneAddress{
			Raw:    digits,
			MSISDN: CountryCode + digits,
		}, nil
	default:
		return PhoneAddress{}, models.ErrInvalidPhone
	}
}

// stripNonDigits removes everything except ASCII digits.
func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
