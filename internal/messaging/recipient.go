package messaging

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is the region used to parse recipient numbers that carry no
// country code.
const DefaultRegion = "BR"

// canonicalizeRecipient validates a recipient phone number and returns its
// canonical digit-only MSISDN. Bridge addresses ("number@suffix") are reduced
// to the number first; a leading "+" is accepted.
func canonicalizeRecipient(recipient, region string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	number := recipient
	if user, _, ok := strings.Cut(number, "@"); ok {
		number = user
	}
	if !strings.HasPrefix(number, "+") && len(number) > 11 {
		// Long numbers already carry a country code.
		number = "+" + number
	}

	parsed, err := phonenumbers.Parse(number, region)
	if err != nil {
		return "", fmt.Errorf("invalid phone number %q: %w", recipient, err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("invalid phone number %q", recipient)
	}
	return strings.TrimPrefix(phonenumbers.Format(parsed, phonenumbers.E164), "+"), nil
}
