package flow

import (
	"errors"
	"testing"

	"github.com/advocata/intakepipe/internal/models"
)

func TestNormalizePhoneLegacyAndModernConverge(t *testing.T) {
	legacy, err := NormalizePhone("1199999999")
	if err != nil {
		t.Fatalf("normalize 10-digit number: %v", err)
	}
	modern, err := NormalizePhone("11999999999")
	if err != nil {
		t.Fatalf("normalize 11-digit number: %v", err)
	}
	if legacy.MSISDN != modern.MSISDN {
		t.Errorf("expected equivalent inputs to converge, got %q and %q", legacy.MSISDN, modern.MSISDN)
	}
	if modern.MSISDN != "5511999999999" {
		t.Errorf("expected MSISDN 5511999999999, got %q", modern.MSISDN)
	}
}

func TestNormalizePhoneStripsFormatting(t *testing.T) {
	addr, err := NormalizePhone("(11) 98765-4321")
	if err != nil {
		t.Fatalf("normalize formatted number: %v", err)
	}
	if addr.MSISDN != "5511987654321" {
		t.Errorf("expected MSISDN 5511987654321, got %q", addr.MSISDN)
	}
	if addr.Raw != "11987654321" {
		t.Errorf("expected raw digits 11987654321, got %q", addr.Raw)
	}
}

func TestNormalizePhoneRejectsBadLengths(t *testing.T) {
	for _, raw := range []string{"", "11999", "119876543210", "abc"} {
		if _, err := NormalizePhone(raw); !errors.Is(err, models.ErrInvalidPhone) {
			t.Errorf("NormalizePhone(%q): expected ErrInvalidPhone, got %v", raw, err)
		}
	}
}

func TestPhoneAddressSuffix(t *testing.T) {
	addr, err := NormalizePhone("11987654321")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := addr.Address(""); got != "5511987654321@s.whatsapp.net" {
		t.Errorf("default suffix address: got %q", got)
	}
	if got := addr.Address("example.net"); got != "5511987654321@example.net" {
		t.Errorf("custom suffix address: got %q", got)
	}
}
