package whatsapp

import (
	"context"
	"testing"
)

func TestToJID(t *testing.T) {
	jid := toJID("5511987654321")
	if jid.User != "5511987654321" || jid.Server != JIDSuffix {
		t.Errorf("bare number JID: got %s", jid.String())
	}

	jid = toJID("5511987654321@s.whatsapp.net")
	if jid.User != "5511987654321" || jid.Server != "s.whatsapp.net" {
		t.Errorf("full address JID: got %s", jid.String())
	}
}

func TestOptions(t *testing.T) {
	var cfg Opts
	for _, opt := range []Option{
		WithDBDSN("file:/tmp/wa.db?_foreign_keys=on"),
		WithQRCodeOutput("/tmp/qr.txt"),
		WithNumericCode(),
	} {
		opt(&cfg)
	}
	if cfg.DBDSN != "file:/tmp/wa.db?_foreign_keys=on" {
		t.Errorf("unexpected DSN %q", cfg.DBDSN)
	}
	if cfg.QRPath != "/tmp/qr.txt" {
		t.Errorf("unexpected QR path %q", cfg.QRPath)
	}
	if !cfg.NumericCode {
		t.Error("expected numeric code enabled")
	}
}

func TestMockClientSend(t *testing.T) {
	var sender Sender = NewMockClient()
	if err := sender.SendMessage(context.Background(), "5511987654321", "olá"); err != nil {
		t.Errorf("mock send: %v", err)
	}
}

func TestClientSendMessageRejectsEmptyInput(t *testing.T) {
	c := &Client{}
	if err := c.SendMessage(context.Background(), "5511987654321", "olá"); err == nil {
		t.Error("expected error from uninitialized client")
	}
}
