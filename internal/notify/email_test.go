package notify

import (
	"context"
	"testing"
)

func TestNewSendGridSenderRequiresAPIKey(t *testing.T) {
	if s := NewSendGridSender(SendGridConfig{}, testLogger()); s != nil {
		t.Error("expected nil sender without an api key")
	}
}

func TestNewSESSenderRequiresClient(t *testing.T) {
	if s := NewSESSender(nil, SESConfig{FromEmail: "ops@glossworks.example"}, testLogger()); s != nil {
		t.Error("expected nil sender without a client")
	}
}

func TestStubSendersNeverFail(t *testing.T) {
	email := NewStubEmailSender(testLogger())
	if err := email.Send(context.Background(), EmailMessage{To: "c@example.com", Subject: "Reminder"}); err != nil {
		t.Errorf("stub email send failed: %v", err)
	}

	sms := NewStubSMSSender(testLogger())
	if err := sms.Send(context.Background(), SMSMessage{To: "+15551230000"}); err != nil {
		t.Errorf("stub sms send failed: %v", err)
	}
}
