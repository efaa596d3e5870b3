package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/rizqirahman/goproof/internal/notification/entity"
)

func TestConsumePhoneNumberChanged(t *testing.T) {
	f := newFixture(t)
	f.seedEmailTemplate(entity.TriggerKeyPhoneNumberChanged,
		"Your phone number was changed",
		"<p>Changed to {{.phone}} on {{.changed_at}}.</p>")

	err := f.uc.ConsumePhoneNumberChanged(context.Background(), ConsumePhoneNumberChangedInput{
		IdentityID: 42,
		Email:      "a@b.co",
		Phone:      "+6289999999999",
	})
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	if len(f.mail.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(f.mail.sent))
	}
	if body := f.mail.sent[0].HTMLBody; !strings.Contains(body, "+6289999999999") {
		t.Errorf("body %q missing the new number", body)
	}

	if len(f.db.notifications) != 1 {
		t.Fatalf("created %d notifications, want 1", len(f.db.notifications))
	}
	if got := f.db.notifications[0].Data["phone"]; got != "+6289999999999" {
		t.Errorf("notification data phone = %v", got)
	}
}

func TestConsumePhoneNumberChangedWithoutEmail(t *testing.T) {
	f := newFixture(t)
	f.seedEmailTemplate(entity.TriggerKeyPhoneNumberChanged, "subject", "<p>body</p>")

	err := f.uc.ConsumePhoneNumberChanged(context.Background(), ConsumePhoneNumberChangedInput{
		IdentityID: 42,
		Phone:      "+6289999999999",
	})
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	if len(f.mail.sent) != 0 {
		t.Errorf("sent %d emails, want none without an address on file", len(f.mail.sent))
	}

	// The in-app record is still written.
	if len(f.db.notifications) != 1 {
		t.Fatalf("created %d notifications, want 1", len(f.db.notifications))
	}
	if len(f.db.logs) != 0 {
		t.Errorf("delivery logs = %+v, want none", f.db.logs)
	}
}

func TestConsumePhoneNumberChangedInvalidEvent(t *testing.T) {
	f := newFixture(t)

	err := f.uc.ConsumePhoneNumberChanged(context.Background(), ConsumePhoneNumberChangedInput{
		IdentityID: 42,
		Phone:      "0812-not-e164",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if len(f.db.notifications) != 0 || len(f.mail.sent) != 0 {
		t.Error("invalid event must not produce a notification")
	}
}
