package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rizqirahman/goproof/internal/notification/entity"
)

func TestConsumePasswordChanged(t *testing.T) {
	f := newFixture(t)
	f.seedEmailTemplate(entity.TriggerKeyPasswordChanged,
		"Your password was changed",
		"<p>Changed on {{.changed_at}}. Contact {{.support_email}}. &copy; {{.year}} {{.company_name}}</p>")

	err := f.uc.ConsumePasswordChanged(context.Background(), ConsumePasswordChangedInput{
		IdentityID: 42,
		Email:      "a@b.co",
	})
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	if len(f.mail.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(f.mail.sent))
	}
	msg := f.mail.sent[0]
	if len(msg.To) != 1 || msg.To[0] != "a@b.co" {
		t.Errorf("recipients = %v", msg.To)
	}
	if msg.Subject != "Your password was changed" {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Mar 10, 2025", "support@goproof.dev", "2025 GoProof"} {
		if !strings.Contains(msg.HTMLBody, want) {
			t.Errorf("body %q missing %q", msg.HTMLBody, want)
		}
	}

	if len(f.db.notifications) != 1 {
		t.Fatalf("created %d notifications, want 1", len(f.db.notifications))
	}
	n := f.db.notifications[0]
	if n.IdentityID != 42 || n.TriggerKey != entity.TriggerKeyPasswordChanged {
		t.Errorf("notification = %+v", n)
	}

	if len(f.db.logs) != 1 || f.db.logs[0].Status != entity.DeliveryStatusQueued {
		t.Fatalf("delivery logs = %+v", f.db.logs)
	}
	if len(f.db.logUpdates) != 1 || f.db.logUpdates[0].Status != entity.DeliveryStatusSent {
		t.Errorf("log updates = %+v", f.db.logUpdates)
	}
}

// Malformed events are dropped, not redelivered; the handler acks them.
func TestConsumePasswordChangedInvalidEvent(t *testing.T) {
	tests := []struct {
		name string
		in   ConsumePasswordChangedInput
	}{
		{name: "missing identity", in: ConsumePasswordChangedInput{Email: "a@b.co"}},
		{name: "missing email", in: ConsumePasswordChangedInput{IdentityID: 42}},
		{name: "malformed email", in: ConsumePasswordChangedInput{IdentityID: 42, Email: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			if err := f.uc.ConsumePasswordChanged(context.Background(), tt.in); err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if len(f.db.notifications) != 0 || len(f.mail.sent) != 0 {
				t.Error("invalid event must not produce a notification")
			}
		})
	}
}

func TestConsumePasswordChangedMissingTemplate(t *testing.T) {
	f := newFixture(t)

	err := f.uc.ConsumePasswordChanged(context.Background(), ConsumePasswordChangedInput{
		IdentityID: 42,
		Email:      "a@b.co",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if len(f.db.notifications) != 0 || len(f.mail.sent) != 0 {
		t.Error("missing template must not produce a notification")
	}
}

func TestConsumePasswordChangedRetriesDelivery(t *testing.T) {
	f := newFixture(t)
	f.seedEmailTemplate(entity.TriggerKeyPasswordChanged, "subject", "<p>body</p>")
	f.mail.failNext = 2

	err := f.uc.ConsumePasswordChanged(context.Background(), ConsumePasswordChangedInput{
		IdentityID: 42,
		Email:      "a@b.co",
	})
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	if got := len(f.mail.sent); got != 3 {
		t.Errorf("send attempts = %d, want 3", got)
	}
	if len(f.db.logUpdates) != 1 || f.db.logUpdates[0].Status != entity.DeliveryStatusSent {
		t.Errorf("log updates = %+v, want sent after retries", f.db.logUpdates)
	}
}

func TestConsumePasswordChangedDeliveryExhausted(t *testing.T) {
	f := newFixture(t)
	f.seedEmailTemplate(entity.TriggerKeyPasswordChanged, "subject", "<p>body</p>")
	f.mail.failNext = 10

	err := f.uc.ConsumePasswordChanged(context.Background(), ConsumePasswordChangedInput{
		IdentityID: 42,
		Email:      "a@b.co",
	})
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	// Initial attempt plus three retries.
	if got := len(f.mail.sent); got != 4 {
		t.Errorf("send attempts = %d, want 4", got)
	}

	if len(f.db.logUpdates) != 1 {
		t.Fatalf("log updates = %+v", f.db.logUpdates)
	}
	up := f.db.logUpdates[0]
	if up.Status != entity.DeliveryStatusFailed {
		t.Errorf("status = %v, want failed", up.Status)
	}
	if up.NextRetryAt == nil || !up.NextRetryAt.Equal(f.now.Add(2*time.Minute)) {
		t.Errorf("next retry = %v, want %v", up.NextRetryAt, f.now.Add(2*time.Minute))
	}
}
