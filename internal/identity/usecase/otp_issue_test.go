package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
)

func TestOtpIssueValidation(t *testing.T) {
	tests := []struct {
		name     string
		in       OtpIssueInput
		wantCode goerror.Code
	}{
		{
			name:     "missing fields",
			in:       OtpIssueInput{},
			wantCode: goerror.CodeInvalidInput,
		},
		{
			name:     "unknown purpose",
			in:       OtpIssueInput{Identifier: "a@b.co", Channel: "email", Purpose: "totp_enroll"},
			wantCode: goerror.CodeInvalidInput,
		},
		{
			name:     "unknown channel",
			in:       OtpIssueInput{Identifier: "a@b.co", Channel: "carrier_pigeon", Purpose: "email_verify"},
			wantCode: goerror.CodeInvalidInput,
		},
		{
			name:     "email_verify over phone rejected",
			in:       OtpIssueInput{Identifier: "+6281234567890", Channel: "phone", Purpose: "email_verify"},
			wantCode: goerror.CodeInvalidInput,
		},
		{
			name:     "number_change over email rejected",
			in:       OtpIssueInput{Identifier: "a@b.co", Channel: "email", Purpose: "number_change"},
			wantCode: goerror.CodeInvalidInput,
		},
		{
			name:     "malformed email",
			in:       OtpIssueInput{Identifier: "not-an-email", Channel: "email", Purpose: "email_verify"},
			wantCode: goerror.CodeInvalidInput,
		},
		{
			name:     "phone not e164",
			in:       OtpIssueInput{Identifier: "0812-3456", Channel: "phone", Purpose: "phone_verify"},
			wantCode: goerror.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			out, err := f.uc.OtpIssue(context.Background(), tt.in)

			if out != nil {
				t.Errorf("expected nil output, got %+v", out)
			}
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestOtpIssueCooldown(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")
	in := OtpIssueInput{Identifier: "a@b.co", Channel: "email", Purpose: "email_verify"}

	if _, err := f.uc.OtpIssue(context.Background(), in); err != nil {
		t.Fatalf("first issue failed: %v", err)
	}

	// Act: identical request inside the cooldown window.
	out, err := f.uc.OtpIssue(context.Background(), in)

	if out != nil {
		t.Errorf("expected nil output, got %+v", out)
	}
	assertCode(t, err, goerror.CodeTooManyRequest)

	if got := len(f.disp.sends); got != 1 {
		t.Errorf("dispatched %d codes, want 1", got)
	}
}

func TestOtpIssueCreatesUnknownIdentity(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.OtpIssue(context.Background(), OtpIssueInput{
		Identifier: "  New.User@Example.COM ",
		Channel:    "email",
		Purpose:    "email_verify",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if out.Identifier != "new.user@example.com" {
		t.Errorf("identifier = %q, want normalized lowercase", out.Identifier)
	}

	stored := f.db.get(out.IdentityID)
	if stored.Email == nil || stored.Email.Value != "new.user@example.com" {
		t.Fatalf("created identity email = %+v", stored.Email)
	}
	if stored.Email.Verified {
		t.Error("new identity must start unverified")
	}
	if stored.Role != entity.RoleMember {
		t.Errorf("new identity role = %v, want member", stored.Role)
	}
	if stored.Challenge == nil {
		t.Fatal("expected a stored challenge")
	}
	if stored.Challenge.Code != 482913 {
		t.Errorf("challenge code = %d, want 482913", stored.Challenge.Code)
	}
	if want := f.now.Add(5 * time.Minute); !stored.Challenge.ExpiresAt.Equal(want) {
		t.Errorf("challenge expiry = %v, want %v", stored.Challenge.ExpiresAt, want)
	}

	if len(f.disp.sends) != 1 {
		t.Fatalf("dispatched %d codes, want 1", len(f.disp.sends))
	}
	if f.disp.sends[0].code != "482913" {
		t.Errorf("dispatched code = %q, want formatted 482913", f.disp.sends[0].code)
	}
}

func TestOtpIssueReplacesPendingChallenge(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")
	f.seedChallenge(1, entity.PurposePasswordReset, entity.ChannelEmail, 111111)

	out, err := f.uc.OtpIssue(context.Background(), OtpIssueInput{
		Identifier: "a@b.co",
		Channel:    "email",
		Purpose:    "email_verify",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	stored := f.db.get(out.IdentityID)
	if stored.Challenge == nil {
		t.Fatal("expected a stored challenge")
	}
	if stored.Challenge.Purpose != entity.PurposeEmailVerify || stored.Challenge.Code != 482913 {
		t.Errorf("old challenge survived: %+v", stored.Challenge)
	}
}

func TestOtpIssuePasswordResetUsesShorterTTL(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")

	out, err := f.uc.OtpIssue(context.Background(), OtpIssueInput{
		Identifier: "a@b.co",
		Channel:    "email",
		Purpose:    "password_reset",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	stored := f.db.get(out.IdentityID)
	if want := f.now.Add(3 * time.Minute); !stored.Challenge.ExpiresAt.Equal(want) {
		t.Errorf("challenge expiry = %v, want reset ttl %v", stored.Challenge.ExpiresAt, want)
	}
}

func TestOtpIssueDeletedIdentity(t *testing.T) {
	f := newFixture(t)
	ident := f.seedIdentity(1, "a@b.co")
	ident.IsDeleted = true
	f.db.put(ident)

	out, err := f.uc.OtpIssue(context.Background(), OtpIssueInput{
		Identifier: "a@b.co",
		Channel:    "email",
		Purpose:    "email_verify",
	})

	if out != nil {
		t.Errorf("expected nil output, got %+v", out)
	}
	assertCode(t, err, goerror.CodeNotFound)
}

func TestOtpIssueDeliveryFailureKeepsChallenge(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")
	f.disp.err = errors.New("smtp connection refused")

	out, err := f.uc.OtpIssue(context.Background(), OtpIssueInput{
		Identifier: "a@b.co",
		Channel:    "email",
		Purpose:    "email_verify",
	})

	if out != nil {
		t.Errorf("expected nil output, got %+v", out)
	}
	assertCode(t, err, goerror.CodeUnavailable)
	if !errors.Is(err, entity.ErrDeliveryFailed) {
		t.Errorf("error chain missing ErrDeliveryFailed: %v", err)
	}

	// The code was issued before delivery was attempted; it must remain
	// verifiable until it expires.
	stored := f.db.get(1)
	if stored.Challenge == nil {
		t.Fatal("challenge must persist when delivery fails")
	}

	f.disp.err = nil
	verified, vErr := f.uc.OtpVerify(context.Background(), OtpVerifyInput{
		Identifier: "a@b.co",
		Channel:    "email",
		Purpose:    "email_verify",
		Code:       codeString(stored.Challenge.Code),
	})
	if vErr != nil {
		t.Fatalf("verify after failed delivery: %v", vErr)
	}
	if verified.IdentityID != 1 {
		t.Errorf("verified identity = %d, want 1", verified.IdentityID)
	}
}

func TestOtpIssueCacheFailure(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")
	f.cache.cooldownErr = errors.New("redis down")

	_, err := f.uc.OtpIssue(context.Background(), OtpIssueInput{
		Identifier: "a@b.co",
		Channel:    "email",
		Purpose:    "email_verify",
	})

	assertCode(t, err, goerror.CodeInternal)
}
