package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
)

func (f *fixture) mintToken(t *testing.T, identityID int64) string {
	t.Helper()

	f.seedChallenge(identityID, entity.PurposePasswordReset, entity.ChannelEmail, 482913)
	out, err := f.uc.OtpVerify(context.Background(), OtpVerifyInput{
		Identifier: f.db.get(identityID).Email.Value,
		Channel:    "email",
		Purpose:    "password_reset",
		Code:       "482913",
	})
	if err != nil {
		t.Fatalf("mint reset token: %v", err)
	}

	return out.ResetToken
}

func TestPasswordResetValidation(t *testing.T) {
	tests := []struct {
		name string
		in   PasswordResetInput
	}{
		{name: "missing token", in: PasswordResetInput{NewPassword: "Secret123!"}},
		{name: "missing password", in: PasswordResetInput{ResetToken: "tok"}},
		{name: "password too short", in: PasswordResetInput{ResetToken: "tok", NewPassword: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			err := f.uc.PasswordReset(context.Background(), tt.in)

			assertCode(t, err, goerror.CodeInvalidInput)
		})
	}
}

func TestPasswordResetUnknownToken(t *testing.T) {
	f := newFixture(t)

	err := f.uc.PasswordReset(context.Background(), PasswordResetInput{
		ResetToken:  "never-minted",
		NewPassword: "Secret123!",
	})

	assertCode(t, err, goerror.CodeUnauthorized)
}

func TestPasswordResetExpiredToken(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")
	token := f.mintToken(t, 1)

	f.db.mu.Lock()
	f.db.tokens[0].ExpiresAt = f.now.Add(-time.Minute)
	f.db.mu.Unlock()

	err := f.uc.PasswordReset(context.Background(), PasswordResetInput{
		ResetToken:  token,
		NewPassword: "Secret123!",
	})

	assertCode(t, err, goerror.CodeUnauthorized)
}

func TestPasswordResetSuccess(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")
	token := f.mintToken(t, 1)

	err := f.uc.PasswordReset(context.Background(), PasswordResetInput{
		ResetToken:  token,
		NewPassword: "Secret123!",
	})
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if got := f.db.creds[1]; got != "pw:Secret123!" {
		t.Errorf("stored credential = %q, want hashed password", got)
	}

	if len(f.mq.passwords) != 1 {
		t.Fatalf("published %d password change events, want 1", len(f.mq.passwords))
	}
	evt := f.mq.passwords[0]
	if evt.IdentityID != 1 || evt.Email != "a@b.co" {
		t.Errorf("unexpected event payload: %+v", evt)
	}
}

func TestPasswordResetTokenIsOneShot(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")
	token := f.mintToken(t, 1)

	in := PasswordResetInput{ResetToken: token, NewPassword: "Secret123!"}
	if err := f.uc.PasswordReset(context.Background(), in); err != nil {
		t.Fatalf("first reset failed: %v", err)
	}

	// Act: replay the consumed token.
	err := f.uc.PasswordReset(context.Background(), in)

	assertCode(t, err, goerror.CodeUnauthorized)

	if len(f.mq.passwords) != 1 {
		t.Errorf("published %d events, want 1 (no event for the replay)", len(f.mq.passwords))
	}
}

func TestPasswordResetPublishFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")
	token := f.mintToken(t, 1)
	f.mq.err = context.DeadlineExceeded

	err := f.uc.PasswordReset(context.Background(), PasswordResetInput{
		ResetToken:  token,
		NewPassword: "Secret123!",
	})

	// The credential write is the transaction; event publication is best effort.
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
}
