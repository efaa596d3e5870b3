package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
)

func TestOtpVerifyUnknownIdentity(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.OtpVerify(context.Background(), OtpVerifyInput{
		Identifier: "ghost@b.co",
		Channel:    "email",
		Purpose:    "email_verify",
		Code:       "482913",
	})

	if out != nil {
		t.Errorf("expected nil output, got %+v", out)
	}
	assertCode(t, err, goerror.CodeNotFound)
}

func TestOtpVerifyNoPendingChallenge(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")

	_, err := f.uc.OtpVerify(context.Background(), OtpVerifyInput{
		Identifier: "a@b.co",
		Channel:    "email",
		Purpose:    "email_verify",
		Code:       "482913",
	})

	assertCode(t, err, goerror.CodeConflict)
}

// The checks run in a fixed order; each case stacks several defects on the
// same attempt and expects the earliest one to win.
func TestOtpVerifyOrderedFailures(t *testing.T) {
	tests := []struct {
		name     string
		purpose  string
		code     string
		expired  bool
		wantCode goerror.Code
		wantMsg  string
	}{
		{
			name:     "purpose mismatch wins over wrong code and expiry",
			purpose:  "password_reset",
			code:     "000000",
			expired:  true,
			wantCode: goerror.CodeInvalidInput,
			wantMsg:  "no pending code for this purpose",
		},
		{
			name:     "wrong code wins over expiry",
			purpose:  "email_verify",
			code:     "000000",
			expired:  true,
			wantCode: goerror.CodeUnauthorized,
			wantMsg:  "incorrect code",
		},
		{
			name:     "expired with right code",
			purpose:  "email_verify",
			code:     "482913",
			expired:  true,
			wantCode: goerror.CodeUnauthorized,
			wantMsg:  "expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedIdentity(1, "a@b.co")
			f.seedChallenge(1, entity.PurposeEmailVerify, entity.ChannelEmail, 482913)
			if tt.expired {
				f.db.mu.Lock()
				f.db.idents[1].Challenge.ExpiresAt = f.now.Add(-1)
				f.db.mu.Unlock()
			}

			_, err := f.uc.OtpVerify(context.Background(), OtpVerifyInput{
				Identifier: "a@b.co",
				Channel:    "email",
				Purpose:    tt.purpose,
				Code:       tt.code,
			})

			assertCode(t, err, tt.wantCode)
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error message %q does not contain %q", err.Error(), tt.wantMsg)
			}

			// Failed attempts never consume the stored challenge.
			if f.db.get(1).Challenge == nil {
				t.Error("challenge consumed by a failed attempt")
			}
		})
	}
}

func TestOtpVerifyWrongCodeCountsFailure(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")
	f.seedChallenge(1, entity.PurposeEmailVerify, entity.ChannelEmail, 482913)

	for range 3 {
		_, err := f.uc.OtpVerify(context.Background(), OtpVerifyInput{
			Identifier: "a@b.co",
			Channel:    "email",
			Purpose:    "email_verify",
			Code:       "000000",
		})
		assertCode(t, err, goerror.CodeUnauthorized)
	}

	if got := f.cache.failures["1"]; got != 3 {
		t.Errorf("failure counter = %d, want 3", got)
	}
}

func TestOtpVerifyEmailVerifySetsFlag(t *testing.T) {
	f := newFixture(t)
	f.db.put(entity.Identity{
		ID:    1,
		Email: &entity.Contact{Value: "a@b.co"},
		Role:  entity.RoleMember,
	})
	f.seedChallenge(1, entity.PurposeEmailVerify, entity.ChannelEmail, 482913)

	out, err := f.uc.OtpVerify(context.Background(), OtpVerifyInput{
		Identifier: "a@b.co",
		Channel:    "email",
		Purpose:    "email_verify",
		Code:       "482913",
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if out.ResetToken != "" {
		t.Errorf("email_verify must not mint a reset token, got %q", out.ResetToken)
	}

	stored := f.db.get(1)
	if !stored.Email.Verified {
		t.Error("email not marked verified")
	}
	if stored.Challenge != nil {
		t.Error("challenge not consumed")
	}
}

func TestOtpVerifyPhoneVerifySetsFlag(t *testing.T) {
	f := newFixture(t)
	f.db.put(entity.Identity{
		ID:    1,
		Phone: &entity.Contact{Value: "+6281234567890"},
		Role:  entity.RoleMember,
	})
	f.seedChallenge(1, entity.PurposePhoneVerify, entity.ChannelPhone, 482913)

	_, err := f.uc.OtpVerify(context.Background(), OtpVerifyInput{
		Identifier: "+6281234567890",
		Channel:    "sms",
		Purpose:    "phone_verify",
		Code:       "482913",
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	stored := f.db.get(1)
	if !stored.Phone.Verified {
		t.Error("phone not marked verified")
	}
	if stored.Challenge != nil {
		t.Error("challenge not consumed")
	}
}

func TestOtpVerifyPasswordResetMintsToken(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")
	f.seedChallenge(1, entity.PurposePasswordReset, entity.ChannelEmail, 482913)

	out, err := f.uc.OtpVerify(context.Background(), OtpVerifyInput{
		Identifier: "a@b.co",
		Channel:    "email",
		Purpose:    "password_reset",
		Code:       "482913",
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if out.ResetToken == "" {
		t.Fatal("expected a plaintext reset token")
	}

	if f.db.get(1).Challenge != nil {
		t.Error("challenge not consumed")
	}

	// Only the HMAC of the token is at rest.
	stored, err := f.db.GetResetTokenByHash(context.Background(), "hmac:"+out.ResetToken)
	if err != nil {
		t.Fatalf("stored token not found by hash: %v", err)
	}
	if stored.IdentityID != 1 {
		t.Errorf("token identity = %d, want 1", stored.IdentityID)
	}
	if want := f.now.Add(15 * time.Minute); !stored.ExpiresAt.Equal(want) {
		t.Errorf("token expiry = %v, want %v", stored.ExpiresAt, want)
	}
}

func TestOtpVerifyNumberChangeSwapsPhone(t *testing.T) {
	f := newFixture(t)
	f.db.put(entity.Identity{
		ID:    1,
		Email: &entity.Contact{Value: "a@b.co", Verified: true},
		Phone: &entity.Contact{Value: "+6289999999999"},
		Role:  entity.RoleMember,
	})
	f.seedChallenge(1, entity.PurposeNumberChange, entity.ChannelPhone, 482913)

	_, err := f.uc.OtpVerify(context.Background(), OtpVerifyInput{
		Identifier: "+6289999999999",
		Channel:    "phone",
		Purpose:    "number_change",
		Code:       "482913",
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	stored := f.db.get(1)
	if stored.Phone.Value != "+6289999999999" || !stored.Phone.Verified {
		t.Errorf("phone = %+v, want new number verified", stored.Phone)
	}

	if len(f.mq.phoneChanges) != 1 {
		t.Fatalf("published %d phone change events, want 1", len(f.mq.phoneChanges))
	}
	evt := f.mq.phoneChanges[0]
	if evt.IdentityID != 1 || evt.Phone != "+6289999999999" || evt.Email != "a@b.co" {
		t.Errorf("unexpected event payload: %+v", evt)
	}
}

func TestOtpVerifyConcurrentAttemptsConsumeOnce(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(1, "a@b.co")
	f.seedChallenge(1, entity.PurposeEmailVerify, entity.ChannelEmail, 482913)

	const attempts = 32
	in := OtpVerifyInput{
		Identifier: "a@b.co",
		Channel:    "email",
		Purpose:    "email_verify",
		Code:       "482913",
	}

	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = f.uc.OtpVerify(context.Background(), in)
		}()
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		default:
			var gErr *goerror.Error
			if !errors.As(err, &gErr) || gErr.Code() != goerror.CodeConflict {
				t.Fatalf("unexpected error: %v", err)
			}
			conflicts++
		}
	}

	if wins != 1 {
		t.Errorf("%d attempts succeeded, want exactly 1", wins)
	}
	if conflicts != attempts-1 {
		t.Errorf("%d attempts lost the race, want %d", conflicts, attempts-1)
	}
}
