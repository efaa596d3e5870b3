package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
)

type (
	OtpVerifyInput struct {
		Identifier string `validate:"required"`
		Channel    string `validate:"required"`
		Purpose    string `validate:"required"`
		Code       string `validate:"required,numeric"`
	}

	OtpVerifyOutput struct {
		IdentityID int64
		ResetToken string
	}
)

func (s *Usecase) OtpVerify(ctx context.Context, in OtpVerifyInput) (*OtpVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "OtpVerify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.ParsePurpose(in.Purpose)
	if purpose.IsUnknown() {
		return nil, goerror.NewBusiness("unknown purpose", goerror.CodeInvalidInput)
	}

	channel := entity.ParseChannel(in.Channel)
	if channel.IsUnknown() {
		return nil, goerror.NewBusiness("unknown channel", goerror.CodeInvalidInput)
	}

	identifier, err := s.normalizeIdentifier(channel, in.Identifier)
	if err != nil {
		return nil, err
	}

	code, err := strconv.ParseInt(in.Code, 10, 32)
	if err != nil {
		return nil, goerror.NewBusiness("code must be numeric", goerror.CodeInvalidInput)
	}

	ident, err := s.repoDB.GetIdentityByChannelValue(ctx, channel, identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("identity not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by channel value", "identifier", identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	if ident.IsDeleted {
		slog.WarnContext(ctx, "verify requested for deleted identity", "identity_id", ident.ID)
		return nil, goerror.NewBusiness("identity not found", goerror.CodeNotFound)
	}

	if ident.Challenge == nil {
		return nil, goerror.NewBusiness("no pending code for this identity", goerror.CodeConflict)
	}

	if err := s.checkChallenge(ctx, ident, purpose, channel, int32(code)); err != nil {
		return nil, err
	}

	out := &OtpVerifyOutput{IdentityID: ident.ID}

	switch purpose {
	case entity.PurposeEmailVerify:
		ok, err := s.repoDB.ConsumeChallengeMarkEmailVerified(ctx, ident.ID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo consume challenge mark email verified", "identity_id", ident.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		if !ok {
			return nil, goerror.NewBusiness("no pending code for this identity", goerror.CodeConflict)
		}

	case entity.PurposePhoneVerify:
		ok, err := s.repoDB.ConsumeChallengeMarkPhoneVerified(ctx, ident.ID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo consume challenge mark phone verified", "identity_id", ident.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		if !ok {
			return nil, goerror.NewBusiness("no pending code for this identity", goerror.CodeConflict)
		}

	case entity.PurposePasswordReset:
		ok, err := s.repoDB.ClearChallengeIfPresent(ctx, ident.ID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo clear challenge", "identity_id", ident.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		if !ok {
			return nil, goerror.NewBusiness("no pending code for this identity", goerror.CodeConflict)
		}

		token, err := s.mintResetToken(ctx, ident.ID)
		if err != nil {
			return nil, err
		}
		out.ResetToken = token

	case entity.PurposeNumberChange:
		ok, err := s.repoDB.ConsumeChallengeSetPhone(ctx, ident.ID, identifier)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo consume challenge set phone", "identity_id", ident.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		if !ok {
			return nil, goerror.NewBusiness("no pending code for this identity", goerror.CodeConflict)
		}

		email := ""
		if ident.Email != nil {
			email = ident.Email.Value
		}
		if err := s.repoMessaging.PublishPhoneNumberChanged(ctx, PhoneNumberChangedEvent{
			IdentityID: ident.ID,
			Email:      email,
			Phone:      identifier,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish phone number changed", "identity_id", ident.ID, "error", err)
		}

	default:
		slog.ErrorContext(ctx, "verified challenge has unhandled purpose", "identity_id", ident.ID, "purpose", purpose.String())
		return nil, goerror.NewServer(errors.New("unhandled challenge purpose"))
	}

	return out, nil
}

// checkChallenge runs the ordered challenge checks and maps each sentinel to
// its transport-facing business error. Every failure leaves the stored
// challenge untouched.
func (s *Usecase) checkChallenge(ctx context.Context, ident *entity.Identity, purpose entity.Purpose, channel entity.Channel, code int32) error {
	err := ident.Challenge.Validate(purpose, channel, code, s.clock.Now())
	switch {
	case err == nil:
		return nil

	case errors.Is(err, entity.ErrPurposeMismatch):
		return goerror.NewBusiness("no pending code for this purpose", goerror.CodeInvalidInput)

	case errors.Is(err, entity.ErrChannelMismatch):
		return goerror.NewBusiness("no pending code on this channel", goerror.CodeInvalidInput)

	case errors.Is(err, entity.ErrInvalidCode):
		window := s.cfg.GetMinute("modules.identity.otp_failure_window_minutes")
		if _, cErr := s.repoCache.IncrementFailure(ctx, strconv.FormatInt(ident.ID, 10), window); cErr != nil {
			slog.ErrorContext(ctx, "failed to count invalid code attempt", "identity_id", ident.ID, "error", cErr)
		}
		return goerror.NewBusiness("incorrect code, try again", goerror.CodeUnauthorized)

	case errors.Is(err, entity.ErrCodeExpired):
		return goerror.NewBusiness("code has expired, request a new one", goerror.CodeUnauthorized)

	default:
		return goerror.NewServer(err)
	}
}

// mintResetToken creates the one-shot capability token a successful
// password_reset verification pays out. Only the HMAC of the token is stored;
// the plaintext is returned to the caller exactly once.
func (s *Usecase) mintResetToken(ctx context.Context, identityID int64) (string, error) {
	plaintext := s.oid.Generate()

	tokenHash, err := s.hmac.Hash(plaintext)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash reset token", "identity_id", identityID, "error", err)
		return "", goerror.NewServer(err)
	}

	token := entity.ResetToken{
		ID:         s.uid.Generate(),
		IdentityID: identityID,
		TokenHash:  string(tokenHash),
		ExpiresAt:  s.clock.Now().Add(s.cfg.GetMinute("modules.identity.reset_token_ttl_minutes")),
	}

	if err := s.repoDB.CreateResetToken(ctx, token); err != nil {
		slog.ErrorContext(ctx, "failed to repo create reset token", "identity_id", identityID, "error", err)
		return "", goerror.NewServer(err)
	}

	return plaintext, nil
}
