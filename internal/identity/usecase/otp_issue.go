package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
)

type (
	OtpIssueInput struct {
		Identifier string `validate:"required"`
		Channel    string `validate:"required"`
		Purpose    string `validate:"required"`
	}

	OtpIssueOutput struct {
		IdentityID int64
		Identifier string
	}
)

func (s *Usecase) OtpIssue(ctx context.Context, in OtpIssueInput) (*OtpIssueOutput, error) {
	ctx, span := s.startSpan(ctx, "OtpIssue")
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

	if !purpose.AllowsChannel(channel) {
		return nil, goerror.NewBusiness("channel not allowed for this purpose", goerror.CodeInvalidInput)
	}

	identifier, err := s.normalizeIdentifier(channel, in.Identifier)
	if err != nil {
		return nil, err
	}

	cooldown := s.cfg.GetSecond("modules.identity.otp_resend_cooldown_seconds")
	acquired, err := s.repoCache.AcquireCooldown(ctx, channel.String()+":"+identifier, cooldown)
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire issue cooldown", "identifier", identifier, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !acquired {
		return nil, goerror.NewBusiness("a code was sent recently, wait before requesting another", goerror.CodeTooManyRequest)
	}

	ident, err := s.repoDB.GetIdentityByChannelValue(ctx, channel, identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		ident = &entity.Identity{ID: s.uid.Generate(), Role: entity.RoleMember}
		contact := &entity.Contact{Value: identifier}
		if channel == entity.ChannelEmail {
			ident.Email = contact
		} else {
			ident.Phone = contact
		}

		if err := s.repoDB.CreateIdentity(ctx, *ident); err != nil {
			slog.ErrorContext(ctx, "failed to repo create identity", "identifier", identifier, "error", err)
			return nil, goerror.NewServer(err)
		}
	} else if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by channel value", "identifier", identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	if ident.IsDeleted {
		slog.WarnContext(ctx, "issue requested for deleted identity", "identity_id", ident.ID)
		return nil, goerror.NewBusiness("identity not found", goerror.CodeNotFound)
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "identity_id", ident.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.cfg.GetMinute("modules.identity.otp_ttl_minutes")
	if purpose == entity.PurposePasswordReset {
		ttl = s.cfg.GetMinute("modules.identity.otp_reset_ttl_minutes")
	}

	challenge := entity.Challenge{
		Purpose:   purpose,
		Channel:   channel,
		Code:      code,
		ExpiresAt: s.clock.Now().Add(ttl),
	}

	if err := s.repoDB.SetChallenge(ctx, ident.ID, challenge); err != nil {
		slog.ErrorContext(ctx, "failed to repo set challenge", "identity_id", ident.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.dispatcher.SendCode(ctx, channel, identifier, purpose, s.otp.Format(code), ttl); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp code", "identity_id", ident.ID, "channel", channel.String(), "error", err)
		return nil, goerror.NewUnavailable(entity.ErrDeliveryFailed, "code issued but delivery failed, retry later")
	}

	return &OtpIssueOutput{IdentityID: ident.ID, Identifier: identifier}, nil
}

// normalizeIdentifier canonicalizes the contact value and enforces the
// channel-specific format: RFC address for email, E.164 for phone.
func (s *Usecase) normalizeIdentifier(ch entity.Channel, identifier string) (string, error) {
	if ch == entity.ChannelEmail {
		identifier = strings.TrimSpace(strings.ToLower(identifier))
		if err := s.validator.Validate(struct {
			Identifier string `validate:"required,email"`
		}{identifier}); err != nil {
			return "", goerror.NewInvalidInput(err)
		}

		return identifier, nil
	}

	identifier = strings.ReplaceAll(strings.TrimSpace(identifier), " ", "")
	if err := s.validator.Validate(struct {
		Identifier string `validate:"required,e164"`
	}{identifier}); err != nil {
		return "", goerror.NewInvalidInput(err)
	}

	return identifier, nil
}
