package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rizqirahman/goproof/internal/pkg/goerror"
)

type PasswordResetInput struct {
	ResetToken  string `validate:"required"`
	NewPassword string `validate:"required,password"`
}

func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	tokenHash, err := s.hmac.Hash(in.ResetToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash reset token", "error", err)
		return goerror.NewServer(err)
	}

	token, err := s.repoDB.GetResetTokenByHash(ctx, string(tokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("invalid or expired reset token", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get reset token by hash", "error", err)
		return goerror.NewServer(err)
	}

	if s.clock.Now().After(token.ExpiresAt) {
		return goerror.NewBusiness("invalid or expired reset token", goerror.CodeUnauthorized)
	}

	newHash, err := s.password.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "identity_id", token.IdentityID, "error", err)
		return goerror.NewServer(err)
	}

	err = s.repoDB.ResetCredential(ctx, token.IdentityID, token.ID, string(newHash))
	if errors.Is(err, goerror.ErrNotFound) {
		// Another request consumed the token between the read and the delete.
		return goerror.NewBusiness("invalid or expired reset token", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reset credential", "identity_id", token.IdentityID, "error", err)
		return goerror.NewServer(err)
	}

	ident, err := s.repoDB.GetIdentityByID(ctx, token.IdentityID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by id", "identity_id", token.IdentityID, "error", err)
		return nil
	}

	email := ""
	if ident.Email != nil {
		email = ident.Email.Value
	}
	if err := s.repoMessaging.PublishPasswordChanged(ctx, PasswordChangedEvent{
		IdentityID: token.IdentityID,
		Email:      email,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish password changed", "identity_id", token.IdentityID, "error", err)
	}

	return nil
}
