package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
)

type (
	IdentityDetailInput struct {
		ID int64 `validate:"required,gt=0"`
	}

	IdentityDetailOutput struct {
		Identity entity.Identity
	}
)

func (s *Usecase) IdentityDetail(ctx context.Context, in IdentityDetailInput) (*IdentityDetailOutput, error) {
	ctx, span := s.startSpan(ctx, "IdentityDetail")
	defer span.End()

	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ident, err := s.repoDB.GetIdentityByID(ctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "identity not found", "identity_id", in.ID)
		return nil, goerror.NewBusiness("identity not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by id", "identity_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if ident.IsDeleted {
		return nil, goerror.NewBusiness("identity not found", goerror.CodeNotFound)
	}

	return &IdentityDetailOutput{Identity: *ident}, nil
}
