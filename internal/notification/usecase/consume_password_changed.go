package usecase

import (
	"context"
	"log/slog"

	"github.com/rizqirahman/goproof/internal/notification/entity"
	"github.com/rizqirahman/goproof/internal/pkg/valueobject"
)

type ConsumePasswordChangedInput struct {
	IdentityID int64  `validate:"required,gt=0"`
	Email      string `validate:"required,email"`
}

func (s *Usecase) ConsumePasswordChanged(ctx context.Context, in ConsumePasswordChangedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePasswordChanged")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["changed_at"] = s.clock.Now().Format("Jan 2, 2006 15:04 MST")

	s.sendEmailNotification(ctx, emailNotificationInput{
		IdentityID:   in.IdentityID,
		Email:        in.Email,
		TriggerKey:   entity.TriggerKeyPasswordChanged,
		TemplateData: data,
		NotificationData: valueobject.JSONMap{
			"identity_id": in.IdentityID,
			"email":       in.Email,
		},
	})

	return nil
}
