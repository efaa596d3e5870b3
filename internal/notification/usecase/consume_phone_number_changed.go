package usecase

import (
	"context"
	"log/slog"

	"github.com/rizqirahman/goproof/internal/notification/entity"
	"github.com/rizqirahman/goproof/internal/pkg/valueobject"
)

type ConsumePhoneNumberChangedInput struct {
	IdentityID int64  `validate:"required,gt=0"`
	Email      string `validate:"omitempty,email"`
	Phone      string `validate:"required,e164"`
}

func (s *Usecase) ConsumePhoneNumberChanged(ctx context.Context, in ConsumePhoneNumberChangedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePhoneNumberChanged")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	notifData := valueobject.JSONMap{
		"identity_id": in.IdentityID,
		"phone":       in.Phone,
	}

	// Identities created through a phone channel may have no email on file;
	// the in-app record is still written.
	if in.Email == "" {
		s.createInAppNotification(ctx, in.IdentityID, entity.TriggerKeyPhoneNumberChanged, notifData)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["phone"] = in.Phone
	data["changed_at"] = s.clock.Now().Format("Jan 2, 2006 15:04 MST")

	s.sendEmailNotification(ctx, emailNotificationInput{
		IdentityID:       in.IdentityID,
		Email:            in.Email,
		TriggerKey:       entity.TriggerKeyPhoneNumberChanged,
		TemplateData:     data,
		NotificationData: notifData,
	})

	return nil
}

func (s *Usecase) createInAppNotification(ctx context.Context, identityID int64, tk entity.TriggerKey, data valueobject.JSONMap) {
	n := entity.CreateNotification{
		ID:         s.uid.Generate(),
		IdentityID: identityID,
		TriggerKey: tk,
		Data:       data,
		Metadata:   valueobject.JSONMap{},
	}
	if err := s.repoDB.CreateNotification(ctx, n); err != nil {
		slog.ErrorContext(ctx, "failed to repo create notification", "identity_id", identityID, "error", err)
	}
}
