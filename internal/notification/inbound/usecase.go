package inbound

import (
	"context"

	"github.com/rizqirahman/goproof/internal/notification/usecase"
)

type ucConsumer interface {
	ConsumePasswordChanged(ctx context.Context, in usecase.ConsumePasswordChangedInput) error
	ConsumePhoneNumberChanged(ctx context.Context, in usecase.ConsumePhoneNumberChangedInput) error
}

type uc interface {
	ucConsumer

	ListInbox(ctx context.Context, in usecase.ListInboxInput) (*usecase.ListInboxOutput, error)
}
