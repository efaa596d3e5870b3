package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/rizqirahman/goproof/internal/notification/usecase"
	"github.com/rizqirahman/goproof/internal/pkg/idempotency"
	"github.com/rizqirahman/goproof/internal/pkg/instrument"
	"github.com/rizqirahman/goproof/internal/pkg/messaging"
	"github.com/rizqirahman/goproof/internal/pkg/uid"
	"github.com/rizqirahman/goproof/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc    uc
	uuid  uid.StringID
	idemp idempotency.Idempotency
	ins   instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// dedup runs fn at most once per broker message ID. Redelivered messages that
// were already handled are acknowledged silently.
func (h *MQHandler) dedup(ctx context.Context, msgID string, fn func(context.Context) error) error {
	if msgID == "" {
		return fn(ctx)
	}

	err := h.idemp.Exec(ctx, "notification:"+msgID, fn)
	if errors.Is(err, idempotency.ErrAlreadyCompleted) || errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.InfoContext(ctx, "skipping duplicate message", "msg_id", msgID)
		return nil
	}

	return err
}

func (h *MQHandler) PasswordChangedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PasswordChangedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: password changed notification", "msg_body", string(body))

	var payload event.PasswordChangedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of password changed notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.dedup(ctx, msg.ID(), func(ctx context.Context) error {
		return h.uc.ConsumePasswordChanged(ctx, usecase.ConsumePasswordChangedInput{
			IdentityID: payload.IdentityID,
			Email:      payload.Email,
		})
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume password changed", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) PhoneNumberChangedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PhoneNumberChangedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: phone number changed notification", "msg_body", string(body))

	var payload event.PhoneNumberChangedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of phone number changed notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.dedup(ctx, msg.ID(), func(ctx context.Context) error {
		return h.uc.ConsumePhoneNumberChanged(ctx, usecase.ConsumePhoneNumberChangedInput{
			IdentityID: payload.IdentityID,
			Email:      payload.Email,
			Phone:      payload.Phone,
		})
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume phone number changed", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
