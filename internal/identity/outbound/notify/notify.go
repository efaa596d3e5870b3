package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/instrument"
	"github.com/rizqirahman/goproof/internal/pkg/mail"
	"github.com/rizqirahman/goproof/internal/pkg/sms"
	"go.opentelemetry.io/otel/codes"
)

// Dispatcher delivers verification codes over the challenge's channel. Delivery
// happens synchronously inside the issue flow so the caller can distinguish a
// stored-but-undelivered challenge from a successful issue.
type Dispatcher struct {
	mailer mail.Mail
	texter sms.SMS
	ins    instrument.Instrumentation
}

func NewDispatcher(mailer mail.Mail, texter sms.SMS, ins instrument.Instrumentation) *Dispatcher {
	return &Dispatcher{mailer: mailer, texter: texter, ins: ins}
}

func (d *Dispatcher) SendCode(ctx context.Context, ch entity.Channel, recipient string, purpose entity.Purpose, code string, ttl time.Duration) error {
	ctx, span := d.ins.Tracer("identity.outbound.notify").Start(ctx, "SendCode")
	defer span.End()

	var err error
	switch ch {
	case entity.ChannelEmail:
		err = d.mailer.Send(ctx, mail.Message{
			To:       []string{recipient},
			Subject:  subjectFor(purpose),
			TextBody: bodyFor(purpose, code, ttl),
		})
	case entity.ChannelPhone:
		err = d.texter.Send(ctx, sms.Message{
			To:   recipient,
			Body: bodyFor(purpose, code, ttl),
		})
	default:
		err = fmt.Errorf("notify: no delivery route for channel %q", ch)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func subjectFor(purpose entity.Purpose) string {
	switch purpose {
	case entity.PurposePasswordReset:
		return "Your password reset code"
	case entity.PurposeNumberChange:
		return "Confirm your new phone number"
	default:
		return "Your verification code"
	}
}

func bodyFor(purpose entity.Purpose, code string, ttl time.Duration) string {
	minutes := int(ttl.Minutes())
	switch purpose {
	case entity.PurposePasswordReset:
		return fmt.Sprintf("Use code %s to reset your password. It expires in %d minutes. If you did not request this, ignore this message.", code, minutes)
	case entity.PurposeNumberChange:
		return fmt.Sprintf("Use code %s to confirm your new phone number. It expires in %d minutes.", code, minutes)
	default:
		return fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
	}
}
