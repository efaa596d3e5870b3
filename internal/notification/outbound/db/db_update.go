package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rizqirahman/goproof/internal/notification/entity"
)

func (s *DB) UpdateDeliveryLogStatus(ctx context.Context, u entity.UpdateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryLogStatus")
	defer func() { s.endSpan(span, err) }()

	var nextRetry pgtype.Timestamptz
	if u.NextRetryAt != nil {
		nextRetry = pgtype.Timestamptz{Valid: true, Time: *u.NextRetryAt}
	}

	_, err = s.conn.Exec(ctx,
		`UPDATE notification_delivery_logs
		 SET status = $2, provider_response = $3, next_retry_at = $4, updated_at = now()
		 WHERE id = $1`,
		u.ID, u.Status, u.ProviderResponse, nextRetry,
	)

	return s.mapError(err)
}
