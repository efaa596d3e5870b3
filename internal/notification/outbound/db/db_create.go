package db

import (
	"context"

	"github.com/rizqirahman/goproof/internal/notification/entity"
)

func (s *DB) CreateNotification(ctx context.Context, data entity.CreateNotification) (err error) {
	ctx, span := s.startSpan(ctx, "CreateNotification")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO notifications (id, identity_id, trigger_key, data, metadata)
		 VALUES ($1, $2, $3, $4, $5)`,
		data.ID, data.IdentityID, data.TriggerKey.String(), data.Data, data.Metadata,
	)

	return s.mapError(err)
}
