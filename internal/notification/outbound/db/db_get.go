package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rizqirahman/goproof/internal/notification/entity"
)

func (s *DB) GetTemplateByTriggerChannel(ctx context.Context, tk entity.TriggerKey, ch entity.Channel) (_ *entity.Template, err error) {
	ctx, span := s.startSpan(ctx, "GetTemplateByTriggerChannel")
	defer func() { s.endSpan(span, err) }()

	var tpl entity.Template
	err = s.conn.QueryRow(ctx,
		`SELECT id, trigger_key, channel, subject, body
		 FROM notification_templates WHERE trigger_key = $1 AND channel = $2`,
		tk.String(), ch,
	).Scan(&tpl.ID, &tpl.TriggerKey, &tpl.Channel, &tpl.Subject, &tpl.Body)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &tpl, nil
}

func (s *DB) ListNotifications(ctx context.Context, identityID int64, status entity.NotificationStatus, limit, offset int32) (_ []entity.NotificationItem, err error) {
	ctx, span := s.startSpan(ctx, "ListNotifications")
	defer func() { s.endSpan(span, err) }()

	query := `SELECT id, trigger_key, data, metadata, read_at, created_at
		 FROM notifications WHERE identity_id = $1 AND deleted_at IS NULL`
	switch status {
	case entity.NotificationStatusUnread:
		query += ` AND read_at IS NULL`
	case entity.NotificationStatusRead:
		query += ` AND read_at IS NOT NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := s.conn.Query(ctx, query, identityID, limit, offset)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.NotificationItem, 0, limit)
	for rows.Next() {
		var (
			item      entity.NotificationItem
			readAt    pgtype.Timestamptz
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&item.ID, &item.TriggerKey, &item.Data, &item.Metadata, &readAt, &createdAt); err != nil {
			return nil, s.mapError(err)
		}
		if readAt.Valid {
			item.ReadAt = &readAt.Time
		}
		item.CreatedAt = createdAt.Time
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return items, nil
}

func (s *DB) CountUnreadNotifications(ctx context.Context, identityID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountUnreadNotifications")
	defer func() { s.endSpan(span, err) }()

	var count int64
	err = s.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE identity_id = $1 AND read_at IS NULL AND deleted_at IS NULL`,
		identityID,
	).Scan(&count)
	if err != nil {
		return 0, s.mapError(err)
	}

	return count, nil
}
