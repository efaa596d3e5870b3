package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rizqirahman/goproof/internal/identity/entity"
)

func (s *DB) GetIdentityByChannelValue(ctx context.Context, ch entity.Channel, value string) (_ *entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByChannelValue")
	defer func() { s.endSpan(span, err) }()

	column := "email"
	if ch == entity.ChannelPhone {
		column = "phone"
	}

	row := s.conn.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE `+column+` = $1`,
		value,
	)

	ident, err := scanIdentity(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return ident, nil
}

func (s *DB) GetIdentityByID(ctx context.Context, id int64) (_ *entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByID")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = $1`,
		id,
	)

	ident, err := scanIdentity(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return ident, nil
}

// GetIdentityList pages with a keyset cursor: rows with id > afterID, ordered by id.
func (s *DB) GetIdentityList(ctx context.Context, afterID int64, limit int32) (_ []entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityList")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id > $1 ORDER BY id LIMIT $2`,
		afterID, limit,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	identities := make([]entity.Identity, 0, limit)
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, s.mapError(err)
		}
		identities = append(identities, *ident)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return identities, nil
}

func (s *DB) GetResetTokenByHash(ctx context.Context, tokenHash string) (_ *entity.ResetToken, err error) {
	ctx, span := s.startSpan(ctx, "GetResetTokenByHash")
	defer func() { s.endSpan(span, err) }()

	var (
		token     entity.ResetToken
		expiresAt pgtype.Timestamptz
	)
	err = s.conn.QueryRow(ctx,
		`SELECT id, identity_id, token_hash, expires_at FROM identity_reset_tokens WHERE token_hash = $1`,
		tokenHash,
	).Scan(&token.ID, &token.IdentityID, &token.TokenHash, &expiresAt)
	if err != nil {
		return nil, s.mapError(err)
	}
	token.ExpiresAt = expiresAt.Time

	return &token, nil
}
