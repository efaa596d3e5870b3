package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rizqirahman/goproof/internal/identity/entity"
)

func (s *DB) CreateIdentity(ctx context.Context, ident entity.Identity) (err error) {
	ctx, span := s.startSpan(ctx, "CreateIdentity")
	defer func() { s.endSpan(span, err) }()

	var email, phone pgtype.Text
	var emailVerified, phoneVerified bool
	if ident.Email != nil {
		email = pgtype.Text{Valid: true, String: ident.Email.Value}
		emailVerified = ident.Email.Verified
	}
	if ident.Phone != nil {
		phone = pgtype.Text{Valid: true, String: ident.Phone.Value}
		phoneVerified = ident.Phone.Verified
	}

	_, err = s.conn.Exec(ctx,
		`INSERT INTO identities (id, email, email_verified, phone, phone_verified, role, is_deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE)`,
		ident.ID, email, emailVerified, phone, phoneVerified, ident.Role,
	)

	return s.mapError(err)
}

func (s *DB) CreateResetToken(ctx context.Context, token entity.ResetToken) (err error) {
	ctx, span := s.startSpan(ctx, "CreateResetToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO identity_reset_tokens (id, identity_id, token_hash, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		token.ID, token.IdentityID, token.TokenHash,
		pgtype.Timestamptz{Valid: true, Time: token.ExpiresAt},
	)

	return s.mapError(err)
}
