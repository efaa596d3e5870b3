package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rizqirahman/goproof/internal/identity/entity"
)

// SetChallenge unconditionally overwrites any stored challenge (last-writer-wins).
func (s *DB) SetChallenge(ctx context.Context, id int64, chal entity.Challenge) (err error) {
	ctx, span := s.startSpan(ctx, "SetChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`UPDATE identities
		 SET challenge_purpose = $2, challenge_channel = $3, challenge_code = $4,
		     challenge_expires_at = $5, updated_at = now()
		 WHERE id = $1`,
		id, chal.Purpose, chal.Channel, chal.Code,
		pgtype.Timestamptz{Valid: true, Time: chal.ExpiresAt},
	)

	return s.mapError(err)
}

// ClearChallengeIfPresent clears the challenge only when one is still stored.
// The returned bool is the CAS result: false means another call consumed it first.
func (s *DB) ClearChallengeIfPresent(ctx context.Context, id int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ClearChallengeIfPresent")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE identities
		 SET challenge_purpose = NULL, challenge_channel = NULL, challenge_code = NULL,
		     challenge_expires_at = NULL, updated_at = now()
		 WHERE id = $1 AND challenge_code IS NOT NULL`,
		id,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

// ConsumeChallengeMarkEmailVerified clears the challenge and marks the email
// verified in one guarded statement; false means the challenge was already gone.
func (s *DB) ConsumeChallengeMarkEmailVerified(ctx context.Context, id int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallengeMarkEmailVerified")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE identities
		 SET email_verified = TRUE,
		     challenge_purpose = NULL, challenge_channel = NULL, challenge_code = NULL,
		     challenge_expires_at = NULL, updated_at = now()
		 WHERE id = $1 AND challenge_code IS NOT NULL`,
		id,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) ConsumeChallengeMarkPhoneVerified(ctx context.Context, id int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallengeMarkPhoneVerified")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE identities
		 SET phone_verified = TRUE,
		     challenge_purpose = NULL, challenge_channel = NULL, challenge_code = NULL,
		     challenge_expires_at = NULL, updated_at = now()
		 WHERE id = $1 AND challenge_code IS NOT NULL`,
		id,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

// ConsumeChallengeSetPhone clears the challenge and writes the proven new phone
// number as verified, in one guarded statement.
func (s *DB) ConsumeChallengeSetPhone(ctx context.Context, id int64, phone string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallengeSetPhone")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE identities
		 SET phone = $2, phone_verified = TRUE,
		     challenge_purpose = NULL, challenge_channel = NULL, challenge_code = NULL,
		     challenge_expires_at = NULL, updated_at = now()
		 WHERE id = $1 AND challenge_code IS NOT NULL`,
		id, phone,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
