package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
	"github.com/rizqirahman/goproof/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		ins:  ins,
	}
}

// - 23505 unique violation → maybe goerror.ErrConflict
// - 23503 foreign_key_violation → maybe goerror.ErrNotFound or a specific “invalid reference”
// - 23502 not_null_violation → goerror.ErrInvalid / validation
// - 23514 check_violation → goerror.ErrInvalid
// - 40001 serialization_failure → retryable error
// - 40P01 deadlock_detected → retryable error
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const identityColumns = `id, email, email_verified, phone, phone_verified, role, is_deleted,
	challenge_purpose, challenge_channel, challenge_code, challenge_expires_at, updated_at`

type identityRow interface {
	Scan(dest ...any) error
}

func scanIdentity(row identityRow) (*entity.Identity, error) {
	var (
		ident         entity.Identity
		email, phone  pgtype.Text
		emailVerified pgtype.Bool
		phoneVerified pgtype.Bool
		chalPurpose   pgtype.Int2
		chalChannel   pgtype.Int2
		chalCode      pgtype.Int4
		chalExpiresAt pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)

	if err := row.Scan(
		&ident.ID,
		&email, &emailVerified,
		&phone, &phoneVerified,
		&ident.Role, &ident.IsDeleted,
		&chalPurpose, &chalChannel, &chalCode, &chalExpiresAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	if email.Valid {
		ident.Email = &entity.Contact{Value: email.String, Verified: emailVerified.Bool}
	}
	if phone.Valid {
		ident.Phone = &entity.Contact{Value: phone.String, Verified: phoneVerified.Bool}
	}
	if chalCode.Valid {
		ident.Challenge = &entity.Challenge{
			Purpose:   entity.Purpose(chalPurpose.Int16),
			Channel:   entity.Channel(chalChannel.Int16),
			Code:      chalCode.Int32,
			ExpiresAt: chalExpiresAt.Time,
		}
	}
	ident.UpdatedAt = updatedAt.Time

	return &ident, nil
}
