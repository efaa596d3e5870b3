package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
)

// ResetCredential writes the new password hash and deletes the consumed reset
// token in one transaction. A token that was already consumed (deleted) aborts
// with goerror.ErrNotFound so the credential update never lands twice.
func (s *DB) ResetCredential(ctx context.Context, identityID, tokenID int64, newHash string) (err error) {
	ctx, span := s.startSpan(ctx, "ResetCredential")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx,
		`DELETE FROM identity_reset_tokens WHERE id = $1 AND identity_id = $2`,
		tokenID, identityID,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO identity_credentials (identity_id, password, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (identity_id) DO UPDATE SET password = EXCLUDED.password, updated_at = now()`,
		identityID, newHash,
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
