package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
	"github.com/rizqirahman/goproof/internal/pkg/storage"
	"github.com/samber/lo"
)

const identityExportPageSize int32 = 1_000

type IdentityExportOutput struct {
	URL string
}

// IdentityExport writes every identity to a CSV object and returns a signed
// download URL. Challenge codes are never part of the export.
func (s *Usecase) IdentityExport(ctx context.Context) (*IdentityExportOutput, error) {
	ctx, span := s.startSpan(ctx, "IdentityExport")
	defer span.End()

	caller, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "email", "email_verified", "phone", "phone_verified", "role", "pending_challenge"}); err != nil {
		return nil, goerror.NewServer(err)
	}

	var afterID int64
	for {
		identities, err := s.repoDB.GetIdentityList(ctx, afterID, identityExportPageSize)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo get identity list", "after_id", afterID, "error", err)
			return nil, goerror.NewServer(err)
		}
		if len(identities) == 0 {
			break
		}

		rows := lo.Map(identities, func(ident entity.Identity, _ int) []string {
			return exportRow(ident)
		})
		if err := w.WriteAll(rows); err != nil {
			return nil, goerror.NewServer(err)
		}

		afterID = identities[len(identities)-1].ID
		if int32(len(identities)) < identityExportPageSize {
			break
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, goerror.NewServer(err)
	}

	bucket := s.cfg.GetString("modules.identity.export_bucket")
	key := fmt.Sprintf("exports/identities-%d.csv", s.clock.Now().Unix())

	if _, err := s.storage.PutObject(ctx, bucket, key, &buf, storage.PutOptions{
		Size:        int64(buf.Len()),
		ContentType: "text/csv",
	}); err != nil {
		slog.ErrorContext(ctx, "failed to put export object", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	url, err := s.storage.PresignGet(ctx, bucket, key, s.cfg.GetMinute("modules.identity.export_url_ttl_minutes"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign export object", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "identity export generated", "admin_id", caller.ID, "key", key)

	return &IdentityExportOutput{URL: url}, nil
}

func exportRow(ident entity.Identity) []string {
	email, emailVerified := "", false
	if ident.Email != nil {
		email, emailVerified = ident.Email.Value, ident.Email.Verified
	}

	phone, phoneVerified := "", false
	if ident.Phone != nil {
		phone, phoneVerified = ident.Phone.Value, ident.Phone.Verified
	}

	pending := ""
	if ident.Challenge != nil {
		pending = ident.Challenge.Purpose.String()
	}

	return []string{
		strconv.FormatInt(ident.ID, 10),
		email,
		strconv.FormatBool(emailVerified),
		phone,
		strconv.FormatBool(phoneVerified),
		ident.Role.String(),
		pending,
	}
}
