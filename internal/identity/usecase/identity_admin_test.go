package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
	"github.com/rizqirahman/goproof/internal/pkg/jwt"
)

func (f *fixture) adminContext(id int64) context.Context {
	f.db.put(entity.Identity{
		ID:    id,
		Email: &entity.Contact{Value: "admin@goproof.dev", Verified: true},
		Role:  entity.RoleAdmin,
	})

	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: id, UserEmail: "admin@goproof.dev"})
}

func TestIdentityDetailRequiresAuth(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.IdentityDetail(context.Background(), IdentityDetailInput{ID: 1})

	assertCode(t, err, goerror.CodeUnauthorized)
}

func TestIdentityDetailRequiresAdminRole(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(7, "member@b.co")
	ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 7})

	_, err := f.uc.IdentityDetail(ctx, IdentityDetailInput{ID: 1})

	assertCode(t, err, goerror.CodeForbidden)
}

func TestIdentityDetail(t *testing.T) {
	f := newFixture(t)
	ctx := f.adminContext(99)

	f.db.put(entity.Identity{
		ID:    1,
		Email: &entity.Contact{Value: "a@b.co", Verified: true},
		Phone: &entity.Contact{Value: "+6281234567890"},
		Role:  entity.RoleMember,
	})
	f.seedChallenge(1, entity.PurposePhoneVerify, entity.ChannelPhone, 482913)

	out, err := f.uc.IdentityDetail(ctx, IdentityDetailInput{ID: 1})
	if err != nil {
		t.Fatalf("detail failed: %v", err)
	}

	if out.Identity.ID != 1 || out.Identity.Email.Value != "a@b.co" {
		t.Errorf("unexpected identity: %+v", out.Identity)
	}
	if out.Identity.Challenge == nil || out.Identity.Challenge.Purpose != entity.PurposePhoneVerify {
		t.Errorf("expected pending challenge summary, got %+v", out.Identity.Challenge)
	}
}

func TestIdentityDetailNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := f.adminContext(99)

	_, err := f.uc.IdentityDetail(ctx, IdentityDetailInput{ID: 404})

	assertCode(t, err, goerror.CodeNotFound)
}

func TestIdentityDetailDeletedHiddenAsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := f.adminContext(99)

	f.db.put(entity.Identity{
		ID:        1,
		Email:     &entity.Contact{Value: "gone@b.co"},
		Role:      entity.RoleMember,
		IsDeleted: true,
	})

	_, err := f.uc.IdentityDetail(ctx, IdentityDetailInput{ID: 1})

	assertCode(t, err, goerror.CodeNotFound)
}

func TestIdentityExportRequiresAuth(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.IdentityExport(context.Background())

	assertCode(t, err, goerror.CodeUnauthorized)
}

func TestIdentityExport(t *testing.T) {
	f := newFixture(t)
	ctx := f.adminContext(99)

	f.db.put(entity.Identity{
		ID:    1,
		Email: &entity.Contact{Value: "a@b.co", Verified: true},
		Role:  entity.RoleMember,
	})
	f.db.put(entity.Identity{
		ID:    2,
		Phone: &entity.Contact{Value: "+6281234567890"},
		Role:  entity.RoleMember,
	})
	f.seedChallenge(2, entity.PurposePhoneVerify, entity.ChannelPhone, 482913)

	out, err := f.uc.IdentityExport(ctx)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	if out.URL == "" || !strings.Contains(out.URL, "test-exports") {
		t.Errorf("signed url = %q", out.URL)
	}
	if f.store.bucket != "test-exports" {
		t.Errorf("bucket = %q, want test-exports", f.store.bucket)
	}
	if !strings.HasPrefix(f.store.key, "exports/identities-") || !strings.HasSuffix(f.store.key, ".csv") {
		t.Errorf("object key = %q", f.store.key)
	}

	rows, err := csv.NewReader(bytes.NewReader(f.store.content)).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	// Header plus the two members and the admin seeded by adminContext.
	if len(rows) != 4 {
		t.Fatalf("exported %d rows, want 4", len(rows))
	}
	if rows[0][0] != "id" || rows[0][6] != "pending_challenge" {
		t.Errorf("unexpected header: %v", rows[0])
	}

	// The stored code must never appear in the export.
	if strings.Contains(string(f.store.content), "482913") {
		t.Error("exported csv leaks a challenge code")
	}
}
