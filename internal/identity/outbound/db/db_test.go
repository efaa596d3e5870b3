package db

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
	"github.com/rizqirahman/goproof/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		// These tests need Docker; run without -short to include them.
		os.Exit(0)
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("goproof"),
		postgres.WithUsername("goproof"),
		postgres.WithPassword("goproof"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("failed to start container: %s", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("failed to open pool: %v", err)
	}

	migration, err := os.ReadFile("../../../../migrations/000001_identity.up.sql")
	if err != nil {
		log.Fatalf("failed to read migration: %v", err)
	}
	if _, err := testPool.Exec(ctx, string(migration)); err != nil {
		log.Fatalf("failed to apply migration: %v", err)
	}

	code := m.Run()

	testPool.Close()
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}

	os.Exit(code)
}

func newTestDB(t *testing.T) *DB {
	t.Helper()

	t.Cleanup(func() {
		_, err := testPool.Exec(context.Background(),
			`TRUNCATE TABLE identity_reset_tokens, identity_credentials, identities CASCADE`)
		if err != nil {
			t.Fatalf("truncate: %v", err)
		}
	})

	return NewDB(testPool, instrument.NewNoop())
}

func seedIdentity(t *testing.T, repo *DB, ident entity.Identity) {
	t.Helper()

	if err := repo.CreateIdentity(context.Background(), ident); err != nil {
		t.Fatalf("seed identity: %v", err)
	}
}

func TestChallengeRoundTrip(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()
	seedIdentity(t, repo, entity.Identity{ID: 1, Email: &entity.Contact{Value: "a@b.co"}, Role: entity.RoleMember})

	expires := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Microsecond)
	err := repo.SetChallenge(ctx, 1, entity.Challenge{
		Purpose:   entity.PurposeEmailVerify,
		Channel:   entity.ChannelEmail,
		Code:      482913,
		ExpiresAt: expires,
	})
	if err != nil {
		t.Fatalf("set challenge: %v", err)
	}

	ident, err := repo.GetIdentityByChannelValue(ctx, entity.ChannelEmail, "a@b.co")
	if err != nil {
		t.Fatalf("get identity: %v", err)
	}
	if ident.Challenge == nil {
		t.Fatal("expected a stored challenge")
	}
	if ident.Challenge.Code != 482913 || ident.Challenge.Purpose != entity.PurposeEmailVerify {
		t.Errorf("challenge = %+v", ident.Challenge)
	}
	if !ident.Challenge.ExpiresAt.Equal(expires) {
		t.Errorf("expiry = %v, want %v", ident.Challenge.ExpiresAt, expires)
	}
}

func TestSetChallengeLastWriterWins(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()
	seedIdentity(t, repo, entity.Identity{ID: 1, Email: &entity.Contact{Value: "a@b.co"}, Role: entity.RoleMember})

	first := entity.Challenge{Purpose: entity.PurposePasswordReset, Channel: entity.ChannelEmail, Code: 111111, ExpiresAt: time.Now().Add(time.Minute)}
	second := entity.Challenge{Purpose: entity.PurposeEmailVerify, Channel: entity.ChannelEmail, Code: 222222, ExpiresAt: time.Now().Add(time.Minute)}
	if err := repo.SetChallenge(ctx, 1, first); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := repo.SetChallenge(ctx, 1, second); err != nil {
		t.Fatalf("second set: %v", err)
	}

	ident, err := repo.GetIdentityByID(ctx, 1)
	if err != nil {
		t.Fatalf("get identity: %v", err)
	}
	if ident.Challenge == nil || ident.Challenge.Code != 222222 {
		t.Errorf("challenge = %+v, want the later write", ident.Challenge)
	}
}

// The consume statements are single guarded UPDATEs; under concurrency exactly
// one caller may observe rows_affected = 1.
func TestConsumeChallengeExactlyOnce(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()
	seedIdentity(t, repo, entity.Identity{ID: 1, Email: &entity.Contact{Value: "a@b.co"}, Role: entity.RoleMember})
	if err := repo.SetChallenge(ctx, 1, entity.Challenge{
		Purpose: entity.PurposeEmailVerify, Channel: entity.ChannelEmail,
		Code: 482913, ExpiresAt: time.Now().Add(time.Minute),
	}); err != nil {
		t.Fatalf("set challenge: %v", err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	wins := make([]bool, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ConsumeChallengeMarkEmailVerified(ctx, 1)
			if err != nil {
				t.Errorf("consume: %v", err)
				return
			}
			wins[i] = ok
		}()
	}
	wg.Wait()

	var total int
	for _, ok := range wins {
		if ok {
			total++
		}
	}
	if total != 1 {
		t.Fatalf("%d consumers won, want exactly 1", total)
	}

	ident, err := repo.GetIdentityByID(ctx, 1)
	if err != nil {
		t.Fatalf("get identity: %v", err)
	}
	if ident.Challenge != nil {
		t.Error("challenge still present after consumption")
	}
	if !ident.Email.Verified {
		t.Error("email not marked verified")
	}
}

func TestConsumeChallengeSetPhone(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()
	seedIdentity(t, repo, entity.Identity{ID: 1, Phone: &entity.Contact{Value: "+6281111111111"}, Role: entity.RoleMember})
	if err := repo.SetChallenge(ctx, 1, entity.Challenge{
		Purpose: entity.PurposeNumberChange, Channel: entity.ChannelPhone,
		Code: 482913, ExpiresAt: time.Now().Add(time.Minute),
	}); err != nil {
		t.Fatalf("set challenge: %v", err)
	}

	ok, err := repo.ConsumeChallengeSetPhone(ctx, 1, "+6289999999999")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !ok {
		t.Fatal("expected consumption to win")
	}

	ident, err := repo.GetIdentityByID(ctx, 1)
	if err != nil {
		t.Fatalf("get identity: %v", err)
	}
	if ident.Phone == nil || ident.Phone.Value != "+6289999999999" || !ident.Phone.Verified {
		t.Errorf("phone = %+v, want new number verified", ident.Phone)
	}
}

func TestCreateIdentityDuplicateContact(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()
	seedIdentity(t, repo, entity.Identity{ID: 1, Email: &entity.Contact{Value: "a@b.co"}, Role: entity.RoleMember})

	err := repo.CreateIdentity(ctx, entity.Identity{ID: 2, Email: &entity.Contact{Value: "a@b.co"}, Role: entity.RoleMember})

	if !errors.Is(err, goerror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestResetCredentialConsumesToken(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()
	seedIdentity(t, repo, entity.Identity{ID: 1, Email: &entity.Contact{Value: "a@b.co"}, Role: entity.RoleMember})

	token := entity.ResetToken{ID: 10, IdentityID: 1, TokenHash: "hash-1", ExpiresAt: time.Now().Add(15 * time.Minute)}
	if err := repo.CreateResetToken(ctx, token); err != nil {
		t.Fatalf("create token: %v", err)
	}

	if err := repo.ResetCredential(ctx, 1, 10, "new-hash"); err != nil {
		t.Fatalf("reset credential: %v", err)
	}

	// Replay with the same token must fail without touching the credential.
	err := repo.ResetCredential(ctx, 1, 10, "other-hash")
	if !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("replay error = %v, want ErrNotFound", err)
	}

	var stored string
	if err := testPool.QueryRow(ctx, `SELECT password FROM identity_credentials WHERE identity_id = 1`).Scan(&stored); err != nil {
		t.Fatalf("read credential: %v", err)
	}
	if stored != "new-hash" {
		t.Errorf("credential = %q, want the first write", stored)
	}
}

func TestGetResetTokenByHashNotFound(t *testing.T) {
	repo := newTestDB(t)

	_, err := repo.GetResetTokenByHash(context.Background(), "missing")

	if !errors.Is(err, goerror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetIdentityListKeyset(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		seedIdentity(t, repo, entity.Identity{
			ID:    i,
			Email: &entity.Contact{Value: "user" + string(rune('a'+i)) + "@b.co"},
			Role:  entity.RoleMember,
		})
	}

	page1, err := repo.GetIdentityList(ctx, 0, 3)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1) != 3 || page1[0].ID != 1 || page1[2].ID != 3 {
		t.Fatalf("page 1 ids unexpected: %+v", page1)
	}

	page2, err := repo.GetIdentityList(ctx, page1[2].ID, 3)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page2) != 2 || page2[0].ID != 4 || page2[1].ID != 5 {
		t.Fatalf("page 2 ids unexpected: %+v", page2)
	}
}
