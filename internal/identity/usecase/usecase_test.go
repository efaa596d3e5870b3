package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/config"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
	"github.com/rizqirahman/goproof/internal/pkg/instrument"
	"github.com/rizqirahman/goproof/internal/pkg/storage"
	"github.com/rizqirahman/goproof/internal/pkg/validator"
)

// memDB is an in-memory repoDB whose consume methods implement the same
// compare-and-swap contract as the SQL layer: the challenge is cleared and the
// side effect applied only when a challenge is still present, under one lock.
type memDB struct {
	mu     sync.Mutex
	idents map[int64]*entity.Identity
	tokens []entity.ResetToken
	creds  map[int64]string

	failSetChallenge error
}

func newMemDB() *memDB {
	return &memDB{
		idents: make(map[int64]*entity.Identity),
		creds:  make(map[int64]string),
	}
}

func (m *memDB) put(ident entity.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idents[ident.ID] = &ident
}

func (m *memDB) get(id int64) entity.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.idents[id]
}

func snapshot(ident *entity.Identity) *entity.Identity {
	cp := *ident
	if ident.Email != nil {
		e := *ident.Email
		cp.Email = &e
	}
	if ident.Phone != nil {
		p := *ident.Phone
		cp.Phone = &p
	}
	if ident.Challenge != nil {
		c := *ident.Challenge
		cp.Challenge = &c
	}
	return &cp
}

func (m *memDB) GetIdentityByChannelValue(_ context.Context, ch entity.Channel, value string) (*entity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ident := range m.idents {
		if c := ident.ContactFor(ch); c != nil && c.Value == value {
			return snapshot(ident), nil
		}
	}

	return nil, goerror.ErrNotFound
}

func (m *memDB) GetIdentityByID(_ context.Context, id int64) (*entity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ident, ok := m.idents[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return snapshot(ident), nil
}

func (m *memDB) GetIdentityList(_ context.Context, afterID int64, limit int32) ([]entity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entity.Identity
	for _, ident := range m.idents {
		if ident.ID > afterID {
			out = append(out, *snapshot(ident))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if int32(len(out)) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (m *memDB) GetResetTokenByHash(_ context.Context, tokenHash string) (*entity.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tok := range m.tokens {
		if tok.TokenHash == tokenHash {
			t := tok
			return &t, nil
		}
	}

	return nil, goerror.ErrNotFound
}

func (m *memDB) CreateIdentity(_ context.Context, ident entity.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.idents[ident.ID] = &ident
	return nil
}

func (m *memDB) CreateResetToken(_ context.Context, token entity.ResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens = append(m.tokens, token)
	return nil
}

func (m *memDB) SetChallenge(_ context.Context, id int64, chal entity.Challenge) error {
	if m.failSetChallenge != nil {
		return m.failSetChallenge
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ident, ok := m.idents[id]
	if !ok {
		return goerror.ErrNotFound
	}
	ident.Challenge = &chal

	return nil
}

func (m *memDB) consume(id int64, effect func(*entity.Identity)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ident, ok := m.idents[id]
	if !ok {
		return false, goerror.ErrNotFound
	}
	if ident.Challenge == nil {
		return false, nil
	}

	ident.Challenge = nil
	if effect != nil {
		effect(ident)
	}

	return true, nil
}

func (m *memDB) ClearChallengeIfPresent(_ context.Context, id int64) (bool, error) {
	return m.consume(id, nil)
}

func (m *memDB) ConsumeChallengeMarkEmailVerified(_ context.Context, id int64) (bool, error) {
	return m.consume(id, func(ident *entity.Identity) {
		ident.Email.Verified = true
	})
}

func (m *memDB) ConsumeChallengeMarkPhoneVerified(_ context.Context, id int64) (bool, error) {
	return m.consume(id, func(ident *entity.Identity) {
		ident.Phone.Verified = true
	})
}

func (m *memDB) ConsumeChallengeSetPhone(_ context.Context, id int64, phone string) (bool, error) {
	return m.consume(id, func(ident *entity.Identity) {
		ident.Phone = &entity.Contact{Value: phone, Verified: true}
	})
}

func (m *memDB) ResetCredential(_ context.Context, identityID, tokenID int64, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, tok := range m.tokens {
		if tok.ID == tokenID {
			m.tokens = append(m.tokens[:i], m.tokens[i+1:]...)
			m.creds[identityID] = newHash
			return nil
		}
	}

	return goerror.ErrNotFound
}

type memCache struct {
	mu           sync.Mutex
	cooldowns    map[string]bool
	failures     map[string]int64
	denyCooldown bool
	cooldownErr  error
}

func newMemCache() *memCache {
	return &memCache{cooldowns: make(map[string]bool), failures: make(map[string]int64)}
}

func (m *memCache) AcquireCooldown(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.cooldownErr != nil {
		return false, m.cooldownErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.denyCooldown || m.cooldowns[key] {
		return false, nil
	}
	m.cooldowns[key] = true

	return true, nil
}

func (m *memCache) IncrementFailure(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[key]++
	return m.failures[key], nil
}

type fakeMessaging struct {
	mu           sync.Mutex
	passwords    []PasswordChangedEvent
	phoneChanges []PhoneNumberChangedEvent
	err          error
}

func (f *fakeMessaging) PublishPasswordChanged(_ context.Context, msg PasswordChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.passwords = append(f.passwords, msg)
	return f.err
}

func (f *fakeMessaging) PublishPhoneNumberChanged(_ context.Context, msg PhoneNumberChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.phoneChanges = append(f.phoneChanges, msg)
	return f.err
}

type sentCode struct {
	channel   entity.Channel
	recipient string
	purpose   entity.Purpose
	code      string
	ttl       time.Duration
}

type fakeDispatcher struct {
	mu    sync.Mutex
	sends []sentCode
	err   error
}

func (f *fakeDispatcher) SendCode(_ context.Context, ch entity.Channel, recipient string, purpose entity.Purpose, code string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sends = append(f.sends, sentCode{channel: ch, recipient: recipient, purpose: purpose, code: code, ttl: ttl})
	return f.err
}

type stubConfig struct {
	config.Config
}

func (stubConfig) GetSecond(string) time.Duration { return time.Minute }

func (stubConfig) GetMinute(key string) time.Duration {
	switch key {
	case "modules.identity.otp_ttl_minutes":
		return 5 * time.Minute
	case "modules.identity.otp_reset_ttl_minutes":
		return 3 * time.Minute
	case "modules.identity.reset_token_ttl_minutes":
		return 15 * time.Minute
	case "modules.identity.otp_failure_window_minutes":
		return 15 * time.Minute
	case "modules.identity.export_url_ttl_minutes":
		return 30 * time.Minute
	default:
		return time.Minute
	}
}

func (stubConfig) GetString(key string) string {
	if key == "modules.identity.export_bucket" {
		return "test-exports"
	}
	return ""
}

type fakeStorage struct {
	storage.Storage
	mu      sync.Mutex
	bucket  string
	key     string
	content []byte
	putErr  error
}

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, r io.Reader, _ storage.PutOptions) (storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.putErr != nil {
		return storage.ObjectInfo{}, f.putErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.bucket, f.key, f.content = bucket, key, data

	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeStorage) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + bucket + "/" + key + "?signed=1", nil
}

type stubHash struct{ prefix string }

func (h stubHash) Hash(plaintext string) ([]byte, error) { return []byte(h.prefix + plaintext), nil }
func (h stubHash) Verify(hashed, plaintext string) bool  { return hashed == h.prefix+plaintext }

type seqUID struct {
	mu   sync.Mutex
	next int64
}

func (s *seqUID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	return s.next
}

type seqOID struct {
	mu   sync.Mutex
	next int
}

func (s *seqOID) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	return fmt.Sprintf("opaque-token-%d", s.next)
}

type stubOTP struct{ code int32 }

func (s stubOTP) Generate() (int32, error) { return s.code, nil }
func (s stubOTP) Format(code int32) string { return fmt.Sprintf("%06d", code) }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixture struct {
	uc    *Usecase
	db    *memDB
	cache *memCache
	mq    *fakeMessaging
	disp  *fakeDispatcher
	store *fakeStorage
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	f := &fixture{
		db:    newMemDB(),
		cache: newMemCache(),
		mq:    &fakeMessaging{},
		disp:  &fakeDispatcher{},
		store: &fakeStorage{},
		now:   time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
	}

	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoCache:     f.cache,
		RepoMessaging: f.mq,
		Dispatcher:    f.disp,
		Validator:     v10,
		Config:        stubConfig{},
		Storage:       f.store,
		HMAC:          stubHash{prefix: "hmac:"},
		Password:      stubHash{prefix: "pw:"},
		UID:           &seqUID{next: 100},
		OID:           &seqOID{},
		Otp:           stubOTP{code: 482913},
		Clock:         fixedClock{now: f.now},
		Instrument:    instrument.NewNoop(),
	})

	return f
}

// seedIdentity stores an identity with a verified email contact and returns it.
func (f *fixture) seedIdentity(id int64, email string) entity.Identity {
	ident := entity.Identity{
		ID:    id,
		Email: &entity.Contact{Value: email, Verified: true},
		Role:  entity.RoleMember,
	}
	f.db.put(ident)

	return ident
}

func (f *fixture) seedChallenge(id int64, purpose entity.Purpose, channel entity.Channel, code int32) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	f.db.idents[id].Challenge = &entity.Challenge{
		Purpose:   purpose,
		Channel:   channel,
		Code:      code,
		ExpiresAt: f.now.Add(5 * time.Minute),
	}
}

func codeString(code int32) string {
	return strconv.FormatInt(int64(code), 10)
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %v, got nil", want)
	}

	var gErr *goerror.Error
	if !errors.As(err, &gErr) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	if gErr.Code() != want {
		t.Fatalf("error code = %v (%s), want %v", gErr.Code(), gErr.Msg(), want)
	}
}
