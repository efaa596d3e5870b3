package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rizqirahman/goproof/internal/identity/entity"
	"github.com/rizqirahman/goproof/internal/pkg/clock"
	"github.com/rizqirahman/goproof/internal/pkg/config"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
	"github.com/rizqirahman/goproof/internal/pkg/hash"
	"github.com/rizqirahman/goproof/internal/pkg/instrument"
	"github.com/rizqirahman/goproof/internal/pkg/jwt"
	"github.com/rizqirahman/goproof/internal/pkg/otp"
	"github.com/rizqirahman/goproof/internal/pkg/storage"
	"github.com/rizqirahman/goproof/internal/pkg/uid"
	"github.com/rizqirahman/goproof/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type PasswordChangedEvent struct {
	IdentityID int64
	Email      string
}

type PhoneNumberChangedEvent struct {
	IdentityID int64
	Email      string
	Phone      string
}

type repoMessaging interface {
	PublishPasswordChanged(ctx context.Context, msg PasswordChangedEvent) error
	PublishPhoneNumberChanged(ctx context.Context, msg PhoneNumberChangedEvent) error
}

type repoDB interface {
	GetIdentityByChannelValue(ctx context.Context, ch entity.Channel, value string) (*entity.Identity, error)
	GetIdentityByID(ctx context.Context, id int64) (*entity.Identity, error)
	GetIdentityList(ctx context.Context, afterID int64, limit int32) ([]entity.Identity, error)
	GetResetTokenByHash(ctx context.Context, tokenHash string) (*entity.ResetToken, error)

	CreateIdentity(ctx context.Context, ident entity.Identity) error
	CreateResetToken(ctx context.Context, token entity.ResetToken) error

	SetChallenge(ctx context.Context, id int64, chal entity.Challenge) error
	ClearChallengeIfPresent(ctx context.Context, id int64) (bool, error)
	ConsumeChallengeMarkEmailVerified(ctx context.Context, id int64) (bool, error)
	ConsumeChallengeMarkPhoneVerified(ctx context.Context, id int64) (bool, error)
	ConsumeChallengeSetPhone(ctx context.Context, id int64, phone string) (bool, error)

	ResetCredential(ctx context.Context, identityID, tokenID int64, newHash string) error
}

type repoCache interface {
	AcquireCooldown(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IncrementFailure(ctx context.Context, key string, window time.Duration) (int64, error)
}

type dispatcher interface {
	SendCode(ctx context.Context, ch entity.Channel, recipient string, purpose entity.Purpose, code string, ttl time.Duration) error
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	dispatcher    dispatcher
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	hmac          hash.Hash
	password      hash.Hash
	uid           uid.NumberID
	oid           uid.StringID
	otp           otp.Generator
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Dispatcher    dispatcher
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	HMAC          hash.Hash
	Password      hash.Hash
	UID           uid.NumberID
	OID           uid.StringID
	Otp           otp.Generator
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		dispatcher:    dep.Dispatcher,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		hmac:          dep.HMAC,
		password:      dep.Password,
		uid:           dep.UID,
		oid:           dep.OID,
		otp:           dep.Otp,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

// requireAdmin loads the authenticated caller and ensures it holds the admin
// role and is not soft-deleted.
func (s *Usecase) requireAdmin(ctx context.Context) (*entity.Identity, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	caller, err := s.repoDB.GetIdentityByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "authenticated identity no longer exists", "identity_id", clm.UserID)
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by id", "identity_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if caller.IsDeleted || caller.Role != entity.RoleAdmin {
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return caller, nil
}
