package identity

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rizqirahman/goproof/internal/identity/inbound"
	"github.com/rizqirahman/goproof/internal/identity/outbound/cache"
	"github.com/rizqirahman/goproof/internal/identity/outbound/db"
	"github.com/rizqirahman/goproof/internal/identity/outbound/mq"
	"github.com/rizqirahman/goproof/internal/identity/outbound/notify"
	"github.com/rizqirahman/goproof/internal/identity/usecase"
	"github.com/rizqirahman/goproof/internal/pkg/clock"
	"github.com/rizqirahman/goproof/internal/pkg/config"
	"github.com/rizqirahman/goproof/internal/pkg/hash"
	"github.com/rizqirahman/goproof/internal/pkg/instrument"
	"github.com/rizqirahman/goproof/internal/pkg/mail"
	"github.com/rizqirahman/goproof/internal/pkg/messaging"
	"github.com/rizqirahman/goproof/internal/pkg/otp"
	"github.com/rizqirahman/goproof/internal/pkg/router"
	"github.com/rizqirahman/goproof/internal/pkg/sms"
	"github.com/rizqirahman/goproof/internal/pkg/storage"
	"github.com/rizqirahman/goproof/internal/pkg/uid"
	"github.com/rizqirahman/goproof/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	SMS        sms.SMS                    `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	OID        uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Password   hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Otp        otp.Generator              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbIdentity := db.NewDB(dep.DBConn, dep.Instrument)
	repoCache := cache.NewCache(dep.CacheConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	dispatcher := notify.NewDispatcher(dep.Mail, dep.SMS, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbIdentity,
		RepoCache:     repoCache,
		RepoMessaging: repoMsg,
		Dispatcher:    dispatcher,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Storage:       dep.Storage,
		HMAC:          dep.HMAC,
		Password:      dep.Password,
		UID:           dep.UID,
		OID:           dep.OID,
		Otp:           dep.Otp,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
