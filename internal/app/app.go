package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rizqirahman/goproof/internal/pkg/clock"
	"github.com/rizqirahman/goproof/internal/pkg/config"
	"github.com/rizqirahman/goproof/internal/pkg/goroutine"
	"github.com/rizqirahman/goproof/internal/pkg/hash"
	"github.com/rizqirahman/goproof/internal/pkg/idempotency"
	"github.com/rizqirahman/goproof/internal/pkg/instrument"
	"github.com/rizqirahman/goproof/internal/pkg/jwt"
	"github.com/rizqirahman/goproof/internal/pkg/mail"
	"github.com/rizqirahman/goproof/internal/pkg/messaging"
	"github.com/rizqirahman/goproof/internal/pkg/otp"
	"github.com/rizqirahman/goproof/internal/pkg/router"
	"github.com/rizqirahman/goproof/internal/pkg/sms"
	"github.com/rizqirahman/goproof/internal/pkg/storage"
	"github.com/rizqirahman/goproof/internal/pkg/uid"
	"github.com/rizqirahman/goproof/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	password  hash.Hash
	uid       uid.NumberID
	oid       uid.StringID
	uuid      uid.StringID
	otp       otp.Generator
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	sms       sms.SMS
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initSMS()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
