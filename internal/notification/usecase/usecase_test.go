package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rizqirahman/goproof/internal/notification/entity"
	"github.com/rizqirahman/goproof/internal/pkg/config"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
	"github.com/rizqirahman/goproof/internal/pkg/instrument"
	"github.com/rizqirahman/goproof/internal/pkg/mail"
	"github.com/rizqirahman/goproof/internal/pkg/validator"
)

type memNotifDB struct {
	mu            sync.Mutex
	templates     map[string]entity.Template
	notifications []entity.CreateNotification
	logs          []entity.CreateDeliveryLog
	logUpdates    []entity.UpdateDeliveryLog
	items         []entity.NotificationItem
	unread        int64
	nextLogID     int64

	listedStatus entity.NotificationStatus
	listedLimit  int32
	listedOffset int32
}

func newMemNotifDB() *memNotifDB {
	return &memNotifDB{templates: make(map[string]entity.Template)}
}

func (m *memNotifDB) seedTemplate(tpl entity.Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tpl.TriggerKey.String()+"/"+tpl.Channel.String()] = tpl
}

func (m *memNotifDB) GetTemplateByTriggerChannel(_ context.Context, tk entity.TriggerKey, ch entity.Channel) (*entity.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tpl, ok := m.templates[tk.String()+"/"+ch.String()]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &tpl, nil
}

func (m *memNotifDB) CreateNotification(_ context.Context, data entity.CreateNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifications = append(m.notifications, data)
	return nil
}

func (m *memNotifDB) CreateNotificationWithDeliveryLog(_ context.Context, n entity.CreateNotification, dl entity.CreateDeliveryLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifications = append(m.notifications, n)
	m.logs = append(m.logs, dl)
	m.nextLogID++

	return m.nextLogID, nil
}

func (m *memNotifDB) UpdateDeliveryLogStatus(_ context.Context, u entity.UpdateDeliveryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logUpdates = append(m.logUpdates, u)
	return nil
}

func (m *memNotifDB) ListNotifications(_ context.Context, _ int64, status entity.NotificationStatus, limit, offset int32) ([]entity.NotificationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listedStatus, m.listedLimit, m.listedOffset = status, limit, offset
	return m.items, nil
}

func (m *memNotifDB) CountUnreadNotifications(_ context.Context, _ int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.unread, nil
}

type fakeMail struct {
	mu       sync.Mutex
	sent     []mail.Message
	failNext int
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, msg)
	if f.failNext > 0 {
		f.failNext--
		return context.DeadlineExceeded
	}

	return nil
}

type stubConfig struct {
	config.Config
}

func (stubConfig) GetString(key string) string {
	switch key {
	case "app.name":
		return "GoProof"
	case "modules.notification.support_email":
		return "support@goproof.dev"
	default:
		return ""
	}
}

func (stubConfig) GetMinute(string) time.Duration { return 2 * time.Minute }

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

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixture struct {
	uc   *Usecase
	db   *memNotifDB
	mail *fakeMail
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	f := &fixture{
		db:   newMemNotifDB(),
		mail: &fakeMail{},
		now:  time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
	}

	f.uc = NewNotification(Dependency{
		RepoDB:     f.db,
		Config:     stubConfig{},
		UID:        &seqUID{},
		Clock:      fixedClock{now: f.now},
		Validator:  v10,
		RepoMail:   f.mail,
		Instrument: instrument.NewNoop(),
	})

	return f
}

func (f *fixture) seedEmailTemplate(tk entity.TriggerKey, subject, body string) {
	f.db.seedTemplate(entity.Template{
		ID:         1,
		TriggerKey: tk,
		Channel:    entity.ChannelEmail,
		Subject:    subject,
		Body:       body,
	})
}
