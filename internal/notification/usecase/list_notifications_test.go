package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rizqirahman/goproof/internal/notification/entity"
	"github.com/rizqirahman/goproof/internal/pkg/goerror"
	"github.com/rizqirahman/goproof/internal/pkg/jwt"
)

func TestListInboxRequiresAuth(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.ListInbox(context.Background(), ListInboxInput{})

	var gErr *goerror.Error
	if !errors.As(err, &gErr) || gErr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("error = %v, want unauthorized", err)
	}
}

func TestListInboxDefaults(t *testing.T) {
	f := newFixture(t)
	f.db.items = []entity.NotificationItem{
		{ID: 1, TriggerKey: entity.TriggerKeyPasswordChanged, CreatedAt: time.Now()},
	}
	f.db.unread = 3
	ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 42})

	out, err := f.uc.ListInbox(ctx, ListInboxInput{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(out.Items) != 1 || out.Unread != 3 {
		t.Errorf("output = %+v", out)
	}
	if f.db.listedStatus != entity.NotificationStatusAll {
		t.Errorf("status = %v, want default all", f.db.listedStatus)
	}
	if f.db.listedLimit != 20 || f.db.listedOffset != 0 {
		t.Errorf("limit/offset = %d/%d, want 20/0", f.db.listedLimit, f.db.listedOffset)
	}
}

func TestListInboxValidation(t *testing.T) {
	tests := []struct {
		name string
		in   ListInboxInput
	}{
		{name: "unknown status", in: ListInboxInput{Status: "archived"}},
		{name: "limit too large", in: ListInboxInput{Limit: 1000}},
		{name: "negative offset", in: ListInboxInput{Offset: -1}},
	}

	ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 42})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.uc.ListInbox(ctx, tt.in)

			var gErr *goerror.Error
			if !errors.As(err, &gErr) || gErr.Code() != goerror.CodeInvalidInput {
				t.Fatalf("error = %v, want invalid input", err)
			}
		})
	}
}

func TestListInboxUnreadFilter(t *testing.T) {
	f := newFixture(t)
	ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 42})

	_, err := f.uc.ListInbox(ctx, ListInboxInput{Status: "unread", Limit: 5, Offset: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if f.db.listedStatus != entity.NotificationStatusUnread {
		t.Errorf("status = %v, want unread", f.db.listedStatus)
	}
	if f.db.listedLimit != 5 || f.db.listedOffset != 10 {
		t.Errorf("limit/offset = %d/%d, want 5/10", f.db.listedLimit, f.db.listedOffset)
	}
}
