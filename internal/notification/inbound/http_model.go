package inbound

import (
	"time"

	"github.com/rizqirahman/goproof/internal/notification/entity"
)

type NotificationResponse struct {
	ID         int64          `json:"id,string"`
	TriggerKey string         `json:"trigger_key"`
	Data       map[string]any `json:"data"`
	Metadata   map[string]any `json:"metadata"`
	ReadAt     *time.Time     `json:"read_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	// meta
	unread int64
}

func (r NotificationsResponse) Meta() map[string]any {
	return map[string]any{
		"unread": r.unread,
	}
}

func toNotificationResponse(item entity.NotificationItem) NotificationResponse {
	return NotificationResponse{
		ID:         item.ID,
		TriggerKey: item.TriggerKey.String(),
		Data:       item.Data,
		Metadata:   item.Metadata,
		ReadAt:     item.ReadAt,
		CreatedAt:  item.CreatedAt,
	}
}
