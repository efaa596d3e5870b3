package inbound

import (
	"github.com/rizqirahman/goproof/internal/notification/entity"
	"github.com/rizqirahman/goproof/internal/notification/usecase"
	"github.com/rizqirahman/goproof/internal/pkg/router"
	"github.com/samber/lo"
)

// HTTPEndpoint exposes HTTP handlers for the notification inbox.
type HTTPEndpoint struct {
	uc uc
}

// ListInbox returns the caller's notifications.
// @Summary List notifications
// @Description Returns the authenticated user's notifications, newest first, with an unread count in the meta.
// @Tags Notification
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter: all, unread or read" default(all)
// @Param limit query int false "Page size (max 100)" default(20)
// @Param offset query int false "Offset"
// @Success 200 {object} router.successResponse{data=NotificationsResponse} "Notification list"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notifications [get]
func (h *HTTPEndpoint) ListInbox(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}

	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ListInbox(r.Context(), usecase.ListInboxInput{
		Status: r.GetQuery("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	return NotificationsResponse{
		Notifications: lo.Map(resp.Items, func(item entity.NotificationItem, _ int) NotificationResponse {
			return toNotificationResponse(item)
		}),
		unread: resp.Unread,
	}, nil
}
