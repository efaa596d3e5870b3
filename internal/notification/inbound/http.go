package inbound

import (
	"github.com/rizqirahman/goproof/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Inbox (need authenticated)
	r.GET("/api/v1/notifications", end.ListInbox)
}
