package inbound

import (
	"context"

	"github.com/rizqirahman/goproof/internal/identity/usecase"
	"github.com/rizqirahman/goproof/internal/pkg/router"
)

type uc interface {
	OtpIssue(ctx context.Context, in usecase.OtpIssueInput) (*usecase.OtpIssueOutput, error)
	OtpVerify(ctx context.Context, in usecase.OtpVerifyInput) (*usecase.OtpVerifyOutput, error)

	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error

	IdentityDetail(ctx context.Context, in usecase.IdentityDetailInput) (*usecase.IdentityDetailOutput, error)
	IdentityExport(ctx context.Context) (*usecase.IdentityExportOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// OTP Challenges
	r.POST("/api/v1/identity/otp/issue", end.OtpIssue)
	r.POST("/api/v1/identity/otp/verify", end.OtpVerify)

	// Password Management
	r.POST("/api/v1/identity/password/reset", end.PasswordReset)

	// Identity Directory (need authenticated & admin role)
	r.GET("/api/v1/identity/identities/:id", end.IdentityDetail)
	r.GET("/api/v1/identity/identities-export", end.IdentityExport)
}
