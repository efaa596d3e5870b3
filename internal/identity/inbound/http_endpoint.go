package inbound

import (
	"github.com/rizqirahman/goproof/internal/identity/usecase"
	"github.com/rizqirahman/goproof/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for OTP challenge and identity workflows.
type HTTPEndpoint struct {
	uc uc
}

// OtpIssue requests a one-time verification code.
// @Summary Issue verification code
// @Description Generates a one-time code for the given purpose and delivers it over the requested channel.
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body OtpIssueRequest true "Issue payload"
// @Success 200 {object} router.successResponse{data=OtpIssueResponse} "Issue result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Resend cooldown active"
// @Failure 503 {object} router.errorResponse "Code issued, delivery failed"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/otp/issue [post]
func (h *HTTPEndpoint) OtpIssue(r *router.Request) (any, error) {
	var req OtpIssueRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OtpIssue(r.Context(), usecase.OtpIssueInput{
		Identifier: req.Identifier,
		Channel:    req.Channel,
		Purpose:    req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return OtpIssueResponse{
		IdentityID: resp.IdentityID,
		Identifier: resp.Identifier,
	}, nil
}

// OtpVerify checks a one-time code and applies the purpose's outcome.
// @Summary Verify code
// @Description Verifies the pending code; on success marks the contact verified, changes the phone number, or mints a password reset token depending on the purpose.
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body OtpVerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=OtpVerifyResponse} "Verify result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Incorrect or expired code"
// @Failure 404 {object} router.errorResponse "Identity not found"
// @Failure 409 {object} router.errorResponse "No pending code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/otp/verify [post]
func (h *HTTPEndpoint) OtpVerify(r *router.Request) (any, error) {
	var req OtpVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OtpVerify(r.Context(), usecase.OtpVerifyInput{
		Identifier: req.Identifier,
		Channel:    req.Channel,
		Purpose:    req.Purpose,
		Code:       req.Code,
	})
	if err != nil {
		return nil, err
	}

	return OtpVerifyResponse{
		IdentityID: resp.IdentityID,
		ResetToken: resp.ResetToken,
	}, nil
}

// PasswordReset sets a new password using a reset token.
// @Summary Reset password
// @Description Consumes the one-shot reset token minted by a successful password_reset verification and stores the new password.
// @Tags Identity, Password
// @Accept json
// @Produce json
// @Param request body PasswordResetRequest true "Password reset payload"
// @Success 200 {object} router.successResponse{data=PasswordResetResponse} "Reset result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid or expired reset token"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/password/reset [post]
func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req PasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{
		ResetToken:  req.ResetToken,
		NewPassword: req.NewPassword,
	}); err != nil {
		return nil, err
	}

	return &PasswordResetResponse{}, nil
}

// @Summary Get identity detail
// @Description Returns one identity with contacts, verified flags and a pending challenge summary.
// @Tags Identity, Management
// @Security BearerAuth
// @Produce json
// @Param id path int true "Identity ID"
// @Success 200 {object} router.successResponse{data=IdentityDetailResponse} "Identity detail"
// @Failure 400 {object} router.errorResponse "Invalid path parameter"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 404 {object} router.errorResponse "Identity not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/identities/{id} [get]
func (h *HTTPEndpoint) IdentityDetail(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.IdentityDetail(r.Context(), usecase.IdentityDetailInput{ID: id})
	if err != nil {
		return nil, err
	}

	return IdentityDetailResponse{Identity: toIdentityResponse(resp.Identity)}, nil
}

// @Summary Export identities
// @Description Writes all identities to a CSV object and returns a signed download URL.
// @Tags Identity, Management
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=IdentityExportResponse} "Export result"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/identity/identities-export [get]
func (h *HTTPEndpoint) IdentityExport(r *router.Request) (any, error) {
	resp, err := h.uc.IdentityExport(r.Context())
	if err != nil {
		return nil, err
	}

	return IdentityExportResponse{URL: resp.URL}, nil
}
