package inbound

import (
	"time"

	"github.com/rizqirahman/goproof/internal/identity/entity"
)

type OtpIssueRequest struct {
	Identifier string `json:"identifier"`
	Channel    string `json:"channel"`
	Purpose    string `json:"purpose"`
}

type OtpIssueResponse struct {
	IdentityID int64  `json:"identity_id,string"`
	Identifier string `json:"identifier"`
}

func (OtpIssueResponse) Message() string {
	return "A verification code has been sent. It expires shortly."
}

type OtpVerifyRequest struct {
	Identifier string `json:"identifier"`
	Channel    string `json:"channel"`
	Purpose    string `json:"purpose"`
	Code       string `json:"code"`
}

type OtpVerifyResponse struct {
	IdentityID int64  `json:"identity_id,string"`
	ResetToken string `json:"reset_token,omitempty"`
}

func (OtpVerifyResponse) Message() string {
	return "Verification successful."
}

type PasswordResetRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

type PasswordResetResponse struct{}

func (PasswordResetResponse) Message() string {
	return "Your password has been reset."
}

type ContactResponse struct {
	Value    string `json:"value"`
	Verified bool   `json:"verified"`
}

type IdentityResponse struct {
	ID               int64            `json:"id,string"`
	Email            *ContactResponse `json:"email,omitempty"`
	Phone            *ContactResponse `json:"phone,omitempty"`
	Role             string           `json:"role"`
	PendingChallenge string           `json:"pending_challenge,omitempty"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type IdentityDetailResponse struct {
	Identity IdentityResponse `json:"identity"`
}

type IdentityExportResponse struct {
	URL string `json:"url"`
}

func toIdentityResponse(ident entity.Identity) IdentityResponse {
	resp := IdentityResponse{
		ID:        ident.ID,
		Role:      ident.Role.String(),
		UpdatedAt: ident.UpdatedAt,
	}
	if ident.Email != nil {
		resp.Email = &ContactResponse{Value: ident.Email.Value, Verified: ident.Email.Verified}
	}
	if ident.Phone != nil {
		resp.Phone = &ContactResponse{Value: ident.Phone.Value, Verified: ident.Phone.Verified}
	}
	if ident.Challenge != nil {
		// Summary only; the code itself never leaves the store.
		resp.PendingChallenge = ident.Challenge.Purpose.String()
	}

	return resp
}
