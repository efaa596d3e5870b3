package entity

import (
	"errors"
	"testing"
	"time"
)

func TestChallengeValidate(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	challenge := Challenge{
		Purpose:   PurposeEmailVerify,
		Channel:   ChannelEmail,
		Code:      482913,
		ExpiresAt: now.Add(5 * time.Minute),
	}

	tests := []struct {
		name    string
		purpose Purpose
		channel Channel
		code    int32
		now     time.Time
		wantErr error
	}{
		{
			name:    "valid attempt consumes",
			purpose: PurposeEmailVerify,
			channel: ChannelEmail,
			code:    482913,
			now:     now,
			wantErr: nil,
		},
		{
			name:    "purpose mismatch checked first",
			purpose: PurposePasswordReset,
			channel: ChannelPhone,
			code:    0,
			now:     now.Add(time.Hour),
			wantErr: ErrPurposeMismatch,
		},
		{
			name:    "channel mismatch checked before code",
			purpose: PurposeEmailVerify,
			channel: ChannelPhone,
			code:    0,
			now:     now.Add(time.Hour),
			wantErr: ErrChannelMismatch,
		},
		{
			name:    "wrong code on expired challenge reports invalid code",
			purpose: PurposeEmailVerify,
			channel: ChannelEmail,
			code:    111111,
			now:     now.Add(time.Hour),
			wantErr: ErrInvalidCode,
		},
		{
			name:    "right code past deadline reports expired",
			purpose: PurposeEmailVerify,
			channel: ChannelEmail,
			code:    482913,
			now:     now.Add(time.Hour),
			wantErr: ErrCodeExpired,
		},
		{
			name:    "right code at the deadline still valid",
			purpose: PurposeEmailVerify,
			channel: ChannelEmail,
			code:    482913,
			now:     challenge.ExpiresAt,
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := challenge.Validate(tt.purpose, tt.channel, tt.code, tt.now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPurposeAllowsChannel(t *testing.T) {
	tests := []struct {
		purpose Purpose
		channel Channel
		want    bool
	}{
		{PurposeEmailVerify, ChannelEmail, true},
		{PurposeEmailVerify, ChannelPhone, false},
		{PurposePhoneVerify, ChannelPhone, true},
		{PurposePhoneVerify, ChannelEmail, false},
		{PurposeNumberChange, ChannelPhone, true},
		{PurposeNumberChange, ChannelEmail, false},
		{PurposePasswordReset, ChannelEmail, true},
		{PurposePasswordReset, ChannelPhone, true},
		{PurposeUnknown, ChannelEmail, false},
	}

	for _, tt := range tests {
		t.Run(tt.purpose.String()+"_"+tt.channel.String(), func(t *testing.T) {
			if got := tt.purpose.AllowsChannel(tt.channel); got != tt.want {
				t.Errorf("AllowsChannel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePurpose(t *testing.T) {
	tests := []struct {
		in   string
		want Purpose
	}{
		{"email_verify", PurposeEmailVerify},
		{"phone_verify", PurposePhoneVerify},
		{"password_reset", PurposePasswordReset},
		{"number_change", PurposeNumberChange},
		{"EMAIL_VERIFY", PurposeUnknown},
		{"", PurposeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParsePurpose(tt.in); got != tt.want {
				t.Errorf("ParsePurpose(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in   string
		want Channel
	}{
		{"email", ChannelEmail},
		{"phone", ChannelPhone},
		{"sms", ChannelPhone},
		{"carrier_pigeon", ChannelUnknown},
		{"", ChannelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseChannel(tt.in); got != tt.want {
				t.Errorf("ParseChannel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIdentityContactFor(t *testing.T) {
	ident := Identity{
		ID:    1,
		Email: &Contact{Value: "a@b.co", Verified: true},
	}

	if got := ident.ContactFor(ChannelEmail); got == nil || got.Value != "a@b.co" {
		t.Errorf("ContactFor(email) = %v, want a@b.co", got)
	}
	if got := ident.ContactFor(ChannelPhone); got != nil {
		t.Errorf("ContactFor(phone) = %v, want nil", got)
	}
	if got := ident.ContactFor(ChannelUnknown); got != nil {
		t.Errorf("ContactFor(unknown) = %v, want nil", got)
	}
}
