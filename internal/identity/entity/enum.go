package entity

import "errors"

var (
	// ErrIdentityNotFound indicates no identity exists for the given channel and identifier.
	ErrIdentityNotFound = errors.New("identity: not found for channel identifier")

	// ErrNoPendingChallenge indicates verification was attempted with nothing to
	// verify against (never issued, already consumed, or lost a concurrent race).
	ErrNoPendingChallenge = errors.New("identity: no pending challenge")

	// ErrPurposeMismatch indicates the stored challenge was issued for a different purpose.
	ErrPurposeMismatch = errors.New("identity: challenge purpose mismatch")

	// ErrChannelMismatch indicates the stored challenge was issued for a different channel.
	ErrChannelMismatch = errors.New("identity: challenge channel mismatch")

	// ErrInvalidCode indicates the submitted code does not match the stored code.
	ErrInvalidCode = errors.New("identity: invalid code")

	// ErrCodeExpired indicates the stored code exists but its deadline has passed.
	ErrCodeExpired = errors.New("identity: code expired")

	// ErrDeliveryFailed indicates the challenge persisted but dispatch through the
	// notification channel failed; the code remains valid until it expires.
	ErrDeliveryFailed = errors.New("identity: code delivery failed")
)

type Purpose int16

const (
	// PurposeUnknown is mean purpose is not known / not set.
	PurposeUnknown Purpose = 0

	// PurposeEmailVerify proves control of an email address.
	PurposeEmailVerify Purpose = 1

	// PurposePhoneVerify proves control of a phone number.
	PurposePhoneVerify Purpose = 2

	// PurposePasswordReset authorizes minting a one-shot password reset token.
	PurposePasswordReset Purpose = 3

	// PurposeNumberChange proves control of a new phone number before it replaces
	// the registered one.
	PurposeNumberChange Purpose = 4
)

func (p Purpose) String() string {
	switch p {
	case PurposeEmailVerify:
		return "email_verify"
	case PurposePhoneVerify:
		return "phone_verify"
	case PurposePasswordReset:
		return "password_reset"
	case PurposeNumberChange:
		return "number_change"
	default:
		return "unknown"
	}
}

func (p Purpose) IsUnknown() bool {
	switch p {
	case PurposeEmailVerify, PurposePhoneVerify, PurposePasswordReset, PurposeNumberChange:
		return false
	default:
		return true
	}
}

// AllowsChannel encodes the structural purpose/channel binding: a purpose can
// only be issued and verified over the channels that can prove it.
func (p Purpose) AllowsChannel(ch Channel) bool {
	switch p {
	case PurposeEmailVerify:
		return ch == ChannelEmail
	case PurposePhoneVerify, PurposeNumberChange:
		return ch == ChannelPhone
	case PurposePasswordReset:
		return ch == ChannelEmail || ch == ChannelPhone
	default:
		return false
	}
}

func ParsePurpose(str string) Purpose {
	switch str {
	case "email_verify":
		return PurposeEmailVerify
	case "phone_verify":
		return PurposePhoneVerify
	case "password_reset":
		return PurposePasswordReset
	case "number_change":
		return PurposeNumberChange
	default:
		return PurposeUnknown
	}
}

type Channel int16

const (
	// ChannelUnknown is mean channel is not known / not set.
	ChannelUnknown Channel = 0

	// ChannelEmail delivers codes to an email address.
	ChannelEmail Channel = 1

	// ChannelPhone delivers codes to a phone number over SMS.
	ChannelPhone Channel = 2
)

func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelPhone:
		return "phone"
	default:
		return "unknown"
	}
}

func (c Channel) IsUnknown() bool {
	switch c {
	case ChannelEmail, ChannelPhone:
		return false
	default:
		return true
	}
}

func ParseChannel(str string) Channel {
	switch str {
	case "email":
		return ChannelEmail
	case "phone", "sms":
		return ChannelPhone
	default:
		return ChannelUnknown
	}
}

type Role int16

const (
	RoleUnknown Role = 0
	RoleMember  Role = 1
	RoleAdmin   Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "Member"
	case RoleAdmin:
		return "Admin"
	default:
		return "Unknown"
	}
}
