package entity

import "time"

// Contact is one reachable address (email or phone) and its verification state.
type Contact struct {
	Value    string
	Verified bool
}

// Challenge is the single pending one-time code attached to an identity.
//
// It is a value embedded in the identity record, with no independent lifecycle:
// created by issue, consumed exactly once by a successful verify, or replaced
// wholesale by a later issue.
type Challenge struct {
	Purpose   Purpose
	Channel   Channel
	Code      int32
	ExpiresAt time.Time
}

// Validate runs the ordered fail-fast checks against a submitted verification
// attempt and returns the first matching sentinel error, or nil when the
// challenge may be consumed.
//
// The order is fixed: purpose, channel, code, expiry. An expired challenge with
// a wrong code reports ErrInvalidCode, not ErrCodeExpired.
func (c Challenge) Validate(purpose Purpose, channel Channel, code int32, now time.Time) error {
	if c.Purpose != purpose {
		return ErrPurposeMismatch
	}

	if c.Channel != channel {
		return ErrChannelMismatch
	}

	if c.Code != code {
		return ErrInvalidCode
	}

	if now.After(c.ExpiresAt) {
		return ErrCodeExpired
	}

	return nil
}

type Identity struct {
	ID        int64
	Email     *Contact
	Phone     *Contact
	Role      Role
	IsDeleted bool
	Challenge *Challenge
	UpdatedAt time.Time
}

// ContactFor returns the contact reachable over the given channel, or nil.
func (i *Identity) ContactFor(ch Channel) *Contact {
	switch ch {
	case ChannelEmail:
		return i.Email
	case ChannelPhone:
		return i.Phone
	default:
		return nil
	}
}

// ResetToken is the one-shot capability minted by a successful password_reset
// verification. Only the HMAC hash of the token is stored.
type ResetToken struct {
	ID         int64
	IdentityID int64
	TokenHash  string
	ExpiresAt  time.Time
}

type Credential struct {
	IdentityID int64
	Password   string // hashed
	UpdatedAt  time.Time
}
