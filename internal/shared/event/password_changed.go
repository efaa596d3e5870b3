package event

const PasswordChangedDestination string = "password_changed"
const PasswordChangedConsumerNotification string = "password_changed_notification"

type PasswordChangedMessage struct {
	IdentityID int64  `json:"identity_id"`
	Email      string `json:"email"`
}
