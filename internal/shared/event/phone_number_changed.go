package event

const PhoneNumberChangedDestination string = "phone_number_changed"
const PhoneNumberChangedConsumerNotification string = "phone_number_changed_notification"

type PhoneNumberChangedMessage struct {
	IdentityID int64  `json:"identity_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}
