package model

import "time"

const (
	MessageStatusInbox      = "inbox"
	MessageStatusQuarantine = "quarantine"
)

// Message categories assigned by the classifier gateway. Anything outside
// this vocabulary is discarded.
var MessageCategories = []string{
	"personal",
	"work",
	"newsletter",
	"notification",
	"promotion",
}

// ValidCategory reports whether c is in the fixed classifier vocabulary.
func ValidCategory(c string) bool {
	for _, v := range MessageCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Message is the persisted mailbox entity. Created exactly once per webhook
// delivery; later mutations (payment completion, user actions) happen in
// collaborator flows.
type Message struct {
	ID                string    `json:"id" db:"id"`
	AccountID         string    `json:"account_id" db:"account_id"`
	FromAddress       string    `json:"from_address" db:"from_address"`
	FromName          string    `json:"from_name" db:"from_name"`
	Subject           string    `json:"subject" db:"subject"`
	Body              string    `json:"body" db:"body"`
	BodyHTML          string    `json:"body_html" db:"body_html"`
	Preview           string    `json:"preview" db:"preview"`
	ProviderMessageID *string   `json:"provider_message_id,omitempty" db:"provider_message_id"`
	ReceivedAt        time.Time `json:"received_at" db:"received_at"`
	VisibleAt         time.Time `json:"visible_at" db:"visible_at"`
	Status            string    `json:"status" db:"status"`
	HasPaidStamp      bool      `json:"has_paid_stamp" db:"has_paid_stamp"`
	Category          *string   `json:"category,omitempty" db:"category"`
	Archived          bool      `json:"archived" db:"archived"`
	Deleted           bool      `json:"deleted" db:"deleted"`
	Starred           bool      `json:"starred" db:"starred"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
