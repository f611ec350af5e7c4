package model

import "time"

// Contact records a sender the account has interacted with. Trust here is
// independent of the firewall whitelist: a trusted contact bypasses the
// paywall even when not whitelisted.
type Contact struct {
	ID            string    `json:"id" db:"id"`
	AccountID     string    `json:"account_id" db:"account_id"`
	SenderAddress string    `json:"sender_address" db:"sender_address"`
	IsTrusted     bool      `json:"is_trusted" db:"is_trusted"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
