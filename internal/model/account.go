package model

import "time"

const (
	PlanTierEssential = "essential"
	PlanTierPro       = "pro"
)

// Account is a mailbox owner. The identity/billing subsystem owns the
// lifecycle of this record; the ingestion engine only reads it, except for
// the self-heal path that creates a missing row from an identity record.
type Account struct {
	ID                     string    `json:"id" db:"id"`
	Email                  string    `json:"email" db:"email"`
	PlanTier               string    `json:"plan_tier" db:"plan_tier"`
	PaywallEnabled         bool      `json:"paywall_enabled" db:"paywall_enabled"`
	PaywallPriceMinorUnits int       `json:"paywall_price_minor_units" db:"paywall_price_minor_units"`
	BlockedDomains         []string  `json:"blocked_domains" db:"blocked_domains"`
	WhitelistedSenders     []string  `json:"whitelisted_senders" db:"whitelisted_senders"`
	BatchedDeliveryEnabled bool      `json:"batched_delivery_enabled" db:"batched_delivery_enabled"`
	DeliveryWindows        []string  `json:"delivery_windows" db:"delivery_windows"`
	Timezone               string    `json:"timezone" db:"timezone"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}
