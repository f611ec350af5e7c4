package core

import "github.com/zenbox/zenbox/internal/model"

// DefaultStampPriceMinorUnits is charged when an account has the paywall on
// without a configured price (10 minor units = 0.10 currency units).
const DefaultStampPriceMinorUnits = 10

// PaywallDecision places a message in the inbox or quarantine.
type PaywallDecision struct {
	Status            string
	HasPaidStamp      bool
	PaymentLinkNeeded bool
	PriceMinorUnits   int
}

// EvaluatePaywall decides placement for a sender whose trust has already
// been established (known trusted contact or whitelist member).
func EvaluatePaywall(account *model.Account, trusted bool) PaywallDecision {
	if !account.PaywallEnabled || trusted {
		return PaywallDecision{
			Status:       model.MessageStatusInbox,
			HasPaidStamp: trusted,
		}
	}

	price := account.PaywallPriceMinorUnits
	if price <= 0 {
		price = DefaultStampPriceMinorUnits
	}
	return PaywallDecision{
		Status:            model.MessageStatusQuarantine,
		HasPaidStamp:      false,
		PaymentLinkNeeded: true,
		PriceMinorUnits:   price,
	}
}
