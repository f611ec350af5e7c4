package core

import (
	"net/mail"
	"strings"

	"github.com/zenbox/zenbox/internal/model"
)

// CanonicalSender extracts the bare lowercase address from possibly
// display-name-wrapped input ("Name <addr>").
func CanonicalSender(s string) string {
	s = strings.TrimSpace(s)
	if parsed, err := mail.ParseAddress(s); err == nil {
		s = parsed.Address
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// FirewallAllows evaluates the account's allow/block rules against the
// sender. Precedence: whitelist wins over a domain block; default allow.
func FirewallAllows(account *model.Account, senderAddress string) bool {
	sender := CanonicalSender(senderAddress)

	for _, w := range account.WhitelistedSenders {
		if strings.ToLower(w) == sender {
			return true
		}
	}

	domain := senderDomain(sender)
	if domain != "" {
		for _, blocked := range account.BlockedDomains {
			if strings.ToLower(blocked) == domain {
				return false
			}
		}
	}

	return true
}

// SenderWhitelisted reports whitelist membership without the block rules.
func SenderWhitelisted(account *model.Account, senderAddress string) bool {
	sender := CanonicalSender(senderAddress)
	for _, w := range account.WhitelistedSenders {
		if strings.ToLower(w) == sender {
			return true
		}
	}
	return false
}

func senderDomain(address string) string {
	_, domain, ok := strings.Cut(address, "@")
	if !ok {
		return ""
	}
	return domain
}
