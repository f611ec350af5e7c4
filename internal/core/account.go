package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/zenbox/zenbox/internal/model"
	"github.com/zenbox/zenbox/internal/platform"
)

// ErrAccountNotFound means no account owns the recipient address. The
// caller must not reveal non-existence to the webhook sender.
var ErrAccountNotFound = errors.New("account not found")

const accountColumns = `id, email, plan_tier, paywall_enabled, paywall_price_minor_units,
	blocked_domains, whitelisted_senders, batched_delivery_enabled, delivery_windows,
	timezone, created_at, updated_at`

type AccountService struct {
	db       DB
	aliases  *AliasRules
	selfHeal bool
}

func NewAccountService(db DB, aliases *AliasRules, selfHeal bool) *AccountService {
	return &AccountService{db: db, aliases: aliases, selfHeal: selfHeal}
}

// Resolution is the outcome of mapping a recipient address to an account.
type Resolution struct {
	Account          *model.Account
	EffectiveSubject string
	IsAliasRedirect  bool
	SelfHealed       bool
}

// Resolve maps a recipient address to its account, applying system-alias
// redirection and, when enabled, the create-missing-account compensation.
func (s *AccountService) Resolve(ctx context.Context, toAddress, subject string) (*Resolution, error) {
	address := strings.ToLower(strings.TrimSpace(toAddress))
	localPart, domain, _ := strings.Cut(address, "@")

	if operator, ok := s.aliases.Match(localPart, domain); ok {
		account, err := s.GetByEmail(ctx, operator)
		if err != nil {
			return nil, fmt.Errorf("resolve alias %s: %w", localPart, err)
		}
		return &Resolution{
			Account:          account,
			EffectiveSubject: TagSubject(localPart, subject),
			IsAliasRedirect:  true,
		}, nil
	}

	account, err := s.GetByEmail(ctx, address)
	if err == nil {
		return &Resolution{Account: account, EffectiveSubject: subject}, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	if s.selfHeal {
		healed, healErr := s.createFromIdentity(ctx, address)
		if healErr != nil {
			return nil, healErr
		}
		if healed != nil {
			return &Resolution{Account: healed, EffectiveSubject: subject, SelfHealed: true}, nil
		}
	}

	return nil, ErrAccountNotFound
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`,
		strings.ToLower(email),
	)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account %s: %w", email, err)
	}
	return account, nil
}

// createFromIdentity compensates for the known inconsistency window where an
// identity record exists without its account row. Returns (nil, nil) when
// there is no identity to heal from.
func (s *AccountService) createFromIdentity(ctx context.Context, email string) (*model.Account, error) {
	var identityID string
	err := s.db.QueryRow(ctx,
		`SELECT id FROM identities WHERE email = $1`, email,
	).Scan(&identityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("look up identity %s: %w", email, err)
	}

	now := time.Now()
	account := &model.Account{
		ID:                     platform.NewID(),
		Email:                  email,
		PlanTier:               model.PlanTierEssential,
		PaywallEnabled:         false,
		PaywallPriceMinorUnits: DefaultStampPriceMinorUnits,
		Timezone:               "UTC",
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO accounts (id, email, plan_tier, paywall_enabled, paywall_price_minor_units,
			blocked_domains, whitelisted_senders, batched_delivery_enabled, delivery_windows,
			timezone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, '{}', '{}', false, '{}', $6, $7, $8)`,
		account.ID, account.Email, account.PlanTier, account.PaywallEnabled,
		account.PaywallPriceMinorUnits, account.Timezone, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("self-heal account %s: %w", email, err)
	}

	// Distinct audit line: healed accounts must be traceable.
	zerolog.Ctx(ctx).Warn().
		Str("account_id", account.ID).
		Str("identity_id", identityID).
		Str("email", email).
		Msg("self-healed missing account from identity record")

	return account, nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.Email, &a.PlanTier, &a.PaywallEnabled, &a.PaywallPriceMinorUnits,
		&a.BlockedDomains, &a.WhitelistedSenders, &a.BatchedDeliveryEnabled,
		&a.DeliveryWindows, &a.Timezone, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
