package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/zenbox/zenbox/internal/config"
	"github.com/zenbox/zenbox/internal/payment"
	"github.com/zenbox/zenbox/internal/relay"
)

// DB is the subset of pgxpool.Pool the services need.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PaymentLinker issues single-use payment intents for quarantined messages.
type PaymentLinker interface {
	Enabled() bool
	CreateLink(ctx context.Context, params payment.CreateLinkParams) (string, error)
}

// SenderNotifier delivers the payment-request notice to an unknown sender.
type SenderNotifier interface {
	Enabled() bool
	SendPaymentRequest(ctx context.Context, senderAddress, recipientEmail, paymentURL string) error
}

// Classifier assigns a category from the fixed vocabulary, or "".
type Classifier interface {
	Enabled() bool
	Classify(ctx context.Context, subject, bodyExcerpt string) (string, error)
}

// AvatarWarmer pre-resolves sender profile pictures for the UI.
type AvatarWarmer interface {
	Enabled() bool
	Warm(ctx context.Context, email string) error
}

// ContentFetcher backfills message bodies by provider message id.
type ContentFetcher interface {
	Enabled() bool
	FetchEmail(ctx context.Context, providerMessageID string) (*relay.EmailContent, error)
}

// Collaborators bundles the external services the pipeline talks to.
type Collaborators struct {
	Payments   PaymentLinker
	Notifier   SenderNotifier
	Classifier Classifier
	Avatars    AvatarWarmer
	Relay      ContentFetcher
}

type Services struct {
	Account *AccountService
	Contact *ContactService
	Message *MessageService
	Ingest  *IngestService

	Effects *EffectDispatcher
}

func NewServices(db DB, cfg *config.Config, collab Collaborators, logger zerolog.Logger) (*Services, error) {
	aliases, err := LoadAliasRules(cfg.AliasRulesPath, cfg.PlatformDomain, cfg.OperatorEmail)
	if err != nil {
		return nil, err
	}

	accounts := NewAccountService(db, aliases, cfg.SelfHealAccounts)
	contacts := NewContactService(db)
	messages := NewMessageService(db)

	effects := NewEffectDispatcher(
		collab.Payments,
		collab.Notifier,
		collab.Avatars,
		logger,
		time.Duration(cfg.EffectTimeoutSeconds)*time.Second,
	)

	ingest := NewIngestService(accounts, contacts, messages, collab.Classifier, collab.Relay, effects)

	return &Services{
		Account: accounts,
		Contact: contacts,
		Message: messages,
		Ingest:  ingest,
		Effects: effects,
	}, nil
}

// Close drains the effect dispatcher.
func (s *Services) Close() {
	s.Effects.Close()
}
