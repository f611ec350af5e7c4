package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenbox/zenbox/internal/metrics"
	"github.com/zenbox/zenbox/internal/model"
	"github.com/zenbox/zenbox/internal/platform"
	"github.com/zenbox/zenbox/internal/sanitize"
	"github.com/zenbox/zenbox/internal/webhook"
)

// Outcome describes how the pipeline disposed of a normalized message.
type Outcome string

const (
	// OutcomeStored means a message row exists (newly created or an
	// idempotent duplicate).
	OutcomeStored Outcome = "stored"
	// OutcomeDenied means the firewall blocked the sender. Silent.
	OutcomeDenied Outcome = "denied"
	// OutcomeUnknownRecipient means no account owns the address. Silent.
	OutcomeUnknownRecipient Outcome = "unknown_recipient"
)

// Result is the pipeline's disposition of one webhook delivery.
type Result struct {
	Outcome   Outcome
	MessageID string
	Status    string
	Duplicate bool
}

// IngestService runs the routing pipeline on normalized emails: content
// backfill, sanitization, recipient resolution, firewall, paywall,
// delivery scheduling, classification, and the exactly-once write.
type IngestService struct {
	accounts   *AccountService
	contacts   *ContactService
	messages   *MessageService
	classifier Classifier
	fetcher    ContentFetcher
	effects    *EffectDispatcher

	now func() time.Time
}

func NewIngestService(accounts *AccountService, contacts *ContactService, messages *MessageService, classifier Classifier, fetcher ContentFetcher, effects *EffectDispatcher) *IngestService {
	return &IngestService{
		accounts:   accounts,
		contacts:   contacts,
		messages:   messages,
		classifier: classifier,
		fetcher:    fetcher,
		effects:    effects,
		now:        time.Now,
	}
}

// Process runs the pipeline. A nil error with a non-stored outcome is a
// deliberate silent drop; an error is a retryable infrastructure failure.
func (s *IngestService) Process(ctx context.Context, n *webhook.NormalizedEmail) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	receivedAt := s.now().UTC()

	if n.ContentPending {
		s.backfillContent(ctx, n)
	}

	content := sanitize.Clean(n.Subject, n.TextBody, n.HTMLBody)

	resolution, err := s.accounts.Resolve(ctx, n.ToAddress, content.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Anti-enumeration: acknowledge without revealing non-existence.
			metrics.WebhooksRejected.WithLabelValues("unknown_recipient").Inc()
			logger.Info().Str("to", n.ToAddress).Msg("recipient has no account, dropping silently")
			return &Result{Outcome: OutcomeUnknownRecipient}, nil
		}
		return nil, err
	}
	account := resolution.Account

	sender := CanonicalSender(n.FromAddress)
	if !FirewallAllows(account, sender) {
		// Silent deny: a blocked sender must not learn they are blocked.
		metrics.WebhooksRejected.WithLabelValues("firewall").Inc()
		logger.Info().Str("account_id", account.ID).Str("from", sender).Msg("firewall denied sender")
		return &Result{Outcome: OutcomeDenied}, nil
	}

	trusted, err := s.senderTrusted(ctx, account, sender)
	if err != nil {
		return nil, err
	}
	decision := EvaluatePaywall(account, trusted)

	msg := &model.Message{
		ID:           platform.NewID(),
		AccountID:    account.ID,
		FromAddress:  sender,
		FromName:     n.FromName,
		Subject:      resolution.EffectiveSubject,
		Body:         content.Text,
		BodyHTML:     content.HTML,
		Preview:      content.Preview,
		ReceivedAt:   receivedAt,
		VisibleAt:    VisibleAt(account, receivedAt),
		Status:       decision.Status,
		HasPaidStamp: decision.HasPaidStamp,
		CreatedAt:    receivedAt,
	}
	if n.ProviderMessageID != "" {
		id := n.ProviderMessageID
		msg.ProviderMessageID = &id
	}
	if category := s.classify(ctx, account, content); category != "" {
		msg.Category = &category
	}

	id, created, err := s.messages.Create(ctx, msg)
	if err != nil {
		return nil, err
	}
	if !created {
		logger.Info().Str("message_id", id).Str("provider_message_id", n.ProviderMessageID).
			Msg("duplicate webhook delivery, message already stored")
		return &Result{Outcome: OutcomeStored, MessageID: id, Status: decision.Status, Duplicate: true}, nil
	}

	metrics.MessagesIngested.WithLabelValues(decision.Status).Inc()
	if resolution.IsAliasRedirect {
		logger.Info().Str("message_id", id).Str("to", n.ToAddress).Msg("alias redirect stored")
	}

	if err := s.contacts.Ensure(ctx, account.ID, sender); err != nil {
		logger.Error().Err(err).Msg("record sender contact")
	}

	s.effects.Dispatch(s.buildEffects(id, account, sender, decision))

	return &Result{Outcome: OutcomeStored, MessageID: id, Status: decision.Status}, nil
}

// backfillContent fetches message bodies by provider id. Best-effort: on
// failure the message is stored with empty content.
func (s *IngestService) backfillContent(ctx context.Context, n *webhook.NormalizedEmail) {
	if s.fetcher == nil || !s.fetcher.Enabled() {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	content, err := s.fetcher.FetchEmail(fetchCtx, n.ProviderMessageID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("provider_message_id", n.ProviderMessageID).
			Msg("content backfill failed")
		return
	}
	n.TextBody = content.Text
	n.HTMLBody = content.HTML
	if n.Subject == "" {
		n.Subject = content.Subject
	}
}

func (s *IngestService) senderTrusted(ctx context.Context, account *model.Account, sender string) (bool, error) {
	if SenderWhitelisted(account, sender) {
		return true, nil
	}
	return s.contacts.IsTrusted(ctx, account.ID, sender)
}

// classify is gated on plan tier and non-empty content, and never fails the
// pipeline.
func (s *IngestService) classify(ctx context.Context, account *model.Account, content sanitize.Content) string {
	if s.classifier == nil || !s.classifier.Enabled() {
		return ""
	}
	if account.PlanTier != model.PlanTierPro {
		return ""
	}
	excerpt := content.Text
	if excerpt == "" && content.Preview != sanitize.EmptyPreview {
		excerpt = content.Preview
	}
	if excerpt == "" {
		return ""
	}

	category, err := s.classifier.Classify(ctx, content.Subject, excerpt)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("classifier unavailable, storing uncategorized")
		return ""
	}
	return category
}

func (s *IngestService) buildEffects(messageID string, account *model.Account, sender string, decision PaywallDecision) []Effect {
	var effects []Effect
	if decision.PaymentLinkNeeded {
		effects = append(effects, PaymentLinkEffect{
			MessageID:       messageID,
			AccountID:       account.ID,
			AccountEmail:    account.Email,
			SenderAddress:   sender,
			PriceMinorUnits: decision.PriceMinorUnits,
		})
	}
	effects = append(effects, AvatarWarmEffect{Email: sender})
	return effects
}
