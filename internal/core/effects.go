package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/zenbox/zenbox/internal/metrics"
	"github.com/zenbox/zenbox/internal/payment"
)

// Effects are best-effort side effects emitted by the decision stages and
// executed after the authoritative message write. Their failure is logged
// and counted but never rolls back the stored message or fails the webhook.

type Effect interface {
	Name() string
}

// PaymentLinkEffect creates the single-use payment intent for a quarantined
// message and notifies the sender with the link.
type PaymentLinkEffect struct {
	MessageID       string
	AccountID       string
	AccountEmail    string
	SenderAddress   string
	PriceMinorUnits int
}

func (PaymentLinkEffect) Name() string { return "payment_link" }

// AvatarWarmEffect pre-caches the sender's profile picture.
type AvatarWarmEffect struct {
	Email string
}

func (AvatarWarmEffect) Name() string { return "avatar_warm" }

// EffectDispatcher executes effect batches asynchronously so the HTTP
// response never waits on collaborator latency.
type EffectDispatcher struct {
	payments PaymentLinker
	notifier SenderNotifier
	avatars  AvatarWarmer

	logger  zerolog.Logger
	timeout time.Duration

	ch   chan []Effect
	done chan struct{}
}

func NewEffectDispatcher(payments PaymentLinker, notifier SenderNotifier, avatars AvatarWarmer, logger zerolog.Logger, timeout time.Duration) *EffectDispatcher {
	d := &EffectDispatcher{
		payments: payments,
		notifier: notifier,
		avatars:  avatars,
		logger:   logger,
		timeout:  timeout,
		ch:       make(chan []Effect, 256),
		done:     make(chan struct{}),
	}
	go d.drain()
	return d
}

// Dispatch enqueues a batch without blocking the caller. A full buffer
// drops the batch; the effects are best-effort.
func (d *EffectDispatcher) Dispatch(batch []Effect) {
	if len(batch) == 0 {
		return
	}
	select {
	case d.ch <- batch:
	default:
		d.logger.Warn().Int("effects", len(batch)).Msg("effect buffer full, dropping batch")
		for _, e := range batch {
			metrics.EffectsFailed.WithLabelValues(e.Name()).Inc()
		}
	}
}

// Close drains remaining batches and stops the worker.
func (d *EffectDispatcher) Close() {
	close(d.ch)
	<-d.done
}

func (d *EffectDispatcher) drain() {
	defer close(d.done)
	for batch := range d.ch {
		d.runBatch(batch)
	}
}

func (d *EffectDispatcher) runBatch(batch []Effect) {
	// Effects run detached from the request that produced them.
	g, ctx := errgroup.WithContext(context.Background())
	for _, effect := range batch {
		g.Go(func() error {
			effectCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			if err := d.execute(effectCtx, effect); err != nil {
				metrics.EffectsFailed.WithLabelValues(effect.Name()).Inc()
				d.logger.Error().Err(err).Str("effect", effect.Name()).Msg("best-effort effect failed")
			}
			// Never propagate: one failed effect must not cancel the rest.
			return nil
		})
	}
	g.Wait()
}

func (d *EffectDispatcher) execute(ctx context.Context, effect Effect) error {
	switch e := effect.(type) {
	case PaymentLinkEffect:
		return d.issuePaymentLink(ctx, e)
	case AvatarWarmEffect:
		if d.avatars == nil || !d.avatars.Enabled() {
			return nil
		}
		return d.avatars.Warm(ctx, e.Email)
	default:
		return nil
	}
}

func (d *EffectDispatcher) issuePaymentLink(ctx context.Context, e PaymentLinkEffect) error {
	if d.payments == nil || !d.payments.Enabled() {
		d.logger.Debug().Str("message_id", e.MessageID).Msg("payment link issuer not configured")
		return nil
	}

	url, err := d.payments.CreateLink(ctx, payment.CreateLinkParams{
		MessageID:   e.MessageID,
		AccountID:   e.AccountID,
		AmountMinor: e.PriceMinorUnits,
	})
	if err != nil {
		return err
	}

	if d.notifier == nil || !d.notifier.Enabled() {
		return nil
	}
	return d.notifier.SendPaymentRequest(ctx, e.SenderAddress, e.AccountEmail, url)
}
