package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/zenbox/zenbox/internal/api/response"
	"github.com/zenbox/zenbox/internal/core"
	"github.com/zenbox/zenbox/internal/metrics"
	"github.com/zenbox/zenbox/internal/webhook"
)

// Ingestor runs the routing pipeline on a normalized email.
type Ingestor interface {
	Process(ctx context.Context, n *webhook.NormalizedEmail) (*core.Result, error)
}

// Capabilities describes which inbound integrations are configured. Only
// booleans: the endpoint must never echo secret material.
type Capabilities struct {
	SignatureVerification bool `json:"signature_verification"`
	TokenVerification     bool `json:"token_verification"`
	UnsignedAllowed       bool `json:"unsigned_allowed"`
	ContentBackfill       bool `json:"content_backfill"`
}

type Inbound struct {
	verifier *webhook.Verifier
	ingest   Ingestor
	maxBytes int64
	caps     Capabilities
}

func NewInbound(verifier *webhook.Verifier, ingest Ingestor, maxBytes int64, caps Capabilities) *Inbound {
	return &Inbound{verifier: verifier, ingest: ingest, maxBytes: maxBytes, caps: caps}
}

// Receive handles one webhook delivery from the email relay.
func (h *Inbound) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.WebhooksRejected.WithLabelValues("oversize").Inc()
			response.WriteError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		response.WriteError(w, http.StatusBadRequest, "read request body")
		return
	}

	authMethod, err := h.verifier.Verify(body, r.Header)
	if err != nil {
		metrics.WebhooksRejected.WithLabelValues("signature").Inc()
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("webhook signature rejected")
		response.WriteError(w, http.StatusUnauthorized, "signature verification failed")
		return
	}

	n, err := webhook.Normalize(body)
	if err != nil {
		if errors.Is(err, webhook.ErrIgnoredEvent) {
			response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		metrics.WebhooksRejected.WithLabelValues("malformed").Inc()
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	zerolog.Ctx(r.Context()).Debug().
		Str("auth_method", authMethod).
		Str("to", n.ToAddress).
		Msg("webhook verified")

	result, err := h.ingest.Process(r.Context(), n)
	if err != nil {
		// Retryable: the relay re-delivers and the idempotent insert
		// absorbs the replay.
		response.WriteError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	if result.Outcome != core.OutcomeStored {
		response.Accepted(w)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"id": result.MessageID})
}

// Status reports the configured inbound capabilities.
func (h *Inbound) Status(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, h.caps)
}
