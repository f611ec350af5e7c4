package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenbox/zenbox/internal/core"
	"github.com/zenbox/zenbox/internal/webhook"
)

type stubIngestor struct {
	result *core.Result
	err    error
	got    *webhook.NormalizedEmail
}

func (s *stubIngestor) Process(_ context.Context, n *webhook.NormalizedEmail) (*core.Result, error) {
	s.got = n
	return s.result, s.err
}

const flatPayload = `{"sender":"alice@example.com","recipient":"bob@zenbox.email","subject":"Hi","body-plain":"hello"}`

func newInboundRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/inbound", bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func unsignedInbound(ingest Ingestor) *Inbound {
	return NewInbound(webhook.NewVerifier("", "", true), ingest, 1<<20, Capabilities{UnsignedAllowed: true})
}

func TestInbound_StoredReturnsMessageID(t *testing.T) {
	ingest := &stubIngestor{result: &core.Result{Outcome: core.OutcomeStored, MessageID: "msg-1", Status: "inbox"}}
	h := unsignedInbound(ingest)

	rec := httptest.NewRecorder()
	h.Receive(rec, newInboundRequest(flatPayload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "msg-1", decodeBody(t, rec)["id"])
	require.NotNil(t, ingest.got)
	assert.Equal(t, "alice@example.com", ingest.got.FromAddress)
}

func TestInbound_SilentOutcomesLookAccepted(t *testing.T) {
	for _, outcome := range []core.Outcome{core.OutcomeDenied, core.OutcomeUnknownRecipient} {
		ingest := &stubIngestor{result: &core.Result{Outcome: outcome}}
		h := unsignedInbound(ingest)

		rec := httptest.NewRecorder()
		h.Receive(rec, newInboundRequest(flatPayload))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "accepted", decodeBody(t, rec)["status"])
	}
}

func TestInbound_IgnoredEventTypeSkipsPipeline(t *testing.T) {
	ingest := &stubIngestor{}
	h := unsignedInbound(ingest)

	rec := httptest.NewRecorder()
	h.Receive(rec, newInboundRequest(`{"type":"email.bounced","data":{}}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ignored", decodeBody(t, rec)["status"])
	assert.Nil(t, ingest.got)
}

func TestInbound_MalformedPayload(t *testing.T) {
	h := unsignedInbound(&stubIngestor{})

	rec := httptest.NewRecorder()
	h.Receive(rec, newInboundRequest(`{"subject":"no addresses"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInbound_MissingSignature(t *testing.T) {
	ingest := &stubIngestor{}
	h := NewInbound(webhook.NewVerifier("secret", "", false), ingest, 1<<20, Capabilities{SignatureVerification: true})

	rec := httptest.NewRecorder()
	h.Receive(rec, newInboundRequest(flatPayload))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, ingest.got)
}

func TestInbound_ValidSignatureAccepted(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("topsecret"))
	ingest := &stubIngestor{result: &core.Result{Outcome: core.OutcomeStored, MessageID: "msg-1"}}
	h := NewInbound(webhook.NewVerifier("whsec_"+secret, "", false), ingest, 1<<20, Capabilities{SignatureVerification: true})

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte("topsecret"))
	fmt.Fprintf(mac, "wh_1.%s.%s", ts, flatPayload)
	sig := "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req := newInboundRequest(flatPayload)
	req.Header.Set("Webhook-Id", "wh_1")
	req.Header.Set("Webhook-Timestamp", ts)
	req.Header.Set("Webhook-Signature", sig)

	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ingest.got)
}

func TestInbound_OversizePayload(t *testing.T) {
	ingest := &stubIngestor{}
	h := NewInbound(webhook.NewVerifier("", "", true), ingest, 64, Capabilities{UnsignedAllowed: true})

	rec := httptest.NewRecorder()
	h.Receive(rec, newInboundRequest(strings.Repeat("x", 128)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Nil(t, ingest.got)
}

func TestInbound_PipelineErrorIsRetryable(t *testing.T) {
	ingest := &stubIngestor{err: errors.New("database unavailable")}
	h := unsignedInbound(ingest)

	rec := httptest.NewRecorder()
	h.Receive(rec, newInboundRequest(flatPayload))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database")
}

func TestInbound_StatusNeverLeaksSecrets(t *testing.T) {
	h := NewInbound(webhook.NewVerifier("whsec_abc123", "key-456", false), &stubIngestor{}, 1<<20, Capabilities{
		SignatureVerification: true,
		TokenVerification:     true,
		ContentBackfill:       true,
	})

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/inbound", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var caps Capabilities
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &caps))
	assert.True(t, caps.SignatureVerification)
	assert.True(t, caps.TokenVerification)
	assert.False(t, caps.UnsignedAllowed)
	assert.NotContains(t, rec.Body.String(), "abc123")
	assert.NotContains(t, rec.Body.String(), "key-456")
}
