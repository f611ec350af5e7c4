package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_EnvelopeShape(t *testing.T) {
	raw := []byte(`{
		"type": "email.received",
		"data": {
			"from": {"email": "alice@example.com", "name": "Alice"},
			"to": ["bob@zenbox.email", "cc@zenbox.email"],
			"subject": "Hi",
			"text": "hello",
			"html": "<p>hello</p>",
			"email_id": "em_abc123"
		}
	}`)

	n, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", n.FromAddress)
	assert.Equal(t, "Alice", n.FromName)
	assert.Equal(t, "bob@zenbox.email", n.ToAddress)
	assert.Equal(t, "Hi", n.Subject)
	assert.Equal(t, "hello", n.TextBody)
	assert.Equal(t, "<p>hello</p>", n.HTMLBody)
	assert.Equal(t, "em_abc123", n.ProviderMessageID)
	assert.False(t, n.ContentPending)
}

func TestNormalize_EnvelopeShape_StringFrom(t *testing.T) {
	raw := []byte(`{
		"type": "email.received",
		"data": {
			"from": "Carol <carol@example.com>",
			"to": "bob@zenbox.email",
			"subject": "Hi"
		}
	}`)

	n, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", n.FromAddress)
	assert.Equal(t, "Carol", n.FromName)
}

func TestNormalize_EnvelopeShape_IgnoredEventType(t *testing.T) {
	raw := []byte(`{"type": "email.delivered", "data": {"email_id": "em_1"}}`)

	_, err := Normalize(raw)
	assert.ErrorIs(t, err, ErrIgnoredEvent)
}

func TestNormalize_FlatShape(t *testing.T) {
	raw := []byte(`{
		"sender": "Dave <dave@example.com>",
		"recipient": "bob@zenbox.email",
		"subject": "Invoice",
		"body-plain": "see attached",
		"body-html": "<b>see attached</b>",
		"Message-Id": "<20260830.abc@relay.example>"
	}`)

	n, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "dave@example.com", n.FromAddress)
	assert.Equal(t, "Dave", n.FromName)
	assert.Equal(t, "bob@zenbox.email", n.ToAddress)
	assert.Equal(t, "see attached", n.TextBody)
	assert.Equal(t, "20260830.abc@relay.example", n.ProviderMessageID)
}

func TestNormalize_GenericShape(t *testing.T) {
	raw := []byte(`{
		"From": "eve@example.com",
		"To": ["bob@zenbox.email"],
		"Subject": "hey",
		"TextBody": "generic text",
		"HtmlBody": "<i>generic</i>"
	}`)

	n, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "eve@example.com", n.FromAddress)
	assert.Equal(t, "bob@zenbox.email", n.ToAddress)
	assert.Equal(t, "generic text", n.TextBody)
	assert.Equal(t, "<i>generic</i>", n.HTMLBody)
}

func TestNormalize_ContentPending(t *testing.T) {
	raw := []byte(`{
		"type": "email.received",
		"data": {
			"from": "alice@example.com",
			"to": "bob@zenbox.email",
			"email_id": "em_pending"
		}
	}`)

	n, err := Normalize(raw)
	require.NoError(t, err)
	assert.True(t, n.ContentPending)
}

func TestNormalize_NoContentNoProviderID_NotPending(t *testing.T) {
	raw := []byte(`{"from": "a@example.com", "to": "b@zenbox.email"}`)

	n, err := Normalize(raw)
	require.NoError(t, err)
	assert.False(t, n.ContentPending)
}

func TestNormalize_InvalidJSON(t *testing.T) {
	_, err := Normalize([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestNormalize_MissingAddresses(t *testing.T) {
	_, err := Normalize([]byte(`{"subject": "no addresses"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestNormalize_InvalidAddress(t *testing.T) {
	_, err := Normalize([]byte(`{"from": "not-an-email", "to": "b@zenbox.email"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
