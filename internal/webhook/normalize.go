package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Upstream relays deliver several payload shapes. Shape detection is
// explicit: an envelope with a type discriminator, a flat sender/recipient
// form, and a generic fallback probing alternative field names.

const eventEmailReceived = "email.received"

var (
	// ErrIgnoredEvent marks webhook deliveries that carry a non-message
	// event (delivery receipts, opens). They are acknowledged, not errors.
	ErrIgnoredEvent = errors.New("ignored webhook event type")

	ErrMalformedPayload = errors.New("malformed webhook payload")
)

var validate = validator.New()

// NormalizedEmail is the canonical message record produced from any
// supported payload shape. Request-scoped; never persisted verbatim.
type NormalizedEmail struct {
	FromAddress       string `validate:"required,email"`
	FromName          string
	ToAddress         string `validate:"required,email"`
	Subject           string
	TextBody          string
	HTMLBody          string
	ProviderMessageID string

	// ContentPending is set when the payload carried no body but a provider
	// message id is available for a best-effort content fetch.
	ContentPending bool
}

type envelopePayload struct {
	Type string `json:"type"`
	Data struct {
		From    json.RawMessage `json:"from"`
		To      json.RawMessage `json:"to"`
		Subject string          `json:"subject"`
		Text    string          `json:"text"`
		HTML    string          `json:"html"`
		EmailID string          `json:"email_id"`
	} `json:"data"`
}

type flatPayload struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	BodyPlain string `json:"body-plain"`
	BodyHTML  string `json:"body-html"`
	MessageID string `json:"Message-Id"`
}

// Normalize parses a raw JSON webhook body into a NormalizedEmail.
func Normalize(raw []byte) (*NormalizedEmail, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var (
		n   *NormalizedEmail
		err error
	)
	switch {
	case probe["type"] != nil && probe["data"] != nil:
		n, err = normalizeEnvelope(raw)
	case probe["sender"] != nil && probe["recipient"] != nil:
		n, err = normalizeFlat(raw)
	default:
		n, err = normalizeGeneric(probe)
	}
	if err != nil {
		return nil, err
	}

	if err := validate.Struct(n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if n.TextBody == "" && n.HTMLBody == "" && n.ProviderMessageID != "" {
		n.ContentPending = true
	}
	return n, nil
}

func normalizeEnvelope(raw []byte) (*NormalizedEmail, error) {
	var p envelopePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p.Type != eventEmailReceived {
		return nil, fmt.Errorf("%w: %s", ErrIgnoredEvent, p.Type)
	}

	from, name := decodeAddress(p.Data.From)
	to, _ := decodeAddress(p.Data.To)

	return &NormalizedEmail{
		FromAddress:       from,
		FromName:          name,
		ToAddress:         to,
		Subject:           p.Data.Subject,
		TextBody:          p.Data.Text,
		HTMLBody:          p.Data.HTML,
		ProviderMessageID: p.Data.EmailID,
	}, nil
}

func normalizeFlat(raw []byte) (*NormalizedEmail, error) {
	var p flatPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	from, name := splitDisplayName(p.Sender)
	to, _ := splitDisplayName(p.Recipient)

	return &NormalizedEmail{
		FromAddress:       from,
		FromName:          name,
		ToAddress:         to,
		Subject:           p.Subject,
		TextBody:          p.BodyPlain,
		HTMLBody:          p.BodyHTML,
		ProviderMessageID: strings.Trim(p.MessageID, "<>"),
	}, nil
}

func normalizeGeneric(probe map[string]json.RawMessage) (*NormalizedEmail, error) {
	from, name := decodeAddress(firstRaw(probe, "from", "From"))
	to, _ := decodeAddress(firstRaw(probe, "to", "To"))

	return &NormalizedEmail{
		FromAddress:       from,
		FromName:          name,
		ToAddress:         to,
		Subject:           firstString(probe, "subject", "Subject"),
		TextBody:          firstString(probe, "text", "TextBody", "plain", "body"),
		HTMLBody:          firstString(probe, "html", "HtmlBody", "body_html"),
		ProviderMessageID: firstString(probe, "message_id", "MessageID"),
	}, nil
}

// decodeAddress accepts a JSON string, a {email,name} object, or a list of
// either; only the first list element is used.
func decodeAddress(raw json.RawMessage) (address, name string) {
	if len(raw) == 0 {
		return "", ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return splitDisplayName(s)
	}

	var obj struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Email != "" {
		return strings.TrimSpace(obj.Email), obj.Name
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return decodeAddress(list[0])
	}

	return "", ""
}

// splitDisplayName extracts the bare address from "Name <addr>" input.
func splitDisplayName(s string) (address, name string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	parsed, err := mail.ParseAddress(s)
	if err != nil {
		return s, ""
	}
	return parsed.Address, parsed.Name
}

func firstRaw(probe map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := probe[k]; ok {
			return v
		}
	}
	return nil
}

func firstString(probe map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := probe[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}
