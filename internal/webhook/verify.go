package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Signature header sets supported on the inbound endpoint. The timestamped
// HMAC scheme signs "id.timestamp.body"; the token scheme signs
// "timestamp+token" with the relay API key.
const (
	headerWebhookID        = "Webhook-Id"
	headerWebhookTimestamp = "Webhook-Timestamp"
	headerWebhookSignature = "Webhook-Signature"

	headerTokenValue     = "X-Webhook-Token"
	headerTokenTimestamp = "X-Webhook-Timestamp"
	headerTokenSignature = "X-Webhook-Signature"

	signingSecretPrefix = "whsec_"

	// Tolerated clock skew between the relay and this service.
	timestampTolerance = 5 * time.Minute
)

var (
	ErrMissingSignature = errors.New("no supported signature headers present")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)

// Verifier authenticates inbound webhook deliveries against the
// pre-provisioned relay secrets.
type Verifier struct {
	signingSecret []byte
	apiKey        string
	allowUnsigned bool

	now func() time.Time
}

func NewVerifier(signingSecret, apiKey string, allowUnsigned bool) *Verifier {
	return &Verifier{
		signingSecret: decodeSigningSecret(signingSecret),
		apiKey:        apiKey,
		allowUnsigned: allowUnsigned,
		now:           time.Now,
	}
}

func decodeSigningSecret(secret string) []byte {
	if secret == "" {
		return nil
	}
	raw := strings.TrimPrefix(secret, signingSecretPrefix)
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// Secret was not base64; sign with the literal bytes.
		return []byte(raw)
	}
	return decoded
}

// Verify checks the request signature against whichever scheme's headers are
// present and returns the method used ("hmac", "token", or "unsigned").
func (v *Verifier) Verify(body []byte, h http.Header) (string, error) {
	switch {
	case h.Get(headerWebhookSignature) != "":
		return "hmac", v.verifyHMAC(body, h)
	case h.Get(headerTokenSignature) != "":
		return "token", v.verifyToken(h)
	case v.allowUnsigned:
		return "unsigned", nil
	default:
		return "", ErrMissingSignature
	}
}

func (v *Verifier) verifyHMAC(body []byte, h http.Header) error {
	if len(v.signingSecret) == 0 {
		return ErrInvalidSignature
	}

	id := h.Get(headerWebhookID)
	ts := h.Get(headerWebhookTimestamp)
	sig := h.Get(headerWebhookSignature)
	if id == "" || ts == "" {
		return ErrInvalidSignature
	}
	if err := v.checkTimestamp(ts); err != nil {
		return err
	}

	mac := hmac.New(sha256.New, v.signingSecret)
	fmt.Fprintf(mac, "%s.%s.", id, ts)
	mac.Write(body)
	expected := mac.Sum(nil)

	// The header carries a space-separated list of "v1,<base64>" entries;
	// any matching entry authenticates the delivery.
	for _, entry := range strings.Fields(sig) {
		version, value, ok := strings.Cut(entry, ",")
		if !ok || version != "v1" {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			continue
		}
		if hmac.Equal(got, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func (v *Verifier) verifyToken(h http.Header) error {
	if v.apiKey == "" {
		return ErrInvalidSignature
	}

	token := h.Get(headerTokenValue)
	ts := h.Get(headerTokenTimestamp)
	sig := h.Get(headerTokenSignature)
	if token == "" || ts == "" {
		return ErrInvalidSignature
	}
	if err := v.checkTimestamp(ts); err != nil {
		return err
	}

	mac := hmac.New(sha256.New, []byte(v.apiKey))
	mac.Write([]byte(ts + token))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig))) {
		return ErrInvalidSignature
	}
	return nil
}

func (v *Verifier) checkTimestamp(ts string) error {
	seconds, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	sent := time.Unix(seconds, 0)
	skew := v.now().Sub(sent)
	if skew < -timestampTolerance || skew > timestampTolerance {
		return ErrInvalidSignature
	}
	return nil
}
