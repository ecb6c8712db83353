package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/retailpos/backend/internal/domain/shared"
)

// ErrInvalidSignature is returned when a webhook payload fails
// signature verification
var ErrInvalidSignature = shared.NewDomainError("UNAUTHORIZED", "Webhook signature verification failed")

// SignatureVerifier checks a webhook payload against the signature
// header the processor sent with it
type SignatureVerifier interface {
	Verify(payload []byte, signature string) error
}

// StripeVerifier verifies Stripe's Stripe-Signature header using the
// endpoint's signing secret
type StripeVerifier struct {
	secret string
}

// NewStripeVerifier creates a verifier for the given signing secret
func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: secret}
}

// Verify checks the timestamped HMAC Stripe computes over the payload
func (v *StripeVerifier) Verify(payload []byte, signature string) error {
	if err := webhook.ValidatePayload(payload, signature, v.secret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// HMACVerifier verifies a hex-encoded HMAC-SHA256 of the payload,
// keyed with the shared webhook secret. Used for processors configured
// with a transmission secret rather than Stripe's signing scheme.
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier creates a verifier for the given shared secret
func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Verify recomputes the HMAC and compares in constant time
func (v *HMACVerifier) Verify(payload []byte, signature string) error {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// NoopVerifier accepts every payload. Used for the manual gateway and
// for processors without a configured secret in development.
type NoopVerifier struct{}

// Verify always succeeds
func (v *NoopVerifier) Verify(payload []byte, signature string) error {
	return nil
}

var (
	_ SignatureVerifier = (*StripeVerifier)(nil)
	_ SignatureVerifier = (*HMACVerifier)(nil)
	_ SignatureVerifier = (*NoopVerifier)(nil)
)
