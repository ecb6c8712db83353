package gateway

import (
	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/infrastructure/config"
)

// NewRegistry builds the normalizer registry from gateway
// configuration. The manual gateway is always available; processors
// register only when enabled.
func NewRegistry(cfg config.GatewaysConfig) *payment.NormalizerRegistry {
	registry := payment.NewNormalizerRegistry()
	registry.Register(NewManualNormalizer())

	if cfg.Stripe.Enabled {
		registry.Register(NewStripeNormalizer())
	}
	if cfg.PayPal.Enabled {
		registry.Register(NewPayPalNormalizer())
	}
	if cfg.Braintree.Enabled {
		registry.Register(NewBraintreeNormalizer())
	}

	return registry
}

// NewVerifiers builds the per-gateway signature verifiers. A processor
// without a configured webhook secret gets a noop verifier, which the
// config layer forbids in production.
func NewVerifiers(cfg config.GatewaysConfig) map[payment.Gateway]SignatureVerifier {
	verifiers := map[payment.Gateway]SignatureVerifier{
		payment.GatewayManual: &NoopVerifier{},
	}

	if cfg.Stripe.WebhookSecret != "" {
		verifiers[payment.GatewayStripe] = NewStripeVerifier(cfg.Stripe.WebhookSecret)
	} else {
		verifiers[payment.GatewayStripe] = &NoopVerifier{}
	}
	if cfg.PayPal.WebhookSecret != "" {
		verifiers[payment.GatewayPayPal] = NewHMACVerifier(cfg.PayPal.WebhookSecret)
	} else {
		verifiers[payment.GatewayPayPal] = &NoopVerifier{}
	}
	if cfg.Braintree.WebhookSecret != "" {
		verifiers[payment.GatewayBraintree] = NewHMACVerifier(cfg.Braintree.WebhookSecret)
	} else {
		verifiers[payment.GatewayBraintree] = &NoopVerifier{}
	}

	return verifiers
}

// SignatureHeader returns the HTTP header each processor uses to carry
// its webhook signature
func SignatureHeader(gw payment.Gateway) string {
	switch gw {
	case payment.GatewayStripe:
		return "Stripe-Signature"
	case payment.GatewayPayPal:
		return "Paypal-Transmission-Sig"
	case payment.GatewayBraintree:
		return "Bt-Signature"
	default:
		return ""
	}
}
