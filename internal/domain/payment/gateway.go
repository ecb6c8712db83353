package payment

import (
	"sync"
	"time"

	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// GatewayResult is a gateway webhook payload reduced to the common
// shape the reconciliation service understands. Fee is nil when the
// gateway reported nothing and no estimate applies; FeeReported tells
// whether Fee came off the wire or from a local fee schedule.
type GatewayResult struct {
	GatewayTransactionID string
	Status               valueobject.PaymentStatus
	Amount               valueobject.Money
	Fee                  *valueobject.Money
	FeeReported          bool
	RawStatus            string
	ProcessedAt          *time.Time
	Metadata             map[string]string
}

// GatewayNormalizer turns one processor's webhook payload into a
// GatewayResult. Implementations are stateless and safe for concurrent
// use.
type GatewayNormalizer interface {
	// Gateway returns the processor this normalizer handles
	Gateway() Gateway

	// Normalize parses a raw webhook body. Payloads that do not concern
	// a payment (ping events, disputes) return ErrIgnoredEvent.
	Normalize(payload []byte) (*GatewayResult, error)
}

// ErrIgnoredEvent signals a webhook event type the subsystem does not
// track. The caller acknowledges it without touching any transaction.
var ErrIgnoredEvent = shared.NewDomainError("IGNORED_EVENT", "Webhook event type is not tracked")

// NormalizerRegistry routes webhook payloads to the right normalizer by
// gateway name
type NormalizerRegistry struct {
	mu          sync.RWMutex
	normalizers map[Gateway]GatewayNormalizer
}

// NewNormalizerRegistry creates an empty registry
func NewNormalizerRegistry() *NormalizerRegistry {
	return &NormalizerRegistry{
		normalizers: make(map[Gateway]GatewayNormalizer),
	}
}

// Register adds a normalizer, replacing any previous one for the same
// gateway
func (r *NormalizerRegistry) Register(n GatewayNormalizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalizers[n.Gateway()] = n
}

// Get returns the normalizer for a gateway, or UNSUPPORTED_GATEWAY
func (r *NormalizerRegistry) Get(gateway Gateway) (GatewayNormalizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.normalizers[gateway]
	if !ok {
		return nil, shared.NewDomainErrorf("UNSUPPORTED_GATEWAY", "No normalizer registered for gateway %q", gateway)
	}
	return n, nil
}

// Gateways lists the registered gateway names
func (r *NormalizerRegistry) Gateways() []Gateway {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Gateway, 0, len(r.normalizers))
	for g := range r.normalizers {
		out = append(out, g)
	}
	return out
}
