package event

import (
	"context"

	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditHandler writes every domain event to the structured log. It is
// registered as a wildcard subscriber so register activity, payment
// reconciliation and ledger postings all leave a trace without each
// service logging its own events.
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler creates an audit handler backed by the given logger
func NewAuditHandler(logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{logger: logger}
}

// Handle logs the event
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns an empty slice so the handler receives all events
func (h *AuditHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*AuditHandler)(nil)
