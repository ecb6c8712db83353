package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/application/common"
	"github.com/retailpos/backend/internal/domain/customer"
	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/sale"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// Service folds gateway webhooks into local transactions and runs the
// settlement side effects: completing the sale and posting the due
// portion onto the customer ledger, all inside one unit of work.
type Service struct {
	txRepo       payment.Repository
	saleRepo     sale.Repository
	customerRepo customer.Repository
	ledgerRepo   customer.LedgerRepository
	registry     *payment.NormalizerRegistry
	reconciler   *payment.ReconciliationService
	idempotency  shared.IdempotencyStore
	idemCfg      shared.IdempotencyConfig
	uow          shared.UnitOfWork
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewService creates a payment application service
func NewService(
	txRepo payment.Repository,
	saleRepo sale.Repository,
	customerRepo customer.Repository,
	ledgerRepo customer.LedgerRepository,
	registry *payment.NormalizerRegistry,
	idempotency shared.IdempotencyStore,
	idemCfg shared.IdempotencyConfig,
	uow shared.UnitOfWork,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		txRepo:       txRepo,
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		ledgerRepo:   ledgerRepo,
		registry:     registry,
		reconciler:   payment.NewReconciliationService(),
		idempotency:  idempotency,
		idemCfg:      idemCfg,
		uow:          uow,
		publisher:    publisher,
		logger:       logger,
	}
}

// HandleWebhook processes one gateway delivery. Unknown gateways are
// rejected with UNSUPPORTED_GATEWAY, untracked event types are
// acknowledged as ignored, and replays of an already-processed event
// come back as DUPLICATE_WEBHOOK so the handler can acknowledge them
// without touching state.
func (s *Service) HandleWebhook(ctx context.Context, gatewayName string, payload []byte) (*WebhookResponse, error) {
	normalizer, err := s.registry.Get(payment.Gateway(gatewayName))
	if err != nil {
		return nil, err
	}

	result, err := normalizer.Normalize(payload)
	if err != nil {
		var derr *shared.DomainError
		if errors.As(err, &derr) && derr.Code == "IGNORED_EVENT" {
			s.logger.Debug("ignored webhook event", zap.String("gateway", gatewayName))
			return &WebhookResponse{Ignored: true}, nil
		}
		return nil, err
	}

	tenantID, err := tenantFromResult(result)
	if err != nil {
		return nil, err
	}

	key := webhookKey(gatewayName, result)
	if s.idemCfg.Enabled && s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idemCfg.TTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, shared.ErrDuplicateWebhook
		}
	}

	var resp *WebhookResponse
	err = common.WithOptimisticRetry(ctx, func(ctx context.Context) error {
		return s.uow.Do(ctx, func(ctx context.Context) error {
			tx, err := s.findTransaction(ctx, tenantID, payment.Gateway(gatewayName), result)
			if err != nil {
				return err
			}

			outcome, err := s.reconciler.Reconcile(tx, result)
			if err != nil {
				return err
			}

			if !outcome.Changed {
				txID := tx.ID
				resp = &WebhookResponse{
					TransactionID: &txID,
					Status:        tx.Status.String(),
				}
				return nil
			}

			if err := s.txRepo.SaveWithLock(ctx, tx); err != nil {
				return err
			}

			if outcome.StatusChanged && tx.Type == payment.TypePayment {
				if err := s.applySaleEffects(ctx, tx, outcome, result); err != nil {
					return err
				}
			}

			s.publishAggregate(ctx, tx.GetDomainEvents())
			tx.ClearDomainEvents()

			txID := tx.ID
			resp = &WebhookResponse{
				TransactionID: &txID,
				Status:        tx.Status.String(),
				StatusChanged: outcome.StatusChanged,
				Settled:       outcome.Completed,
			}
			return nil
		})
	})
	if err != nil {
		// Unmark the event so the gateway's redelivery gets another
		// attempt instead of a duplicate acknowledgement.
		if s.idemCfg.Enabled && s.idempotency != nil {
			if rmErr := s.idempotency.Remove(ctx, key); rmErr != nil {
				s.logger.Warn("failed to release webhook idempotency key",
					zap.String("gateway", gatewayName),
					zap.Error(rmErr))
			}
		}
		return nil, err
	}

	s.logger.Info("webhook reconciled",
		zap.String("gateway", gatewayName),
		zap.String("transaction_id", resp.TransactionID.String()),
		zap.String("status", resp.Status),
		zap.Bool("settled", resp.Settled))

	return resp, nil
}

// applySaleEffects mirrors a payment transaction's new status onto its
// sale. First settlement completes the sale and posts any due portion
// to the customer ledger; a terminal failure fails the sale so the
// register can retry with another tender.
func (s *Service) applySaleEffects(ctx context.Context, tx *payment.Transaction, outcome *payment.Outcome, result *payment.GatewayResult) error {
	sl, err := s.saleRepo.FindByIDForTenant(ctx, tx.TenantID, tx.SaleID)
	if err != nil {
		return err
	}

	actor := "gateway:" + string(tx.Gateway)

	switch {
	case outcome.Completed:
		if !sl.IsOpen() {
			return nil
		}
		processedAt := time.Now()
		if tx.ProcessedAt != nil {
			processedAt = *tx.ProcessedAt
		}
		if err := sl.Settle(tx.ID, tx.Fee.Amount, processedAt, actor); err != nil {
			return err
		}
		if sl.CustomerID != nil {
			cust, err := s.customerRepo.FindByIDForTenant(ctx, tx.TenantID, *sl.CustomerID)
			if err != nil {
				return err
			}
			entry, err := cust.RecordPurchase(sl.Total, sl.DueAmount, sl.ID)
			if err != nil {
				return err
			}
			if err := s.customerRepo.SaveWithLock(ctx, cust); err != nil {
				return err
			}
			if err := s.ledgerRepo.Append(ctx, entry); err != nil {
				return err
			}
			s.publishAggregate(ctx, cust.GetDomainEvents())
			cust.ClearDomainEvents()
		}

	case outcome.To == valueobject.PaymentStatusFailed:
		if !sl.IsOpen() {
			return nil
		}
		if err := sl.Fail(actor, result.RawStatus); err != nil {
			return err
		}

	default:
		return nil
	}

	if err := s.saleRepo.SaveWithLock(ctx, sl); err != nil {
		return err
	}
	s.publishAggregate(ctx, sl.GetDomainEvents())
	sl.ClearDomainEvents()
	return nil
}

// findTransaction routes a gateway result to its local transaction.
// The processor reference is tried first; payloads whose charge has not
// been bound yet fall back to the transaction ID the checkout stuffed
// into the gateway metadata.
func (s *Service) findTransaction(ctx context.Context, tenantID uuid.UUID, gateway payment.Gateway, result *payment.GatewayResult) (*payment.Transaction, error) {
	if result.GatewayTransactionID != "" {
		tx, err := s.txRepo.FindByGatewayTransactionID(ctx, tenantID, gateway, result.GatewayTransactionID)
		if err == nil {
			return tx, nil
		}
		var derr *shared.DomainError
		if !errors.As(err, &derr) || derr.Code != shared.ErrNotFound.Code {
			return nil, err
		}
	}

	raw, ok := result.Metadata["transaction_id"]
	if !ok || raw == "" {
		return nil, shared.NewDomainError("NOT_FOUND", "No transaction matches this webhook")
	}
	txID, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewDomainErrorf("INVALID_INPUT", "Malformed transaction_id in gateway metadata: %q", raw)
	}
	return s.txRepo.FindByIDForTenant(ctx, tenantID, txID)
}

// Get returns one transaction by ID
func (s *Service) Get(ctx context.Context, tenantID, txID uuid.UUID) (*TransactionResponse, error) {
	tx, err := s.txRepo.FindByIDForTenant(ctx, tenantID, txID)
	if err != nil {
		return nil, err
	}
	return ToTransactionResponse(tx), nil
}

// ListBySale returns all transactions recorded against a sale
func (s *Service) ListBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]TransactionResponse, error) {
	txs, err := s.txRepo.FindBySale(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	out := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, *ToTransactionResponse(&txs[i]))
	}
	return out, nil
}

// List returns a page of transactions
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[TransactionResponse], error) {
	txs, err := s.txRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.txRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		items = append(items, *ToTransactionResponse(&txs[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// SweepPending cancels open transactions whose gateway never answered.
// Returns how many transactions were swept.
func (s *Service) SweepPending(ctx context.Context, tenantID uuid.UUID, olderThan time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	stale, err := s.txRepo.FindOpenOlderThan(ctx, tenantID, cutoff, limit)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range stale {
		tx := &stale[i]
		if err := tx.Cancel("sweeper", "gateway response timeout"); err != nil {
			s.logger.Warn("cannot sweep transaction",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.txRepo.SaveWithLock(ctx, tx); err != nil {
			// another writer got there first; the next sweep will see it
			s.logger.Warn("sweep save failed",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(err))
			continue
		}
		s.publishAggregate(ctx, tx.GetDomainEvents())
		tx.ClearDomainEvents()
		swept++
	}

	if swept > 0 {
		s.logger.Info("stale transactions swept", zap.Int("count", swept))
	}
	return swept, nil
}

func (s *Service) publishAggregate(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish events", zap.Error(err))
	}
}

// webhookKey identifies one gateway event for replay detection. The
// gateway's own event ID wins when present; otherwise the processor
// reference plus raw status stands in, so a PROCESSING and a COMPLETED
// delivery for the same charge are distinct events.
func webhookKey(gateway string, result *payment.GatewayResult) string {
	if id, ok := result.Metadata["event_id"]; ok && id != "" {
		return fmt.Sprintf("webhook:%s:%s", gateway, id)
	}
	return fmt.Sprintf("webhook:%s:%s:%s", gateway, result.GatewayTransactionID, result.RawStatus)
}

func tenantFromResult(result *payment.GatewayResult) (uuid.UUID, error) {
	raw, ok := result.Metadata["tenant_id"]
	if !ok || raw == "" {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Gateway metadata is missing tenant_id")
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, shared.NewDomainErrorf("INVALID_INPUT", "Malformed tenant_id in gateway metadata: %q", raw)
	}
	return tenantID, nil
}
