package checkout

import (
	"context"
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

// receiptSequence is the named counter receipt numbers draw from
const receiptSequence = "receipt"

// Service handles checkout: creating sales, settling them against the
// customer ledger, refunds, cancellation and the stale-sale sweep.
type Service struct {
	saleRepo     sale.Repository
	seqRepo      sale.SequenceRepository
	customerRepo customer.Repository
	ledgerRepo   customer.LedgerRepository
	txRepo       payment.Repository
	uow          shared.UnitOfWork
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewService creates a checkout application service
func NewService(
	saleRepo sale.Repository,
	seqRepo sale.SequenceRepository,
	customerRepo customer.Repository,
	ledgerRepo customer.LedgerRepository,
	txRepo payment.Repository,
	uow shared.UnitOfWork,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		saleRepo:     saleRepo,
		seqRepo:      seqRepo,
		customerRepo: customerRepo,
		ledgerRepo:   ledgerRepo,
		txRepo:       txRepo,
		uow:          uow,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreateSale rings up a sale. Manual tenders settle immediately: the
// sale completes and any due portion lands on the customer ledger in
// the same transaction. Online tenders leave the sale in PROCESSING
// until the gateway webhook reconciles the payment.
func (s *Service) CreateSale(ctx context.Context, tenantID uuid.UUID, actor string, req CreateSaleRequest) (*SaleResponse, error) {
	method := payment.Method(req.Method)
	if !method.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_INPUT", "Unknown payment method %q", req.Method)
	}
	gateway := payment.Gateway(req.Gateway)
	if gateway == "" {
		gateway = payment.GatewayManual
	}

	discount, err := parseOrZero(req.Discount, req.Currency)
	if err != nil {
		return nil, err
	}
	tax, err := parseOrZero(req.Tax, req.Currency)
	if err != nil {
		return nil, err
	}
	total, err := common.ParseMoney(req.Total, req.Currency)
	if err != nil {
		return nil, err
	}
	paid, err := common.ParseMoney(req.PaidAmount, req.Currency)
	if err != nil {
		return nil, err
	}

	items, err := buildLineItems(req.Items, req.Currency)
	if err != nil {
		return nil, err
	}

	var resp *SaleResponse
	err = common.WithOptimisticRetry(ctx, func(ctx context.Context) error {
		return s.uow.Do(ctx, func(ctx context.Context) error {
			receiptNumber, err := s.nextReceiptNumber(ctx, tenantID)
			if err != nil {
				return err
			}

			sl, err := sale.NewSale(tenantID, receiptNumber, req.CustomerID, items, discount, tax, total, paid)
			if err != nil {
				return err
			}
			if req.Note != "" {
				sl.SetNote(req.Note)
			}

			var cust *customer.Customer
			if req.CustomerID != nil {
				cust, err = s.customerRepo.FindByIDForTenant(ctx, tenantID, *req.CustomerID)
				if err != nil {
					return err
				}
				if !cust.IsActive() {
					return shared.NewDomainError("INVALID_STATE", "Customer account is not active")
				}
			}

			var tx *payment.Transaction
			if sl.PaidAmount.IsPositive() {
				tx, err = payment.NewPaymentTransaction(tenantID, sl.ID, req.CustomerID, method, gateway, sl.PaidAmount)
				if err != nil {
					return err
				}
			}

			if gateway == payment.GatewayManual {
				if tx != nil {
					if err := tx.SetFee(payment.ZeroFee(sl.Total.Currency())); err != nil {
						return err
					}
					if err := tx.Complete(actor, nil); err != nil {
						return err
					}
				}
				if err := s.settleSale(ctx, sl, cust, tx, actor); err != nil {
					return err
				}
			} else {
				if err := sl.MarkProcessing(actor); err != nil {
					return err
				}
			}

			if err := s.saleRepo.Save(ctx, sl); err != nil {
				return err
			}
			if tx != nil {
				if err := s.txRepo.Save(ctx, tx); err != nil {
					return err
				}
				s.publishAggregate(ctx, tx.GetDomainEvents())
				tx.ClearDomainEvents()
			}
			s.publishAggregate(ctx, sl.GetDomainEvents())
			sl.ClearDomainEvents()

			resp = ToSaleResponse(sl)
			if tx != nil {
				txID := tx.ID
				resp.TransactionID = &txID
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale created",
		zap.String("receipt_number", resp.ReceiptNumber),
		zap.String("status", resp.Status),
		zap.String("total", resp.Total.String()))

	return resp, nil
}

// settleSale completes the sale and, when a customer is attached,
// records the purchase on their ledger. Runs inside the caller's unit
// of work so the sale, customer and ledger land together. A nil
// transaction means the whole sale went on credit; there is nothing to
// link, only the completion itself.
func (s *Service) settleSale(ctx context.Context, sl *sale.Sale, cust *customer.Customer, tx *payment.Transaction, actor string) error {
	if tx != nil {
		processedAt := time.Now()
		if tx.ProcessedAt != nil {
			processedAt = *tx.ProcessedAt
		}
		if err := sl.Settle(tx.ID, tx.Fee.Amount, processedAt, actor); err != nil {
			return err
		}
	} else if err := sl.Complete(actor); err != nil {
		return err
	}
	if cust == nil {
		return nil
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
	return nil
}

// Get returns one sale by ID
func (s *Service) Get(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sl, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sl), nil
}

// GetByReceipt returns one sale by its receipt number
func (s *Service) GetByReceipt(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*SaleResponse, error) {
	sl, err := s.saleRepo.FindByReceiptNumber(ctx, tenantID, receiptNumber)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sl), nil
}

// GetReceipt returns the printable receipt payload for a sale
func (s *Service) GetReceipt(ctx context.Context, tenantID, saleID uuid.UUID) (*ReceiptResponse, error) {
	sl, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	return ToReceiptResponse(sl), nil
}

// List returns a page of sales
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[SaleResponse], error) {
	sales, err := s.saleRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.saleRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *ToSaleResponse(&sales[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ListByCustomer returns a customer's sales, newest first
func (s *Service) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[SaleResponse], error) {
	page, err := s.saleRepo.FindByCustomer(ctx, tenantID, customerID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]SaleResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *ToSaleResponse(&page.Items[i]))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// Cancel voids an open sale
func (s *Service) Cancel(ctx context.Context, tenantID, saleID uuid.UUID, actor string, req CancelSaleRequest) (*SaleResponse, error) {
	var resp *SaleResponse
	err := common.WithOptimisticRetry(ctx, func(ctx context.Context) error {
		sl, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
		if err != nil {
			return err
		}
		if err := sl.Cancel(actor, req.Reason); err != nil {
			return err
		}
		if err := s.saleRepo.SaveWithLock(ctx, sl); err != nil {
			return err
		}
		s.publishAggregate(ctx, sl.GetDomainEvents())
		sl.ClearDomainEvents()
		resp = ToSaleResponse(sl)
		return nil
	})
	return resp, err
}

// Refund refunds part or all of a completed sale. A refund transaction
// is written alongside the sale; manual refunds settle immediately.
func (s *Service) Refund(ctx context.Context, tenantID, saleID uuid.UUID, actor string, req RefundSaleRequest) (*SaleResponse, error) {
	amount, err := common.ParseMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	var resp *SaleResponse
	err = common.WithOptimisticRetry(ctx, func(ctx context.Context) error {
		return s.uow.Do(ctx, func(ctx context.Context) error {
			sl, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
			if err != nil {
				return err
			}

			original, err := s.findSettledPayment(ctx, tenantID, saleID)
			if err != nil {
				return err
			}

			if err := sl.ApplyRefund(amount, actor, req.Reason); err != nil {
				return err
			}

			refundTx, err := payment.NewRefundTransaction(
				tenantID, sl.ID, sl.CustomerID, original.ID, original.Method, original.Gateway, amount)
			if err != nil {
				return err
			}
			if original.Gateway == payment.GatewayManual {
				if err := refundTx.SetFee(payment.ZeroFee(amount.Currency())); err != nil {
					return err
				}
				if err := refundTx.Complete(actor, nil); err != nil {
					return err
				}
			}

			if err := s.saleRepo.SaveWithLock(ctx, sl); err != nil {
				return err
			}
			if err := s.txRepo.Save(ctx, refundTx); err != nil {
				return err
			}

			s.publishAggregate(ctx, sl.GetDomainEvents())
			sl.ClearDomainEvents()
			s.publishAggregate(ctx, refundTx.GetDomainEvents())
			refundTx.ClearDomainEvents()

			resp = ToSaleResponse(sl)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale refunded",
		zap.String("sale_id", saleID.String()),
		zap.String("amount", amount.String()),
		zap.String("actor", actor))

	return resp, nil
}

// SweepStale cancels open sales that have sat unpaid past the cutoff.
// Returns how many sales were swept.
func (s *Service) SweepStale(ctx context.Context, tenantID uuid.UUID, olderThan time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	stale, err := s.saleRepo.FindOpenOlderThan(ctx, tenantID, cutoff, limit)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range stale {
		sl := &stale[i]
		if err := sl.Cancel("sweeper", "stale sale timeout"); err != nil {
			s.logger.Warn("cannot sweep sale",
				zap.String("sale_id", sl.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.saleRepo.SaveWithLock(ctx, sl); err != nil {
			// another writer got there first; the next sweep will see it
			s.logger.Warn("sweep save failed",
				zap.String("sale_id", sl.ID.String()),
				zap.Error(err))
			continue
		}
		s.publishAggregate(ctx, sl.GetDomainEvents())
		sl.ClearDomainEvents()
		swept++
	}

	if swept > 0 {
		s.logger.Info("stale sales swept", zap.Int("count", swept))
	}
	return swept, nil
}

func (s *Service) nextReceiptNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	n, err := s.seqRepo.Next(ctx, tenantID, receiptSequence)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("R-%d-%06d", time.Now().UTC().Year(), n), nil
}

// findSettledPayment locates the settled payment transaction a refund
// reverses
func (s *Service) findSettledPayment(ctx context.Context, tenantID, saleID uuid.UUID) (*payment.Transaction, error) {
	txs, err := s.txRepo.FindBySale(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		if txs[i].Type == payment.TypePayment && txs[i].IsSettled() {
			return &txs[i], nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "No settled payment found for this sale")
}

func (s *Service) publishAggregate(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish events", zap.Error(err))
	}
}

func buildLineItems(reqs []LineItemRequest, currency string) ([]*sale.LineItem, error) {
	items := make([]*sale.LineItem, 0, len(reqs))
	for _, r := range reqs {
		unitPrice, err := common.ParseMoney(r.UnitPrice, currency)
		if err != nil {
			return nil, err
		}
		discount, err := parseOrZero(r.Discount, currency)
		if err != nil {
			return nil, err
		}
		submitted, err := common.ParseMoney(r.Total, currency)
		if err != nil {
			return nil, err
		}

		item, err := sale.NewLineItem(r.Name, unitPrice, r.Quantity, discount, r.ProductID)
		if err != nil {
			return nil, err
		}
		if err := item.VerifyTotal(submitted); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func parseOrZero(amount, currency string) (valueobject.Money, error) {
	if amount == "" {
		cur := valueobject.Currency(currency)
		if cur == "" {
			cur = valueobject.DefaultCurrency
		}
		return valueobject.Zero(cur), nil
	}
	return common.ParseMoney(amount, currency)
}
