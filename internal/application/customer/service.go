package customer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/application/common"
	"github.com/retailpos/backend/internal/domain/customer"
	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service handles customer account and receivable ledger operations
type Service struct {
	customerRepo customer.Repository
	ledgerRepo   customer.LedgerRepository
	uow          shared.UnitOfWork
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewService creates a customer application service
func NewService(
	customerRepo customer.Repository,
	ledgerRepo customer.LedgerRepository,
	uow shared.UnitOfWork,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		customerRepo: customerRepo,
		ledgerRepo:   ledgerRepo,
		uow:          uow,
		publisher:    publisher,
		logger:       logger,
	}
}

// Create opens a new customer account
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	existing, err := s.customerRepo.FindByCode(ctx, tenantID, req.Code)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Customer with this code already exists")
	}

	c, err := customer.NewCustomer(tenantID, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if req.Phone != "" || req.Email != "" || req.Address != "" {
		if err := c.UpdateProfile(req.Name, req.Phone, req.Email, req.Address); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		c.SetNotes(req.Notes)
	}

	if err := s.customerRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, c)

	s.logger.Info("customer created",
		zap.String("customer_id", c.ID.String()),
		zap.String("code", c.Code))

	return ToCustomerResponse(c), nil
}

// Get returns one customer by ID
func (s *Service) Get(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// GetByCode returns one customer by store code
func (s *Service) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*CustomerResponse, error) {
	c, err := s.customerRepo.FindByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// FindByContact looks a customer up by phone or email. A miss is not
// an error: the POS front end looks up contacts during checkout and
// creates the customer when nothing comes back.
func (s *Service) FindByContact(ctx context.Context, tenantID uuid.UUID, contact string) (*CustomerResponse, error) {
	c, err := s.customerRepo.FindByContact(ctx, tenantID, contact)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// GetStatistics returns the tenant's aggregate receivable position
func (s *Service) GetStatistics(ctx context.Context, tenantID uuid.UUID) (*customer.Stats, error) {
	return s.customerRepo.Stats(ctx, tenantID)
}

// List returns a page of customers
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[CustomerResponse], error) {
	customers, err := s.customerRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.customerRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		items = append(items, *ToCustomerResponse(&customers[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Update edits a customer's profile
func (s *Service) Update(ctx context.Context, tenantID, customerID uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	var resp *CustomerResponse
	err := common.WithOptimisticRetry(ctx, func(ctx context.Context) error {
		c, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
		if err != nil {
			return err
		}
		if err := c.UpdateProfile(req.Name, req.Phone, req.Email, req.Address); err != nil {
			return err
		}
		c.SetNotes(req.Notes)

		if err := s.customerRepo.SaveWithLock(ctx, c); err != nil {
			return err
		}
		s.publishEvents(ctx, c)
		resp = ToCustomerResponse(c)
		return nil
	})
	return resp, err
}

// RecordDuePayment settles part of a customer's outstanding due. The
// customer update and the ledger append commit atomically; a lost
// optimistic-lock race reloads and retries up to the bounded limit.
func (s *Service) RecordDuePayment(ctx context.Context, tenantID, customerID uuid.UUID, req RecordPaymentRequest) (*CustomerResponse, error) {
	amount, err := common.ParseMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	var resp *CustomerResponse
	err = common.WithOptimisticRetry(ctx, func(ctx context.Context) error {
		return s.uow.Do(ctx, func(ctx context.Context) error {
			c, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
			if err != nil {
				return err
			}

			entry, err := c.RecordPayment(amount, req.TransactionID, req.Note)
			if err != nil {
				return err
			}
			if err := s.customerRepo.SaveWithLock(ctx, c); err != nil {
				return err
			}
			if err := s.ledgerRepo.Append(ctx, entry); err != nil {
				return err
			}

			s.publishEvents(ctx, c)
			resp = ToCustomerResponse(c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("due payment recorded",
		zap.String("customer_id", customerID.String()),
		zap.String("amount", amount.String()))

	return resp, nil
}

// AdjustDue applies a signed manual correction to the customer's due
func (s *Service) AdjustDue(ctx context.Context, tenantID, customerID uuid.UUID, actor string, req AdjustDueRequest) (*CustomerResponse, error) {
	amount, err := common.ParseMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	var resp *CustomerResponse
	err = common.WithOptimisticRetry(ctx, func(ctx context.Context) error {
		return s.uow.Do(ctx, func(ctx context.Context) error {
			c, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
			if err != nil {
				return err
			}

			entry, err := c.AdjustDue(amount, actor, req.Reason)
			if err != nil {
				return err
			}
			if err := s.customerRepo.SaveWithLock(ctx, c); err != nil {
				return err
			}
			if err := s.ledgerRepo.Append(ctx, entry); err != nil {
				return err
			}

			s.publishEvents(ctx, c)
			resp = ToCustomerResponse(c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("due adjusted",
		zap.String("customer_id", customerID.String()),
		zap.String("amount", amount.String()),
		zap.String("actor", actor))

	return resp, nil
}

// Activate re-enables a customer account
func (s *Service) Activate(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerResponse, error) {
	return s.changeStatus(ctx, tenantID, customerID, func(c *customer.Customer) error {
		return c.Activate()
	})
}

// Deactivate disables a customer account
func (s *Service) Deactivate(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerResponse, error) {
	return s.changeStatus(ctx, tenantID, customerID, func(c *customer.Customer) error {
		return c.Deactivate()
	})
}

func (s *Service) changeStatus(ctx context.Context, tenantID, customerID uuid.UUID, op func(*customer.Customer) error) (*CustomerResponse, error) {
	var resp *CustomerResponse
	err := common.WithOptimisticRetry(ctx, func(ctx context.Context) error {
		c, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
		if err != nil {
			return err
		}
		if err := op(c); err != nil {
			return err
		}
		if err := s.customerRepo.SaveWithLock(ctx, c); err != nil {
			return err
		}
		s.publishEvents(ctx, c)
		resp = ToCustomerResponse(c)
		return nil
	})
	return resp, err
}

// GetLedger returns a page of the customer's ledger, newest first
func (s *Service) GetLedger(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[LedgerEntryResponse], error) {
	// verify the customer exists before exposing ledger rows
	if _, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID); err != nil {
		return nil, err
	}

	page, err := s.ledgerRepo.FindByCustomer(ctx, tenantID, customerID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]LedgerEntryResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *ToLedgerEntryResponse(&page.Items[i]))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

func (s *Service) publishEvents(ctx context.Context, c *customer.Customer) {
	if s.publisher == nil {
		return
	}
	events := c.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish customer events", zap.Error(err))
	}
	c.ClearDomainEvents()
}

func isNotFound(err error) bool {
	derr, ok := err.(*shared.DomainError)
	return ok && derr.Code == shared.ErrNotFound.Code
}
