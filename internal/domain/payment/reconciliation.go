package payment

import (
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// ReconciliationService folds a normalized gateway result into a local
// transaction. It is a pure domain service: the caller is responsible
// for loading the transaction, running Reconcile inside a database
// transaction together with the customer ledger update, and persisting
// the result. Either everything lands or nothing does.
type ReconciliationService struct{}

// NewReconciliationService creates the reconciliation domain service
func NewReconciliationService() *ReconciliationService {
	return &ReconciliationService{}
}

// Outcome describes what Reconcile changed, so the application layer
// knows which follow-up side effects to run.
type Outcome struct {
	// StatusChanged is true when the transaction moved to a new status
	StatusChanged bool

	// Changed is true when Reconcile mutated the transaction at all:
	// a status move, a newly bound gateway reference, or a fee update.
	// When false the caller has nothing to persist.
	Changed bool

	// Completed is true when this reconciliation settled the
	// transaction for the first time
	Completed bool

	// From and To are the statuses before and after
	From valueobject.PaymentStatus
	To   valueobject.PaymentStatus
}

// Reconcile verifies the gateway result against the local transaction
// and applies it. A result whose amount disagrees beyond tolerance is
// rejected with AMOUNT_MISMATCH and the transaction is left untouched.
// A result carrying the status the transaction already has is a
// no-op, so replayed webhooks converge instead of failing. Fee
// precedence is one-way: an estimate never replaces a reported fee.
func (s *ReconciliationService) Reconcile(tx *Transaction, result *GatewayResult) (*Outcome, error) {
	if result == nil {
		return nil, shared.ErrInvalidInput
	}

	ok, err := tx.Amount.WithinTolerance(result.Amount, valueobject.AmountTolerance)
	if err != nil {
		return nil, shared.NewDomainErrorf("CURRENCY_MISMATCH",
			"Gateway reported %s but transaction is in %s", result.Amount.Currency(), tx.Amount.Currency())
	}
	if !ok {
		return nil, shared.NewDomainErrorf("AMOUNT_MISMATCH",
			"Gateway reported %s but transaction expects %s", result.Amount.String(), tx.Amount.String())
	}

	refChanged := result.GatewayTransactionID != "" && tx.GatewayTransactionID != result.GatewayTransactionID
	if result.GatewayTransactionID != "" {
		if err := tx.SetGatewayTransactionID(result.GatewayTransactionID); err != nil {
			return nil, err
		}
	}

	feeChanged := false
	if fee, ok := applicableFee(tx, result); ok {
		feeChanged = tx.Fee.Type != fee.Type || !tx.Fee.Amount.Equals(fee.Amount)
		if feeChanged {
			if err := tx.SetFee(fee); err != nil {
				return nil, err
			}
		}
	}

	outcome := &Outcome{From: tx.Status, To: result.Status}

	if result.Status == tx.Status {
		outcome.Changed = refChanged || feeChanged
		if outcome.Changed {
			tx.IncrementVersion()
		}
		return outcome, nil
	}

	wasSettled := tx.ProcessedAt != nil
	actor := "gateway:" + string(tx.Gateway)

	switch result.Status {
	case valueobject.PaymentStatusProcessing:
		err = tx.MarkProcessing(actor)
	case valueobject.PaymentStatusCompleted:
		err = tx.Complete(actor, result.ProcessedAt)
	case valueobject.PaymentStatusFailed:
		err = tx.Fail(actor, result.RawStatus)
	case valueobject.PaymentStatusCancelled:
		err = tx.Cancel(actor, result.RawStatus)
	case valueobject.PaymentStatusRefunded:
		err = tx.MarkRefunded(actor, result.RawStatus, false)
	case valueobject.PaymentStatusPartiallyRefunded:
		err = tx.MarkRefunded(actor, result.RawStatus, true)
	default:
		err = shared.NewDomainErrorf("INVALID_INPUT", "Unknown gateway status %q", result.Status)
	}
	if err != nil {
		return nil, err
	}

	outcome.StatusChanged = true
	outcome.Changed = true
	outcome.Completed = !wasSettled && tx.Status == valueobject.PaymentStatusCompleted

	return outcome, nil
}

// applicableFee decides whether the result's fee may be written. A
// reported fee always wins. An estimate only fills in while the fee on
// file is itself an estimate and the transaction has not settled; it
// never overwrites a reported fee and never moves a frozen net amount.
func applicableFee(tx *Transaction, result *GatewayResult) (Fee, bool) {
	if result.Fee == nil {
		return Fee{}, false
	}

	feeType := FeeEstimated
	if result.FeeReported {
		feeType = FeeReported
	}
	if feeType == FeeEstimated && (tx.Fee.Type == FeeReported || tx.ProcessedAt != nil) {
		return Fee{}, false
	}

	return Fee{Amount: *result.Fee, Type: feeType}, true
}
