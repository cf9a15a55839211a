package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/billing"
	"github.com/fintrack/backend/internal/domain/category"
	"github.com/fintrack/backend/internal/domain/ledger"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DuplicateDetectionWindow is how far back the duplicate heuristic looks for
// a completed ledger entry matching the bill's description, amount and kind.
const DuplicateDetectionWindow = 5 * time.Minute

// SettlementService reconciles a bill against its account: it marks the bill
// paid, moves the account balance, records the correlated ledger entry and,
// for recurring bills, schedules the next occurrence. All four writes happen
// in one transaction scope, and concurrent attempts on the same bill are
// serialized by a keyed guard plus a version check on the status transition.
type SettlementService struct {
	scope       TransactionScope
	guard       shared.SettlementGuard
	guardConfig shared.SettlementGuardConfig
	categories  category.Resolver
	eventBus    shared.EventBus
	logger      *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	scope TransactionScope,
	guard shared.SettlementGuard,
	guardConfig shared.SettlementGuardConfig,
	categories category.Resolver,
	eventBus shared.EventBus,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		scope:       scope,
		guard:       guard,
		guardConfig: guardConfig,
		categories:  categories,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// SetEventBus sets the event bus for publishing events
// This is useful when the event bus is not available at construction time
func (s *SettlementService) SetEventBus(eventBus shared.EventBus) {
	s.eventBus = eventBus
}

// SettleRequest represents a request to settle a bill
type SettleRequest struct {
	OwnerID uuid.UUID
	BillID  uuid.UUID
	// AccountID is the account the caller settles against. It may differ
	// from the account suggested on the bill.
	AccountID   uuid.UUID
	PaymentDate *time.Time // defaults to today
	// AllowDuplicate skips the duplicate-settlement heuristic. Set after the
	// caller confirmed a DuplicateSettlementError.
	AllowDuplicate bool
}

// SettlementReceipt is the denormalized result of a successful settlement,
// carrying everything a client needs to render the confirmation.
type SettlementReceipt struct {
	Bill        *billing.Bill       `json:"bill"`
	Account     *ledger.Account     `json:"account"`
	Transaction *ledger.Transaction `json:"transaction"`
	Successor   *billing.Bill       `json:"successor,omitempty"`
	Category    *category.Category  `json:"category,omitempty"`
	PaymentDate time.Time           `json:"payment_date"`
	// Warning carries a non-blocking advisory raised during settlement,
	// currently only the insufficient-balance one.
	Warning *shared.DomainError `json:"warning,omitempty"`
}

// Settle runs the full settlement ladder for one bill.
//
// Preconditions are checked against fresh reads inside the transaction:
// the caller-chosen account must exist, the bill must still be settleable,
// and unless the request overrides it, no matching ledger entry may exist
// inside the duplicate-detection window. An insufficient balance does not
// block the settlement (balances may go negative) but is logged and
// surfaced on the receipt.
func (s *SettlementService) Settle(ctx context.Context, req SettleRequest) (*SettlementReceipt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "settle")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBillID, req.BillID.String(),
		telemetry.SpanAttrOwnerID, req.OwnerID.String(),
	)

	if req.BillID == uuid.Nil {
		err := shared.NewDomainError("INVALID_BILL", "Bill ID cannot be empty")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.AccountID == uuid.Nil {
		err := shared.NewDomainError("VALIDATION_FAILED", "Settlement account must be provided")
		telemetry.RecordError(span, err)
		return nil, err
	}

	paymentDate := time.Now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	if s.guard != nil && s.guardConfig.Enabled {
		key := settlementKey(req.BillID)
		acquired, err := s.guard.Acquire(ctx, key, s.guardConfig.TTL)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to acquire settlement guard: %w", err)
		}
		if !acquired {
			err := shared.NewDomainError("CONCURRENCY_CONFLICT", "Another settlement for this bill is in progress")
			telemetry.RecordError(span, err)
			return nil, err
		}
		defer func() {
			if err := s.guard.Release(ctx, key); err != nil {
				s.logger.Warn("Failed to release settlement guard",
					zap.String("bill_id", req.BillID.String()),
					zap.Error(err),
				)
			}
		}()
	}

	receipt := &SettlementReceipt{PaymentDate: paymentDate}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Re-read inside the transaction so the precondition checks see the
		// latest committed state, not what the caller read earlier.
		bill, err := repos.BillRepo().FindByIDForOwner(ctx, req.OwnerID, req.BillID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("failed to get bill: %w", err)
		}
		if bill == nil {
			return shared.NewDomainError("BILL_NOT_FOUND", "Bill not found")
		}

		if bill.IsPaid() {
			return billing.ErrAlreadySettled(bill)
		}
		if !bill.Status.IsSettleable() {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot settle bill in %s status", bill.Status))
		}

		account, err := repos.AccountRepo().FindByIDForOwner(ctx, req.OwnerID, req.AccountID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("failed to get account: %w", err)
		}
		if account == nil {
			return shared.NewDomainError("ACCOUNT_NOT_FOUND", "Settlement account not found")
		}

		telemetry.SetAttributes(span,
			telemetry.SpanAttrAccountID, account.ID.String(),
			telemetry.SpanAttrAmount, bill.Amount.String(),
		)

		if !req.AllowDuplicate {
			if dup, err := s.findRecentDuplicate(ctx, repos.TransactionRepo(), bill, paymentDate); err != nil {
				return fmt.Errorf("failed to check for duplicate settlement: %w", err)
			} else if dup != nil {
				return dup
			}
		}

		if bill.Direction == billing.DirectionPayable && !account.HasSufficientBalance(bill.Amount) {
			receipt.Warning = shared.ErrInsufficientBalance
			s.logger.Warn("Settling bill with insufficient account balance",
				zap.String("bill_id", bill.ID.String()),
				zap.String("account_id", account.ID.String()),
				zap.String("balance", account.Balance.String()),
				zap.String("amount", bill.Amount.String()),
			)
		}

		// Write 1: the bill status transition. The version check makes this
		// a compare-and-swap; a concurrent settle that committed first makes
		// it fail instead of paying the bill twice.
		if err := bill.Settle(paymentDate); err != nil {
			return err
		}
		if err := repos.BillRepo().SaveWithLock(ctx, bill); err != nil {
			return fmt.Errorf("failed to save bill: %w", err)
		}

		// Write 2: the account balance movement.
		if bill.Direction == billing.DirectionPayable {
			err = account.Debit(bill.Amount)
		} else {
			err = account.Credit(bill.Amount)
		}
		if err != nil {
			return partialFailure(bill, "account_update", err)
		}
		if err := repos.AccountRepo().SaveWithLock(ctx, account); err != nil {
			return partialFailure(bill, "account_update", err)
		}

		// Write 3: the correlated ledger entry.
		entry, err := s.buildLedgerEntry(bill, account.ID, paymentDate)
		if err != nil {
			return partialFailure(bill, "ledger_entry", err)
		}
		if err := repos.TransactionRepo().Create(ctx, entry); err != nil {
			return partialFailure(bill, "ledger_entry", err)
		}

		// Write 4: the next occurrence of a recurring bill.
		var successor *billing.Bill
		if bill.IsRecurring {
			successor, err = bill.Successor()
			if err != nil {
				return partialFailure(bill, "successor", err)
			}
			if err := repos.BillRepo().Create(ctx, successor); err != nil {
				return partialFailure(bill, "successor", err)
			}
		}

		receipt.Bill = bill
		receipt.Account = account
		receipt.Transaction = entry
		receipt.Successor = successor
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.categories != nil && receipt.Bill.CategoryID != uuid.Nil {
		cat, err := s.categories.Resolve(ctx, receipt.Bill.CategoryID)
		if err != nil {
			s.logger.Warn("Could not resolve category for settlement receipt",
				zap.String("bill_id", receipt.Bill.ID.String()),
				zap.String("category_id", receipt.Bill.CategoryID.String()),
				zap.Error(err),
			)
		} else {
			receipt.Category = cat
		}
	}

	s.publishEvents(ctx, receipt.Bill)
	if receipt.Successor != nil {
		s.publishEvents(ctx, receipt.Successor)
	}

	s.logger.Info("Bill settled",
		zap.String("bill_id", receipt.Bill.ID.String()),
		zap.String("account_id", receipt.Account.ID.String()),
		zap.String("amount", receipt.Bill.Amount.String()),
		zap.Time("payment_date", paymentDate),
		zap.Bool("recurring", receipt.Successor != nil),
	)
	telemetry.SetOK(span)

	return receipt, nil
}

// findRecentDuplicate probes the ledger for a completed entry matching the
// bill inside the detection window.
func (s *SettlementService) findRecentDuplicate(
	ctx context.Context,
	txRepo ledger.TransactionRepository,
	bill *billing.Bill,
	asOf time.Time,
) (*billing.DuplicateSettlementError, error) {
	matches, err := txRepo.FindRecentMatching(ctx, ledger.TransactionMatch{
		OwnerID:     bill.OwnerID,
		Description: bill.Description,
		Amount:      bill.Amount,
		Kind:        kindForDirection(bill.Direction),
		Since:       asOf.Add(-DuplicateDetectionWindow),
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	return &billing.DuplicateSettlementError{
		BillID:      bill.ID,
		Description: bill.Description,
		Amount:      bill.Amount,
		MatchedAt:   matches[0].CreatedAt,
		Window:      DuplicateDetectionWindow,
	}, nil
}

// buildLedgerEntry creates the transaction recording the settlement against
// the account the caller actually settled on
func (s *SettlementService) buildLedgerEntry(bill *billing.Bill, accountID uuid.UUID, paymentDate time.Time) (*ledger.Transaction, error) {
	billID := bill.ID
	return ledger.NewTransaction(
		bill.OwnerID,
		bill.Description,
		bill.Amount,
		kindForDirection(bill.Direction),
		bill.CategoryID,
		accountID,
		paymentDate,
		bill.Notes,
		&billID,
	)
}

func (s *SettlementService) publishEvents(ctx context.Context, bill *billing.Bill) {
	if s.eventBus == nil {
		return
	}
	for _, event := range bill.GetDomainEvents() {
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish settlement event",
				zap.String("event_type", event.EventType()),
				zap.String("bill_id", bill.ID.String()),
				zap.Error(err),
			)
		}
	}
	bill.ClearDomainEvents()
}

// kindForDirection maps a bill direction to the ledger entry kind it produces
func kindForDirection(d billing.Direction) ledger.TransactionKind {
	if d == billing.DirectionReceivable {
		return ledger.KindIncome
	}
	return ledger.KindExpense
}

func partialFailure(bill *billing.Bill, step string, err error) error {
	return &billing.PartialReconciliationError{
		BillID:      bill.ID,
		Description: bill.Description,
		Amount:      bill.Amount,
		FailedStep:  step,
		Err:         err,
	}
}

func settlementKey(billID uuid.UUID) string {
	return "settlement:bill:" + billID.String()
}
