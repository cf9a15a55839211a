package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/billing"
	"github.com/fintrack/backend/internal/domain/ledger"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BillService provides application-level bill lifecycle operations: creation
// (including upfront installment sets), edits with ledger synchronization,
// cancellation, cascade deletion and queries. Settlement lives in
// SettlementService.
type BillService struct {
	billRepo billing.BillRepository
	txRepo   ledger.TransactionRepository
	scope    TransactionScope
	eventBus shared.EventBus
	logger   *zap.Logger
}

// NewBillService creates a new BillService
func NewBillService(
	billRepo billing.BillRepository,
	txRepo ledger.TransactionRepository,
	scope TransactionScope,
	logger *zap.Logger,
) *BillService {
	return &BillService{
		billRepo: billRepo,
		txRepo:   txRepo,
		scope:    scope,
		logger:   logger,
	}
}

// SetEventBus sets the event bus for publishing events
// This is useful when the event bus is not available at construction time
func (s *BillService) SetEventBus(eventBus shared.EventBus) {
	s.eventBus = eventBus
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID               uuid.UUID       `json:"id"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	AmountDisplay    string          `json:"amount_display"`
	Direction        string          `json:"direction"`
	CategoryID       uuid.UUID       `json:"category_id"`
	AccountID        uuid.UUID       `json:"account_id"`
	DueDate          time.Time       `json:"due_date"`
	Status           string          `json:"status"`
	PaymentDate      *time.Time      `json:"payment_date,omitempty"`
	IsRecurring      bool            `json:"is_recurring"`
	RecurrenceUnit   string          `json:"recurrence_unit,omitempty"`
	InstallmentCount int             `json:"installment_count,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	ContactName      string          `json:"contact_name,omitempty"`
	ContactPhone     string          `json:"contact_phone,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version"`
}

// CreateBillRequest represents a request to create a bill or installment set
type CreateBillRequest struct {
	Description      string          `json:"description" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	Direction        string          `json:"direction" binding:"required"`
	CategoryID       uuid.UUID       `json:"category_id"`
	AccountID        uuid.UUID       `json:"account_id" binding:"required"`
	DueDate          time.Time       `json:"due_date" binding:"required"`
	IsRecurring      bool            `json:"is_recurring"`
	RecurrenceUnit   string          `json:"recurrence_unit"`
	InstallmentCount int             `json:"installment_count"`
	// IsVariableAmount marks an installment set whose amounts differ per
	// installment; InstallmentAmounts must then carry exactly
	// InstallmentCount values.
	IsVariableAmount   bool              `json:"is_variable_amount"`
	InstallmentAmounts []decimal.Decimal `json:"installment_amounts"`
	Notes              string            `json:"notes"`
	ContactName        string            `json:"contact_name"`
	ContactPhone       string            `json:"contact_phone"`
}

// UpdateBillRequest represents a request to edit a bill. Nil fields are
// left untouched.
type UpdateBillRequest struct {
	Description  *string          `json:"description"`
	Amount       *decimal.Decimal `json:"amount"`
	CategoryID   *uuid.UUID       `json:"category_id"`
	AccountID    *uuid.UUID       `json:"account_id"`
	DueDate      *time.Time       `json:"due_date"`
	Notes        *string          `json:"notes"`
	ContactName  *string          `json:"contact_name"`
	ContactPhone *string          `json:"contact_phone"`
}

// BillListFilter defines filtering options for bill list queries
type BillListFilter struct {
	Status      string     `form:"status"`
	Direction   string     `form:"direction"`
	IsRecurring *bool      `form:"is_recurring"`
	DueFrom     *time.Time `form:"due_from"`
	DueTo       *time.Time `form:"due_to"`
	Search      string     `form:"search"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size"`
}

// Create creates one bill, or an upfront installment set. A set is created
// when the request carries variable installment amounts, or when it asks for
// more than one fixed installment without recurrence. Installment sets are
// persisted all-or-nothing; a variable-amount set is validated in full
// before the first write.
func (s *BillService) Create(ctx context.Context, ownerID uuid.UUID, req CreateBillRequest) ([]BillResponse, error) {
	if req.IsVariableAmount {
		if req.InstallmentCount < 1 {
			return nil, shared.NewDomainError("VALIDATION_FAILED", "Variable-amount bills require an installment count")
		}
		if len(req.InstallmentAmounts) != req.InstallmentCount {
			return nil, shared.NewDomainError("VALIDATION_FAILED",
				fmt.Sprintf("Expected %d installment amounts, got %d", req.InstallmentCount, len(req.InstallmentAmounts)))
		}
		for i, amount := range req.InstallmentAmounts {
			if amount.LessThanOrEqual(decimal.Zero) {
				return nil, shared.NewDomainError("VALIDATION_FAILED",
					fmt.Sprintf("Installment amount %d must be positive", i+1))
			}
		}
	}

	if req.IsVariableAmount || (req.InstallmentCount > 1 && !req.IsRecurring) {
		return s.createInstallments(ctx, ownerID, req)
	}

	bill, err := billing.NewBill(ownerID, billParams(req, req.Amount, req.Description, req.DueDate))
	if err != nil {
		return nil, err
	}

	if err := s.billRepo.Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}

	s.logger.Info("Bill created",
		zap.String("bill_id", bill.ID.String()),
		zap.String("description", bill.Description),
		zap.String("amount", bill.Amount.String()),
		zap.Bool("recurring", bill.IsRecurring),
	)

	return []BillResponse{*toBillResponse(bill)}, nil
}

// createInstallments creates the whole installment set upfront. The members
// are independent one-shot bills; settling one never spawns a successor, so
// recurrence is stripped from the request before the bills are built.
func (s *BillService) createInstallments(ctx context.Context, ownerID uuid.UUID, req CreateBillRequest) ([]BillResponse, error) {
	unit := billing.RecurrenceUnit(req.RecurrenceUnit)
	if req.RecurrenceUnit == "" {
		unit = billing.RecurrenceMonthly
	}
	req.IsRecurring = false

	dates, err := billing.InstallmentDueDates(req.DueDate, unit, req.InstallmentCount)
	if err != nil {
		return nil, err
	}

	bills := make([]*billing.Bill, 0, req.InstallmentCount)
	for i, due := range dates {
		amount := req.Amount
		if req.IsVariableAmount {
			amount = req.InstallmentAmounts[i]
		}
		description := req.Description
		if req.InstallmentCount > 1 {
			description = fmt.Sprintf("%s (%d/%d)", req.Description, i+1, req.InstallmentCount)
		}

		bill, err := billing.NewBill(ownerID, billParams(req, amount, description, due))
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}

	if err := s.billRepo.CreateBatch(ctx, bills); err != nil {
		return nil, fmt.Errorf("failed to create installment set: %w", err)
	}

	s.logger.Info("Installment set created",
		zap.String("description", req.Description),
		zap.Int("installments", req.InstallmentCount),
		zap.Bool("variable_amount", req.IsVariableAmount),
	)

	responses := make([]BillResponse, len(bills))
	for i, bill := range bills {
		responses[i] = *toBillResponse(bill)
	}
	return responses, nil
}

// GetByID gets a bill by ID
func (s *BillService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*BillResponse, error) {
	bill, err := s.billRepo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, shared.NewDomainError("BILL_NOT_FOUND", "Bill not found")
	}
	return toBillResponse(bill), nil
}

// List lists bills with filtering
func (s *BillService) List(ctx context.Context, ownerID uuid.UUID, filter BillListFilter) ([]BillResponse, int64, error) {
	domainFilter := billing.BillFilter{
		IsRecurring: filter.IsRecurring,
		DueFrom:     filter.DueFrom,
		DueTo:       filter.DueTo,
		Search:      filter.Search,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
	}
	if filter.Status != "" {
		status := billing.BillStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("VALIDATION_FAILED", "Invalid bill status filter")
		}
		domainFilter.Status = &status
	}
	if filter.Direction != "" {
		direction := billing.Direction(filter.Direction)
		if !direction.IsValid() {
			return nil, 0, shared.NewDomainError("VALIDATION_FAILED", "Invalid bill direction filter")
		}
		domainFilter.Direction = &direction
	}

	bills, err := s.billRepo.FindAllForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.billRepo.CountForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]BillResponse, len(bills))
	for i := range bills {
		responses[i] = *toBillResponse(&bills[i])
	}
	return responses, total, nil
}

// Update edits a bill. When the bill is already settled and a ledger-relevant
// field changed, the latest correlated ledger entry is rewritten to match; a
// missing entry is logged and otherwise ignored.
func (s *BillService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateBillRequest) (*BillResponse, error) {
	var updated *billing.Bill

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		bill, err := repos.BillRepo().FindByIDForOwner(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if bill == nil {
			return shared.NewDomainError("BILL_NOT_FOUND", "Bill not found")
		}

		ledgerRelevant, err := bill.ApplyEdit(billing.BillEdit{
			Description:  req.Description,
			Amount:       req.Amount,
			CategoryID:   req.CategoryID,
			AccountID:    req.AccountID,
			DueDate:      req.DueDate,
			Notes:        req.Notes,
			ContactName:  req.ContactName,
			ContactPhone: req.ContactPhone,
		})
		if err != nil {
			return err
		}

		if err := repos.BillRepo().SaveWithLock(ctx, bill); err != nil {
			return fmt.Errorf("failed to save bill: %w", err)
		}

		if bill.IsPaid() && ledgerRelevant {
			if err := s.syncLedgerEntry(ctx, repos.TransactionRepo(), bill); err != nil {
				return err
			}
		}

		updated = bill
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toBillResponse(updated), nil
}

// syncLedgerEntry rewrites the latest entry correlated to an edited settled
// bill so the ledger keeps matching what the user sees.
func (s *BillService) syncLedgerEntry(ctx context.Context, txRepo ledger.TransactionRepository, bill *billing.Bill) error {
	entry, err := txRepo.FindLatestBySourceBill(ctx, bill.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("failed to find ledger entry for bill: %w", err)
	}
	if entry == nil {
		// The entry may have been removed by an external collaborator.
		// The edit still applies; the ledger is simply left as-is.
		s.logger.Warn("No ledger entry found for settled bill edit",
			zap.String("bill_id", bill.ID.String()),
			zap.String("description", bill.Description),
		)
		return nil
	}

	date := entry.Date
	if bill.PaymentDate != nil {
		date = *bill.PaymentDate
	}
	if err := entry.Rewrite(bill.Description, bill.Amount, bill.CategoryID, bill.AccountID, date, bill.Notes); err != nil {
		return err
	}
	if err := txRepo.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to rewrite ledger entry: %w", err)
	}

	s.logger.Info("Ledger entry synchronized with bill edit",
		zap.String("bill_id", bill.ID.String()),
		zap.String("transaction_id", entry.ID.String()),
	)
	return nil
}

// Cancel moves an unsettled bill to its CANCELLED terminal state. Unlike
// Delete it keeps the record, so the obligation stays visible in history.
// Ledger entries are untouched; a settled bill cannot be cancelled.
func (s *BillService) Cancel(ctx context.Context, ownerID, id uuid.UUID) (*BillResponse, error) {
	bill, err := s.billRepo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if bill == nil {
		return nil, shared.NewDomainError("BILL_NOT_FOUND", "Bill not found")
	}

	if err := bill.Cancel(); err != nil {
		return nil, err
	}
	if err := s.billRepo.SaveWithLock(ctx, bill); err != nil {
		return nil, fmt.Errorf("failed to save bill: %w", err)
	}

	s.publishEvents(ctx, bill)
	s.logger.Info("Bill cancelled",
		zap.String("bill_id", bill.ID.String()),
		zap.String("description", bill.Description),
	)
	return toBillResponse(bill), nil
}

// Delete removes a bill and cascade-deletes its correlated ledger entries.
// It returns how many ledger entries were removed alongside the bill.
func (s *BillService) Delete(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	var removed int64

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		bill, err := repos.BillRepo().FindByIDForOwner(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if bill == nil {
			return shared.NewDomainError("BILL_NOT_FOUND", "Bill not found")
		}

		removed, err = repos.TransactionRepo().DeleteBySourceBill(ctx, bill.ID)
		if err != nil {
			return fmt.Errorf("failed to delete correlated ledger entries: %w", err)
		}

		if err := repos.BillRepo().Delete(ctx, bill.ID); err != nil {
			return fmt.Errorf("failed to delete bill: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Bill deleted",
		zap.String("bill_id", id.String()),
		zap.Int64("ledger_entries_removed", removed),
	)
	return removed, nil
}

func (s *BillService) publishEvents(ctx context.Context, bill *billing.Bill) {
	if s.eventBus == nil {
		return
	}
	for _, event := range bill.GetDomainEvents() {
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish bill event",
				zap.String("event_type", event.EventType()),
				zap.String("bill_id", bill.ID.String()),
				zap.Error(err),
			)
		}
	}
	bill.ClearDomainEvents()
}

// billParams builds domain creation params from a request, overriding the
// per-installment fields
func billParams(req CreateBillRequest, amount decimal.Decimal, description string, due time.Time) billing.BillParams {
	return billing.BillParams{
		Description:      description,
		Amount:           valueobject.NewMoneyBRL(amount),
		Direction:        billing.Direction(req.Direction),
		CategoryID:       req.CategoryID,
		AccountID:        req.AccountID,
		DueDate:          due,
		IsRecurring:      req.IsRecurring,
		RecurrenceUnit:   billing.RecurrenceUnit(req.RecurrenceUnit),
		InstallmentCount: req.InstallmentCount,
		Notes:            req.Notes,
		ContactName:      req.ContactName,
		ContactPhone:     req.ContactPhone,
	}
}

// toBillResponse converts a bill to its API representation
func toBillResponse(b *billing.Bill) *BillResponse {
	return &BillResponse{
		ID:               b.ID,
		Description:      b.Description,
		Amount:           b.Amount,
		AmountDisplay:    valueobject.FormatAmountLocalized(b.Amount),
		Direction:        string(b.Direction),
		CategoryID:       b.CategoryID,
		AccountID:        b.AccountID,
		DueDate:          b.DueDate,
		Status:           string(b.Status),
		PaymentDate:      b.PaymentDate,
		IsRecurring:      b.IsRecurring,
		RecurrenceUnit:   string(b.RecurrenceUnit),
		InstallmentCount: b.InstallmentCount,
		Notes:            b.Notes,
		ContactName:      b.ContactName,
		ContactPhone:     b.ContactPhone,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
		Version:          b.Version,
	}
}
