package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fintrack/backend/internal/domain/billing"
	"github.com/fintrack/backend/internal/domain/category"
	"github.com/fintrack/backend/internal/domain/ledger"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// Test Helpers
// =============================================================================

type settlementFixture struct {
	billRepo    *MockBillRepository
	accountRepo *MockAccountRepository
	txRepo      *MockTransactionRepository
	categories  *MockCategoryResolver
	service     *SettlementService
}

func newSettlementFixture(guard shared.SettlementGuard, guardEnabled bool) *settlementFixture {
	f := &settlementFixture{
		billRepo:    new(MockBillRepository),
		accountRepo: new(MockAccountRepository),
		txRepo:      new(MockTransactionRepository),
		categories:  new(MockCategoryResolver),
	}
	scope := NewNoOpTransactionScope(f.billRepo, f.accountRepo, f.txRepo)
	cfg := shared.DefaultSettlementGuardConfig()
	cfg.Enabled = guardEnabled
	f.service = NewSettlementService(scope, guard, cfg, f.categories, nil, zap.NewNop())
	return f
}

func newTestBill(t *testing.T, ownerID, accountID uuid.UUID, direction billing.Direction, amount string) *billing.Bill {
	t.Helper()
	bill, err := billing.NewBill(ownerID, billing.BillParams{
		Description: "Internet provider",
		Amount:      mustMoney(t, amount),
		Direction:   direction,
		CategoryID:  uuid.New(),
		AccountID:   accountID,
		DueDate:     time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	bill.ClearDomainEvents()
	return bill
}

func newTestAccount(t *testing.T, ownerID uuid.UUID, balance string) *ledger.Account {
	t.Helper()
	account, err := ledger.NewAccount(ownerID, "Checking", decimal.RequireFromString(balance))
	require.NoError(t, err)
	return account
}

func mustMoney(t *testing.T, amount string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyBRLFromString(amount)
	require.NoError(t, err)
	return m
}

// =============================================================================
// Settle
// =============================================================================

func TestSettlementService_Settle_PayableDebitsAccount(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	f := newSettlementFixture(nil, false)

	bill := newTestBill(t, ownerID, accountID, billing.DirectionPayable, "150.00")
	account := newTestAccount(t, ownerID, "500.00")
	account.ID = accountID

	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)
	f.accountRepo.On("FindByIDForOwner", mock.Anything, ownerID, accountID).Return(account, nil)
	f.txRepo.On("FindRecentMatching", mock.Anything, mock.Anything).Return([]ledger.Transaction{}, nil)
	f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)
	f.accountRepo.On("SaveWithLock", mock.Anything, account).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Transaction")).Return(nil)
	f.categories.On("Resolve", mock.Anything, bill.CategoryID).Return(&category.Category{
		ID:   bill.CategoryID,
		Name: "Utilities",
		Type: category.TypeExpense,
	}, nil)

	paymentDate := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	receipt, err := f.service.Settle(context.Background(), SettleRequest{
		OwnerID:     ownerID,
		BillID:      bill.ID,
		AccountID:   accountID,
		PaymentDate: &paymentDate,
	})

	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, billing.BillStatusPaid, receipt.Bill.Status)
	require.NotNil(t, receipt.Bill.PaymentDate)
	assert.True(t, paymentDate.Equal(*receipt.Bill.PaymentDate))
	assert.True(t, decimal.RequireFromString("350.00").Equal(receipt.Account.Balance))
	require.NotNil(t, receipt.Transaction)
	assert.Equal(t, ledger.KindExpense, receipt.Transaction.Kind)
	require.NotNil(t, receipt.Transaction.SourceBillID)
	assert.Equal(t, bill.ID, *receipt.Transaction.SourceBillID)
	require.NotNil(t, receipt.Category)
	assert.Equal(t, "Utilities", receipt.Category.Name)
	assert.Nil(t, receipt.Successor)
	assert.Nil(t, receipt.Warning)

	f.billRepo.AssertExpectations(t)
	f.accountRepo.AssertExpectations(t)
	f.txRepo.AssertExpectations(t)
}

func TestSettlementService_Settle_ReceivableCreditsAccount(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	f := newSettlementFixture(nil, false)

	bill := newTestBill(t, ownerID, accountID, billing.DirectionReceivable, "1200.00")
	account := newTestAccount(t, ownerID, "100.00")
	account.ID = accountID

	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)
	f.accountRepo.On("FindByIDForOwner", mock.Anything, ownerID, accountID).Return(account, nil)
	f.txRepo.On("FindRecentMatching", mock.Anything, mock.Anything).Return([]ledger.Transaction{}, nil)
	f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)
	f.accountRepo.On("SaveWithLock", mock.Anything, account).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Transaction")).Return(nil)
	f.categories.On("Resolve", mock.Anything, bill.CategoryID).Return(nil, shared.NewDomainError("NOT_FOUND", "Category not found"))

	receipt, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: bill.ID, AccountID: accountID})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1300.00").Equal(receipt.Account.Balance))
	assert.Equal(t, ledger.KindIncome, receipt.Transaction.Kind)
	// A missing category is tolerated; the receipt just has no category.
	assert.Nil(t, receipt.Category)
}

func TestSettlementService_Settle_RecurringCreatesSuccessor(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	f := newSettlementFixture(nil, false)

	bill, err := billing.NewBill(ownerID, billing.BillParams{
		Description:    "Rent",
		Amount:         mustMoney(t, "2000.00"),
		Direction:      billing.DirectionPayable,
		CategoryID:     uuid.New(),
		AccountID:      accountID,
		DueDate:        time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		IsRecurring:    true,
		RecurrenceUnit: billing.RecurrenceMonthly,
	})
	require.NoError(t, err)
	bill.ClearDomainEvents()

	account := newTestAccount(t, ownerID, "5000.00")
	account.ID = accountID

	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)
	f.accountRepo.On("FindByIDForOwner", mock.Anything, ownerID, accountID).Return(account, nil)
	f.txRepo.On("FindRecentMatching", mock.Anything, mock.Anything).Return([]ledger.Transaction{}, nil)
	f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)
	f.accountRepo.On("SaveWithLock", mock.Anything, account).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Transaction")).Return(nil)
	f.billRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.Bill")).Return(nil)
	f.categories.On("Resolve", mock.Anything, bill.CategoryID).Return(nil, shared.NewDomainError("NOT_FOUND", "Category not found"))

	receipt, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: bill.ID, AccountID: accountID})

	require.NoError(t, err)
	require.NotNil(t, receipt.Successor)
	assert.Equal(t, billing.BillStatusPending, receipt.Successor.Status)
	assert.True(t, receipt.Successor.IsRecurring)
	// Jan 31 advanced one month clamps to the end of February.
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), receipt.Successor.DueDate)
	f.billRepo.AssertExpectations(t)
}

func TestSettlementService_Settle_AlreadySettled(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	f := newSettlementFixture(nil, false)

	bill := newTestBill(t, ownerID, accountID, billing.DirectionPayable, "150.00")
	require.NoError(t, bill.Settle(time.Now()))
	bill.ClearDomainEvents()

	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)

	receipt, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: bill.ID, AccountID: accountID})

	require.Error(t, err)
	assert.Nil(t, receipt)
	var settled *billing.AlreadySettledError
	require.ErrorAs(t, err, &settled)
	assert.Equal(t, bill.ID, settled.BillID)
	f.billRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.accountRepo.AssertNotCalled(t, "FindByIDForOwner", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_CancelledBillRejected(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	f := newSettlementFixture(nil, false)

	bill := newTestBill(t, ownerID, accountID, billing.DirectionPayable, "150.00")
	require.NoError(t, bill.Cancel())

	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)

	_, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: bill.ID, AccountID: accountID})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestSettlementService_Settle_DuplicateDetected(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	f := newSettlementFixture(nil, false)

	bill := newTestBill(t, ownerID, accountID, billing.DirectionPayable, "150.00")
	account := newTestAccount(t, ownerID, "500.00")
	account.ID = accountID

	otherBillID := uuid.New()
	match, err := ledger.NewTransaction(ownerID, bill.Description, bill.Amount,
		ledger.KindExpense, bill.CategoryID, accountID, time.Now(), "", &otherBillID)
	require.NoError(t, err)

	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)
	f.accountRepo.On("FindByIDForOwner", mock.Anything, ownerID, accountID).Return(account, nil)
	f.txRepo.On("FindRecentMatching", mock.Anything, mock.MatchedBy(func(m ledger.TransactionMatch) bool {
		return m.Description == bill.Description && m.Kind == ledger.KindExpense && m.OwnerID == ownerID
	})).Return([]ledger.Transaction{*match}, nil)

	_, err = f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: bill.ID, AccountID: accountID})

	require.Error(t, err)
	var dup *billing.DuplicateSettlementError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, bill.ID, dup.BillID)
	assert.Equal(t, DuplicateDetectionWindow, dup.Window)
	f.billRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_DuplicateOverride(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	f := newSettlementFixture(nil, false)

	bill := newTestBill(t, ownerID, accountID, billing.DirectionPayable, "150.00")
	account := newTestAccount(t, ownerID, "500.00")
	account.ID = accountID

	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)
	f.accountRepo.On("FindByIDForOwner", mock.Anything, ownerID, accountID).Return(account, nil)
	f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)
	f.accountRepo.On("SaveWithLock", mock.Anything, account).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Transaction")).Return(nil)
	f.categories.On("Resolve", mock.Anything, bill.CategoryID).Return(nil, shared.NewDomainError("NOT_FOUND", "Category not found"))

	_, err := f.service.Settle(context.Background(), SettleRequest{
		OwnerID:        ownerID,
		BillID:         bill.ID,
		AccountID:      accountID,
		AllowDuplicate: true,
	})

	require.NoError(t, err)
	f.txRepo.AssertNotCalled(t, "FindRecentMatching", mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_GuardContention(t *testing.T) {
	ownerID := uuid.New()
	guard := new(MockSettlementGuard)
	f := newSettlementFixture(guard, true)

	billID := uuid.New()
	guard.On("Acquire", mock.Anything, settlementKey(billID), mock.Anything).Return(false, nil)

	_, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: billID, AccountID: uuid.New()})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONCURRENCY_CONFLICT", domainErr.Code)
	f.billRepo.AssertNotCalled(t, "FindByIDForOwner", mock.Anything, mock.Anything, mock.Anything)
	guard.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_GuardReleasedAfterSettlement(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	guard := new(MockSettlementGuard)
	f := newSettlementFixture(guard, true)

	bill := newTestBill(t, ownerID, accountID, billing.DirectionPayable, "150.00")
	account := newTestAccount(t, ownerID, "500.00")
	account.ID = accountID

	guard.On("Acquire", mock.Anything, settlementKey(bill.ID), mock.Anything).Return(true, nil)
	guard.On("Release", mock.Anything, settlementKey(bill.ID)).Return(nil)
	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)
	f.accountRepo.On("FindByIDForOwner", mock.Anything, ownerID, accountID).Return(account, nil)
	f.txRepo.On("FindRecentMatching", mock.Anything, mock.Anything).Return([]ledger.Transaction{}, nil)
	f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)
	f.accountRepo.On("SaveWithLock", mock.Anything, account).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Transaction")).Return(nil)
	f.categories.On("Resolve", mock.Anything, bill.CategoryID).Return(nil, shared.NewDomainError("NOT_FOUND", "Category not found"))

	_, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: bill.ID, AccountID: accountID})

	require.NoError(t, err)
	guard.AssertExpectations(t)
}

func TestSettlementService_Settle_AccountNotFound(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	f := newSettlementFixture(nil, false)

	bill := newTestBill(t, ownerID, accountID, billing.DirectionPayable, "150.00")

	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)
	f.accountRepo.On("FindByIDForOwner", mock.Anything, ownerID, accountID).Return(nil, shared.ErrNotFound)

	_, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: bill.ID, AccountID: accountID})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", domainErr.Code)
}

func TestSettlementService_Settle_MissingAccountRejected(t *testing.T) {
	ownerID := uuid.New()
	f := newSettlementFixture(nil, false)

	_, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: uuid.New()})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	f.billRepo.AssertNotCalled(t, "FindByIDForOwner", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_UsesCallerChosenAccount(t *testing.T) {
	ownerID := uuid.New()
	suggestedID := uuid.New()
	chosenID := uuid.New()
	f := newSettlementFixture(nil, false)

	// The bill carries a suggested account, but the caller settles against
	// a different one.
	bill := newTestBill(t, ownerID, suggestedID, billing.DirectionPayable, "150.00")
	chosen := newTestAccount(t, ownerID, "500.00")
	chosen.ID = chosenID

	var entry *ledger.Transaction
	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)
	f.accountRepo.On("FindByIDForOwner", mock.Anything, ownerID, chosenID).Return(chosen, nil)
	f.txRepo.On("FindRecentMatching", mock.Anything, mock.Anything).Return([]ledger.Transaction{}, nil)
	f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)
	f.accountRepo.On("SaveWithLock", mock.Anything, chosen).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Transaction")).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(*ledger.Transaction)
		}).Return(nil)
	f.categories.On("Resolve", mock.Anything, bill.CategoryID).Return(nil, shared.NewDomainError("NOT_FOUND", "Category not found"))

	receipt, err := f.service.Settle(context.Background(), SettleRequest{
		OwnerID:   ownerID,
		BillID:    bill.ID,
		AccountID: chosenID,
	})

	require.NoError(t, err)
	assert.Equal(t, chosenID, receipt.Account.ID)
	assert.True(t, decimal.RequireFromString("350.00").Equal(receipt.Account.Balance))
	require.NotNil(t, entry)
	assert.Equal(t, chosenID, entry.AccountID)
	f.accountRepo.AssertExpectations(t)
}

func TestSettlementService_Settle_InsufficientBalanceWarning(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	f := newSettlementFixture(nil, false)

	bill := newTestBill(t, ownerID, accountID, billing.DirectionPayable, "150.00")
	account := newTestAccount(t, ownerID, "100.00")
	account.ID = accountID

	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)
	f.accountRepo.On("FindByIDForOwner", mock.Anything, ownerID, accountID).Return(account, nil)
	f.txRepo.On("FindRecentMatching", mock.Anything, mock.Anything).Return([]ledger.Transaction{}, nil)
	f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)
	f.accountRepo.On("SaveWithLock", mock.Anything, account).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Transaction")).Return(nil)
	f.categories.On("Resolve", mock.Anything, bill.CategoryID).Return(nil, shared.NewDomainError("NOT_FOUND", "Category not found"))

	receipt, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: bill.ID, AccountID: accountID})

	// The settlement still goes through; the advisory rides on the receipt.
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("-50.00").Equal(receipt.Account.Balance))
	require.NotNil(t, receipt.Warning)
	assert.Equal(t, "INSUFFICIENT_BALANCE", receipt.Warning.Code)
}

func TestSettlementService_Settle_BillNotFound(t *testing.T) {
	ownerID := uuid.New()
	f := newSettlementFixture(nil, false)

	billID := uuid.New()
	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, billID).Return(nil, shared.ErrNotFound)

	_, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: billID, AccountID: uuid.New()})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "BILL_NOT_FOUND", domainErr.Code)
}

func TestSettlementService_Settle_ConcurrentWriteConflict(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	f := newSettlementFixture(nil, false)

	bill := newTestBill(t, ownerID, accountID, billing.DirectionPayable, "150.00")
	account := newTestAccount(t, ownerID, "500.00")
	account.ID = accountID

	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)
	f.accountRepo.On("FindByIDForOwner", mock.Anything, ownerID, accountID).Return(account, nil)
	f.txRepo.On("FindRecentMatching", mock.Anything, mock.Anything).Return([]ledger.Transaction{}, nil)
	f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(shared.ErrConcurrencyConflict)

	_, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: bill.ID, AccountID: accountID})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	f.txRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSettlementService_Settle_LedgerWriteFailureIsPartial(t *testing.T) {
	ownerID := uuid.New()
	accountID := uuid.New()
	f := newSettlementFixture(nil, false)

	bill := newTestBill(t, ownerID, accountID, billing.DirectionPayable, "150.00")
	account := newTestAccount(t, ownerID, "500.00")
	account.ID = accountID

	writeErr := errors.New("connection reset")
	f.billRepo.On("FindByIDForOwner", mock.Anything, ownerID, bill.ID).Return(bill, nil)
	f.accountRepo.On("FindByIDForOwner", mock.Anything, ownerID, accountID).Return(account, nil)
	f.txRepo.On("FindRecentMatching", mock.Anything, mock.Anything).Return([]ledger.Transaction{}, nil)
	f.billRepo.On("SaveWithLock", mock.Anything, bill).Return(nil)
	f.accountRepo.On("SaveWithLock", mock.Anything, account).Return(nil)
	f.txRepo.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Transaction")).Return(writeErr)

	_, err := f.service.Settle(context.Background(), SettleRequest{OwnerID: ownerID, BillID: bill.ID, AccountID: accountID})

	require.Error(t, err)
	var partial *billing.PartialReconciliationError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "ledger_entry", partial.FailedStep)
	assert.ErrorIs(t, err, writeErr)
}
