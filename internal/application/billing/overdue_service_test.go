package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fintrack/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func expiredBill(t *testing.T, ownerID uuid.UUID, dueDate time.Time) billing.Bill {
	t.Helper()
	bill, err := billing.NewBill(ownerID, billing.BillParams{
		Description: "Electricity",
		Amount:      mustMoney(t, "89.90"),
		Direction:   billing.DirectionPayable,
		AccountID:   uuid.New(),
		DueDate:     dueDate,
	})
	require.NoError(t, err)
	bill.ClearDomainEvents()
	return *bill
}

func TestOverdueService_PromoteExpired_NoneFound(t *testing.T) {
	billRepo := new(MockBillRepository)
	service := NewOverdueService(billRepo, nil, zap.NewNop())

	asOf := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	billRepo.On("FindExpiredPending", mock.Anything, asOf).Return([]billing.Bill{}, nil)

	stats, err := service.PromoteExpired(context.Background(), asOf)

	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalExpired)
	assert.Equal(t, 0, stats.Promoted)
	billRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestOverdueService_PromoteExpired_PromotesPendingBills(t *testing.T) {
	ownerID := uuid.New()
	billRepo := new(MockBillRepository)
	service := NewOverdueService(billRepo, nil, zap.NewNop())

	asOf := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	bills := []billing.Bill{
		expiredBill(t, ownerID, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)),
		expiredBill(t, ownerID, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)),
	}

	billRepo.On("FindExpiredPending", mock.Anything, asOf).Return(bills, nil)
	billRepo.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(b *billing.Bill) bool {
		return b.Status == billing.BillStatusOverdue
	})).Return(nil).Times(2)

	stats, err := service.PromoteExpired(context.Background(), asOf)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalExpired)
	assert.Equal(t, 2, stats.Promoted)
	assert.Equal(t, 0, stats.FailedPromotion)
	billRepo.AssertExpectations(t)
}

func TestOverdueService_PromoteExpired_DueTodayIsNotOverdue(t *testing.T) {
	ownerID := uuid.New()
	billRepo := new(MockBillRepository)
	service := NewOverdueService(billRepo, nil, zap.NewNop())

	// A bill due today must survive the sweep untouched; only days strictly
	// before the sweep day count as expired.
	asOf := time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)
	bills := []billing.Bill{
		expiredBill(t, ownerID, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)),
	}

	billRepo.On("FindExpiredPending", mock.Anything, asOf).Return(bills, nil)

	stats, err := service.PromoteExpired(context.Background(), asOf)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalExpired)
	assert.Equal(t, 1, stats.Promoted)
	billRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestOverdueService_PromoteExpired_ContinuesAfterFailure(t *testing.T) {
	ownerID := uuid.New()
	billRepo := new(MockBillRepository)
	service := NewOverdueService(billRepo, nil, zap.NewNop())

	asOf := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	failing := expiredBill(t, ownerID, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	healthy := expiredBill(t, ownerID, time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC))

	billRepo.On("FindExpiredPending", mock.Anything, asOf).Return([]billing.Bill{failing, healthy}, nil)
	billRepo.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(b *billing.Bill) bool {
		return b.ID == failing.ID
	})).Return(errors.New("write failed"))
	billRepo.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(b *billing.Bill) bool {
		return b.ID == healthy.ID
	})).Return(nil)

	stats, err := service.PromoteExpired(context.Background(), asOf)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalExpired)
	assert.Equal(t, 1, stats.Promoted)
	assert.Equal(t, 1, stats.FailedPromotion)
}

func TestOverdueService_PromoteExpired_RepositoryError(t *testing.T) {
	billRepo := new(MockBillRepository)
	service := NewOverdueService(billRepo, nil, zap.NewNop())

	asOf := time.Now()
	billRepo.On("FindExpiredPending", mock.Anything, asOf).Return(nil, errors.New("db down"))

	stats, err := service.PromoteExpired(context.Background(), asOf)

	require.Error(t, err)
	assert.Nil(t, stats)
}
