package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fintrack/backend/internal/domain/billing"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockBillRepository creates a GormBillRepository with a mocked SQL connection
func newMockBillRepository(t *testing.T) (*GormBillRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormBillRepository(gormDB), mock, mockDB
}

func newPersistedBill(t *testing.T, ownerID uuid.UUID) *billing.Bill {
	t.Helper()
	amount := valueobject.NewMoneyBRL(decimal.NewFromFloat(150.00))

	bill, err := billing.NewBill(ownerID, billing.BillParams{
		Description: "Internet",
		Amount:      amount,
		Direction:   billing.DirectionPayable,
		CategoryID:  uuid.New(),
		AccountID:   uuid.New(),
		DueDate:     time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return bill
}

func TestNewGormBillRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormBillRepository_FindByIDForOwner(t *testing.T) {
	t.Run("finds existing bill", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		billID := uuid.New()
		ownerID := uuid.New()
		dueDate := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"id", "owner_id", "version", "description", "amount", "direction", "status", "due_date"}).
			AddRow(billID, ownerID, 1, "Internet", decimal.NewFromFloat(150.00), "PAYABLE", "PENDING", dueDate)

		mock.ExpectQuery(`SELECT \* FROM "bills" WHERE owner_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(ownerID, billID, 1).
			WillReturnRows(rows)

		bill, err := repo.FindByIDForOwner(context.Background(), ownerID, billID)

		assert.NoError(t, err)
		assert.NotNil(t, bill)
		assert.Equal(t, billID, bill.ID)
		assert.Equal(t, ownerID, bill.OwnerID)
		assert.Equal(t, billing.BillStatusPending, bill.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing bill", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		billID := uuid.New()
		ownerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "bills"`).
			WithArgs(ownerID, billID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		bill, err := repo.FindByIDForOwner(context.Background(), ownerID, billID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Nil(t, bill)
	})

	t.Run("does not return another owner's bill", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		billID := uuid.New()
		ownerID := uuid.New()

		// The owner predicate filters the row out at the database
		mock.ExpectQuery(`SELECT \* FROM "bills" WHERE owner_id = \$1 AND id = \$2`).
			WithArgs(ownerID, billID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		bill, err := repo.FindByIDForOwner(context.Background(), ownerID, billID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Nil(t, bill)
	})
}

func TestGormBillRepository_FindExpiredPending(t *testing.T) {
	t.Run("queries pending bills due before the day start", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		asOf := time.Date(2026, 9, 10, 15, 30, 0, 0, time.UTC)
		dayStart := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"id", "owner_id", "version", "description", "status", "due_date"}).
			AddRow(uuid.New(), uuid.New(), 1, "Rent", "PENDING", time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC))

		mock.ExpectQuery(`SELECT \* FROM "bills" WHERE status = \$1 AND due_date < \$2 ORDER BY due_date ASC`).
			WithArgs("PENDING", dayStart).
			WillReturnRows(rows)

		bills, err := repo.FindExpiredPending(context.Background(), asOf)

		assert.NoError(t, err)
		assert.Len(t, bills, 1)
		assert.Equal(t, "Rent", bills[0].Description)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty slice when nothing expired", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "bills"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		bills, err := repo.FindExpiredPending(context.Background(), time.Now())

		assert.NoError(t, err)
		assert.Empty(t, bills)
	})
}

func TestGormBillRepository_SaveWithLock(t *testing.T) {
	t.Run("returns concurrency conflict when version moved", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		ownerID := uuid.New()
		bill := newPersistedBill(t, ownerID)
		bill.IncrementVersion()

		// No row matches the stale version predicate
		mock.ExpectExec(`UPDATE "bills" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), bill)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("succeeds when version matches", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		ownerID := uuid.New()
		bill := newPersistedBill(t, ownerID)
		bill.IncrementVersion()

		mock.ExpectExec(`UPDATE "bills" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), bill)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("writes columns cleared to their zero value", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		ownerID := uuid.New()
		bill := newPersistedBill(t, ownerID)
		bill.Notes = "pay by bank slip"
		emptied := ""
		_, err := bill.ApplyEdit(billing.BillEdit{Notes: &emptied})
		require.NoError(t, err)

		// The emptied column must still appear in the SET clause
		mock.ExpectExec(`UPDATE "bills" SET .*"notes"=\$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.SaveWithLock(context.Background(), bill)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBillRepository_Delete(t *testing.T) {
	t.Run("returns not found when no rows removed", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`DELETE FROM "bills"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("removes existing bill", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`DELETE FROM "bills"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), uuid.New())

		assert.NoError(t, err)
	})
}
