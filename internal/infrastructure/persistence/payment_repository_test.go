package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockPaymentRepository creates a GormPaymentRepository with a mocked SQL connection
func newMockPaymentRepository(t *testing.T) (*GormPaymentRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormPaymentRepository(gormDB), mock, mockDB
}

func paymentRows(id, studentID, feeStructureID uuid.UUID, amount string, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "version",
		"student_id", "fee_structure_id", "amount", "currency", "payment_date",
		"method", "reference_number", "receipt_number", "status",
		"void_reason", "voided_at", "recorded_by",
	}).AddRow(
		id, now, now, 1,
		studentID, feeStructureID, amount, "KES", now,
		"mpesa", "QW12ER34TY", "RCT-2025-00042", status,
		"", nil, uuid.New(),
	)
}

func TestGormPaymentRepository_FindByID(t *testing.T) {
	t.Run("finds existing payment", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()
		studentID := uuid.New()
		feeStructureID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(paymentID, 1).
			WillReturnRows(paymentRows(paymentID, studentID, feeStructureID, "2500.00", "active"))

		payment, err := repo.FindByID(context.Background(), paymentID)

		assert.NoError(t, err)
		require.NotNil(t, payment)
		assert.Equal(t, paymentID, payment.ID)
		assert.Equal(t, "RCT-2025-00042", payment.ReceiptNumber)
		assert.Equal(t, fees.PaymentStatusActive, payment.Status)
		assert.True(t, payment.Amount.Amount().Equal(decimal.NewFromInt(2500)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing payment", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(paymentID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		payment, err := repo.FindByID(context.Background(), paymentID)

		assert.Error(t, err)
		assert.Nil(t, payment)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_FindByReceiptNumber(t *testing.T) {
	t.Run("finds payment by receipt", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE receipt_number = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("RCT-2025-00042", 1).
			WillReturnRows(paymentRows(paymentID, uuid.New(), uuid.New(), "2500.00", "active"))

		payment, err := repo.FindByReceiptNumber(context.Background(), "RCT-2025-00042")

		assert.NoError(t, err)
		require.NotNil(t, payment)
		assert.Equal(t, paymentID, payment.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_SumActiveByPair(t *testing.T) {
	t.Run("sums non-voided payments only", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		feeStructureID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) AS total FROM "payments" WHERE student_id = \$1 AND fee_structure_id = \$2 AND status = \$3`).
			WithArgs(studentID, feeStructureID, "active").
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("2500.00"))

		total, err := repo.SumActiveByPair(context.Background(), studentID, feeStructureID)

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(2500)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero for pair with no active payments", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		feeStructureID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) AS total FROM "payments"`).
			WithArgs(studentID, feeStructureID, "active").
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("0"))

		total, err := repo.SumActiveByPair(context.Background(), studentID, feeStructureID)

		assert.NoError(t, err)
		assert.True(t, total.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_LastActivePaymentDate(t *testing.T) {
	t.Run("returns most recent active payment date", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		feeStructureID := uuid.New()
		paidAt := time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT MAX\(payment_date\) AS last FROM "payments" WHERE student_id = \$1 AND fee_structure_id = \$2 AND status = \$3`).
			WithArgs(studentID, feeStructureID, "active").
			WillReturnRows(sqlmock.NewRows([]string{"last"}).AddRow(paidAt))

		last, err := repo.LastActivePaymentDate(context.Background(), studentID, feeStructureID)

		assert.NoError(t, err)
		require.NotNil(t, last)
		assert.True(t, paidAt.Equal(*last))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil when the pair has no active payments", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		feeStructureID := uuid.New()

		mock.ExpectQuery(`SELECT MAX\(payment_date\) AS last FROM "payments"`).
			WithArgs(studentID, feeStructureID, "active").
			WillReturnRows(sqlmock.NewRows([]string{"last"}).AddRow(nil))

		last, err := repo.LastActivePaymentDate(context.Background(), studentID, feeStructureID)

		assert.NoError(t, err)
		assert.Nil(t, last)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_NextReceiptSequence(t *testing.T) {
	t.Run("reserves the next value atomically", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO receipt_sequences .* ON CONFLICT \(year\) DO UPDATE .* RETURNING last_value`).
			WithArgs(2025).
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(43))

		next, err := repo.NextReceiptSequence(context.Background(), 2025)

		assert.NoError(t, err)
		assert.Equal(t, int64(43), next)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_FindByPair(t *testing.T) {
	t.Run("orders payments chronologically", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		studentID := uuid.New()
		feeStructureID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE student_id = \$1 AND fee_structure_id = \$2 ORDER BY payment_date ASC`).
			WithArgs(studentID, feeStructureID).
			WillReturnRows(paymentRows(uuid.New(), studentID, feeStructureID, "2500.00", "active"))

		result, err := repo.FindByPair(context.Background(), studentID, feeStructureID)

		assert.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, studentID, result[0].StudentID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
