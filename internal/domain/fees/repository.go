package fees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeeStructureFilter defines filtering options for fee structure queries
type FeeStructureFilter struct {
	shared.Filter
	AcademicYear *string      // Filter by academic year
	Term         *Term        // Filter by term
	ClassName    *string      // Filter by class
	Category     *FeeCategory // Filter by fee category
	IsActive     *bool        // Filter by active flag
}

// FeeStructureRepository defines the interface for fee structure persistence
type FeeStructureRepository interface {
	// FindByID finds a fee structure by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FeeStructure, error)

	// FindAll finds fee structures with filtering
	FindAll(ctx context.Context, filter FeeStructureFilter) ([]FeeStructure, error)

	// Save creates or updates a fee structure
	Save(ctx context.Context, structure *FeeStructure) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, structure *FeeStructure) error

	// Count counts fee structures with optional filters
	Count(ctx context.Context, filter FeeStructureFilter) (int64, error)

	// ExistsByName checks if a structure with the name exists for the year and term
	ExistsByName(ctx context.Context, name, academicYear string, term Term) (bool, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	StudentID      *uuid.UUID     // Filter by student
	FeeStructureID *uuid.UUID     // Filter by fee structure
	Status         *PaymentStatus // Filter by status
	Method         *PaymentMethod // Filter by payment method
	FromDate       *time.Time     // Filter by payment date range start
	ToDate         *time.Time     // Filter by payment date range end
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByReceiptNumber finds a payment by its receipt number
	FindByReceiptNumber(ctx context.Context, receiptNumber string) (*Payment, error)

	// FindAll finds payments with filtering
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)

	// FindByPair finds all payments for a (student, fee structure) pair
	FindByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) ([]Payment, error)

	// Save creates or updates a payment
	Save(ctx context.Context, payment *Payment) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, payment *Payment) error

	// Count counts payments with optional filters
	Count(ctx context.Context, filter PaymentFilter) (int64, error)

	// SumActiveByPair sums the non-voided payment amounts for a pair
	SumActiveByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) (decimal.Decimal, error)

	// LastActivePaymentDate returns the most recent non-voided payment date
	// for a pair, or nil when the pair has no active payments
	LastActivePaymentDate(ctx context.Context, studentID, feeStructureID uuid.UUID) (*time.Time, error)

	// NextReceiptSequence reserves and returns the next receipt sequence
	// number for the given year
	NextReceiptSequence(ctx context.Context, year int) (int64, error)
}

// FeeBalanceFilter defines filtering options for balance queries
type FeeBalanceFilter struct {
	shared.Filter
	StudentID      *uuid.UUID     // Filter by student
	FeeStructureID *uuid.UUID     // Filter by fee structure
	Status         *BalanceStatus // Filter by derived status
	OverdueOnly    bool           // Only balances past due with money owing
	WaivedOnly     bool           // Only waived balances
}

// UnitOfWork runs fn atomically. The repositories handed to fn are bound
// to one database transaction; returning an error rolls everything back.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, balances FeeBalanceRepository, payments PaymentRepository) error) error
}

// FeeBalanceRepository defines the interface for fee balance persistence
type FeeBalanceRepository interface {
	// FindByID finds a fee balance by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FeeBalance, error)

	// FindByPair finds the balance for a (student, fee structure) pair
	FindByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) (*FeeBalance, error)

	// FindByPairForUpdate finds the pair balance with a row-level lock.
	// Must be called inside a transaction.
	FindByPairForUpdate(ctx context.Context, studentID, feeStructureID uuid.UUID) (*FeeBalance, error)

	// FindByStudent finds all balances for a student
	FindByStudent(ctx context.Context, studentID uuid.UUID) ([]FeeBalance, error)

	// FindAll finds balances with filtering
	FindAll(ctx context.Context, filter FeeBalanceFilter) ([]FeeBalance, error)

	// FindPairsByStructure lists the student IDs assigned to a structure
	FindPairsByStructure(ctx context.Context, feeStructureID uuid.UUID) ([]uuid.UUID, error)

	// Save creates or updates a fee balance
	Save(ctx context.Context, balance *FeeBalance) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, balance *FeeBalance) error

	// Count counts balances with optional filters
	Count(ctx context.Context, filter FeeBalanceFilter) (int64, error)

	// ExistsByPair checks whether a pair has already been assigned
	ExistsByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) (bool, error)
}
