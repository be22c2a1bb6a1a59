package fees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/students"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockFeeBalanceRepository is a mock implementation of fees.FeeBalanceRepository
type MockFeeBalanceRepository struct {
	mock.Mock
}

func (m *MockFeeBalanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*fees.FeeBalance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeBalance), args.Error(1)
}

func (m *MockFeeBalanceRepository) FindByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) (*fees.FeeBalance, error) {
	args := m.Called(ctx, studentID, feeStructureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeBalance), args.Error(1)
}

func (m *MockFeeBalanceRepository) FindByPairForUpdate(ctx context.Context, studentID, feeStructureID uuid.UUID) (*fees.FeeBalance, error) {
	args := m.Called(ctx, studentID, feeStructureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeBalance), args.Error(1)
}

func (m *MockFeeBalanceRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]fees.FeeBalance, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]fees.FeeBalance), args.Error(1)
}

func (m *MockFeeBalanceRepository) FindAll(ctx context.Context, filter fees.FeeBalanceFilter) ([]fees.FeeBalance, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]fees.FeeBalance), args.Error(1)
}

func (m *MockFeeBalanceRepository) FindPairsByStructure(ctx context.Context, feeStructureID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, feeStructureID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockFeeBalanceRepository) Save(ctx context.Context, balance *fees.FeeBalance) error {
	args := m.Called(ctx, balance)
	return args.Error(0)
}

func (m *MockFeeBalanceRepository) SaveWithLock(ctx context.Context, balance *fees.FeeBalance) error {
	args := m.Called(ctx, balance)
	return args.Error(0)
}

func (m *MockFeeBalanceRepository) Count(ctx context.Context, filter fees.FeeBalanceFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFeeBalanceRepository) ExistsByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) (bool, error) {
	args := m.Called(ctx, studentID, feeStructureID)
	return args.Bool(0), args.Error(1)
}

// MockPaymentRepository is a mock implementation of fees.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*fees.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*fees.Payment, error) {
	args := m.Called(ctx, receiptNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, filter fees.PaymentFilter) ([]fees.Payment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]fees.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) ([]fees.Payment, error) {
	args := m.Called(ctx, studentID, feeStructureID)
	return args.Get(0).([]fees.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *fees.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, payment *fees.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Count(ctx context.Context, filter fees.PaymentFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) SumActiveByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, studentID, feeStructureID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) LastActivePaymentDate(ctx context.Context, studentID, feeStructureID uuid.UUID) (*time.Time, error) {
	args := m.Called(ctx, studentID, feeStructureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockPaymentRepository) NextReceiptSequence(ctx context.Context, year int) (int64, error) {
	args := m.Called(ctx, year)
	return args.Get(0).(int64), args.Error(1)
}

// MockFeeStructureRepository is a mock implementation of fees.FeeStructureRepository
type MockFeeStructureRepository struct {
	mock.Mock
}

func (m *MockFeeStructureRepository) FindByID(ctx context.Context, id uuid.UUID) (*fees.FeeStructure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fees.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) FindAll(ctx context.Context, filter fees.FeeStructureFilter) ([]fees.FeeStructure, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]fees.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) Save(ctx context.Context, structure *fees.FeeStructure) error {
	args := m.Called(ctx, structure)
	return args.Error(0)
}

func (m *MockFeeStructureRepository) SaveWithLock(ctx context.Context, structure *fees.FeeStructure) error {
	args := m.Called(ctx, structure)
	return args.Error(0)
}

func (m *MockFeeStructureRepository) Count(ctx context.Context, filter fees.FeeStructureFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFeeStructureRepository) ExistsByName(ctx context.Context, name, academicYear string, term fees.Term) (bool, error) {
	args := m.Called(ctx, name, academicYear, term)
	return args.Bool(0), args.Error(1)
}

// MockStudentRepository is a mock implementation of students.StudentRepository
type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*students.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*students.Student), args.Error(1)
}

func (m *MockStudentRepository) FindByAdmissionNumber(ctx context.Context, admissionNumber string) (*students.Student, error) {
	args := m.Called(ctx, admissionNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*students.Student), args.Error(1)
}

func (m *MockStudentRepository) FindAll(ctx context.Context, filter students.StudentFilter) ([]students.Student, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]students.Student), args.Error(1)
}

func (m *MockStudentRepository) FindIDsByClass(ctx context.Context, className string) ([]uuid.UUID, error) {
	args := m.Called(ctx, className)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockStudentRepository) Save(ctx context.Context, student *students.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *MockStudentRepository) SaveWithLock(ctx context.Context, student *students.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *MockStudentRepository) Count(ctx context.Context, filter students.StudentFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStudentRepository) ExistsByAdmissionNumber(ctx context.Context, admissionNumber string) (bool, error) {
	args := m.Called(ctx, admissionNumber)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
	Published []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.Published = append(m.Published, events...)
	args := m.Called(ctx, events)
	return args.Error(0)
}

// fakeUnitOfWork hands the test's mock repositories to the callback
// without any real transaction
type fakeUnitOfWork struct {
	balances fees.FeeBalanceRepository
	payments fees.PaymentRepository
	err      error
}

func (f *fakeUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, balances fees.FeeBalanceRepository, payments fees.PaymentRepository) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx, f.balances, f.payments)
}
