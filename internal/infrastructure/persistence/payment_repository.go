package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx returns a repository instance bound to the given transaction
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: tx}
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*fees.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReceiptNumber finds a payment by its receipt number
func (r *GormPaymentRepository) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*fees.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("receipt_number = ?", receiptNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds payments matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter fees.PaymentFilter) ([]fees.Payment, error) {
	var paymentModels []models.PaymentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentModel{}), filter, true)

	if err := query.Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	result := make([]fees.Payment, len(paymentModels))
	for i, model := range paymentModels {
		result[i] = *model.ToDomain()
	}
	return result, nil
}

// FindByPair finds all payments for a (student, fee structure) pair
func (r *GormPaymentRepository) FindByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) ([]fees.Payment, error) {
	var paymentModels []models.PaymentModel
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND fee_structure_id = ?", studentID, feeStructureID).
		Order("payment_date ASC").
		Find(&paymentModels).Error
	if err != nil {
		return nil, err
	}

	result := make([]fees.Payment, len(paymentModels))
	for i, model := range paymentModels {
		result[i] = *model.ToDomain()
	}
	return result, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *fees.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a payment with optimistic locking (version check)
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, payment *fees.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", payment.ID, payment.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The payment has been modified by another transaction")
	}
	return nil
}

// Count counts payments matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, filter fees.PaymentFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentModel{}), filter, false)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumActiveByPair sums the non-voided payment amounts for a pair
func (r *GormPaymentRepository) SumActiveByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("student_id = ? AND fee_structure_id = ? AND status = ?", studentID, feeStructureID, fees.PaymentStatusActive).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// LastActivePaymentDate returns the most recent non-voided payment date
// for a pair, or nil when the pair has no active payments
func (r *GormPaymentRepository) LastActivePaymentDate(ctx context.Context, studentID, feeStructureID uuid.UUID) (*time.Time, error) {
	var result struct {
		Last *time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("MAX(payment_date) AS last").
		Where("student_id = ? AND fee_structure_id = ? AND status = ?", studentID, feeStructureID, fees.PaymentStatusActive).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return result.Last, nil
}

// NextReceiptSequence reserves and returns the next receipt sequence
// number for the given year. The upsert keeps concurrent callers from
// handing out the same number.
func (r *GormPaymentRepository) NextReceiptSequence(ctx context.Context, year int) (int64, error) {
	var lastValue int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO receipt_sequences (year, last_value) VALUES (?, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = receipt_sequences.last_value + 1
		RETURNING last_value`, year).
		Scan(&lastValue).Error
	if err != nil {
		return 0, err
	}
	return lastValue, nil
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter fees.PaymentFilter, paginate bool) *gorm.DB {
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.FeeStructureID != nil {
		query = query.Where("fee_structure_id = ?", *filter.FeeStructureID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}
	if filter.FromDate != nil {
		query = query.Where("payment_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("payment_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("receipt_number ILIKE ? OR reference_number ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	if !paginate {
		return query
	}

	orderBy := ValidateSortField(filter.OrderBy, PaymentSortFields, "payment_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.PageSize > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.PageSize
		}
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	return query
}
