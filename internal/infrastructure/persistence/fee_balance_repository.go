package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFeeBalanceRepository implements FeeBalanceRepository using GORM
type GormFeeBalanceRepository struct {
	db *gorm.DB
}

// NewGormFeeBalanceRepository creates a new GormFeeBalanceRepository
func NewGormFeeBalanceRepository(db *gorm.DB) *GormFeeBalanceRepository {
	return &GormFeeBalanceRepository{db: db}
}

// WithTx returns a repository instance bound to the given transaction
func (r *GormFeeBalanceRepository) WithTx(tx *gorm.DB) *GormFeeBalanceRepository {
	return &GormFeeBalanceRepository{db: tx}
}

// FindByID finds a fee balance by ID
func (r *GormFeeBalanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*fees.FeeBalance, error) {
	var model models.FeeBalanceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPair finds the balance for a (student, fee structure) pair
func (r *GormFeeBalanceRepository) FindByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) (*fees.FeeBalance, error) {
	var model models.FeeBalanceModel
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND fee_structure_id = ?", studentID, feeStructureID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPairForUpdate finds the pair balance with a SELECT ... FOR UPDATE
// row lock. Must be called inside a transaction.
func (r *GormFeeBalanceRepository) FindByPairForUpdate(ctx context.Context, studentID, feeStructureID uuid.UUID) (*fees.FeeBalance, error) {
	var model models.FeeBalanceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND fee_structure_id = ?", studentID, feeStructureID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStudent finds all balances for a student
func (r *GormFeeBalanceRepository) FindByStudent(ctx context.Context, studentID uuid.UUID) ([]fees.FeeBalance, error) {
	var balanceModels []models.FeeBalanceModel
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("due_date ASC").
		Find(&balanceModels).Error
	if err != nil {
		return nil, err
	}

	result := make([]fees.FeeBalance, len(balanceModels))
	for i, model := range balanceModels {
		result[i] = *model.ToDomain()
	}
	return result, nil
}

// FindAll finds balances matching the filter
func (r *GormFeeBalanceRepository) FindAll(ctx context.Context, filter fees.FeeBalanceFilter) ([]fees.FeeBalance, error) {
	var balanceModels []models.FeeBalanceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.FeeBalanceModel{}), filter, true)

	if err := query.Find(&balanceModels).Error; err != nil {
		return nil, err
	}

	result := make([]fees.FeeBalance, len(balanceModels))
	for i, model := range balanceModels {
		result[i] = *model.ToDomain()
	}
	return result, nil
}

// FindPairsByStructure lists the student IDs assigned to a structure
func (r *GormFeeBalanceRepository) FindPairsByStructure(ctx context.Context, feeStructureID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.FeeBalanceModel{}).
		Where("fee_structure_id = ?", feeStructureID).
		Pluck("student_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Save creates or updates a fee balance
func (r *GormFeeBalanceRepository) Save(ctx context.Context, balance *fees.FeeBalance) error {
	model := models.FeeBalanceModelFromDomain(balance)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a fee balance with optimistic locking (version check)
func (r *GormFeeBalanceRepository) SaveWithLock(ctx context.Context, balance *fees.FeeBalance) error {
	model := models.FeeBalanceModelFromDomain(balance)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", balance.ID, balance.Version-1).
		Select("*").
		Omit("id", "created_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The fee balance has been modified by another transaction")
	}
	return nil
}

// Count counts balances matching the filter
func (r *GormFeeBalanceRepository) Count(ctx context.Context, filter fees.FeeBalanceFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.FeeBalanceModel{}), filter, false)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByPair checks whether a pair has already been assigned
func (r *GormFeeBalanceRepository) ExistsByPair(ctx context.Context, studentID, feeStructureID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FeeBalanceModel{}).
		Where("student_id = ? AND fee_structure_id = ?", studentID, feeStructureID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormFeeBalanceRepository) applyFilter(query *gorm.DB, filter fees.FeeBalanceFilter, paginate bool) *gorm.DB {
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.FeeStructureID != nil {
		query = query.Where("fee_structure_id = ?", *filter.FeeStructureID)
	}
	if filter.OverdueOnly {
		query = query.Where("due_date < ? AND balance_amount > 0 AND is_waived = ?", startOfToday(), false)
	}
	if filter.WaivedOnly {
		query = query.Where("is_waived = ?", true)
	}
	if filter.Status != nil {
		switch *filter.Status {
		case fees.BalanceStatusWaived:
			query = query.Where("is_waived = ?", true)
		case fees.BalanceStatusPaid:
			query = query.Where("is_waived = ? AND balance_amount = 0", false)
		case fees.BalanceStatusPartial:
			query = query.Where("is_waived = ? AND balance_amount > 0 AND paid_amount > 0", false)
		case fees.BalanceStatusUnpaid:
			query = query.Where("is_waived = ? AND balance_amount > 0 AND paid_amount = 0", false)
		}
	}

	if !paginate {
		return query
	}

	orderBy := ValidateSortField(filter.OrderBy, FeeBalanceSortFields, "due_date")
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

// startOfToday returns midnight of the current day. Overdue is a date
// comparison, not a timestamp one.
func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
