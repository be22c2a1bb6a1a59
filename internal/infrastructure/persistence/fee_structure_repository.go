package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormFeeStructureRepository implements FeeStructureRepository using GORM
type GormFeeStructureRepository struct {
	db *gorm.DB
}

// NewGormFeeStructureRepository creates a new GormFeeStructureRepository
func NewGormFeeStructureRepository(db *gorm.DB) *GormFeeStructureRepository {
	return &GormFeeStructureRepository{db: db}
}

// FindByID finds a fee structure by ID
func (r *GormFeeStructureRepository) FindByID(ctx context.Context, id uuid.UUID) (*fees.FeeStructure, error) {
	var model models.FeeStructureModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds fee structures matching the filter
func (r *GormFeeStructureRepository) FindAll(ctx context.Context, filter fees.FeeStructureFilter) ([]fees.FeeStructure, error) {
	var structureModels []models.FeeStructureModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.FeeStructureModel{}), filter, true)

	if err := query.Find(&structureModels).Error; err != nil {
		return nil, err
	}

	result := make([]fees.FeeStructure, len(structureModels))
	for i, model := range structureModels {
		result[i] = *model.ToDomain()
	}
	return result, nil
}

// Save creates or updates a fee structure
func (r *GormFeeStructureRepository) Save(ctx context.Context, structure *fees.FeeStructure) error {
	model := models.FeeStructureModelFromDomain(structure)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a fee structure with optimistic locking (version check)
func (r *GormFeeStructureRepository) SaveWithLock(ctx context.Context, structure *fees.FeeStructure) error {
	model := models.FeeStructureModelFromDomain(structure)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", structure.ID, structure.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The fee structure has been modified by another transaction")
	}
	return nil
}

// Count counts fee structures matching the filter
func (r *GormFeeStructureRepository) Count(ctx context.Context, filter fees.FeeStructureFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.FeeStructureModel{}), filter, false)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByName checks if a structure with the name exists for the year and term
func (r *GormFeeStructureRepository) ExistsByName(ctx context.Context, name, academicYear string, term fees.Term) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FeeStructureModel{}).
		Where("LOWER(name) = ? AND academic_year = ? AND term = ?", strings.ToLower(strings.TrimSpace(name)), academicYear, term).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormFeeStructureRepository) applyFilter(query *gorm.DB, filter fees.FeeStructureFilter, paginate bool) *gorm.DB {
	if filter.AcademicYear != nil {
		query = query.Where("academic_year = ?", *filter.AcademicYear)
	}
	if filter.Term != nil {
		query = query.Where("term = ?", *filter.Term)
	}
	if filter.ClassName != nil {
		query = query.Where("class_name = ?", *filter.ClassName)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	if !paginate {
		return query
	}

	orderBy := ValidateSortField(filter.OrderBy, FeeStructureSortFields, "created_at")
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
