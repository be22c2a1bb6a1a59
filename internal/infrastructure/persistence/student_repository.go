package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/students"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStudentRepository implements StudentRepository using GORM
type GormStudentRepository struct {
	db *gorm.DB
}

// NewGormStudentRepository creates a new GormStudentRepository
func NewGormStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

// FindByID finds a student by ID
func (r *GormStudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*students.Student, error) {
	var model models.StudentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAdmissionNumber finds a student by admission number
func (r *GormStudentRepository) FindByAdmissionNumber(ctx context.Context, admissionNumber string) (*students.Student, error) {
	var model models.StudentModel
	if err := r.db.WithContext(ctx).
		Where("admission_number = ?", strings.ToUpper(strings.TrimSpace(admissionNumber))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds students matching the filter
func (r *GormStudentRepository) FindAll(ctx context.Context, filter students.StudentFilter) ([]students.Student, error) {
	var studentModels []models.StudentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StudentModel{}), filter, true)

	if err := query.Find(&studentModels).Error; err != nil {
		return nil, err
	}

	result := make([]students.Student, len(studentModels))
	for i, model := range studentModels {
		result[i] = *model.ToDomain()
	}
	return result, nil
}

// FindIDsByClass lists the IDs of active students in a class
func (r *GormStudentRepository) FindIDsByClass(ctx context.Context, className string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.StudentModel{}).
		Where("class_name = ? AND status = ?", className, students.StudentStatusActive).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Save creates or updates a student
func (r *GormStudentRepository) Save(ctx context.Context, student *students.Student) error {
	model := models.StudentModelFromDomain(student)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a student with optimistic locking (version check)
func (r *GormStudentRepository) SaveWithLock(ctx context.Context, student *students.Student) error {
	model := models.StudentModelFromDomain(student)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", student.ID, student.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The student record has been modified by another transaction")
	}
	return nil
}

// Count counts students matching the filter
func (r *GormStudentRepository) Count(ctx context.Context, filter students.StudentFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StudentModel{}), filter, false)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByAdmissionNumber checks if an admission number is taken
func (r *GormStudentRepository) ExistsByAdmissionNumber(ctx context.Context, admissionNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StudentModel{}).
		Where("admission_number = ?", strings.ToUpper(strings.TrimSpace(admissionNumber))).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormStudentRepository) applyFilter(query *gorm.DB, filter students.StudentFilter, paginate bool) *gorm.DB {
	if filter.ClassName != nil {
		query = query.Where("class_name = ?", *filter.ClassName)
	}
	if filter.Stream != nil {
		query = query.Where("stream = ?", *filter.Stream)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"admission_number ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	if !paginate {
		return query
	}

	orderBy := ValidateSortField(filter.OrderBy, StudentSortFields, "created_at")
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
