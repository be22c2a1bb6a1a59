package students

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// StudentFilter defines filtering options for student queries
type StudentFilter struct {
	shared.Filter
	ClassName *string        // Filter by class
	Stream    *string        // Filter by stream
	Status    *StudentStatus // Filter by enrollment status
}

// StudentRepository defines the interface for student persistence
type StudentRepository interface {
	// FindByID finds a student by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Student, error)

	// FindByAdmissionNumber finds a student by admission number
	FindByAdmissionNumber(ctx context.Context, admissionNumber string) (*Student, error)

	// FindAll finds students with filtering; Filter.Search matches
	// name or admission number
	FindAll(ctx context.Context, filter StudentFilter) ([]Student, error)

	// FindIDsByClass lists the IDs of active students in a class
	FindIDsByClass(ctx context.Context, className string) ([]uuid.UUID, error)

	// Save creates or updates a student
	Save(ctx context.Context, student *Student) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, student *Student) error

	// Count counts students with optional filters
	Count(ctx context.Context, filter StudentFilter) (int64, error)

	// ExistsByAdmissionNumber checks if an admission number is taken
	ExistsByAdmissionNumber(ctx context.Context, admissionNumber string) (bool, error)
}
