package students

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/students"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
)

// StudentService handles student enrollment and record management
type StudentService struct {
	studentRepo students.StudentRepository
	eventBus    shared.EventPublisher
}

// NewStudentService creates a new StudentService
func NewStudentService(studentRepo students.StudentRepository, eventBus shared.EventPublisher) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		eventBus:    eventBus,
	}
}

// EnrollStudentRequest represents a request to enroll a student
type EnrollStudentRequest struct {
	AdmissionNumber string
	FirstName       string
	LastName        string
	ClassName       string
	Stream          string
	GuardianName    string
	GuardianPhone   string
	GuardianEmail   string
}

// EnrollStudent enrolls a new student. Admission numbers are unique
// across the school.
func (s *StudentService) EnrollStudent(ctx context.Context, req EnrollStudentRequest) (*students.Student, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "student", "enroll")
	defer span.End()

	taken, err := s.studentRepo.ExistsByAdmissionNumber(ctx, req.AdmissionNumber)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if taken {
		err := shared.NewDomainError("ADMISSION_NUMBER_TAKEN", "A student with this admission number already exists")
		telemetry.RecordError(span, err)
		return nil, err
	}

	student, err := students.NewStudent(req.AdmissionNumber, req.FirstName, req.LastName, req.ClassName)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.Stream != "" {
		if err := student.UpdateDetails(req.FirstName, req.LastName, req.ClassName, req.Stream); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if req.GuardianName != "" || req.GuardianPhone != "" || req.GuardianEmail != "" {
		if err := student.SetGuardian(req.GuardianName, req.GuardianPhone, req.GuardianEmail); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.studentRepo.Save(ctx, student); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save student: %w", err)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrStudentID, student.ID.String())
	s.publishEvents(ctx, student)

	return student, nil
}

// UpdateStudentRequest represents a request to update a student's record
type UpdateStudentRequest struct {
	ID            uuid.UUID
	FirstName     string
	LastName      string
	ClassName     string
	Stream        string
	GuardianName  string
	GuardianPhone string
	GuardianEmail string
}

// UpdateStudent modifies a student's personal and guardian details
func (s *StudentService) UpdateStudent(ctx context.Context, req UpdateStudentRequest) (*students.Student, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "student", "update")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrStudentID, req.ID.String())

	student, err := s.studentRepo.FindByID(ctx, req.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	if err := student.UpdateDetails(req.FirstName, req.LastName, req.ClassName, req.Stream); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := student.SetGuardian(req.GuardianName, req.GuardianPhone, req.GuardianEmail); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.studentRepo.SaveWithLock(ctx, student); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save student: %w", err)
	}

	s.publishEvents(ctx, student)

	return student, nil
}

// ChangeStatus moves a student to a new enrollment status. Balances are
// untouched; a transferred or withdrawn student keeps any arrears.
func (s *StudentService) ChangeStatus(ctx context.Context, id uuid.UUID, status students.StudentStatus) (*students.Student, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "student", "change_status")
	defer span.End()

	telemetry.SetAttributes(span, telemetry.SpanAttrStudentID, id.String(), "status", string(status))

	student, err := s.studentRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	if err := student.ChangeStatus(status); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.studentRepo.SaveWithLock(ctx, student); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save student: %w", err)
	}

	s.publishEvents(ctx, student)

	return student, nil
}

// GetStudent returns one student by ID
func (s *StudentService) GetStudent(ctx context.Context, id uuid.UUID) (*students.Student, error) {
	return s.studentRepo.FindByID(ctx, id)
}

// GetStudentByAdmissionNumber returns one student by admission number
func (s *StudentService) GetStudentByAdmissionNumber(ctx context.Context, admissionNumber string) (*students.Student, error) {
	return s.studentRepo.FindByAdmissionNumber(ctx, admissionNumber)
}

// ListStudents returns students matching the filter with pagination
func (s *StudentService) ListStudents(ctx context.Context, filter students.StudentFilter) (*shared.Paginated[students.Student], error) {
	items, err := s.studentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.studentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *StudentService) publishEvents(ctx context.Context, student *students.Student) {
	if s.eventBus == nil {
		return
	}
	events := student.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventBus.Publish(ctx, events...)
	student.ClearDomainEvents()
}
