package students

import (
	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// StudentEnrolledEvent is raised when a new student is enrolled
type StudentEnrolledEvent struct {
	shared.BaseDomainEvent
	StudentID       uuid.UUID `json:"student_id"`
	AdmissionNumber string    `json:"admission_number"`
	FullName        string    `json:"full_name"`
	ClassName       string    `json:"class_name"`
}

// NewStudentEnrolledEvent creates a new StudentEnrolledEvent
func NewStudentEnrolledEvent(s *Student) *StudentEnrolledEvent {
	return &StudentEnrolledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StudentEnrolled", "Student", s.ID),
		StudentID:       s.ID,
		AdmissionNumber: s.AdmissionNumber,
		FullName:        s.FullName(),
		ClassName:       s.ClassName,
	}
}

// StudentStatusChangedEvent is raised when enrollment status changes
type StudentStatusChangedEvent struct {
	shared.BaseDomainEvent
	StudentID       uuid.UUID     `json:"student_id"`
	AdmissionNumber string        `json:"admission_number"`
	Status          StudentStatus `json:"status"`
}

// NewStudentStatusChangedEvent creates a new StudentStatusChangedEvent
func NewStudentStatusChangedEvent(s *Student) *StudentStatusChangedEvent {
	return &StudentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StudentStatusChanged", "Student", s.ID),
		StudentID:       s.ID,
		AdmissionNumber: s.AdmissionNumber,
		Status:          s.Status,
	}
}
