package students

import (
	"regexp"
	"strings"
	"time"

	"github.com/schoolfee/backend/internal/domain/shared"
)

// StudentStatus represents the enrollment status of a student
type StudentStatus string

const (
	StudentStatusActive      StudentStatus = "active"
	StudentStatusTransferred StudentStatus = "transferred"
	StudentStatusGraduated   StudentStatus = "graduated"
	StudentStatusWithdrawn   StudentStatus = "withdrawn"
)

// IsValid checks if the status is valid
func (s StudentStatus) IsValid() bool {
	switch s {
	case StudentStatusActive, StudentStatusTransferred, StudentStatusGraduated, StudentStatusWithdrawn:
		return true
	}
	return false
}

var (
	admissionNumberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/-]{0,29}$`)
	emailPattern           = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Student is the aggregate root for student records.
// Fee balances reference students by ID; a student leaving the school
// keeps their balances intact.
type Student struct {
	shared.BaseAggregateRoot
	AdmissionNumber string
	FirstName       string
	LastName        string
	ClassName       string
	Stream          string
	GuardianName    string
	GuardianPhone   string
	GuardianEmail   string
	Status          StudentStatus
	EnrolledAt      time.Time
}

// NewStudent creates a new active student
func NewStudent(admissionNumber, firstName, lastName, className string) (*Student, error) {
	admissionNumber = strings.ToUpper(strings.TrimSpace(admissionNumber))
	if !admissionNumberPattern.MatchString(admissionNumber) {
		return nil, shared.NewDomainError("INVALID_ADMISSION_NUMBER", "Admission number must be 1-30 alphanumeric characters")
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, shared.NewDomainError("INVALID_STUDENT_NAME", "First and last name are required")
	}
	className = strings.TrimSpace(className)
	if className == "" {
		return nil, shared.NewDomainError("INVALID_CLASS", "Class name is required")
	}

	s := &Student{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AdmissionNumber:   admissionNumber,
		FirstName:         firstName,
		LastName:          lastName,
		ClassName:         className,
		Status:            StudentStatusActive,
		EnrolledAt:        time.Now(),
	}

	s.AddDomainEvent(NewStudentEnrolledEvent(s))

	return s, nil
}

// FullName returns the student's display name
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// UpdateDetails modifies the student's personal details
func (s *Student) UpdateDetails(firstName, lastName, className, stream string) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return shared.NewDomainError("INVALID_STUDENT_NAME", "First and last name are required")
	}
	className = strings.TrimSpace(className)
	if className == "" {
		return shared.NewDomainError("INVALID_CLASS", "Class name is required")
	}

	s.FirstName = firstName
	s.LastName = lastName
	s.ClassName = className
	s.Stream = strings.TrimSpace(stream)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// SetGuardian sets the guardian contact details
func (s *Student) SetGuardian(name, phone, email string) error {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	email = strings.ToLower(strings.TrimSpace(email))

	if phone != "" && len(phone) > 20 {
		return shared.NewDomainError("INVALID_GUARDIAN_PHONE", "Guardian phone cannot exceed 20 characters")
	}
	if email != "" && !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_GUARDIAN_EMAIL", "Guardian email format is invalid")
	}

	s.GuardianName = name
	s.GuardianPhone = phone
	s.GuardianEmail = email
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// ChangeStatus transitions the enrollment status
func (s *Student) ChangeStatus(status StudentStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STUDENT_STATUS", "Unknown student status")
	}
	if s.Status == status {
		return shared.NewDomainError("STATUS_UNCHANGED", "Student is already in this status")
	}

	s.Status = status
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	s.AddDomainEvent(NewStudentStatusChangedEvent(s))

	return nil
}

// IsActive returns true if the student is currently enrolled
func (s *Student) IsActive() bool {
	return s.Status == StudentStatusActive
}
