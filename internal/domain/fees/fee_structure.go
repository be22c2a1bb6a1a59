package fees

import (
	"regexp"
	"strings"
	"time"

	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/shared/valueobject"
)

// Term represents a school term within an academic year
type Term string

const (
	TermOne   Term = "term_1"
	TermTwo   Term = "term_2"
	TermThree Term = "term_3"
)

// IsValid checks if the term is valid
func (t Term) IsValid() bool {
	switch t {
	case TermOne, TermTwo, TermThree:
		return true
	}
	return false
}

// FeeCategory classifies what a fee structure charges for
type FeeCategory string

const (
	CategoryTuition   FeeCategory = "tuition"
	CategoryTransport FeeCategory = "transport"
	CategoryLibrary   FeeCategory = "library"
	CategoryExam      FeeCategory = "exam"
	CategorySports    FeeCategory = "sports"
	CategoryLab       FeeCategory = "lab"
	CategoryOther     FeeCategory = "other"
)

// IsValid checks if the category is valid
func (c FeeCategory) IsValid() bool {
	switch c {
	case CategoryTuition, CategoryTransport, CategoryLibrary, CategoryExam,
		CategorySports, CategoryLab, CategoryOther:
		return true
	}
	return false
}

var academicYearPattern = regexp.MustCompile(`^\d{4}/\d{4}$`)

// ValidAcademicYear checks the "YYYY/YYYY" format
func ValidAcademicYear(year string) bool {
	return academicYearPattern.MatchString(year)
}

// FeeStructure defines a chargeable fee for an academic year and term.
// It is the aggregate root for fee definition operations.
// Amount changes never propagate to balances already assigned; each
// balance keeps the amount captured at assignment time.
type FeeStructure struct {
	shared.BaseAggregateRoot
	Name         string
	Description  string
	ClassName    string
	Category     FeeCategory
	Amount       valueobject.Money
	LateFee      valueobject.Money
	AcademicYear string
	Term         Term
	DueDate      time.Time
	IsActive     bool
}

// NewFeeStructure creates a new fee structure. The late fee defaults to
// zero and is set separately via SetLateFee.
func NewFeeStructure(name, className string, category FeeCategory, amount valueobject.Money, academicYear string, term Term, dueDate time.Time) (*FeeStructure, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_FEE_NAME", "Fee structure name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_FEE_NAME", "Fee structure name cannot exceed 200 characters")
	}
	className = strings.TrimSpace(className)
	if className == "" {
		return nil, shared.NewDomainError("INVALID_CLASS_NAME", "Class name cannot be empty")
	}
	if len(className) > 100 {
		return nil, shared.NewDomainError("INVALID_CLASS_NAME", "Class name cannot exceed 100 characters")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_FEE_CATEGORY", "Fee category must be one of tuition, transport, library, exam, sports, lab, other")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_FEE_AMOUNT", "Fee amount must be positive")
	}
	if !ValidAcademicYear(academicYear) {
		return nil, shared.NewDomainError("INVALID_ACADEMIC_YEAR", "Academic year must be in YYYY/YYYY format")
	}
	if !term.IsValid() {
		return nil, shared.NewDomainError("INVALID_TERM", "Term must be one of term_1, term_2, term_3")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}

	fs := &FeeStructure{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		ClassName:         className,
		Category:          category,
		Amount:            amount,
		LateFee:           valueobject.Zero(amount.Currency()),
		AcademicYear:      academicYear,
		Term:              term,
		DueDate:           dueDate,
		IsActive:          true,
	}

	fs.AddDomainEvent(NewFeeStructureCreatedEvent(fs))

	return fs, nil
}

// SetDescription sets the fee structure description
func (fs *FeeStructure) SetDescription(description string) error {
	if len(description) > 1000 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 1000 characters")
	}
	fs.Description = description
	fs.UpdatedAt = time.Now()
	fs.IncrementVersion()
	return nil
}

// SetLateFee sets the flat amount added after the due date. A zero
// value clears it regardless of currency.
func (fs *FeeStructure) SetLateFee(lateFee valueobject.Money) error {
	if lateFee.IsNegative() {
		return shared.NewDomainError("INVALID_LATE_FEE", "Late fee cannot be negative")
	}
	if lateFee.IsZero() {
		lateFee = valueobject.Zero(fs.Amount.Currency())
	} else if lateFee.Currency() != fs.Amount.Currency() {
		return shared.NewDomainError("CURRENCY_MISMATCH", "Late fee currency must match the fee amount")
	}
	fs.LateFee = lateFee
	fs.UpdatedAt = time.Now()
	fs.IncrementVersion()
	return nil
}

// Update modifies the mutable attributes of the structure
func (fs *FeeStructure) Update(name string, amount valueobject.Money, dueDate time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_FEE_NAME", "Fee structure name cannot be empty")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_FEE_AMOUNT", "Fee amount must be positive")
	}
	if dueDate.IsZero() {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}

	fs.Name = name
	fs.Amount = amount
	fs.DueDate = dueDate
	fs.UpdatedAt = time.Now()
	fs.IncrementVersion()

	fs.AddDomainEvent(NewFeeStructureUpdatedEvent(fs))

	return nil
}

// Deactivate marks the structure as inactive.
// Existing assignments and balances are unaffected.
func (fs *FeeStructure) Deactivate() error {
	if !fs.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Fee structure is already inactive")
	}
	fs.IsActive = false
	fs.UpdatedAt = time.Now()
	fs.IncrementVersion()
	return nil
}

// Activate re-enables an inactive structure
func (fs *FeeStructure) Activate() error {
	if fs.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Fee structure is already active")
	}
	fs.IsActive = true
	fs.UpdatedAt = time.Now()
	fs.IncrementVersion()
	return nil
}
