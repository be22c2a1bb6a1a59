package fees

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeeStructureCreatedEvent is raised when a new fee structure is created
type FeeStructureCreatedEvent struct {
	shared.BaseDomainEvent
	FeeStructureID uuid.UUID       `json:"fee_structure_id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	AcademicYear   string          `json:"academic_year"`
	Term           Term            `json:"term"`
	DueDate        time.Time       `json:"due_date"`
}

// NewFeeStructureCreatedEvent creates a new FeeStructureCreatedEvent
func NewFeeStructureCreatedEvent(fs *FeeStructure) *FeeStructureCreatedEvent {
	return &FeeStructureCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeStructureCreated", "FeeStructure", fs.ID),
		FeeStructureID:  fs.ID,
		Name:            fs.Name,
		Amount:          fs.Amount.Amount(),
		AcademicYear:    fs.AcademicYear,
		Term:            fs.Term,
		DueDate:         fs.DueDate,
	}
}

// FeeStructureUpdatedEvent is raised when a fee structure is modified
type FeeStructureUpdatedEvent struct {
	shared.BaseDomainEvent
	FeeStructureID uuid.UUID       `json:"fee_structure_id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        time.Time       `json:"due_date"`
}

// NewFeeStructureUpdatedEvent creates a new FeeStructureUpdatedEvent
func NewFeeStructureUpdatedEvent(fs *FeeStructure) *FeeStructureUpdatedEvent {
	return &FeeStructureUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeStructureUpdated", "FeeStructure", fs.ID),
		FeeStructureID:  fs.ID,
		Name:            fs.Name,
		Amount:          fs.Amount.Amount(),
		DueDate:         fs.DueDate,
	}
}

// FeeAssignedEvent is raised when a fee structure is assigned to a student
type FeeAssignedEvent struct {
	shared.BaseDomainEvent
	BalanceID      uuid.UUID       `json:"balance_id"`
	StudentID      uuid.UUID       `json:"student_id"`
	FeeStructureID uuid.UUID       `json:"fee_structure_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DueDate        time.Time       `json:"due_date"`
}

// NewFeeAssignedEvent creates a new FeeAssignedEvent
func NewFeeAssignedEvent(fb *FeeBalance) *FeeAssignedEvent {
	return &FeeAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeAssigned", "FeeBalance", fb.ID),
		BalanceID:       fb.ID,
		StudentID:       fb.StudentID,
		FeeStructureID:  fb.FeeStructureID,
		TotalAmount:     fb.TotalAmount.Amount(),
		DueDate:         fb.DueDate,
	}
}

// FeeWaivedEvent is raised when a student's fee is waived
type FeeWaivedEvent struct {
	shared.BaseDomainEvent
	BalanceID      uuid.UUID  `json:"balance_id"`
	StudentID      uuid.UUID  `json:"student_id"`
	FeeStructureID uuid.UUID  `json:"fee_structure_id"`
	Reason         string     `json:"reason"`
	WaivedBy       *uuid.UUID `json:"waived_by,omitempty"`
}

// NewFeeWaivedEvent creates a new FeeWaivedEvent
func NewFeeWaivedEvent(fb *FeeBalance) *FeeWaivedEvent {
	return &FeeWaivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FeeWaived", "FeeBalance", fb.ID),
		BalanceID:       fb.ID,
		StudentID:       fb.StudentID,
		FeeStructureID:  fb.FeeStructureID,
		Reason:          fb.WaiverReason,
		WaivedBy:        fb.WaivedBy,
	}
}

// BalanceReconciledEvent is raised whenever reconciliation changes a balance
type BalanceReconciledEvent struct {
	shared.BaseDomainEvent
	BalanceID      uuid.UUID       `json:"balance_id"`
	StudentID      uuid.UUID       `json:"student_id"`
	FeeStructureID uuid.UUID       `json:"fee_structure_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceAmount  decimal.Decimal `json:"balance_amount"`
}

// NewBalanceReconciledEvent creates a new BalanceReconciledEvent
func NewBalanceReconciledEvent(fb *FeeBalance) *BalanceReconciledEvent {
	return &BalanceReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("BalanceReconciled", "FeeBalance", fb.ID),
		BalanceID:       fb.ID,
		StudentID:       fb.StudentID,
		FeeStructureID:  fb.FeeStructureID,
		TotalAmount:     fb.TotalAmount.Amount(),
		PaidAmount:      fb.PaidAmount.Amount(),
		BalanceAmount:   fb.BalanceAmount.Amount(),
	}
}

// PaymentRecordedEvent is raised when a payment is recorded
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID       `json:"payment_id"`
	StudentID      uuid.UUID       `json:"student_id"`
	FeeStructureID uuid.UUID       `json:"fee_structure_id"`
	Amount         decimal.Decimal `json:"amount"`
	Method         PaymentMethod   `json:"method"`
	ReceiptNumber  string          `json:"receipt_number"`
	PaymentDate    time.Time       `json:"payment_date"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentRecorded", "Payment", p.ID),
		PaymentID:       p.ID,
		StudentID:       p.StudentID,
		FeeStructureID:  p.FeeStructureID,
		Amount:          p.Amount.Amount(),
		Method:          p.Method,
		ReceiptNumber:   p.ReceiptNumber,
		PaymentDate:     p.PaymentDate,
	}
}

// PaymentUpdatedEvent is raised when an active payment is modified
type PaymentUpdatedEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID       `json:"payment_id"`
	StudentID      uuid.UUID       `json:"student_id"`
	FeeStructureID uuid.UUID       `json:"fee_structure_id"`
	Amount         decimal.Decimal `json:"amount"`
	Method         PaymentMethod   `json:"method"`
}

// NewPaymentUpdatedEvent creates a new PaymentUpdatedEvent
func NewPaymentUpdatedEvent(p *Payment) *PaymentUpdatedEvent {
	return &PaymentUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentUpdated", "Payment", p.ID),
		PaymentID:       p.ID,
		StudentID:       p.StudentID,
		FeeStructureID:  p.FeeStructureID,
		Amount:          p.Amount.Amount(),
		Method:          p.Method,
	}
}

// PaymentVoidedEvent is raised when a payment is voided
type PaymentVoidedEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID       `json:"payment_id"`
	StudentID      uuid.UUID       `json:"student_id"`
	FeeStructureID uuid.UUID       `json:"fee_structure_id"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason"`
	VoidedBy       uuid.UUID       `json:"voided_by"`
}

// NewPaymentVoidedEvent creates a new PaymentVoidedEvent
func NewPaymentVoidedEvent(p *Payment, voidedBy uuid.UUID) *PaymentVoidedEvent {
	return &PaymentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentVoided", "Payment", p.ID),
		PaymentID:       p.ID,
		StudentID:       p.StudentID,
		FeeStructureID:  p.FeeStructureID,
		Amount:          p.Amount.Amount(),
		Reason:          p.VoidReason,
		VoidedBy:        voidedBy,
	}
}
