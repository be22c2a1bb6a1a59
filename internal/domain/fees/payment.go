package fees

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/shared/valueobject"
)

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusActive PaymentStatus = "active"
	PaymentStatusVoided PaymentStatus = "voided"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusActive, PaymentStatusVoided:
		return true
	}
	return false
}

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodMpesa        PaymentMethod = "mpesa"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheque       PaymentMethod = "cheque"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodMpesa, PaymentMethodBankTransfer, PaymentMethodCheque:
		return true
	}
	return false
}

// FormatReceiptNumber formats a receipt number as RCT-YYYY-NNNNNN
func FormatReceiptNumber(year int, sequence int64) string {
	return fmt.Sprintf("RCT-%d-%06d", year, sequence)
}

// Payment records money received against a student's fee.
// It is the aggregate root for payment operations. Voiding is one way:
// a voided payment stays voided and is excluded from balance arithmetic.
type Payment struct {
	shared.BaseAggregateRoot
	StudentID       uuid.UUID
	FeeStructureID  uuid.UUID
	Amount          valueobject.Money
	PaymentDate     time.Time
	Method          PaymentMethod
	ReferenceNumber string
	ReceiptNumber   string
	Status          PaymentStatus
	VoidReason      string
	VoidedAt        *time.Time
	RecordedBy      uuid.UUID
}

// NewPayment creates a new active payment
func NewPayment(studentID, feeStructureID uuid.UUID, amount valueobject.Money, paymentDate time.Time, method PaymentMethod, receiptNumber string, recordedBy uuid.UUID) (*Payment, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STUDENT", "Student ID is required")
	}
	if feeStructureID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FEE_STRUCTURE", "Fee structure ID is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unsupported payment method")
	}
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "Receipt number is required")
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StudentID:         studentID,
		FeeStructureID:    feeStructureID,
		Amount:            amount,
		PaymentDate:       paymentDate,
		Method:            method,
		ReceiptNumber:     receiptNumber,
		Status:            PaymentStatusActive,
		RecordedBy:        recordedBy,
	}

	p.AddDomainEvent(NewPaymentRecordedEvent(p))

	return p, nil
}

// SetReferenceNumber sets the external reference (e.g. M-Pesa code, cheque number)
func (p *Payment) SetReferenceNumber(ref string) error {
	ref = strings.TrimSpace(ref)
	if len(ref) > 100 {
		return shared.NewDomainError("INVALID_REFERENCE", "Reference number cannot exceed 100 characters")
	}
	p.ReferenceNumber = ref
	p.UpdatedAt = time.Now()
	return nil
}

// IsActive returns true if the payment counts toward balances
func (p *Payment) IsActive() bool {
	return p.Status == PaymentStatusActive
}

// IsVoided returns true if the payment has been voided
func (p *Payment) IsVoided() bool {
	return p.Status == PaymentStatusVoided
}

// Update modifies an active payment's details
func (p *Payment) Update(amount valueobject.Money, paymentDate time.Time, method PaymentMethod, referenceNumber string) error {
	if p.IsVoided() {
		return shared.NewDomainError("PAYMENT_VOIDED", "Cannot update a voided payment")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")
	}
	if paymentDate.IsZero() {
		return shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unsupported payment method")
	}

	p.Amount = amount
	p.PaymentDate = paymentDate
	p.Method = method
	p.ReferenceNumber = strings.TrimSpace(referenceNumber)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentUpdatedEvent(p))

	return nil
}

// Void marks the payment as voided with a reason.
// The transition is irreversible.
func (p *Payment) Void(reason string, voidedBy uuid.UUID) error {
	if p.IsVoided() {
		return shared.NewDomainError("PAYMENT_ALREADY_VOIDED", "Payment has already been voided")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("VOID_REASON_REQUIRED", "A reason is required to void a payment")
	}

	now := time.Now()
	p.Status = PaymentStatusVoided
	p.VoidReason = reason
	p.VoidedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentVoidedEvent(p, voidedBy))

	return nil
}
