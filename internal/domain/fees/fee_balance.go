package fees

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/shared/valueobject"
)

// BalanceStatus is derived from the balance figures, never stored
type BalanceStatus string

const (
	BalanceStatusUnpaid  BalanceStatus = "unpaid"
	BalanceStatusPartial BalanceStatus = "partial"
	BalanceStatusPaid    BalanceStatus = "paid"
	BalanceStatusWaived  BalanceStatus = "waived"
)

// FeeBalance tracks what a student owes against one fee structure.
// One row exists per (student, fee structure) pair, created at assignment
// time. TotalAmount is captured from the structure when assigned and is
// never re-read from it; paid and balance figures are maintained solely
// by reconciliation.
type FeeBalance struct {
	shared.BaseAggregateRoot
	StudentID       uuid.UUID
	FeeStructureID  uuid.UUID
	AcademicYear    string
	TotalAmount     valueobject.Money
	PaidAmount      valueobject.Money
	BalanceAmount   valueobject.Money
	DueDate         time.Time
	LastPaymentDate *time.Time
	IsWaived        bool
	WaiverReason    string
	WaivedBy        *uuid.UUID
	WaivedAt        *time.Time
}

// NewFeeBalance assigns a fee structure to a student, capturing the
// structure's current amount and due date
func NewFeeBalance(studentID uuid.UUID, structure *FeeStructure) (*FeeBalance, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STUDENT", "Student ID is required")
	}
	if structure == nil {
		return nil, shared.NewDomainError("INVALID_FEE_STRUCTURE", "Fee structure is required")
	}
	if !structure.IsActive {
		return nil, shared.NewDomainError("FEE_STRUCTURE_INACTIVE", "Cannot assign an inactive fee structure")
	}

	fb := &FeeBalance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StudentID:         studentID,
		FeeStructureID:    structure.ID,
		AcademicYear:      structure.AcademicYear,
		TotalAmount:       structure.Amount,
		PaidAmount:        valueobject.Zero(structure.Amount.Currency()),
		BalanceAmount:     structure.Amount,
		DueDate:           structure.DueDate,
	}

	fb.AddDomainEvent(NewFeeAssignedEvent(fb))

	return fb, nil
}

// Status derives the balance status from the current figures
func (fb *FeeBalance) Status() BalanceStatus {
	if fb.IsWaived {
		return BalanceStatusWaived
	}
	if fb.BalanceAmount.IsZero() {
		return BalanceStatusPaid
	}
	if fb.PaidAmount.IsPositive() {
		return BalanceStatusPartial
	}
	return BalanceStatusUnpaid
}

// IsOverdue reports whether the balance is past due as of the given time.
// A settled or waived balance is never overdue, whatever the date.
func (fb *FeeBalance) IsOverdue(now time.Time) bool {
	if !fb.BalanceAmount.IsPositive() {
		return false
	}
	due := fb.DueDate.Truncate(24 * time.Hour)
	today := now.Truncate(24 * time.Hour)
	return today.After(due)
}

// ApplyReconciliation updates the balance from the authoritative payment
// totals. totalPaid is the sum of non-voided payment amounts for this pair
// and lastPayment the most recent non-voided payment date.
//
// balance = max(0, total - paid), except a waived balance stays zero.
// Returns true if any stored figure changed, so callers can skip the
// write on a no-op re-run.
func (fb *FeeBalance) ApplyReconciliation(totalPaid valueobject.Money, lastPayment *time.Time) (bool, error) {
	if totalPaid.IsNegative() {
		return false, shared.NewDomainError("INVALID_PAID_TOTAL", "Paid total cannot be negative")
	}
	if totalPaid.Currency() != fb.TotalAmount.Currency() {
		return false, shared.NewDomainError("CURRENCY_MISMATCH", "Paid total currency does not match the fee currency")
	}

	newBalance := fb.BalanceAmount
	if !fb.IsWaived {
		diff, err := fb.TotalAmount.Subtract(totalPaid)
		if err != nil {
			return false, err
		}
		newBalance = diff.ClampNonNegative()
	}

	var newLastPayment *time.Time
	if totalPaid.IsPositive() && lastPayment != nil {
		t := *lastPayment
		newLastPayment = &t
	}

	changed := !fb.PaidAmount.Equals(totalPaid) ||
		!fb.BalanceAmount.Equals(newBalance) ||
		!equalTimePtr(fb.LastPaymentDate, newLastPayment)
	if !changed {
		return false, nil
	}

	fb.PaidAmount = totalPaid
	fb.BalanceAmount = newBalance
	fb.LastPaymentDate = newLastPayment
	fb.UpdatedAt = time.Now()
	fb.IncrementVersion()

	fb.AddDomainEvent(NewBalanceReconciledEvent(fb))

	return true, nil
}

// Waive zeroes the balance without touching paid or total amounts.
// Reconciliation keeps a waived balance at zero until it is unwaived.
func (fb *FeeBalance) Waive(reason string, waivedBy uuid.UUID) error {
	if fb.IsWaived {
		return shared.NewDomainError("ALREADY_WAIVED", "Fee is already waived for this student")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("WAIVER_REASON_REQUIRED", "A reason is required to waive a fee")
	}

	now := time.Now()
	fb.IsWaived = true
	fb.WaiverReason = reason
	fb.WaivedBy = &waivedBy
	fb.WaivedAt = &now
	fb.BalanceAmount = valueobject.Zero(fb.TotalAmount.Currency())
	fb.UpdatedAt = now
	fb.IncrementVersion()

	fb.AddDomainEvent(NewFeeWaivedEvent(fb))

	return nil
}

// Unwaive clears the waiver. The caller must reconcile afterwards to
// restore the balance from recorded payments.
func (fb *FeeBalance) Unwaive() error {
	if !fb.IsWaived {
		return shared.NewDomainError("NOT_WAIVED", "Fee is not waived for this student")
	}

	fb.IsWaived = false
	fb.WaiverReason = ""
	fb.WaivedBy = nil
	fb.WaivedAt = nil
	fb.UpdatedAt = time.Now()
	fb.IncrementVersion()

	return nil
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
