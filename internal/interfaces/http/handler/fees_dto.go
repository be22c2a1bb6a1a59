package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared/valueobject"
)

// FeeStructureResponse represents a fee structure in API responses
type FeeStructureResponse struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	ClassName    string            `json:"class_name"`
	Category     string            `json:"category"`
	Amount       valueobject.Money `json:"amount"`
	LateFee      valueobject.Money `json:"late_fee"`
	AcademicYear string            `json:"academic_year"`
	Term         string            `json:"term"`
	DueDate      time.Time         `json:"due_date"`
	IsActive     bool              `json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func toFeeStructureResponse(fs *fees.FeeStructure) FeeStructureResponse {
	return FeeStructureResponse{
		ID:           fs.ID,
		Name:         fs.Name,
		Description:  fs.Description,
		ClassName:    fs.ClassName,
		Category:     string(fs.Category),
		Amount:       fs.Amount,
		LateFee:      fs.LateFee,
		AcademicYear: fs.AcademicYear,
		Term:         string(fs.Term),
		DueDate:      fs.DueDate,
		IsActive:     fs.IsActive,
		CreatedAt:    fs.CreatedAt,
		UpdatedAt:    fs.UpdatedAt,
	}
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID              uuid.UUID         `json:"id"`
	StudentID       uuid.UUID         `json:"student_id"`
	FeeStructureID  uuid.UUID         `json:"fee_structure_id"`
	Amount          valueobject.Money `json:"amount"`
	PaymentDate     time.Time         `json:"payment_date"`
	Method          string            `json:"method"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
	ReceiptNumber   string            `json:"receipt_number"`
	Status          string            `json:"status"`
	VoidReason      string            `json:"void_reason,omitempty"`
	VoidedAt        *time.Time        `json:"voided_at,omitempty"`
	RecordedBy      uuid.UUID         `json:"recorded_by"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func toPaymentResponse(p *fees.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		StudentID:       p.StudentID,
		FeeStructureID:  p.FeeStructureID,
		Amount:          p.Amount,
		PaymentDate:     p.PaymentDate,
		Method:          string(p.Method),
		ReferenceNumber: p.ReferenceNumber,
		ReceiptNumber:   p.ReceiptNumber,
		Status:          string(p.Status),
		VoidReason:      p.VoidReason,
		VoidedAt:        p.VoidedAt,
		RecordedBy:      p.RecordedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// FeeBalanceResponse represents a fee balance in API responses. Status
// and overdue state are derived from the balance at render time.
type FeeBalanceResponse struct {
	ID              uuid.UUID         `json:"id"`
	StudentID       uuid.UUID         `json:"student_id"`
	FeeStructureID  uuid.UUID         `json:"fee_structure_id"`
	AcademicYear    string            `json:"academic_year"`
	TotalAmount     valueobject.Money `json:"total_amount"`
	PaidAmount      valueobject.Money `json:"paid_amount"`
	BalanceAmount   valueobject.Money `json:"balance_amount"`
	Status          string            `json:"status"`
	DueDate         time.Time         `json:"due_date"`
	IsOverdue       bool              `json:"is_overdue"`
	LastPaymentDate *time.Time        `json:"last_payment_date,omitempty"`
	IsWaived        bool              `json:"is_waived"`
	WaiverReason    string            `json:"waiver_reason,omitempty"`
	WaivedBy        *uuid.UUID        `json:"waived_by,omitempty"`
	WaivedAt        *time.Time        `json:"waived_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func toFeeBalanceResponse(fb *fees.FeeBalance) FeeBalanceResponse {
	return FeeBalanceResponse{
		ID:              fb.ID,
		StudentID:       fb.StudentID,
		FeeStructureID:  fb.FeeStructureID,
		AcademicYear:    fb.AcademicYear,
		TotalAmount:     fb.TotalAmount,
		PaidAmount:      fb.PaidAmount,
		BalanceAmount:   fb.BalanceAmount,
		Status:          string(fb.Status()),
		DueDate:         fb.DueDate,
		IsOverdue:       fb.IsOverdue(time.Now()),
		LastPaymentDate: fb.LastPaymentDate,
		IsWaived:        fb.IsWaived,
		WaiverReason:    fb.WaiverReason,
		WaivedBy:        fb.WaivedBy,
		WaivedAt:        fb.WaivedAt,
		CreatedAt:       fb.CreatedAt,
		UpdatedAt:       fb.UpdatedAt,
	}
}

// PaymentResultResponse pairs a payment with the balance it reconciled
type PaymentResultResponse struct {
	Payment PaymentResponse    `json:"payment"`
	Balance FeeBalanceResponse `json:"balance"`
}
