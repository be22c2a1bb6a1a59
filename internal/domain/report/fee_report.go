package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionSummary is a read model of money expected vs collected
// for one fee structure
type CollectionSummary struct {
	FeeStructureID    uuid.UUID       `json:"fee_structure_id"`
	FeeStructureName  string          `json:"fee_structure_name"`
	AcademicYear      string          `json:"academic_year"`
	Term              string          `json:"term"`
	StudentCount      int64           `json:"student_count"`
	ExpectedAmount    decimal.Decimal `json:"expected_amount"`  // Sum of assigned totals
	CollectedAmount   decimal.Decimal `json:"collected_amount"` // Sum of paid amounts
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	WaivedCount       int64           `json:"waived_count"`
	WaivedAmount      decimal.Decimal `json:"waived_amount"` // Balance forgiven by waivers
}

// Defaulter is a read model of one overdue balance with guardian contacts
type Defaulter struct {
	StudentID        uuid.UUID       `json:"student_id"`
	AdmissionNumber  string          `json:"admission_number"`
	StudentName      string          `json:"student_name"`
	ClassName        string          `json:"class_name"`
	GuardianName     string          `json:"guardian_name"`
	GuardianPhone    string          `json:"guardian_phone"`
	FeeStructureID   uuid.UUID       `json:"fee_structure_id"`
	FeeStructureName string          `json:"fee_structure_name"`
	BalanceAmount    decimal.Decimal `json:"balance_amount"`
	DueDate          time.Time       `json:"due_date"`
	DaysOverdue      int             `json:"days_overdue"`
}

// DailyCollection is a read model of one day's takings per payment method
type DailyCollection struct {
	Date         time.Time       `json:"date"`
	Method       string          `json:"method"`
	PaymentCount int64           `json:"payment_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// OverdueSnapshot is an aggregate view of everything past due right now
type OverdueSnapshot struct {
	AsOf              time.Time       `json:"as_of"`
	OverdueCount      int64           `json:"overdue_count"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
}

// FeeReportRepository defines read-model queries over fee data
type FeeReportRepository interface {
	// CollectionSummaries aggregates expected vs collected per structure
	// for an academic year, optionally narrowed to one term
	CollectionSummaries(ctx context.Context, academicYear string, term *string) ([]CollectionSummary, error)

	// Defaulters lists overdue balances, optionally narrowed to a
	// structure or a class
	Defaulters(ctx context.Context, feeStructureID *uuid.UUID, className *string) ([]Defaulter, error)

	// DailyCollections totals non-voided payments per day and method
	DailyCollections(ctx context.Context, from, to time.Time) ([]DailyCollection, error)

	// Overdue returns the current overdue snapshot
	Overdue(ctx context.Context) (*OverdueSnapshot, error)
}
