package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormFeeReportRepository implements FeeReportRepository using GORM.
// Queries aggregate over fee_balances and payments; reconciliation keeps
// the stored balance columns authoritative, so reports read them as-is.
type GormFeeReportRepository struct {
	db *gorm.DB
}

// NewGormFeeReportRepository creates a new GormFeeReportRepository
func NewGormFeeReportRepository(db *gorm.DB) *GormFeeReportRepository {
	return &GormFeeReportRepository{db: db}
}

// CollectionSummaries aggregates expected vs collected per fee structure
// for an academic year, optionally narrowed to one term
func (r *GormFeeReportRepository) CollectionSummaries(ctx context.Context, academicYear string, term *string) ([]report.CollectionSummary, error) {
	type summaryResult struct {
		FeeStructureID    uuid.UUID
		FeeStructureName  string
		AcademicYear      string
		Term              string
		StudentCount      int64
		ExpectedAmount    decimal.Decimal
		CollectedAmount   decimal.Decimal
		OutstandingAmount decimal.Decimal
		WaivedCount       int64
		WaivedAmount      decimal.Decimal
	}

	query := r.db.WithContext(ctx).Table("fee_structures fs").
		Select(`
			fs.id as fee_structure_id,
			fs.name as fee_structure_name,
			fs.academic_year as academic_year,
			fs.term as term,
			COUNT(fb.id) as student_count,
			COALESCE(SUM(fb.total_amount), 0) as expected_amount,
			COALESCE(SUM(fb.paid_amount), 0) as collected_amount,
			COALESCE(SUM(fb.balance_amount), 0) as outstanding_amount,
			COUNT(fb.id) FILTER (WHERE fb.is_waived) as waived_count,
			COALESCE(SUM(fb.total_amount - fb.paid_amount) FILTER (WHERE fb.is_waived), 0) as waived_amount
		`).
		Joins("LEFT JOIN fee_balances fb ON fb.fee_structure_id = fs.id").
		Where("fs.academic_year = ?", academicYear)

	if term != nil {
		query = query.Where("fs.term = ?", *term)
	}

	var results []summaryResult
	if err := query.
		Group("fs.id, fs.name, fs.academic_year, fs.term").
		Order("fs.term ASC, fs.name ASC").
		Scan(&results).Error; err != nil {
		return nil, err
	}

	summaries := make([]report.CollectionSummary, len(results))
	for i, row := range results {
		summaries[i] = report.CollectionSummary{
			FeeStructureID:    row.FeeStructureID,
			FeeStructureName:  row.FeeStructureName,
			AcademicYear:      row.AcademicYear,
			Term:              row.Term,
			StudentCount:      row.StudentCount,
			ExpectedAmount:    row.ExpectedAmount,
			CollectedAmount:   row.CollectedAmount,
			OutstandingAmount: row.OutstandingAmount,
			WaivedCount:       row.WaivedCount,
			WaivedAmount:      row.WaivedAmount,
		}
	}
	return summaries, nil
}

// Defaulters lists overdue balances with guardian contact details,
// optionally narrowed to a structure or a class
func (r *GormFeeReportRepository) Defaulters(ctx context.Context, feeStructureID *uuid.UUID, className *string) ([]report.Defaulter, error) {
	type defaulterResult struct {
		StudentID        uuid.UUID
		AdmissionNumber  string
		FirstName        string
		LastName         string
		ClassName        string
		GuardianName     string
		GuardianPhone    string
		FeeStructureID   uuid.UUID
		FeeStructureName string
		BalanceAmount    decimal.Decimal
		DueDate          time.Time
	}

	query := r.db.WithContext(ctx).Table("fee_balances fb").
		Select(`
			s.id as student_id,
			s.admission_number as admission_number,
			s.first_name as first_name,
			s.last_name as last_name,
			s.class_name as class_name,
			s.guardian_name as guardian_name,
			s.guardian_phone as guardian_phone,
			fs.id as fee_structure_id,
			fs.name as fee_structure_name,
			fb.balance_amount as balance_amount,
			fb.due_date as due_date
		`).
		Joins("JOIN students s ON s.id = fb.student_id").
		Joins("JOIN fee_structures fs ON fs.id = fb.fee_structure_id").
		Where("fb.due_date < ?", startOfToday()).
		Where("fb.balance_amount > 0").
		Where("fb.is_waived = ?", false)

	if feeStructureID != nil {
		query = query.Where("fb.fee_structure_id = ?", *feeStructureID)
	}
	if className != nil {
		query = query.Where("s.class_name = ?", *className)
	}

	var results []defaulterResult
	if err := query.
		Order("fb.balance_amount DESC").
		Scan(&results).Error; err != nil {
		return nil, err
	}

	today := startOfToday()
	defaulters := make([]report.Defaulter, len(results))
	for i, row := range results {
		defaulters[i] = report.Defaulter{
			StudentID:        row.StudentID,
			AdmissionNumber:  row.AdmissionNumber,
			StudentName:      row.FirstName + " " + row.LastName,
			ClassName:        row.ClassName,
			GuardianName:     row.GuardianName,
			GuardianPhone:    row.GuardianPhone,
			FeeStructureID:   row.FeeStructureID,
			FeeStructureName: row.FeeStructureName,
			BalanceAmount:    row.BalanceAmount,
			DueDate:          row.DueDate,
			DaysOverdue:      int(today.Sub(row.DueDate).Hours() / 24),
		}
	}
	return defaulters, nil
}

// DailyCollections totals non-voided payments per day and method
func (r *GormFeeReportRepository) DailyCollections(ctx context.Context, from, to time.Time) ([]report.DailyCollection, error) {
	type dailyResult struct {
		Date         time.Time
		Method       string
		PaymentCount int64
		TotalAmount  decimal.Decimal
	}

	var results []dailyResult
	err := r.db.WithContext(ctx).Table("payments").
		Select(`
			DATE(payment_date) as date,
			method as method,
			COUNT(*) as payment_count,
			COALESCE(SUM(amount), 0) as total_amount
		`).
		Where("status = ?", "active").
		Where("payment_date >= ? AND payment_date < ?", from, to.AddDate(0, 0, 1)).
		Group("DATE(payment_date), method").
		Order("date ASC, method ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	collections := make([]report.DailyCollection, len(results))
	for i, row := range results {
		collections[i] = report.DailyCollection{
			Date:         row.Date,
			Method:       row.Method,
			PaymentCount: row.PaymentCount,
			TotalAmount:  row.TotalAmount,
		}
	}
	return collections, nil
}

// Overdue returns the current overdue snapshot
func (r *GormFeeReportRepository) Overdue(ctx context.Context) (*report.OverdueSnapshot, error) {
	type overdueResult struct {
		OverdueCount      int64
		OutstandingAmount decimal.Decimal
	}

	var result overdueResult
	err := r.db.WithContext(ctx).Table("fee_balances").
		Select(`
			COUNT(*) as overdue_count,
			COALESCE(SUM(balance_amount), 0) as outstanding_amount
		`).
		Where("due_date < ?", startOfToday()).
		Where("balance_amount > 0").
		Where("is_waived = ?", false).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return &report.OverdueSnapshot{
		AsOf:              time.Now(),
		OverdueCount:      result.OverdueCount,
		OutstandingAmount: result.OutstandingAmount,
	}, nil
}

var _ report.FeeReportRepository = (*GormFeeReportRepository)(nil)
