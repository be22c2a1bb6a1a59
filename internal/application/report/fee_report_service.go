package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/report"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReportCache stores computed report payloads keyed by report parameters.
// Implementations live in infrastructure/cache.
type ReportCache interface {
	// Get loads a cached payload into dest. Returns false on a miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores a payload under key for ttl
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Invalidate drops every cached report payload
	Invalidate(ctx context.Context) error
}

// DefaultCacheTTL is how long report payloads stay cached before they
// are recomputed from the read models
const DefaultCacheTTL = 5 * time.Minute

// FeeReportService provides reporting over fee balances and payments.
// Reads go through an optional cache; cache failures degrade to direct
// repository queries.
type FeeReportService struct {
	reportRepo report.FeeReportRepository
	cache      ReportCache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewFeeReportService creates a new FeeReportService. cache may be nil
// to disable caching.
func NewFeeReportService(reportRepo report.FeeReportRepository, cache ReportCache, logger *zap.Logger) *FeeReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeReportService{
		reportRepo: reportRepo,
		cache:      cache,
		cacheTTL:   DefaultCacheTTL,
		logger:     logger,
	}
}

// CollectionReportFilter narrows the collection summary report
type CollectionReportFilter struct {
	AcademicYear string  `form:"academic_year" binding:"required,academic_year"`
	Term         *string `form:"term"`
}

// CollectionSummaryResponse represents expected vs collected money for
// one fee structure
type CollectionSummaryResponse struct {
	FeeStructureID    uuid.UUID `json:"fee_structure_id"`
	FeeStructureName  string    `json:"fee_structure_name"`
	AcademicYear      string    `json:"academic_year"`
	Term              string    `json:"term"`
	StudentCount      int64     `json:"student_count"`
	ExpectedAmount    float64   `json:"expected_amount"`
	CollectedAmount   float64   `json:"collected_amount"`
	OutstandingAmount float64   `json:"outstanding_amount"`
	CollectionRate    float64   `json:"collection_rate"`
	WaivedCount       int64     `json:"waived_count"`
	WaivedAmount      float64   `json:"waived_amount"`
}

// GetCollectionSummaries returns the per-structure collection report
// for an academic year, optionally narrowed to one term
func (s *FeeReportService) GetCollectionSummaries(ctx context.Context, filter CollectionReportFilter) ([]CollectionSummaryResponse, error) {
	term := "all"
	if filter.Term != nil {
		term = *filter.Term
	}
	key := fmt.Sprintf("collections:%s:%s", filter.AcademicYear, term)

	var cached []CollectionSummaryResponse
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	summaries, err := s.reportRepo.CollectionSummaries(ctx, filter.AcademicYear, filter.Term)
	if err != nil {
		return nil, err
	}

	result := make([]CollectionSummaryResponse, 0, len(summaries))
	for _, sum := range summaries {
		rate := 0.0
		if sum.ExpectedAmount.IsPositive() {
			rate = toFloat64(sum.CollectedAmount.Div(sum.ExpectedAmount).Mul(decimal.NewFromInt(100)))
		}
		result = append(result, CollectionSummaryResponse{
			FeeStructureID:    sum.FeeStructureID,
			FeeStructureName:  sum.FeeStructureName,
			AcademicYear:      sum.AcademicYear,
			Term:              sum.Term,
			StudentCount:      sum.StudentCount,
			ExpectedAmount:    toFloat64(sum.ExpectedAmount),
			CollectedAmount:   toFloat64(sum.CollectedAmount),
			OutstandingAmount: toFloat64(sum.OutstandingAmount),
			CollectionRate:    rate,
			WaivedCount:       sum.WaivedCount,
			WaivedAmount:      toFloat64(sum.WaivedAmount),
		})
	}

	s.cacheSet(ctx, key, result)

	return result, nil
}

// DefaulterReportFilter narrows the defaulter report
type DefaulterReportFilter struct {
	FeeStructureID *uuid.UUID `form:"fee_structure_id"`
	ClassName      *string    `form:"class_name"`
}

// DefaulterResponse represents one overdue balance with guardian contacts
type DefaulterResponse struct {
	StudentID        uuid.UUID `json:"student_id"`
	AdmissionNumber  string    `json:"admission_number"`
	StudentName      string    `json:"student_name"`
	ClassName        string    `json:"class_name"`
	GuardianName     string    `json:"guardian_name"`
	GuardianPhone    string    `json:"guardian_phone"`
	FeeStructureID   uuid.UUID `json:"fee_structure_id"`
	FeeStructureName string    `json:"fee_structure_name"`
	BalanceAmount    float64   `json:"balance_amount"`
	DueDate          time.Time `json:"due_date"`
	DaysOverdue      int       `json:"days_overdue"`
}

// GetDefaulters lists students with overdue balances. Not cached;
// guardian follow-up works off live data.
func (s *FeeReportService) GetDefaulters(ctx context.Context, filter DefaulterReportFilter) ([]DefaulterResponse, error) {
	defaulters, err := s.reportRepo.Defaulters(ctx, filter.FeeStructureID, filter.ClassName)
	if err != nil {
		return nil, err
	}

	result := make([]DefaulterResponse, 0, len(defaulters))
	for _, d := range defaulters {
		result = append(result, DefaulterResponse{
			StudentID:        d.StudentID,
			AdmissionNumber:  d.AdmissionNumber,
			StudentName:      d.StudentName,
			ClassName:        d.ClassName,
			GuardianName:     d.GuardianName,
			GuardianPhone:    d.GuardianPhone,
			FeeStructureID:   d.FeeStructureID,
			FeeStructureName: d.FeeStructureName,
			BalanceAmount:    toFloat64(d.BalanceAmount),
			DueDate:          d.DueDate,
			DaysOverdue:      d.DaysOverdue,
		})
	}

	return result, nil
}

// DateRangeFilter bounds a report to an inclusive date range
type DateRangeFilter struct {
	From time.Time `form:"from" binding:"required" time_format:"2006-01-02"`
	To   time.Time `form:"to" binding:"required" time_format:"2006-01-02"`
}

// DailyCollectionResponse represents one day's takings for one payment method
type DailyCollectionResponse struct {
	Date         time.Time `json:"date"`
	Method       string    `json:"method"`
	PaymentCount int64     `json:"payment_count"`
	TotalAmount  float64   `json:"total_amount"`
}

// GetDailyCollections totals non-voided payments per day and method
func (s *FeeReportService) GetDailyCollections(ctx context.Context, filter DateRangeFilter) ([]DailyCollectionResponse, error) {
	if filter.To.Before(filter.From) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "Report end date must not precede the start date")
	}

	key := fmt.Sprintf("daily:%s:%s", filter.From.Format("2006-01-02"), filter.To.Format("2006-01-02"))

	var cached []DailyCollectionResponse
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	collections, err := s.reportRepo.DailyCollections(ctx, filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	result := make([]DailyCollectionResponse, 0, len(collections))
	for _, c := range collections {
		result = append(result, DailyCollectionResponse{
			Date:         c.Date,
			Method:       c.Method,
			PaymentCount: c.PaymentCount,
			TotalAmount:  toFloat64(c.TotalAmount),
		})
	}

	s.cacheSet(ctx, key, result)

	return result, nil
}

// OverdueSnapshotResponse represents the current overdue position
type OverdueSnapshotResponse struct {
	AsOf              time.Time `json:"as_of"`
	OverdueCount      int64     `json:"overdue_count"`
	OutstandingAmount float64   `json:"outstanding_amount"`
}

// GetOverdueSnapshot returns the aggregate view of everything past due
func (s *FeeReportService) GetOverdueSnapshot(ctx context.Context) (*OverdueSnapshotResponse, error) {
	const key = "overdue"

	var cached OverdueSnapshotResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	snapshot, err := s.reportRepo.Overdue(ctx)
	if err != nil {
		return nil, err
	}

	result := &OverdueSnapshotResponse{
		AsOf:              snapshot.AsOf,
		OverdueCount:      snapshot.OverdueCount,
		OutstandingAmount: toFloat64(snapshot.OutstandingAmount),
	}

	s.cacheSet(ctx, key, result)

	return result, nil
}

// InvalidateCache drops cached report payloads. Called after payment
// and assignment mutations so reports do not serve stale totals for
// the full TTL.
func (s *FeeReportService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}

func (s *FeeReportService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *FeeReportService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func toFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
