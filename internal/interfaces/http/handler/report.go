package handler

import (
	"github.com/gin-gonic/gin"
	appreport "github.com/schoolfee/backend/internal/application/report"
)

// ReportHandler handles collection and defaulter report endpoints
type ReportHandler struct {
	BaseHandler
	reportService *appreport.FeeReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *appreport.FeeReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// CollectionSummaries returns expected vs collected totals per fee
// structure. GET /reports/collections
func (h *ReportHandler) CollectionSummaries(c *gin.Context) {
	var filter appreport.CollectionReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "academic_year is required")
		return
	}

	summaries, err := h.reportService.GetCollectionSummaries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summaries)
}

// Defaulters returns overdue balances with guardian contacts.
// GET /reports/defaulters
func (h *ReportHandler) Defaulters(c *gin.Context) {
	var filter appreport.DefaulterReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	defaulters, err := h.reportService.GetDefaulters(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, defaulters)
}

// DailyCollections returns per-day, per-method takings for a date
// range. GET /reports/daily-collections
func (h *ReportHandler) DailyCollections(c *gin.Context) {
	var filter appreport.DateRangeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "from and to dates are required, expected YYYY-MM-DD")
		return
	}
	if filter.To.Before(filter.From) {
		h.BadRequest(c, "to date must not be before from date")
		return
	}

	collections, err := h.reportService.GetDailyCollections(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, collections)
}

// OverdueSnapshot returns the current overdue totals.
// GET /reports/overdue
func (h *ReportHandler) OverdueSnapshot(c *gin.Context) {
	snapshot, err := h.reportService.GetOverdueSnapshot(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, snapshot)
}

// InvalidateCache drops all cached report payloads so the next read
// recomputes them. POST /reports/cache/invalidate
func (h *ReportHandler) InvalidateCache(c *gin.Context) {
	h.reportService.InvalidateCache(c.Request.Context())
	h.Success(c, gin.H{"message": "Report cache invalidated"})
}
