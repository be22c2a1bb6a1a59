package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfees "github.com/schoolfee/backend/internal/application/fees"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/interfaces/http/dto"
)

// BalanceHandler handles fee balance queries and reconciliation triggers
type BalanceHandler struct {
	BaseHandler
	balanceService        *appfees.BalanceService
	reconciliationService *appfees.ReconciliationService
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(balanceService *appfees.BalanceService, reconciliationService *appfees.ReconciliationService) *BalanceHandler {
	return &BalanceHandler{
		balanceService:        balanceService,
		reconciliationService: reconciliationService,
	}
}

// ReconcilePairRequest identifies one (student, fee structure) pair
type ReconcilePairRequest struct {
	StudentID      uuid.UUID `json:"student_id" binding:"required"`
	FeeStructureID uuid.UUID `json:"fee_structure_id" binding:"required"`
}

// ReconcileAllResponse reports a structure-wide reconciliation sweep
type ReconcileAllResponse struct {
	Reconciled int         `json:"reconciled"`
	Failed     []uuid.UUID `json:"failed"`
}

// GetStudentBalances returns all balances for one student.
// GET /students/:id/balances
func (h *BalanceHandler) GetStudentBalances(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	balances, err := h.balanceService.GetStudentBalances(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]FeeBalanceResponse, 0, len(balances))
	for i := range balances {
		items = append(items, toFeeBalanceResponse(&balances[i]))
	}
	h.Success(c, items)
}

// GetBalance returns the balance for one (student, fee structure) pair.
// GET /students/:id/balances/:fee_structure_id
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	feeStructureID, err := uuid.Parse(c.Param("fee_structure_id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee structure ID")
		return
	}

	balance, err := h.balanceService.GetBalance(c.Request.Context(), id, feeStructureID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeBalanceResponse(balance))
}

// List returns balances with pagination and filters. GET /balances
func (h *BalanceHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := fees.FeeBalanceFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
		OverdueOnly: c.Query("overdue_only") == "true",
		WaivedOnly:  c.Query("waived_only") == "true",
	}
	if studentID := c.Query("student_id"); studentID != "" {
		id, err := uuid.Parse(studentID)
		if err != nil {
			h.BadRequest(c, "Invalid student_id")
			return
		}
		filter.StudentID = &id
	}
	if feeStructureID := c.Query("fee_structure_id"); feeStructureID != "" {
		id, err := uuid.Parse(feeStructureID)
		if err != nil {
			h.BadRequest(c, "Invalid fee_structure_id")
			return
		}
		filter.FeeStructureID = &id
	}
	if status := c.Query("status"); status != "" {
		s := fees.BalanceStatus(status)
		filter.Status = &s
	}

	result, err := h.balanceService.ListBalances(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]FeeBalanceResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toFeeBalanceResponse(&result.Items[i]))
	}
	h.SuccessWithMeta(c, items, result.Total, result.Page, result.PageSize)
}

// ReconcilePair recomputes one pair's balance from its payments.
// POST /reconciliation/pair
func (h *BalanceHandler) ReconcilePair(c *gin.Context) {
	var req ReconcilePairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	balance, err := h.reconciliationService.Reconcile(c.Request.Context(), req.StudentID, req.FeeStructureID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeBalanceResponse(balance))
}

// ReconcileStructure recomputes every balance under one fee structure.
// POST /reconciliation/fee-structures/:id
func (h *BalanceHandler) ReconcileStructure(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	reconciled, failed, err := h.reconciliationService.ReconcileAll(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if failed == nil {
		failed = []uuid.UUID{}
	}
	h.Success(c, ReconcileAllResponse{Reconciled: reconciled, Failed: failed})
}
