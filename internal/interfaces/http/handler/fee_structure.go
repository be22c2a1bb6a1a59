package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appfees "github.com/schoolfee/backend/internal/application/fees"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/shared/valueobject"
	"github.com/schoolfee/backend/internal/interfaces/http/dto"
)

// FeeStructureHandler handles fee structure management endpoints
type FeeStructureHandler struct {
	BaseHandler
	feeStructureService *appfees.FeeStructureService
}

// NewFeeStructureHandler creates a new fee structure handler
func NewFeeStructureHandler(feeStructureService *appfees.FeeStructureService) *FeeStructureHandler {
	return &FeeStructureHandler{
		feeStructureService: feeStructureService,
	}
}

// CreateFeeStructureRequest represents the fee structure creation body
type CreateFeeStructureRequest struct {
	Name         string            `json:"name" binding:"required,min=1,max=100"`
	Description  string            `json:"description" binding:"omitempty,max=500"`
	ClassName    string            `json:"class_name" binding:"required,min=1,max=100"`
	Category     string            `json:"category" binding:"required,oneof=tuition transport library exam sports lab other"`
	Amount       valueobject.Money `json:"amount"`
	LateFee      valueobject.Money `json:"late_fee"`
	AcademicYear string            `json:"academic_year" binding:"required,academic_year"`
	Term         string            `json:"term" binding:"required,oneof=term_1 term_2 term_3"`
	DueDate      time.Time         `json:"due_date" binding:"required"`
}

// UpdateFeeStructureRequest represents the fee structure update body
type UpdateFeeStructureRequest struct {
	Name        string            `json:"name" binding:"required,min=1,max=100"`
	Description string            `json:"description" binding:"omitempty,max=500"`
	Amount      valueobject.Money `json:"amount"`
	LateFee     valueobject.Money `json:"late_fee"`
	DueDate     time.Time         `json:"due_date" binding:"required"`
}

// SetFeeStructureActiveRequest represents the activation toggle body
type SetFeeStructureActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// Create creates a fee structure. POST /fee-structures
func (h *FeeStructureHandler) Create(c *gin.Context) {
	var req CreateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		h.BadRequest(c, "Fee amount must be greater than zero")
		return
	}

	structure, err := h.feeStructureService.CreateFeeStructure(c.Request.Context(), appfees.CreateFeeStructureRequest{
		Name:         req.Name,
		Description:  req.Description,
		ClassName:    req.ClassName,
		Category:     fees.FeeCategory(req.Category),
		Amount:       req.Amount,
		LateFee:      req.LateFee,
		AcademicYear: req.AcademicYear,
		Term:         fees.Term(req.Term),
		DueDate:      req.DueDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toFeeStructureResponse(structure))
}

// Update modifies a fee structure. Balances already assigned keep the
// amount they captured. PUT /fee-structures/:id
func (h *FeeStructureHandler) Update(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		h.BadRequest(c, "Fee amount must be greater than zero")
		return
	}

	structure, err := h.feeStructureService.UpdateFeeStructure(c.Request.Context(), appfees.UpdateFeeStructureRequest{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		LateFee:     req.LateFee,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeStructureResponse(structure))
}

// SetActive activates or deactivates a fee structure.
// PATCH /fee-structures/:id/active
func (h *FeeStructureHandler) SetActive(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req SetFeeStructureActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	structure, err := h.feeStructureService.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeStructureResponse(structure))
}

// Get returns one fee structure. GET /fee-structures/:id
func (h *FeeStructureHandler) Get(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	structure, err := h.feeStructureService.GetFeeStructure(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeStructureResponse(structure))
}

// List returns fee structures with pagination and filters.
// GET /fee-structures
func (h *FeeStructureHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := fees.FeeStructureFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
	}
	if year := c.Query("academic_year"); year != "" {
		filter.AcademicYear = &year
	}
	if term := c.Query("term"); term != "" {
		t := fees.Term(term)
		filter.Term = &t
	}
	if className := c.Query("class_name"); className != "" {
		filter.ClassName = &className
	}
	if category := c.Query("category"); category != "" {
		cat := fees.FeeCategory(category)
		filter.Category = &cat
	}
	if active := c.Query("is_active"); active != "" {
		isActive := active == "true"
		filter.IsActive = &isActive
	}

	result, err := h.feeStructureService.ListFeeStructures(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]FeeStructureResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toFeeStructureResponse(&result.Items[i]))
	}
	h.SuccessWithMeta(c, items, result.Total, result.Page, result.PageSize)
}
