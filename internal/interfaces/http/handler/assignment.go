package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfees "github.com/schoolfee/backend/internal/application/fees"
)

// AssignmentHandler handles fee assignment and waiver endpoints
type AssignmentHandler struct {
	BaseHandler
	assignmentService *appfees.AssignmentService
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignmentService *appfees.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
	}
}

// AssignFeeRequest represents a single fee assignment body
type AssignFeeRequest struct {
	StudentID      uuid.UUID `json:"student_id" binding:"required"`
	FeeStructureID uuid.UUID `json:"fee_structure_id" binding:"required"`
}

// BulkAssignFeeRequest represents a bulk fee assignment body. Targets
// come from an explicit student list, a class name, or both.
type BulkAssignFeeRequest struct {
	FeeStructureID uuid.UUID   `json:"fee_structure_id" binding:"required"`
	StudentIDs     []uuid.UUID `json:"student_ids"`
	ClassName      string      `json:"class_name"`
}

// WaiveFeeRequest represents a waiver request body
type WaiveFeeRequest struct {
	StudentID      uuid.UUID `json:"student_id" binding:"required"`
	FeeStructureID uuid.UUID `json:"fee_structure_id" binding:"required"`
	Reason         string    `json:"reason" binding:"required,min=1,max=500"`
}

// UnwaiveFeeRequest represents a waiver removal body
type UnwaiveFeeRequest struct {
	StudentID      uuid.UUID `json:"student_id" binding:"required"`
	FeeStructureID uuid.UUID `json:"fee_structure_id" binding:"required"`
}

// Assign assigns a fee structure to one student. POST /assignments
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req AssignFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	balance, err := h.assignmentService.AssignFee(c.Request.Context(), req.StudentID, req.FeeStructureID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toFeeBalanceResponse(balance))
}

// BulkAssign assigns a fee structure to many students at once.
// POST /assignments/bulk
func (h *AssignmentHandler) BulkAssign(c *gin.Context) {
	var req BulkAssignFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.assignmentService.BulkAssignFee(c.Request.Context(), appfees.BulkAssignRequest{
		FeeStructureID: req.FeeStructureID,
		StudentIDs:     req.StudentIDs,
		ClassName:      req.ClassName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Waive waives a student's fee, forcing the balance to zero.
// POST /assignments/waive
func (h *AssignmentHandler) Waive(c *gin.Context) {
	var req WaiveFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	balance, err := h.assignmentService.WaiveFee(c.Request.Context(), appfees.WaiveFeeRequest{
		StudentID:      req.StudentID,
		FeeStructureID: req.FeeStructureID,
		Reason:         req.Reason,
		WaivedBy:       userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeBalanceResponse(balance))
}

// Unwaive lifts a waiver and recomputes the balance from payments.
// POST /assignments/unwaive
func (h *AssignmentHandler) Unwaive(c *gin.Context) {
	var req UnwaiveFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	balance, err := h.assignmentService.UnwaiveFee(c.Request.Context(), req.StudentID, req.FeeStructureID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeBalanceResponse(balance))
}
