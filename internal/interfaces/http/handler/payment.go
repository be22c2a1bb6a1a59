package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfees "github.com/schoolfee/backend/internal/application/fees"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/shared/valueobject"
	"github.com/schoolfee/backend/internal/interfaces/http/dto"
)

// PaymentHandler handles payment recording and lifecycle endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *appfees.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *appfees.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// RecordPaymentRequest represents a payment recording body
type RecordPaymentRequest struct {
	StudentID      uuid.UUID `json:"student_id" binding:"required"`
	FeeStructureID uuid.UUID `json:"fee_structure_id" binding:"required"`
	// Money carries unexported internals the binding layer cannot
	// see; amounts are validated explicitly after binding.
	Amount          valueobject.Money `json:"amount"`
	PaymentDate     time.Time         `json:"payment_date" binding:"required"`
	Method          string            `json:"method" binding:"required,oneof=cash mpesa bank_transfer cheque"`
	ReferenceNumber string            `json:"reference_number" binding:"omitempty,max=100"`
}

// BulkRecordPaymentsRequest represents a bulk payment recording body
type BulkRecordPaymentsRequest struct {
	Payments []RecordPaymentRequest `json:"payments" binding:"required,min=1,dive"`
}

// UpdatePaymentRequest represents a payment correction body
type UpdatePaymentRequest struct {
	Amount          valueobject.Money `json:"amount"`
	PaymentDate     time.Time         `json:"payment_date" binding:"required"`
	Method          string            `json:"method" binding:"required,oneof=cash mpesa bank_transfer cheque"`
	ReferenceNumber string            `json:"reference_number" binding:"omitempty,max=100"`
}

// VoidPaymentRequest represents a payment void body. A reason is
// always required; voiding cannot be undone.
type VoidPaymentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// BulkRecordResultResponse reports the payments and reconciled
// balances a bulk run produced
type BulkRecordResultResponse struct {
	Payments []PaymentResponse    `json:"payments"`
	Balances []FeeBalanceResponse `json:"balances"`
}

func (r RecordPaymentRequest) toServiceRequest(recordedBy uuid.UUID) appfees.RecordPaymentRequest {
	return appfees.RecordPaymentRequest{
		StudentID:       r.StudentID,
		FeeStructureID:  r.FeeStructureID,
		Amount:          r.Amount,
		PaymentDate:     r.PaymentDate,
		Method:          fees.PaymentMethod(r.Method),
		ReferenceNumber: r.ReferenceNumber,
		RecordedBy:      recordedBy,
	}
}

func toPaymentResultResponse(result *appfees.PaymentResult) PaymentResultResponse {
	return PaymentResultResponse{
		Payment: toPaymentResponse(result.Payment),
		Balance: toFeeBalanceResponse(result.Balance),
	}
}

// Record records a payment and reconciles the balance. POST /payments
func (h *PaymentHandler) Record(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		h.BadRequest(c, "Payment amount must be greater than zero")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), req.toServiceRequest(userID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toPaymentResultResponse(result))
}

// BulkRecord records many payments atomically. POST /payments/bulk
func (h *PaymentHandler) BulkRecord(c *gin.Context) {
	var req BulkRecordPaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	input := appfees.BulkRecordPaymentsRequest{
		Payments:   make([]appfees.RecordPaymentRequest, 0, len(req.Payments)),
		RecordedBy: userID,
	}
	for _, p := range req.Payments {
		if !p.Amount.IsPositive() {
			h.BadRequest(c, "Payment amount must be greater than zero")
			return
		}
		input.Payments = append(input.Payments, p.toServiceRequest(userID))
	}

	result, err := h.paymentService.BulkRecordPayments(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := BulkRecordResultResponse{
		Payments: make([]PaymentResponse, 0, len(result.Payments)),
		Balances: make([]FeeBalanceResponse, 0, len(result.Balances)),
	}
	for _, p := range result.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	for _, b := range result.Balances {
		resp.Balances = append(resp.Balances, toFeeBalanceResponse(b))
	}
	h.Created(c, resp)
}

// Update corrects an active payment and reconciles the balance.
// PUT /payments/:id
func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		h.BadRequest(c, "Payment amount must be greater than zero")
		return
	}

	result, err := h.paymentService.UpdatePayment(c.Request.Context(), appfees.UpdatePaymentRequest{
		PaymentID:       id,
		Amount:          req.Amount,
		PaymentDate:     req.PaymentDate,
		Method:          fees.PaymentMethod(req.Method),
		ReferenceNumber: req.ReferenceNumber,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPaymentResultResponse(result))
}

// Void voids a payment and reconciles the balance. POST /payments/:id/void
func (h *PaymentHandler) Void(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req VoidPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.paymentService.VoidPayment(c.Request.Context(), appfees.VoidPaymentRequest{
		PaymentID: id,
		Reason:    req.Reason,
		VoidedBy:  userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPaymentResultResponse(result))
}

// Get returns one payment by ID. GET /payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// GetByReceipt looks a payment up by receipt number.
// GET /payments/by-receipt/:receipt
func (h *PaymentHandler) GetByReceipt(c *gin.Context) {
	receipt := c.Param("receipt")
	if receipt == "" {
		h.BadRequest(c, "Receipt number is required")
		return
	}

	payment, err := h.paymentService.GetPaymentByReceipt(c.Request.Context(), receipt)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// List returns payments with pagination and filters. GET /payments
func (h *PaymentHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := fees.PaymentFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
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
		s := fees.PaymentStatus(status)
		filter.Status = &s
	}
	if method := c.Query("method"); method != "" {
		m := fees.PaymentMethod(method)
		filter.Method = &m
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			h.BadRequest(c, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		filter.FromDate = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			h.BadRequest(c, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		filter.ToDate = &t
	}

	result, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]PaymentResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toPaymentResponse(&result.Items[i]))
	}
	h.SuccessWithMeta(c, items, result.Total, result.Page, result.PageSize)
}
