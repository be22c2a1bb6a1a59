package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstudents "github.com/schoolfee/backend/internal/application/students"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/students"
	"github.com/schoolfee/backend/internal/interfaces/http/dto"
)

// StudentHandler handles student enrollment and directory endpoints
type StudentHandler struct {
	BaseHandler
	studentService *appstudents.StudentService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentService *appstudents.StudentService) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
	}
}

// EnrollStudentRequest represents the enrollment request body
type EnrollStudentRequest struct {
	AdmissionNumber string `json:"admission_number" binding:"required,min=1,max=30"`
	FirstName       string `json:"first_name" binding:"required,min=1,max=50"`
	LastName        string `json:"last_name" binding:"required,min=1,max=50"`
	ClassName       string `json:"class_name" binding:"required,min=1,max=30"`
	Stream          string `json:"stream" binding:"omitempty,max=30"`
	GuardianName    string `json:"guardian_name" binding:"omitempty,max=100"`
	GuardianPhone   string `json:"guardian_phone" binding:"omitempty,max=20"`
	GuardianEmail   string `json:"guardian_email" binding:"omitempty,email"`
}

// UpdateStudentRequest represents the student update request body.
// The admission number is immutable after enrollment.
type UpdateStudentRequest struct {
	FirstName     string `json:"first_name" binding:"required,min=1,max=50"`
	LastName      string `json:"last_name" binding:"required,min=1,max=50"`
	ClassName     string `json:"class_name" binding:"required,min=1,max=30"`
	Stream        string `json:"stream" binding:"omitempty,max=30"`
	GuardianName  string `json:"guardian_name" binding:"omitempty,max=100"`
	GuardianPhone string `json:"guardian_phone" binding:"omitempty,max=20"`
	GuardianEmail string `json:"guardian_email" binding:"omitempty,email"`
}

// ChangeStudentStatusRequest represents the status change request body
type ChangeStudentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active transferred graduated withdrawn"`
}

// StudentResponse represents a student in API responses
type StudentResponse struct {
	ID              uuid.UUID `json:"id"`
	AdmissionNumber string    `json:"admission_number"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	ClassName       string    `json:"class_name"`
	Stream          string    `json:"stream,omitempty"`
	GuardianName    string    `json:"guardian_name,omitempty"`
	GuardianPhone   string    `json:"guardian_phone,omitempty"`
	GuardianEmail   string    `json:"guardian_email,omitempty"`
	Status          string    `json:"status"`
	EnrolledAt      time.Time `json:"enrolled_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toStudentResponse(s *students.Student) StudentResponse {
	return StudentResponse{
		ID:              s.ID,
		AdmissionNumber: s.AdmissionNumber,
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		ClassName:       s.ClassName,
		Stream:          s.Stream,
		GuardianName:    s.GuardianName,
		GuardianPhone:   s.GuardianPhone,
		GuardianEmail:   s.GuardianEmail,
		Status:          string(s.Status),
		EnrolledAt:      s.EnrolledAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// Enroll registers a new student. POST /students
func (h *StudentHandler) Enroll(c *gin.Context) {
	var req EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	student, err := h.studentService.EnrollStudent(c.Request.Context(), appstudents.EnrollStudentRequest{
		AdmissionNumber: req.AdmissionNumber,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		ClassName:       req.ClassName,
		Stream:          req.Stream,
		GuardianName:    req.GuardianName,
		GuardianPhone:   req.GuardianPhone,
		GuardianEmail:   req.GuardianEmail,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toStudentResponse(student))
}

// Update modifies a student's details. PUT /students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	student, err := h.studentService.UpdateStudent(c.Request.Context(), appstudents.UpdateStudentRequest{
		ID:            id,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		ClassName:     req.ClassName,
		Stream:        req.Stream,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		GuardianEmail: req.GuardianEmail,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toStudentResponse(student))
}

// ChangeStatus transitions a student's enrollment status. PATCH /students/:id/status
func (h *StudentHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req ChangeStudentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	student, err := h.studentService.ChangeStatus(c.Request.Context(), id, students.StudentStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toStudentResponse(student))
}

// Get returns one student by ID. GET /students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	student, err := h.studentService.GetStudent(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toStudentResponse(student))
}

// GetByAdmissionNumber looks a student up by admission number.
// GET /students/by-admission/:number
func (h *StudentHandler) GetByAdmissionNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Admission number is required")
		return
	}

	student, err := h.studentService.GetStudentByAdmissionNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toStudentResponse(student))
}

// List returns students with pagination and filters. GET /students
func (h *StudentHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := students.StudentFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
			Search:   req.Search,
		},
	}
	if className := c.Query("class_name"); className != "" {
		filter.ClassName = &className
	}
	if stream := c.Query("stream"); stream != "" {
		filter.Stream = &stream
	}
	if status := c.Query("status"); status != "" {
		s := students.StudentStatus(status)
		filter.Status = &s
	}

	result, err := h.studentService.ListStudents(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]StudentResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toStudentResponse(&result.Items[i]))
	}
	h.SuccessWithMeta(c, items, result.Total, result.Page, result.PageSize)
}
