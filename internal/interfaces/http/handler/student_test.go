package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupStudentRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewStudentHandler(nil)

	r := gin.New()
	r.POST("/students", h.Enroll)
	r.PUT("/students/:id", h.Update)
	r.PATCH("/students/:id/status", h.ChangeStatus)
	r.GET("/students/:id", h.Get)
	r.GET("/students", h.List)
	return r
}

func TestEnrollStudentInvalidBody(t *testing.T) {
	r := setupStudentRouter()

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing admission number", `{"first_name":"Amina","last_name":"Odhiambo","class_name":"Form 1"}`},
		{"missing class", `{"admission_number":"ADM-001","first_name":"Amina","last_name":"Odhiambo"}`},
		{"bad guardian email", `{"admission_number":"ADM-001","first_name":"Amina","last_name":"Odhiambo","class_name":"Form 1","guardian_email":"not-an-email"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/students", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestChangeStudentStatusRejectsUnknownStatus(t *testing.T) {
	r := setupStudentRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/students/"+uuid.New().String()+"/status", strings.NewReader(`{"status":"expelled"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStudentInvalidID(t *testing.T) {
	r := setupStudentRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/students/12345", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListStudentsInvalidPagination(t *testing.T) {
	r := setupStudentRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/students?page_size=0", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
