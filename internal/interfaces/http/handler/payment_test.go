package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
)

// The service is nil in these tests; every request must be rejected
// before the handler reaches it.
func setupPaymentRouter(authedUser string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPaymentHandler(nil)

	r := gin.New()
	if authedUser != "" {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.JWTUserIDKey, authedUser)
			c.Next()
		})
	}
	r.POST("/payments", h.Record)
	r.POST("/payments/bulk", h.BulkRecord)
	r.PUT("/payments/:id", h.Update)
	r.POST("/payments/:id/void", h.Void)
	r.GET("/payments", h.List)
	return r
}

func TestRecordPaymentInvalidBody(t *testing.T) {
	r := setupPaymentRouter(uuid.New().String())

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing amount", `{"student_id":"` + uuid.New().String() + `","fee_structure_id":"` + uuid.New().String() + `","payment_date":"2026-01-15T00:00:00Z","method":"cash"}`},
		{"zero amount", `{"student_id":"` + uuid.New().String() + `","fee_structure_id":"` + uuid.New().String() + `","amount":{"amount":"0","currency":"KES"},"payment_date":"2026-01-15T00:00:00Z","method":"cash"}`},
		{"negative amount", `{"student_id":"` + uuid.New().String() + `","fee_structure_id":"` + uuid.New().String() + `","amount":{"amount":"-50","currency":"KES"},"payment_date":"2026-01-15T00:00:00Z","method":"cash"}`},
		{"unknown method", `{"student_id":"` + uuid.New().String() + `","fee_structure_id":"` + uuid.New().String() + `","amount":{"amount":"2500","currency":"KES"},"payment_date":"2026-01-15T00:00:00Z","method":"barter"}`},
		{"malformed amount", `{"student_id":"` + uuid.New().String() + `","fee_structure_id":"` + uuid.New().String() + `","amount":{"amount":"abc","currency":"KES"},"payment_date":"2026-01-15T00:00:00Z","method":"cash"}`},
		{"not json", `not json at all`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRecordPaymentWithoutAuthenticatedUser(t *testing.T) {
	r := setupPaymentRouter("")

	body := `{"student_id":"` + uuid.New().String() + `","fee_structure_id":"` + uuid.New().String() + `","amount":{"amount":"2500","currency":"KES"},"payment_date":"2026-01-15T00:00:00Z","method":"cash"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBulkRecordPaymentsEmptyBatch(t *testing.T) {
	r := setupPaymentRouter(uuid.New().String())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/bulk", strings.NewReader(`{"payments":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoidPaymentRequiresReason(t *testing.T) {
	r := setupPaymentRouter(uuid.New().String())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/"+uuid.New().String()+"/void", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoidPaymentInvalidID(t *testing.T) {
	r := setupPaymentRouter(uuid.New().String())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/not-a-uuid/void", strings.NewReader(`{"reason":"duplicate entry"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePaymentInvalidBody(t *testing.T) {
	r := setupPaymentRouter(uuid.New().String())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/payments/"+uuid.New().String(), strings.NewReader(`{"method":"cash"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPaymentsInvalidFilters(t *testing.T) {
	r := setupPaymentRouter(uuid.New().String())

	tests := []struct {
		name  string
		query string
	}{
		{"bad student_id", "?student_id=nope"},
		{"bad fee_structure_id", "?fee_structure_id=123"},
		{"bad from date", "?from=15-01-2026"},
		{"bad to date", "?to=January"},
		{"page zero", "?page=0"},
		{"page size too large", "?page_size=1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/payments"+tt.query, nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
