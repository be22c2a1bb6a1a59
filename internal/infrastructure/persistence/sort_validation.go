package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// StudentSortFields contains allowed sort fields for students
var StudentSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"admission_number": true,
	"first_name":       true,
	"last_name":        true,
	"class_name":       true,
	"stream":           true,
	"status":           true,
	"enrolled_at":      true,
}

// FeeStructureSortFields contains allowed sort fields for fee structures
var FeeStructureSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"name":          true,
	"class_name":    true,
	"category":      true,
	"amount":        true,
	"academic_year": true,
	"term":          true,
	"due_date":      true,
	"is_active":     true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"receipt_number": true,
	"amount":         true,
	"payment_date":   true,
	"method":         true,
	"status":         true,
}

// FeeBalanceSortFields contains allowed sort fields for fee balances
var FeeBalanceSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"total_amount":      true,
	"paid_amount":       true,
	"balance_amount":    true,
	"due_date":          true,
	"last_payment_date": true,
	"is_waived":         true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"email":         true,
	"display_name":  true,
	"role":          true,
	"status":        true,
	"last_login_at": true,
}
