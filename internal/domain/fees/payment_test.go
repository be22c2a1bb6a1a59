package fees

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPayment(t *testing.T, amount float64) *Payment {
	t.Helper()
	p, err := NewPayment(uuid.New(), uuid.New(), valueobject.NewMoneyKESFromFloat(amount), time.Now(), PaymentMethodMpesa, "RCT-2026-000001", uuid.New())
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	tests := []struct {
		name      string
		studentID uuid.UUID
		feeID     uuid.UUID
		amount    float64
		method    PaymentMethod
		receipt   string
		wantErr   bool
	}{
		{"valid payment", uuid.New(), uuid.New(), 2500, PaymentMethodMpesa, "RCT-2026-000001", false},
		{"missing student", uuid.Nil, uuid.New(), 2500, PaymentMethodCash, "RCT-2026-000002", true},
		{"missing structure", uuid.New(), uuid.Nil, 2500, PaymentMethodCash, "RCT-2026-000003", true},
		{"zero amount", uuid.New(), uuid.New(), 0, PaymentMethodCash, "RCT-2026-000004", true},
		{"negative amount", uuid.New(), uuid.New(), -50, PaymentMethodCash, "RCT-2026-000005", true},
		{"bad method", uuid.New(), uuid.New(), 2500, PaymentMethod("crypto"), "RCT-2026-000006", true},
		{"missing receipt", uuid.New(), uuid.New(), 2500, PaymentMethodCash, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPayment(tt.studentID, tt.feeID, valueobject.NewMoneyKESFromFloat(tt.amount), time.Now(), tt.method, tt.receipt, uuid.New())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PaymentStatusActive, p.Status)
			assert.True(t, p.IsActive())
			assert.Len(t, p.GetDomainEvents(), 1)
		})
	}
}

func TestPaymentUpdate(t *testing.T) {
	t.Run("updates active payment", func(t *testing.T) {
		p := createTestPayment(t, 2500)
		newDate := time.Now().AddDate(0, 0, -1)

		err := p.Update(valueobject.NewMoneyKESFromFloat(3000), newDate, PaymentMethodBankTransfer, "TXN-889900")
		require.NoError(t, err)
		assert.True(t, p.Amount.Equals(valueobject.NewMoneyKESFromFloat(3000)))
		assert.Equal(t, PaymentMethodBankTransfer, p.Method)
		assert.Equal(t, "TXN-889900", p.ReferenceNumber)
		assert.Equal(t, 2, p.GetVersion())
	})

	t.Run("rejects update of voided payment", func(t *testing.T) {
		p := createTestPayment(t, 2500)
		require.NoError(t, p.Void("duplicate entry", uuid.New()))

		err := p.Update(valueobject.NewMoneyKESFromFloat(3000), time.Now(), PaymentMethodCash, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "voided")
	})
}

func TestPaymentVoid(t *testing.T) {
	t.Run("voids with reason", func(t *testing.T) {
		p := createTestPayment(t, 2500)
		voider := uuid.New()

		err := p.Void("recorded against wrong student", voider)
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusVoided, p.Status)
		assert.True(t, p.IsVoided())
		assert.Equal(t, "recorded against wrong student", p.VoidReason)
		require.NotNil(t, p.VoidedAt)
	})

	t.Run("requires a reason", func(t *testing.T) {
		p := createTestPayment(t, 2500)
		err := p.Void("   ", uuid.New())
		assert.Error(t, err)
		assert.True(t, p.IsActive())
	})

	t.Run("voiding twice is rejected", func(t *testing.T) {
		p := createTestPayment(t, 2500)
		require.NoError(t, p.Void("duplicate entry", uuid.New()))

		err := p.Void("another reason", uuid.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already been voided")
		assert.Equal(t, "duplicate entry", p.VoidReason)
	})
}

func TestFormatReceiptNumber(t *testing.T) {
	assert.Equal(t, "RCT-2026-000001", FormatReceiptNumber(2026, 1))
	assert.Equal(t, "RCT-2026-012345", FormatReceiptNumber(2026, 12345))
	assert.Equal(t, "RCT-2026-1234567", FormatReceiptNumber(2026, 1234567))
}
