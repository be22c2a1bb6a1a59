package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// moneyFromRow rebuilds a Money value from stored amount and currency.
// Currency is NOT NULL in every money column, so the error path never
// fires for rows the application wrote.
func moneyFromRow(amount decimal.Decimal, currency string) valueobject.Money {
	if currency == "" {
		return valueobject.NewMoneyKES(amount)
	}
	m, err := valueobject.NewMoney(amount, valueobject.Currency(currency))
	if err != nil {
		return valueobject.NewMoneyKES(amount)
	}
	return m
}

// FeeStructureModel is the persistence model for the FeeStructure aggregate
type FeeStructureModel struct {
	AggregateModel
	Name         string           `gorm:"type:varchar(100);not null;uniqueIndex:idx_fee_structure_name_year_term,priority:1"`
	Description  string           `gorm:"type:text"`
	ClassName    string           `gorm:"type:varchar(100);not null;index"`
	Category     fees.FeeCategory `gorm:"type:varchar(20);not null;default:'other'"`
	Amount       decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	LateFee      decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	Currency     string           `gorm:"type:varchar(3);not null;default:'KES'"`
	AcademicYear string           `gorm:"type:varchar(9);not null;uniqueIndex:idx_fee_structure_name_year_term,priority:2;index"`
	Term         fees.Term        `gorm:"type:varchar(10);not null;uniqueIndex:idx_fee_structure_name_year_term,priority:3"`
	DueDate      time.Time        `gorm:"type:date;not null"`
	IsActive     bool             `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (FeeStructureModel) TableName() string {
	return "fee_structures"
}

// ToDomain converts the persistence model to a domain FeeStructure
func (m *FeeStructureModel) ToDomain() *fees.FeeStructure {
	fs := &fees.FeeStructure{
		Name:         m.Name,
		Description:  m.Description,
		ClassName:    m.ClassName,
		Category:     m.Category,
		Amount:       moneyFromRow(m.Amount, m.Currency),
		LateFee:      moneyFromRow(m.LateFee, m.Currency),
		AcademicYear: m.AcademicYear,
		Term:         m.Term,
		DueDate:      m.DueDate,
		IsActive:     m.IsActive,
	}
	m.PopulateAggregateRoot(&fs.BaseAggregateRoot)
	return fs
}

// FeeStructureModelFromDomain converts a domain FeeStructure to its persistence model
func FeeStructureModelFromDomain(fs *fees.FeeStructure) *FeeStructureModel {
	m := &FeeStructureModel{
		Name:         fs.Name,
		Description:  fs.Description,
		ClassName:    fs.ClassName,
		Category:     fs.Category,
		Amount:       fs.Amount.Amount(),
		LateFee:      fs.LateFee.Amount(),
		Currency:     string(fs.Amount.Currency()),
		AcademicYear: fs.AcademicYear,
		Term:         fs.Term,
		DueDate:      fs.DueDate,
		IsActive:     fs.IsActive,
	}
	m.FromDomainAggregateRoot(fs.BaseAggregateRoot)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate
type PaymentModel struct {
	AggregateModel
	StudentID       uuid.UUID          `gorm:"type:uuid;not null;index:idx_payment_pair,priority:1"`
	FeeStructureID  uuid.UUID          `gorm:"type:uuid;not null;index:idx_payment_pair,priority:2"`
	Amount          decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Currency        string             `gorm:"type:varchar(3);not null;default:'KES'"`
	PaymentDate     time.Time          `gorm:"not null;index"`
	Method          fees.PaymentMethod `gorm:"type:varchar(20);not null"`
	ReferenceNumber string             `gorm:"type:varchar(100)"`
	ReceiptNumber   string             `gorm:"type:varchar(20);not null;uniqueIndex"`
	Status          fees.PaymentStatus `gorm:"type:varchar(10);not null;default:'active';index"`
	VoidReason      string             `gorm:"type:text"`
	VoidedAt        *time.Time
	RecordedBy      uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *fees.Payment {
	p := &fees.Payment{
		StudentID:       m.StudentID,
		FeeStructureID:  m.FeeStructureID,
		Amount:          moneyFromRow(m.Amount, m.Currency),
		PaymentDate:     m.PaymentDate,
		Method:          m.Method,
		ReferenceNumber: m.ReferenceNumber,
		ReceiptNumber:   m.ReceiptNumber,
		Status:          m.Status,
		VoidReason:      m.VoidReason,
		VoidedAt:        m.VoidedAt,
		RecordedBy:      m.RecordedBy,
	}
	m.PopulateAggregateRoot(&p.BaseAggregateRoot)
	return p
}

// PaymentModelFromDomain converts a domain Payment to its persistence model
func PaymentModelFromDomain(p *fees.Payment) *PaymentModel {
	m := &PaymentModel{
		StudentID:       p.StudentID,
		FeeStructureID:  p.FeeStructureID,
		Amount:          p.Amount.Amount(),
		Currency:        string(p.Amount.Currency()),
		PaymentDate:     p.PaymentDate,
		Method:          p.Method,
		ReferenceNumber: p.ReferenceNumber,
		ReceiptNumber:   p.ReceiptNumber,
		Status:          p.Status,
		VoidReason:      p.VoidReason,
		VoidedAt:        p.VoidedAt,
		RecordedBy:      p.RecordedBy,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// FeeBalanceModel is the persistence model for the FeeBalance aggregate.
// One row per (student, fee structure) pair.
type FeeBalanceModel struct {
	AggregateModel
	StudentID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_balance_pair,priority:1"`
	FeeStructureID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_balance_pair,priority:2;index"`
	AcademicYear    string          `gorm:"type:varchar(9);not null;index"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	BalanceAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency        string          `gorm:"type:varchar(3);not null;default:'KES'"`
	DueDate         time.Time       `gorm:"type:date;not null;index"`
	LastPaymentDate *time.Time
	IsWaived        bool   `gorm:"not null;default:false"`
	WaiverReason    string `gorm:"type:text"`
	WaivedBy        *uuid.UUID
	WaivedAt        *time.Time
}

// TableName returns the table name for GORM
func (FeeBalanceModel) TableName() string {
	return "fee_balances"
}

// ToDomain converts the persistence model to a domain FeeBalance
func (m *FeeBalanceModel) ToDomain() *fees.FeeBalance {
	fb := &fees.FeeBalance{
		StudentID:       m.StudentID,
		FeeStructureID:  m.FeeStructureID,
		AcademicYear:    m.AcademicYear,
		TotalAmount:     moneyFromRow(m.TotalAmount, m.Currency),
		PaidAmount:      moneyFromRow(m.PaidAmount, m.Currency),
		BalanceAmount:   moneyFromRow(m.BalanceAmount, m.Currency),
		DueDate:         m.DueDate,
		LastPaymentDate: m.LastPaymentDate,
		IsWaived:        m.IsWaived,
		WaiverReason:    m.WaiverReason,
		WaivedBy:        m.WaivedBy,
		WaivedAt:        m.WaivedAt,
	}
	m.PopulateAggregateRoot(&fb.BaseAggregateRoot)
	return fb
}

// FeeBalanceModelFromDomain converts a domain FeeBalance to its persistence model
func FeeBalanceModelFromDomain(fb *fees.FeeBalance) *FeeBalanceModel {
	m := &FeeBalanceModel{
		StudentID:       fb.StudentID,
		FeeStructureID:  fb.FeeStructureID,
		AcademicYear:    fb.AcademicYear,
		TotalAmount:     fb.TotalAmount.Amount(),
		PaidAmount:      fb.PaidAmount.Amount(),
		BalanceAmount:   fb.BalanceAmount.Amount(),
		Currency:        string(fb.TotalAmount.Currency()),
		DueDate:         fb.DueDate,
		LastPaymentDate: fb.LastPaymentDate,
		IsWaived:        fb.IsWaived,
		WaiverReason:    fb.WaiverReason,
		WaivedBy:        fb.WaivedBy,
		WaivedAt:        fb.WaivedAt,
	}
	m.FromDomainAggregateRoot(fb.BaseAggregateRoot)
	return m
}

// ReceiptSequenceModel backs the per-year receipt number counter
type ReceiptSequenceModel struct {
	Year      int   `gorm:"primaryKey"`
	LastValue int64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ReceiptSequenceModel) TableName() string {
	return "receipt_sequences"
}
