package persistence

import (
	"context"

	"github.com/schoolfee/backend/internal/domain/fees"
	"gorm.io/gorm"
)

// GormUnitOfWork implements fees.UnitOfWork on a GORM transaction.
// The balance and payment repositories handed to the closure share one
// transaction, so row locks taken via FindByPairForUpdate hold until
// commit or rollback.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside a database transaction. Any error returned by
// fn rolls the whole transaction back.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, balances fees.FeeBalanceRepository, payments fees.PaymentRepository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balances := NewGormFeeBalanceRepository(tx)
		payments := NewGormPaymentRepository(tx)
		return fn(ctx, balances, payments)
	})
}

var _ fees.UnitOfWork = (*GormUnitOfWork)(nil)
