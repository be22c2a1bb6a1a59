package fees

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// BalanceService answers read queries over fee balances. All figures it
// returns were produced by reconciliation; this service never computes
// balances itself.
type BalanceService struct {
	balanceRepo fees.FeeBalanceRepository
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(balanceRepo fees.FeeBalanceRepository) *BalanceService {
	return &BalanceService{balanceRepo: balanceRepo}
}

// GetBalance returns the balance for one (student, fee structure) pair
func (s *BalanceService) GetBalance(ctx context.Context, studentID, feeStructureID uuid.UUID) (*fees.FeeBalance, error) {
	return s.balanceRepo.FindByPair(ctx, studentID, feeStructureID)
}

// GetStudentBalances returns every balance a student carries
func (s *BalanceService) GetStudentBalances(ctx context.Context, studentID uuid.UUID) ([]fees.FeeBalance, error) {
	return s.balanceRepo.FindByStudent(ctx, studentID)
}

// ListBalances returns balances matching the filter with pagination
func (s *BalanceService) ListBalances(ctx context.Context, filter fees.FeeBalanceFilter) (*shared.Paginated[fees.FeeBalance], error) {
	items, err := s.balanceRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.balanceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}
