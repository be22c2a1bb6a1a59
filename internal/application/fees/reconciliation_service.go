package fees

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/shared/valueobject"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
)

// ReconciliationService is the single authority over fee balance figures.
// Every payment mutation and every assignment change funnels through it;
// nothing else writes paid_amount or balance_amount. Reconciliation always
// runs inside a transaction holding a row lock on the balance, and a
// failure propagates to the caller so the surrounding mutation rolls back.
type ReconciliationService struct {
	uow      fees.UnitOfWork
	eventBus shared.EventPublisher
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(uow fees.UnitOfWork, eventBus shared.EventPublisher) *ReconciliationService {
	return &ReconciliationService{
		uow:      uow,
		eventBus: eventBus,
	}
}

// Reconcile recomputes the balance for one (student, fee structure) pair
// from the non-voided payments on record. It is idempotent; re-running
// against unchanged data writes nothing.
func (s *ReconciliationService) Reconcile(ctx context.Context, studentID, feeStructureID uuid.UUID) (*fees.FeeBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "balance", "reconcile")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrStudentID, studentID.String(),
		telemetry.SpanAttrFeeStructureID, feeStructureID.String(),
	)

	var reconciled *fees.FeeBalance
	err := s.uow.Execute(ctx, func(txCtx context.Context, balances fees.FeeBalanceRepository, payments fees.PaymentRepository) error {
		fb, err := ReconcilePair(txCtx, balances, payments, studentID, feeStructureID)
		if err != nil {
			return err
		}
		reconciled = fb
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, reconciled)

	return reconciled, nil
}

// ReconcileAll re-runs reconciliation for every student assigned to a
// structure. Intended as an admin repair sweep; each pair is reconciled
// in its own transaction so one bad row does not abort the rest.
// Returns the number of pairs swept and the pairs that failed.
func (s *ReconciliationService) ReconcileAll(ctx context.Context, feeStructureID uuid.UUID) (int, []uuid.UUID, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "balance", "reconcile_all")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrFeeStructureID, feeStructureID.String())

	var studentIDs []uuid.UUID
	err := s.uow.Execute(ctx, func(txCtx context.Context, balances fees.FeeBalanceRepository, _ fees.PaymentRepository) error {
		ids, err := balances.FindPairsByStructure(txCtx, feeStructureID)
		if err != nil {
			return fmt.Errorf("failed to list assigned students: %w", err)
		}
		studentIDs = ids
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, nil, err
	}

	var failed []uuid.UUID
	for _, studentID := range studentIDs {
		if _, err := s.Reconcile(ctx, studentID, feeStructureID); err != nil {
			failed = append(failed, studentID)
		}
	}

	telemetry.SetAttributes(span, "swept", len(studentIDs), "failed", len(failed))

	return len(studentIDs), failed, nil
}

func (s *ReconciliationService) publishEvents(ctx context.Context, fb *fees.FeeBalance) {
	if s.eventBus == nil || fb == nil {
		return
	}
	events := fb.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Best effort after commit; balances are already durable.
	_ = s.eventBus.Publish(ctx, events...)
	fb.ClearDomainEvents()
}

// ReconcilePair recomputes one balance inside an existing transaction.
// The balance row is locked for the duration, the stored total is used
// as-is, and the result is written only when a figure actually changed.
func ReconcilePair(ctx context.Context, balances fees.FeeBalanceRepository, payments fees.PaymentRepository, studentID, feeStructureID uuid.UUID) (*fees.FeeBalance, error) {
	fb, err := balances.FindByPairForUpdate(ctx, studentID, feeStructureID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance for reconciliation: %w", err)
	}

	totalPaid, err := payments.SumActiveByPair(ctx, studentID, feeStructureID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}

	lastPayment, err := payments.LastActivePaymentDate(ctx, studentID, feeStructureID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve last payment date: %w", err)
	}

	paid, err := valueobject.NewMoney(totalPaid, fb.TotalAmount.Currency())
	if err != nil {
		return nil, err
	}

	changed, err := fb.ApplyReconciliation(paid, lastPayment)
	if err != nil {
		return nil, err
	}
	if !changed {
		return fb, nil
	}

	if err := balances.Save(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to persist reconciled balance: %w", err)
	}

	return fb, nil
}
