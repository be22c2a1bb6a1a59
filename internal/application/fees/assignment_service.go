package fees

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/students"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
)

// AssignmentService handles assigning fee structures to students and
// waiving assigned fees
type AssignmentService struct {
	uow           fees.UnitOfWork
	balanceRepo   fees.FeeBalanceRepository
	structureRepo fees.FeeStructureRepository
	studentRepo   students.StudentRepository
	eventBus      shared.EventPublisher
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	uow fees.UnitOfWork,
	balanceRepo fees.FeeBalanceRepository,
	structureRepo fees.FeeStructureRepository,
	studentRepo students.StudentRepository,
	eventBus shared.EventPublisher,
) *AssignmentService {
	return &AssignmentService{
		uow:           uow,
		balanceRepo:   balanceRepo,
		structureRepo: structureRepo,
		studentRepo:   studentRepo,
		eventBus:      eventBus,
	}
}

// AssignFee creates the balance row for a (student, fee structure) pair.
// The balance captures the structure's current amount; later changes to
// the structure do not touch it. Assigning the same pair twice fails.
func (s *AssignmentService) AssignFee(ctx context.Context, studentID, feeStructureID uuid.UUID) (*fees.FeeBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "assignment", "assign")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrStudentID, studentID.String(),
		telemetry.SpanAttrFeeStructureID, feeStructureID.String(),
	)

	structure, err := s.structureRepo.FindByID(ctx, feeStructureID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load fee structure: %w", err)
	}

	if _, err := s.studentRepo.FindByID(ctx, studentID); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	exists, err := s.balanceRepo.ExistsByPair(ctx, studentID, feeStructureID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if exists {
		err := shared.NewDomainError("FEE_ALREADY_ASSIGNED", "Fee structure is already assigned to this student")
		telemetry.RecordError(span, err)
		return nil, err
	}

	fb, err := fees.NewFeeBalance(studentID, structure)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.balanceRepo.Save(ctx, fb); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save fee balance: %w", err)
	}

	s.publishEvents(ctx, fb)

	return fb, nil
}

// BulkAssignRequest represents a request to assign one structure to many
// students. StudentIDs and ClassName may be combined; duplicates collapse.
type BulkAssignRequest struct {
	FeeStructureID uuid.UUID
	StudentIDs     []uuid.UUID
	ClassName      string
}

// BulkAssignResult reports what a bulk assignment actually did
type BulkAssignResult struct {
	Assigned []uuid.UUID `json:"assigned"`
	Skipped  []uuid.UUID `json:"skipped"` // Already had the fee assigned
}

// BulkAssignFee assigns a structure to many students in one transaction.
// Students who already carry the fee are skipped and reported, not errored.
func (s *AssignmentService) BulkAssignFee(ctx context.Context, req BulkAssignRequest) (*BulkAssignResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "assignment", "bulk_assign")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrFeeStructureID, req.FeeStructureID.String())

	structure, err := s.structureRepo.FindByID(ctx, req.FeeStructureID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load fee structure: %w", err)
	}

	targetIDs := make([]uuid.UUID, 0, len(req.StudentIDs))
	seen := make(map[uuid.UUID]bool)
	for _, id := range req.StudentIDs {
		if id != uuid.Nil && !seen[id] {
			seen[id] = true
			targetIDs = append(targetIDs, id)
		}
	}
	if req.ClassName != "" {
		classIDs, err := s.studentRepo.FindIDsByClass(ctx, req.ClassName)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to resolve class members: %w", err)
		}
		for _, id := range classIDs {
			if !seen[id] {
				seen[id] = true
				targetIDs = append(targetIDs, id)
			}
		}
	}
	if len(targetIDs) == 0 {
		return nil, shared.NewDomainError("EMPTY_BATCH", "No students to assign")
	}

	result := &BulkAssignResult{}
	var created []*fees.FeeBalance
	err = s.uow.Execute(ctx, func(txCtx context.Context, balances fees.FeeBalanceRepository, _ fees.PaymentRepository) error {
		for _, studentID := range targetIDs {
			exists, err := balances.ExistsByPair(txCtx, studentID, req.FeeStructureID)
			if err != nil {
				return err
			}
			if exists {
				result.Skipped = append(result.Skipped, studentID)
				continue
			}

			fb, err := fees.NewFeeBalance(studentID, structure)
			if err != nil {
				return err
			}
			if err := balances.Save(txCtx, fb); err != nil {
				return fmt.Errorf("failed to save fee balance: %w", err)
			}
			created = append(created, fb)
			result.Assigned = append(result.Assigned, studentID)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, "assigned", len(result.Assigned), "skipped", len(result.Skipped))

	for _, fb := range created {
		s.publishEvents(ctx, fb)
	}

	return result, nil
}

// WaiveFeeRequest represents a request to waive a student's fee
type WaiveFeeRequest struct {
	StudentID      uuid.UUID
	FeeStructureID uuid.UUID
	Reason         string
	WaivedBy       uuid.UUID
}

// WaiveFee forces the pair's balance to zero without touching the paid
// or total amounts. Reconciliation leaves waived balances alone until
// the waiver is lifted.
func (s *AssignmentService) WaiveFee(ctx context.Context, req WaiveFeeRequest) (*fees.FeeBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "assignment", "waive")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrStudentID, req.StudentID.String(),
		telemetry.SpanAttrFeeStructureID, req.FeeStructureID.String(),
	)

	var waived *fees.FeeBalance
	err := s.uow.Execute(ctx, func(txCtx context.Context, balances fees.FeeBalanceRepository, _ fees.PaymentRepository) error {
		fb, err := balances.FindByPairForUpdate(txCtx, req.StudentID, req.FeeStructureID)
		if err != nil {
			return fmt.Errorf("failed to lock balance: %w", err)
		}

		if err := fb.Waive(req.Reason, req.WaivedBy); err != nil {
			return err
		}

		if err := balances.Save(txCtx, fb); err != nil {
			return fmt.Errorf("failed to save waived balance: %w", err)
		}

		waived = fb
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, waived)

	return waived, nil
}

// UnwaiveFee lifts a waiver and immediately reconciles the balance from
// the payments on record, all in one transaction.
func (s *AssignmentService) UnwaiveFee(ctx context.Context, studentID, feeStructureID uuid.UUID) (*fees.FeeBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "assignment", "unwaive")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrStudentID, studentID.String(),
		telemetry.SpanAttrFeeStructureID, feeStructureID.String(),
	)

	var restored *fees.FeeBalance
	err := s.uow.Execute(ctx, func(txCtx context.Context, balances fees.FeeBalanceRepository, payments fees.PaymentRepository) error {
		fb, err := balances.FindByPairForUpdate(txCtx, studentID, feeStructureID)
		if err != nil {
			return fmt.Errorf("failed to lock balance: %w", err)
		}

		if err := fb.Unwaive(); err != nil {
			return err
		}

		if err := balances.Save(txCtx, fb); err != nil {
			return fmt.Errorf("failed to save balance: %w", err)
		}

		fb, err = ReconcilePair(txCtx, balances, payments, studentID, feeStructureID)
		if err != nil {
			return err
		}

		restored = fb
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, restored)

	return restored, nil
}

func (s *AssignmentService) publishEvents(ctx context.Context, fb *fees.FeeBalance) {
	if s.eventBus == nil || fb == nil {
		return
	}
	events := fb.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventBus.Publish(ctx, events...)
	fb.ClearDomainEvents()
}
