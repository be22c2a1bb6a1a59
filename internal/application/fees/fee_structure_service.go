package fees

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fees"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/domain/shared/valueobject"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
)

// FeeStructureService handles fee structure management
type FeeStructureService struct {
	structureRepo fees.FeeStructureRepository
	eventBus      shared.EventPublisher
}

// NewFeeStructureService creates a new FeeStructureService
func NewFeeStructureService(structureRepo fees.FeeStructureRepository, eventBus shared.EventPublisher) *FeeStructureService {
	return &FeeStructureService{
		structureRepo: structureRepo,
		eventBus:      eventBus,
	}
}

// CreateFeeStructureRequest represents a request to create a fee structure
type CreateFeeStructureRequest struct {
	Name         string
	Description  string
	ClassName    string
	Category     fees.FeeCategory
	Amount       valueobject.Money
	LateFee      valueobject.Money
	AcademicYear string
	Term         fees.Term
	DueDate      time.Time
}

// CreateFeeStructure creates a new fee structure
func (s *FeeStructureService) CreateFeeStructure(ctx context.Context, req CreateFeeStructureRequest) (*fees.FeeStructure, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_structure", "create")
	defer span.End()

	taken, err := s.structureRepo.ExistsByName(ctx, req.Name, req.AcademicYear, req.Term)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if taken {
		err := shared.NewDomainError("FEE_NAME_TAKEN", "A fee structure with this name already exists for the year and term")
		telemetry.RecordError(span, err)
		return nil, err
	}

	structure, err := fees.NewFeeStructure(req.Name, req.ClassName, req.Category, req.Amount, req.AcademicYear, req.Term, req.DueDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.Description != "" {
		if err := structure.SetDescription(req.Description); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if !req.LateFee.IsZero() {
		if err := structure.SetLateFee(req.LateFee); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.structureRepo.Save(ctx, structure); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save fee structure: %w", err)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrFeeStructureID, structure.ID.String())
	s.publishEvents(ctx, structure)

	return structure, nil
}

// UpdateFeeStructureRequest represents a request to modify a fee structure
type UpdateFeeStructureRequest struct {
	ID          uuid.UUID
	Name        string
	Description string
	Amount      valueobject.Money
	LateFee     valueobject.Money
	DueDate     time.Time
}

// UpdateFeeStructure modifies a structure's name, amount, description and
// due date. Balances already assigned keep the amount they captured.
func (s *FeeStructureService) UpdateFeeStructure(ctx context.Context, req UpdateFeeStructureRequest) (*fees.FeeStructure, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_structure", "update")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrFeeStructureID, req.ID.String())

	structure, err := s.structureRepo.FindByID(ctx, req.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load fee structure: %w", err)
	}

	if err := structure.Update(req.Name, req.Amount, req.DueDate); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := structure.SetDescription(req.Description); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := structure.SetLateFee(req.LateFee); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.structureRepo.SaveWithLock(ctx, structure); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save fee structure: %w", err)
	}

	s.publishEvents(ctx, structure)

	return structure, nil
}

// SetActive activates or deactivates a fee structure
func (s *FeeStructureService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*fees.FeeStructure, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_structure", "set_active")
	defer span.End()

	telemetry.SetAttributes(span, telemetry.SpanAttrFeeStructureID, id.String(), "active", active)

	structure, err := s.structureRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load fee structure: %w", err)
	}

	if active {
		err = structure.Activate()
	} else {
		err = structure.Deactivate()
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.structureRepo.SaveWithLock(ctx, structure); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save fee structure: %w", err)
	}

	return structure, nil
}

// GetFeeStructure returns one fee structure by ID
func (s *FeeStructureService) GetFeeStructure(ctx context.Context, id uuid.UUID) (*fees.FeeStructure, error) {
	return s.structureRepo.FindByID(ctx, id)
}

// ListFeeStructures returns fee structures matching the filter
func (s *FeeStructureService) ListFeeStructures(ctx context.Context, filter fees.FeeStructureFilter) (*shared.Paginated[fees.FeeStructure], error) {
	items, err := s.structureRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.structureRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *FeeStructureService) publishEvents(ctx context.Context, structure *fees.FeeStructure) {
	if s.eventBus == nil {
		return
	}
	events := structure.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventBus.Publish(ctx, events...)
	structure.ClearDomainEvents()
}
