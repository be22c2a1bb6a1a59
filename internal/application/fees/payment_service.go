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

// PaymentService handles recording, updating and voiding of fee payments.
// Every mutation reconciles the affected (student, fee structure) balance
// within the same transaction as the payment write.
type PaymentService struct {
	uow         fees.UnitOfWork
	paymentRepo fees.PaymentRepository
	eventBus    shared.EventPublisher
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(uow fees.UnitOfWork, paymentRepo fees.PaymentRepository, eventBus shared.EventPublisher) *PaymentService {
	return &PaymentService{
		uow:         uow,
		paymentRepo: paymentRepo,
		eventBus:    eventBus,
	}
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	StudentID       uuid.UUID
	FeeStructureID  uuid.UUID
	Amount          valueobject.Money
	PaymentDate     time.Time
	Method          fees.PaymentMethod
	ReferenceNumber string
	RecordedBy      uuid.UUID
}

// PaymentResult represents the outcome of a payment mutation together
// with the reconciled balance it produced
type PaymentResult struct {
	Payment *fees.Payment    `json:"payment"`
	Balance *fees.FeeBalance `json:"balance"`
}

// RecordPayment records a payment and reconciles the pair's balance in
// one transaction. The fee must already be assigned to the student.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrStudentID, req.StudentID.String(),
		telemetry.SpanAttrFeeStructureID, req.FeeStructureID.String(),
		telemetry.SpanAttrAmount, req.Amount.StringFixed(2),
		telemetry.SpanAttrMethod, string(req.Method),
	)

	var result *PaymentResult
	err := s.uow.Execute(ctx, func(txCtx context.Context, balances fees.FeeBalanceRepository, payments fees.PaymentRepository) error {
		payment, err := s.createPayment(txCtx, balances, payments, req)
		if err != nil {
			return err
		}

		fb, err := ReconcilePair(txCtx, balances, payments, req.StudentID, req.FeeStructureID)
		if err != nil {
			return err
		}

		result = &PaymentResult{Payment: payment, Balance: fb}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrReceiptNumber, result.Payment.ReceiptNumber)
	s.publishEvents(ctx, result.Payment, result.Balance)

	return result, nil
}

// BulkRecordPaymentsRequest represents a batch of payments recorded together
type BulkRecordPaymentsRequest struct {
	Payments   []RecordPaymentRequest
	RecordedBy uuid.UUID
}

// BulkRecordResult represents the outcome of a bulk payment run
type BulkRecordResult struct {
	Payments []*fees.Payment    `json:"payments"`
	Balances []*fees.FeeBalance `json:"balances"`
}

// BulkRecordPayments records many payments atomically. Each distinct
// (student, fee structure) pair is reconciled exactly once after all
// payments are inserted; any failure rolls back the whole batch.
func (s *PaymentService) BulkRecordPayments(ctx context.Context, req BulkRecordPaymentsRequest) (*BulkRecordResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "bulk_record")
	defer span.End()

	if len(req.Payments) == 0 {
		return nil, shared.NewDomainError("EMPTY_BATCH", "At least one payment is required")
	}

	telemetry.SetAttribute(span, "batch_size", len(req.Payments))

	var result *BulkRecordResult
	err := s.uow.Execute(ctx, func(txCtx context.Context, balances fees.FeeBalanceRepository, payments fees.PaymentRepository) error {
		recorded := make([]*fees.Payment, 0, len(req.Payments))

		type pair struct{ student, structure uuid.UUID }
		seen := make(map[pair]bool)
		order := make([]pair, 0, len(req.Payments))

		for _, item := range req.Payments {
			if item.RecordedBy == uuid.Nil {
				item.RecordedBy = req.RecordedBy
			}
			payment, err := s.createPayment(txCtx, balances, payments, item)
			if err != nil {
				return err
			}
			recorded = append(recorded, payment)

			key := pair{item.StudentID, item.FeeStructureID}
			if !seen[key] {
				seen[key] = true
				order = append(order, key)
			}
		}

		reconciledBalances := make([]*fees.FeeBalance, 0, len(order))
		for _, key := range order {
			fb, err := ReconcilePair(txCtx, balances, payments, key.student, key.structure)
			if err != nil {
				return err
			}
			reconciledBalances = append(reconciledBalances, fb)
		}

		result = &BulkRecordResult{Payments: recorded, Balances: reconciledBalances}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	for _, payment := range result.Payments {
		s.publishEvents(ctx, payment, nil)
	}
	for _, fb := range result.Balances {
		s.publishEvents(ctx, nil, fb)
	}

	return result, nil
}

// UpdatePaymentRequest represents a request to modify an active payment
type UpdatePaymentRequest struct {
	PaymentID       uuid.UUID
	Amount          valueobject.Money
	PaymentDate     time.Time
	Method          fees.PaymentMethod
	ReferenceNumber string
}

// UpdatePayment modifies an active payment and reconciles its balance.
// Voided payments cannot be updated.
func (s *PaymentService) UpdatePayment(ctx context.Context, req UpdatePaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "update")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, req.PaymentID.String())

	var result *PaymentResult
	err := s.uow.Execute(ctx, func(txCtx context.Context, balances fees.FeeBalanceRepository, payments fees.PaymentRepository) error {
		payment, err := payments.FindByID(txCtx, req.PaymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}

		if err := payment.Update(req.Amount, req.PaymentDate, req.Method, req.ReferenceNumber); err != nil {
			return err
		}

		if err := payments.SaveWithLock(txCtx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		fb, err := ReconcilePair(txCtx, balances, payments, payment.StudentID, payment.FeeStructureID)
		if err != nil {
			return err
		}

		result = &PaymentResult{Payment: payment, Balance: fb}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, result.Payment, result.Balance)

	return result, nil
}

// VoidPaymentRequest represents a request to void a payment
type VoidPaymentRequest struct {
	PaymentID uuid.UUID
	Reason    string
	VoidedBy  uuid.UUID
}

// VoidPayment voids a payment and reconciles its balance in one
// transaction. Voiding is one way; a voided payment stays voided.
func (s *PaymentService) VoidPayment(ctx context.Context, req VoidPaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "void")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, req.PaymentID.String())

	var result *PaymentResult
	err := s.uow.Execute(ctx, func(txCtx context.Context, balances fees.FeeBalanceRepository, payments fees.PaymentRepository) error {
		payment, err := payments.FindByID(txCtx, req.PaymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}

		if err := payment.Void(req.Reason, req.VoidedBy); err != nil {
			return err
		}

		if err := payments.SaveWithLock(txCtx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		fb, err := ReconcilePair(txCtx, balances, payments, payment.StudentID, payment.FeeStructureID)
		if err != nil {
			return err
		}

		result = &PaymentResult{Payment: payment, Balance: fb}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, result.Payment, result.Balance)

	return result, nil
}

// GetPayment returns one payment by ID
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*fees.Payment, error) {
	return s.paymentRepo.FindByID(ctx, id)
}

// GetPaymentByReceipt returns one payment by receipt number
func (s *PaymentService) GetPaymentByReceipt(ctx context.Context, receiptNumber string) (*fees.Payment, error) {
	return s.paymentRepo.FindByReceiptNumber(ctx, receiptNumber)
}

// ListPayments returns payments matching the filter with pagination
func (s *PaymentService) ListPayments(ctx context.Context, filter fees.PaymentFilter) (*shared.Paginated[fees.Payment], error) {
	items, err := s.paymentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.paymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// createPayment validates the pair, reserves a receipt number and inserts
// the payment. Must run inside the unit of work.
func (s *PaymentService) createPayment(ctx context.Context, balances fees.FeeBalanceRepository, payments fees.PaymentRepository, req RecordPaymentRequest) (*fees.Payment, error) {
	assigned, err := balances.ExistsByPair(ctx, req.StudentID, req.FeeStructureID)
	if err != nil {
		return nil, fmt.Errorf("failed to check fee assignment: %w", err)
	}
	if !assigned {
		return nil, shared.NewDomainError("FEE_NOT_ASSIGNED", "Fee structure is not assigned to this student")
	}

	now := time.Now()
	seq, err := payments.NextReceiptSequence(ctx, now.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to reserve receipt number: %w", err)
	}
	receiptNumber := fees.FormatReceiptNumber(now.Year(), seq)

	payment, err := fees.NewPayment(req.StudentID, req.FeeStructureID, req.Amount, req.PaymentDate, req.Method, receiptNumber, req.RecordedBy)
	if err != nil {
		return nil, err
	}
	if req.ReferenceNumber != "" {
		if err := payment.SetReferenceNumber(req.ReferenceNumber); err != nil {
			return nil, err
		}
	}

	if err := payments.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	return payment, nil
}

func (s *PaymentService) publishEvents(ctx context.Context, payment *fees.Payment, fb *fees.FeeBalance) {
	if s.eventBus == nil {
		return
	}
	events := make([]shared.DomainEvent, 0, 4)
	if payment != nil {
		events = append(events, payment.GetDomainEvents()...)
		payment.ClearDomainEvents()
	}
	if fb != nil {
		events = append(events, fb.GetDomainEvents()...)
		fb.ClearDomainEvents()
	}
	if len(events) == 0 {
		return
	}
	_ = s.eventBus.Publish(ctx, events...)
}
