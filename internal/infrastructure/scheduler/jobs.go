package scheduler

import (
	"context"
	"fmt"

	appfees "github.com/schoolfee/backend/internal/application/fees"
	appreport "github.com/schoolfee/backend/internal/application/report"
	"github.com/schoolfee/backend/internal/domain/fees"
	"go.uber.org/zap"
)

// ReconcileSweepJob re-derives every balance under every active fee
// structure. The sweep is a safety net: balances are already reconciled
// on each mutation, so a run over consistent data changes nothing.
type ReconcileSweepJob struct {
	structures fees.FeeStructureRepository
	reconciler *appfees.ReconciliationService
	logger     *zap.Logger
}

// NewReconcileSweepJob creates a ReconcileSweepJob
func NewReconcileSweepJob(
	structures fees.FeeStructureRepository,
	reconciler *appfees.ReconciliationService,
	logger *zap.Logger,
) *ReconcileSweepJob {
	return &ReconcileSweepJob{
		structures: structures,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Name implements Job
func (j *ReconcileSweepJob) Name() string {
	return "reconcile_sweep"
}

// Run reconciles all pairs of every active fee structure
func (j *ReconcileSweepJob) Run(ctx context.Context) error {
	active := true
	structures, err := j.structures.FindAll(ctx, fees.FeeStructureFilter{IsActive: &active})
	if err != nil {
		return fmt.Errorf("failed to list active fee structures: %w", err)
	}

	var failures int
	for _, structure := range structures {
		reconciled, failed, err := j.reconciler.ReconcileAll(ctx, structure.ID)
		if err != nil {
			j.logger.Error("reconcile sweep failed for structure",
				zap.String("fee_structure_id", structure.ID.String()),
				zap.Error(err),
			)
			failures++
			continue
		}
		if len(failed) > 0 {
			j.logger.Warn("reconcile sweep had per-pair failures",
				zap.String("fee_structure_id", structure.ID.String()),
				zap.Int("reconciled", reconciled),
				zap.Int("failed", len(failed)),
			)
			failures += len(failed)
			continue
		}
		j.logger.Debug("reconcile sweep completed for structure",
			zap.String("fee_structure_id", structure.ID.String()),
			zap.Int("reconciled", reconciled),
		)
	}

	if failures > 0 {
		return fmt.Errorf("reconcile sweep finished with %d failures", failures)
	}
	return nil
}

// ReportRefreshJob drops stale cached report payloads and warms the
// overdue snapshot. Overdue status flips at midnight without any write,
// so yesterday's cached snapshot can be wrong until this runs.
type ReportRefreshJob struct {
	reports *appreport.FeeReportService
	logger  *zap.Logger
}

// NewReportRefreshJob creates a ReportRefreshJob
func NewReportRefreshJob(reports *appreport.FeeReportService, logger *zap.Logger) *ReportRefreshJob {
	return &ReportRefreshJob{reports: reports, logger: logger}
}

// Name implements Job
func (j *ReportRefreshJob) Name() string {
	return "report_refresh"
}

// Run invalidates the report cache and recomputes the overdue snapshot
func (j *ReportRefreshJob) Run(ctx context.Context) error {
	j.reports.InvalidateCache(ctx)

	snapshot, err := j.reports.GetOverdueSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh overdue snapshot: %w", err)
	}

	j.logger.Info("overdue snapshot refreshed",
		zap.Int64("overdue_count", snapshot.OverdueCount),
		zap.Float64("outstanding_amount", snapshot.OutstandingAmount),
	)
	return nil
}

var (
	_ Job = (*ReconcileSweepJob)(nil)
	_ Job = (*ReportRefreshJob)(nil)
)
