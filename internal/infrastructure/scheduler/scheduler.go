package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cronTickerInterval is how often the scheduler checks whether the
// daily run time has arrived
const cronTickerInterval = 1 * time.Minute

var (
	// ErrSchedulerNotRunning is returned when triggering a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

// Job is a unit of nightly maintenance work
type Job interface {
	// Name identifies the job in logs and status output
	Name() string
	// Run executes the job. The context carries the job timeout.
	Run(ctx context.Context) error
}

// Config holds daily scheduler configuration
type Config struct {
	// Enabled indicates whether the scheduler runs at all
	Enabled bool
	// DailyCronSchedule is a "minute hour * * *" expression giving the
	// daily run time
	DailyCronSchedule string
	// JobTimeout is the maximum time a single job may run
	JobTimeout time.Duration
	// RetryAttempts is the number of retries for a failed job
	RetryAttempts int
	// RetryDelay is the pause between retries
	RetryDelay time.Duration
}

// DefaultConfig returns the default scheduler configuration,
// running at 2:00 AM daily
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		DailyCronSchedule: "0 2 * * *",
		JobTimeout:        10 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        1 * time.Minute,
	}
}

// ParseCronSchedule extracts hour and minute from a "minute hour * * *"
// expression. An empty or short expression falls back to 2:00.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour = 2
	minute = 0

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if val, parseErr := parseCronField(parts[0]); parseErr == nil {
			minute = val
		}
	}
	if parts[1] != "*" {
		if val, parseErr := parseCronField(parts[1]); parseErr == nil {
			hour = val
		}
	}

	if minute < 0 || minute > 59 {
		return 2, 0, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return 2, 0, fmt.Errorf("hour must be 0-23, got %d", hour)
	}
	return hour, minute, nil
}

func parseCronField(s string) (int, error) {
	if s == "" {
		return 0, ErrInvalidConfig
	}
	val := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ErrInvalidConfig
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// DailyScheduler runs registered jobs once a day at a configured time.
// It ticks every minute rather than sleeping to the target so clock
// adjustments cannot skip a run.
type DailyScheduler struct {
	config Config
	hour   int
	minute int
	jobs   []Job
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRunAt *time.Time
	nextRunAt *time.Time
}

// NewDailyScheduler creates a DailyScheduler from config
func NewDailyScheduler(config Config, logger *zap.Logger) (*DailyScheduler, error) {
	hour, minute, err := ParseCronSchedule(config.DailyCronSchedule)
	if err != nil {
		return nil, err
	}
	return &DailyScheduler{
		config: config,
		hour:   hour,
		minute: minute,
		logger: logger,
	}, nil
}

// Register adds a job. Jobs run in registration order.
func (s *DailyScheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// Start starts the cron loop. A disabled scheduler starts as a no-op.
func (s *DailyScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info("daily scheduler disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.calculateNextRunTime()

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("daily scheduler started",
		zap.Int("hour", s.hour),
		zap.Int("minute", s.minute),
		zap.Int("jobs", len(s.jobs)),
	)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *DailyScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("daily scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("daily scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerManualRun runs all jobs immediately in the background.
// A background context keeps the sweep alive after the HTTP request
// that triggered it completes.
func (s *DailyScheduler) TriggerManualRun(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go s.runJobs(context.Background())
	return nil
}

// GetStatus returns the current scheduler status
func (s *DailyScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobNames := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		jobNames[i] = job.Name()
	}

	return map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"hour":        s.hour,
		"minute":      s.minute,
		"jobs":        jobNames,
		"last_run_at": s.lastRunAt,
		"next_run_at": s.nextRunAt,
	}
}

// GetNextRunAt returns when the next scheduled run will occur
func (s *DailyScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}

// GetLastRunAt returns when the last run occurred
func (s *DailyScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}

func (s *DailyScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.runJobs(ctx)
				s.calculateNextRunTime()
			}
		}
	}
}

func (s *DailyScheduler) shouldRun(now time.Time) bool {
	return now.Hour() == s.hour && now.Minute() == s.minute
}

func (s *DailyScheduler) calculateNextRunTime() {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// runJobs runs every registered job sequentially with retries.
// One failing job does not keep the rest from running.
func (s *DailyScheduler) runJobs(ctx context.Context) {
	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	s.logger.Info("daily maintenance run starting", zap.Int("jobs", len(jobs)))

	for _, job := range jobs {
		if err := s.runJobWithRetry(ctx, job); err != nil {
			s.logger.Error("daily job failed after retries",
				zap.String("job", job.Name()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("daily maintenance run finished")
}

func (s *DailyScheduler) runJobWithRetry(ctx context.Context, job Job) error {
	var lastErr error
	for attempt := 0; attempt <= s.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.config.RetryDelay):
			}
			s.logger.Warn("retrying daily job",
				zap.String("job", job.Name()),
				zap.Int("attempt", attempt),
			)
		}

		jobCtx := ctx
		var cancel context.CancelFunc
		if s.config.JobTimeout > 0 {
			jobCtx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		}

		start := time.Now()
		lastErr = job.Run(jobCtx)
		if cancel != nil {
			cancel()
		}

		if lastErr == nil {
			s.logger.Info("daily job completed",
				zap.String("job", job.Name()),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		}
	}
	return lastErr
}
