/*
scheduler.go - Periodic company settlement sweep

PURPOSE:
  Re-settles every company on an interval. Payment mutations already
  reconcile the company they touch, so the sweep only catches drift left
  by reservation edits and checkouts, which do not reconcile.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on Start
  - Acts as SystemActor, so sweep audit entries name "system"
  - Keeps the last run for the admin endpoint

USAGE:
  scheduler := NewReconciliationScheduler(svc, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - payments.go: ReconcileAll
*/
package frontdesk

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SweepRun describes one completed sweep.
type SweepRun struct {
	StartedAt     time.Time
	Duration      time.Duration
	StatusChanges int
	Err           error
}

// ReconciliationScheduler runs ReconcileAll periodically.
type ReconciliationScheduler struct {
	Service       *Service
	CheckInterval time.Duration
	Enabled       bool

	logger  *zap.Logger
	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun *SweepRun
}

// NewReconciliationScheduler creates an enabled scheduler with a one hour
// interval.
func NewReconciliationScheduler(svc *Service, logger *zap.Logger) *ReconciliationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationScheduler{
		Service:       svc,
		CheckInterval: time.Hour,
		Enabled:       true,
		logger:        logger.Named("scheduler"),
	}
}

// Start begins the scheduler. Calling Start on a running scheduler does
// nothing.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.logger.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)
	go rs.run(rs.ticker, rs.stop)

	rs.logger.Info("started", zap.Duration("interval", rs.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight sweep to finish.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	if rs.ticker == nil {
		rs.mu.Unlock()
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.ticker = nil
	rs.mu.Unlock()

	rs.wg.Wait()
	rs.logger.Info("stopped")
}

func (rs *ReconciliationScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	rs.RunNow()
	for {
		select {
		case <-ticker.C:
			rs.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow performs one sweep synchronously.
func (rs *ReconciliationScheduler) RunNow() SweepRun {
	ctx := WithActor(context.Background(), SystemActor)
	run := SweepRun{StartedAt: rs.Service.clock.Now()}

	start := time.Now()
	run.StatusChanges, run.Err = rs.Service.ReconcileAll(ctx)
	run.Duration = time.Since(start)

	if run.Err != nil {
		rs.logger.Error("sweep failed", zap.Error(run.Err))
	} else if run.StatusChanges > 0 {
		rs.logger.Info("sweep corrected reservation statuses",
			zap.Int("status_changes", run.StatusChanges),
			zap.Duration("took", run.Duration),
		)
	} else {
		rs.logger.Debug("sweep found nothing to correct")
	}

	rs.mu.Lock()
	rs.lastRun = &run
	rs.mu.Unlock()
	return run
}

// LastRun returns the most recent sweep, if any.
func (rs *ReconciliationScheduler) LastRun() (SweepRun, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.lastRun == nil {
		return SweepRun{}, false
	}
	return *rs.lastRun, true
}
