/*
scheduler.go - Automated monthly payout scheduler

PURPOSE:
  Runs the payout calculation for the previous month on a cron schedule,
  persists the report, and records the run for the audit trail. This is
  how production closes out a month without a human pressing the button.

DESIGN:
  - robfig/cron drives the schedule; the default fires at 02:00 on the
    first day of each month, calculating the month that just ended
  - The run reuses the exact pipeline the API exposes, so a scheduled
    close and a manual close produce identical reports
  - Failures (missing forecast, broken category config) are recorded in
    calculation_runs rather than retried; the next manual calculation
    surfaces the same error to an operator

CONFIGURATION:
  - Spec: cron expression (default: "0 2 1 * *")
  - Enabled: whether the scheduler starts at all

USAGE:
  scheduler := NewPayoutScheduler(handler, cfg.Scheduler.Cron)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunCalculation (shared calculation pipeline)
  - config/config.go: SchedulerConfig
*/
package api

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// PayoutScheduler closes out the previous month on a cron schedule.
type PayoutScheduler struct {
	Handler *Handler
	Spec    string
	Enabled bool

	cron *cron.Cron
}

// NewPayoutScheduler creates a scheduler with the given cron spec.
func NewPayoutScheduler(handler *Handler, spec string) *PayoutScheduler {
	return &PayoutScheduler{
		Handler: handler,
		Spec:    spec,
		Enabled: true,
	}
}

// Start registers the cron entry and begins scheduling.
func (ps *PayoutScheduler) Start() error {
	if !ps.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return nil
	}

	ps.cron = cron.New()
	if _, err := ps.cron.AddFunc(ps.Spec, ps.closePreviousMonth); err != nil {
		return err
	}
	ps.cron.Start()

	log.Printf("[Scheduler] Started with spec %q", ps.Spec)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (ps *PayoutScheduler) Stop() {
	if ps.cron == nil {
		return
	}
	<-ps.cron.Stop().Done()
	log.Println("[Scheduler] Stopped")
}

// closePreviousMonth calculates and persists the payout report for the
// month that just ended.
func (ps *PayoutScheduler) closePreviousMonth() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	year, month := prev.Year(), prev.Month()

	log.Printf("[Scheduler] Closing out %d-%02d", year, int(month))

	report, reportID, err := ps.Handler.RunCalculation(ctx, year, month, nil, true, "scheduler")
	if err != nil {
		// RunCalculation already recorded the failed run.
		log.Printf("[Scheduler] Calculation for %d-%02d failed: %v", year, int(month), err)
		return
	}

	log.Printf("[Scheduler] Saved report %d for %d-%02d (forecast met: %v, payouts: %d)",
		reportID, year, int(month), report.ForecastMet, len(report.Payouts))
}
