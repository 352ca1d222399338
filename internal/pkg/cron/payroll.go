package cron

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
)

// PayrollJobs contains payroll-related cron jobs
type PayrollJobs struct {
	batchService payroll.BatchService
}

// NewPayrollJobs creates payroll cron jobs
func NewPayrollJobs(batchService payroll.BatchService) *PayrollJobs {
	return &PayrollJobs{
		batchService: batchService,
	}
}

// RegisterJobs registers all payroll-related cron jobs
func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	// The auto-payroll selection is day-of-month based, so checking once
	// a day is enough; the per-period batch check makes reruns harmless.
	scheduler.AddJob(
		"run_auto_payroll",
		24*time.Hour,
		j.RunAutoPayroll,
	)
}

// RunAutoPayroll runs payroll batches for every company whose configured
// auto-payroll day is today
func (j *PayrollJobs) RunAutoPayroll(ctx context.Context) error {
	return j.batchService.RunDueCompanies(ctx, time.Now())
}
