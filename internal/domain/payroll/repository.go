package payroll

import (
	"context"
	"time"
)

// RecordRepository is the persistence boundary for payroll records.
// All methods carry companyID to prevent cross-company data access.
type RecordRepository interface {
	Create(ctx context.Context, record Record) (Record, error)
	GetByID(ctx context.Context, id string, companyID string) (Record, error)
	// GetByEmployeePeriod looks up the regular (non-bonus) record for one
	// employee and period.
	GetByEmployeePeriod(ctx context.Context, companyID, employeeID string, month, year int) (Record, error)
	List(ctx context.Context, companyID string, filter Filter) ([]Record, int64, error)
	// ListForPeriods loads all records falling inside the given periods,
	// for report generation and YTD reconciliation. Bonus records are
	// included unless excludeBonus is set.
	ListForPeriods(ctx context.Context, companyID string, periods []Period, excludeBonus bool) ([]Record, error)
	ListByBatch(ctx context.Context, companyID, batchID string, statuses []Status) ([]Record, error)
	Save(ctx context.Context, record Record) error
	// Process transitions a draft record to processed. Returns
	// ErrRecordNotDraft when the record is in any other state.
	Process(ctx context.Context, id string, companyID string) error
	// MarkPaid transitions a processed record to paid. Callers run it
	// inside the same transaction as the YTD accumulation.
	MarkPaid(ctx context.Context, id string, companyID string, paidAt time.Time) error
	// Delete removes a draft record. Returns ErrRecordNotDraft for
	// processed or paid records.
	Delete(ctx context.Context, id string, companyID string) error
	// AttendanceSummary aggregates attendance rows for the given period,
	// one result per employee that has any.
	AttendanceSummary(ctx context.Context, companyID string, month, year int, employeeIDs []string) ([]AttendanceSummary, error)
}

// BatchRepository persists batch runs. The (company, month, year) unique
// constraint is the concurrency guard: two runs for the same period race
// on Create and the loser gets ErrBatchAlreadyExists.
type BatchRepository interface {
	Create(ctx context.Context, batch Batch) (Batch, error)
	GetByID(ctx context.Context, id string, companyID string) (Batch, error)
	GetByPeriod(ctx context.Context, companyID string, month, year int) (Batch, error)
	// Finalize records the outcome of a finished run.
	Finalize(ctx context.Context, id string, processedCount int, status BatchStatus, failures []BatchFailure, completedAt time.Time) error
}

// YTDRepository persists fiscal-year aggregates.
type YTDRepository interface {
	Get(ctx context.Context, companyID, employeeID string, fiscalYear int) (YTD, error)
	// GetForUpdate row-locks the aggregate so concurrent mark-paid calls
	// for the same employee serialize instead of losing updates.
	GetForUpdate(ctx context.Context, companyID, employeeID string, fiscalYear int) (YTD, error)
	Create(ctx context.Context, ytd YTD) (YTD, error)
	Save(ctx context.Context, ytd YTD) error
	ListByFiscalYear(ctx context.Context, companyID string, fiscalYear int) ([]YTD, error)
}
