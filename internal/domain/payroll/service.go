package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Service covers the single-record lifecycle plus the read views built
// on top of it. Actor is the authenticated user id, or SystemActor for
// scheduler-triggered mutations.
type Service interface {
	CreateRecord(ctx context.Context, companyID, actor string, req CreateRecordRequest) (RecordResponse, error)
	GetRecord(ctx context.Context, companyID, id string) (RecordResponse, error)
	ListRecords(ctx context.Context, companyID string, filter Filter) (ListRecordsResponse, error)
	UpdateRecord(ctx context.Context, companyID, actor string, req UpdateRecordRequest) (RecordResponse, error)
	DeleteRecord(ctx context.Context, companyID, actor, id string) error
	ProcessRecord(ctx context.Context, companyID, actor, id string) (RecordResponse, error)
	// MarkPaid finalizes a processed record and accumulates it into the
	// employee's fiscal-year totals in the same transaction.
	MarkPaid(ctx context.Context, companyID, actor, id string, req MarkPaidRequest) (RecordResponse, error)
	GetYTD(ctx context.Context, companyID, employeeID string, fiscalYear int) (YTDResponse, error)
	PeriodSummary(ctx context.Context, companyID string, month, year int) (PeriodSummaryResponse, error)
	RenderPayslip(ctx context.Context, companyID, recordID string) ([]byte, error)
	RenderAnnualStatement(ctx context.Context, companyID, employeeID string, fiscalYear int) ([]byte, error)
}

// BatchService orchestrates period-wide runs.
type BatchService interface {
	// RunBatch creates draft records for every eligible employee of the
	// period. Individual employee failures are collected on the batch,
	// not propagated; the run itself fails only when the batch row
	// cannot be created.
	RunBatch(ctx context.Context, companyID string, month, year int, actor string) (BatchSummary, error)
	GetBatch(ctx context.Context, companyID, id string) (BatchResponse, error)
	// RunDueCompanies is the scheduler entry point: it runs a batch for
	// every auto-payroll company whose configured day matches now,
	// skipping periods that already have one.
	RunDueCompanies(ctx context.Context, now time.Time) error
}

// BatchNotifier receives completion events. Implementations must not
// block the batch run.
type BatchNotifier interface {
	BatchCompleted(ctx context.Context, summary BatchSummary)
}

// PayslipData is the decrypted input to payslip rendering.
type PayslipData struct {
	CompanyName  string
	EmployeeName string
	EmployeeCode string
	PeriodMonth  int
	PeriodYear   int

	BasicSalary      decimal.Decimal
	HousingAllowance decimal.Decimal
	SpecialAllowance decimal.Decimal
	OtherAllowances  decimal.Decimal
	GrossSalary      decimal.Decimal
	NetSalary        decimal.Decimal

	Deductions Deductions
	Attendance Attendance
	PaidAt     *time.Time
}

// AnnualStatementData is the decrypted input to fiscal-year statement
// rendering.
type AnnualStatementData struct {
	CompanyName  string
	EmployeeName string
	FiscalYear   int
	// FiscalYearLabel is "FY 2025-26" for India, "2025" for the US.
	FiscalYearLabel string

	GrossEarnings decimal.Decimal
	Deductions    Deductions
}

// DocumentRenderer turns payroll data into printable documents.
type DocumentRenderer interface {
	RenderPayslip(data PayslipData) ([]byte, error)
	RenderAnnualStatement(data AnnualStatementData) ([]byte, error)
}
