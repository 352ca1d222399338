package payroll

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/crypto"
)

type batchService struct {
	records   payroll.RecordRepository
	batches   payroll.BatchRepository
	employees employee.Repository
	companies company.Repository
	codec     *crypto.Codec
	notifier  payroll.BatchNotifier
	auditor   audit.Sink
	logger    *slog.Logger
	workers   int
}

func NewBatchService(
	records payroll.RecordRepository,
	batches payroll.BatchRepository,
	employees employee.Repository,
	companies company.Repository,
	codec *crypto.Codec,
	notifier payroll.BatchNotifier,
	auditor audit.Sink,
	logger *slog.Logger,
	workers int,
) payroll.BatchService {
	if workers < 1 {
		workers = 1
	}
	return &batchService{
		records:   records,
		batches:   batches,
		employees: employees,
		companies: companies,
		codec:     codec,
		notifier:  notifier,
		auditor:   auditor,
		logger:    logger,
		workers:   workers,
	}
}

// RunBatch creates draft records for every eligible employee of the
// period. The batch row's unique constraint on (company, month, year)
// is claimed before any record work starts, so concurrent runs for the
// same period cannot double-create records. Employee failures are
// collected on the batch; the run always finishes.
func (s *batchService) RunBatch(ctx context.Context, companyID string, month, year int, actor string) (payroll.BatchSummary, error) {
	if month < 1 || month > 12 {
		return payroll.BatchSummary{}, payroll.ErrInvalidPeriod
	}
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		return payroll.BatchSummary{}, err
	}

	eligible, err := s.employees.ListActiveWithSalaryStructure(ctx, companyID)
	if err != nil {
		return payroll.BatchSummary{}, err
	}

	batch, err := s.batches.Create(ctx, payroll.Batch{
		CompanyID:   companyID,
		PeriodMonth: month,
		PeriodYear:  year,
		TotalCount:  len(eligible),
		Status:      payroll.BatchStatusProcessing,
		CreatedBy:   actor,
	})
	if err != nil {
		return payroll.BatchSummary{}, err
	}

	s.logger.Info("payroll batch started",
		"batch_id", batch.ID,
		"company_id", companyID,
		"period_month", month,
		"period_year", year,
		"eligible_count", len(eligible),
	)

	attendanceByEmployee := s.loadAttendance(ctx, companyID, month, year, eligible)

	var (
		processed int64
		mu        sync.Mutex
		failures  []payroll.BatchFailure
		wg        sync.WaitGroup
	)
	jobs := make(chan employee.Employee)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for emp := range jobs {
				if err := s.processEmployee(ctx, batch, emp, attendanceByEmployee[emp.ID]); err != nil {
					mu.Lock()
					failures = append(failures, payroll.BatchFailure{
						EmployeeID:   emp.ID,
						EmployeeName: emp.FullName,
						Reason:       err.Error(),
					})
					mu.Unlock()
					continue
				}
				atomic.AddInt64(&processed, 1)
			}
		}()
	}
	for _, emp := range eligible {
		jobs <- emp
	}
	close(jobs)
	wg.Wait()

	status := payroll.BatchStatusCompleted
	if len(failures) > 0 {
		status = payroll.BatchStatusCompletedWithErrors
	}
	completedAt := time.Now()
	if err := s.batches.Finalize(ctx, batch.ID, int(processed), status, failures, completedAt); err != nil {
		return payroll.BatchSummary{}, err
	}

	summary := payroll.BatchSummary{
		BatchID:        batch.ID,
		CompanyID:      companyID,
		PeriodMonth:    month,
		PeriodYear:     year,
		TotalCount:     len(eligible),
		ProcessedCount: int(processed),
		Status:         status,
		Failures:       failures,
	}

	s.auditor.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     "payroll_batch.run",
		Resource:   "payroll_batch",
		ResourceID: batch.ID,
		After: map[string]interface{}{
			"period_month":    month,
			"period_year":     year,
			"total_count":     summary.TotalCount,
			"processed_count": summary.ProcessedCount,
			"failure_count":   len(failures),
			"status":          status,
		},
	})
	s.notifier.BatchCompleted(ctx, summary)

	return summary, nil
}

// loadAttendance pulls the period's attendance aggregates. Attendance is
// optional input: a lookup failure degrades to full-month pay rather
// than failing the batch.
func (s *batchService) loadAttendance(ctx context.Context, companyID string, month, year int, eligible []employee.Employee) map[string]payroll.AttendanceSummary {
	ids := make([]string, len(eligible))
	for i, emp := range eligible {
		ids[i] = emp.ID
	}

	summaries, err := s.records.AttendanceSummary(ctx, companyID, month, year, ids)
	if err != nil {
		s.logger.Warn("attendance summary unavailable, paying full month",
			"company_id", companyID, "period_month", month, "period_year", year, "error", err)
		return nil
	}

	byEmployee := make(map[string]payroll.AttendanceSummary, len(summaries))
	for _, summary := range summaries {
		byEmployee[summary.EmployeeID] = summary
	}
	return byEmployee
}

func (s *batchService) processEmployee(ctx context.Context, batch payroll.Batch, emp employee.Employee, summary payroll.AttendanceSummary) error {
	if emp.SalaryStructure == nil {
		return employee.ErrNoSalaryStructure
	}

	daysInPeriod := payroll.DaysInPeriod(batch.PeriodMonth, batch.PeriodYear)
	attendance := payroll.Attendance{
		DaysWorked:   daysInPeriod,
		DaysInPeriod: daysInPeriod,
	}
	if summary.EmployeeID != "" {
		attendance.DaysWorked = summary.DaysWorked
		attendance.LeaveDays = summary.LeaveDays
		attendance.AbsentDays = summary.AbsentDays
		attendance.OvertimeHours = summary.OvertimeHours
	}

	computed := computeEarnings(emp.SalaryStructure, attendance)
	deductions := structureDeductions(emp.SalaryStructure)
	net := netSalary(computed.Gross, deductions)
	if net.IsNegative() {
		return payroll.ErrEmployeeNotEligible
	}

	record := payroll.Record{
		EmployeeID:  emp.ID,
		CompanyID:   batch.CompanyID,
		PeriodMonth: batch.PeriodMonth,
		PeriodYear:  batch.PeriodYear,
		Deductions:  deductions,
		Attendance:  attendance,
		Status:      payroll.StatusDraft,
		BatchID:     &batch.ID,
	}

	var err error
	if record.BasicSalary, err = crypto.NewEncryptedMoney(s.codec, computed.Basic); err != nil {
		return err
	}
	if record.HousingAllowance, err = crypto.NewEncryptedMoney(s.codec, computed.Housing); err != nil {
		return err
	}
	if record.SpecialAllowance, err = crypto.NewEncryptedMoney(s.codec, computed.Special); err != nil {
		return err
	}
	if record.OtherAllowances, err = crypto.NewEncryptedMoney(s.codec, computed.Other); err != nil {
		return err
	}
	if record.GrossSalary, err = crypto.NewEncryptedMoney(s.codec, computed.Gross); err != nil {
		return err
	}
	if record.NetSalary, err = crypto.NewEncryptedMoney(s.codec, net); err != nil {
		return err
	}
	if record.BankAccountNumber, err = crypto.NewEncryptedText(s.codec, emp.BankAccountNumber); err != nil {
		return err
	}
	if record.RoutingCode, err = crypto.NewEncryptedText(s.codec, emp.RoutingCode); err != nil {
		return err
	}

	created, err := s.records.Create(ctx, record)
	if err != nil {
		return err
	}
	// Batch records go straight to processed; draft is for manual entry.
	return s.records.Process(ctx, created.ID, batch.CompanyID)
}

func (s *batchService) GetBatch(ctx context.Context, companyID, id string) (payroll.BatchResponse, error) {
	batch, err := s.batches.GetByID(ctx, id, companyID)
	if err != nil {
		return payroll.BatchResponse{}, err
	}

	return payroll.BatchResponse{
		ID:             batch.ID,
		CompanyID:      batch.CompanyID,
		PeriodMonth:    batch.PeriodMonth,
		PeriodYear:     batch.PeriodYear,
		TotalCount:     batch.TotalCount,
		ProcessedCount: batch.ProcessedCount,
		Status:         batch.Status,
		CreatedBy:      batch.CreatedBy,
		Failures:       batch.Failures,
		CreatedAt:      batch.CreatedAt,
		CompletedAt:    batch.CompletedAt,
	}, nil
}

// RunDueCompanies is the daily scheduler entry point. Running it twice
// on the same day is harmless: a period that already has a batch is
// skipped, and the unique constraint backstops any race.
func (s *batchService) RunDueCompanies(ctx context.Context, now time.Time) error {
	companies, err := s.companies.ListAutoPayroll(ctx)
	if err != nil {
		return err
	}

	month, year := int(now.Month()), now.Year()
	for _, comp := range payroll.CompaniesDueToday(companies, now) {
		if _, err := s.batches.GetByPeriod(ctx, comp.ID, month, year); err == nil {
			s.logger.Info("auto payroll already ran for period",
				"company_id", comp.ID, "period_month", month, "period_year", year)
			continue
		} else if err != payroll.ErrBatchNotFound {
			s.logger.Error("auto payroll period check failed", "company_id", comp.ID, "error", err)
			continue
		}

		summary, err := s.RunBatch(ctx, comp.ID, month, year, payroll.SystemActor)
		if err != nil {
			if err == payroll.ErrBatchAlreadyExists {
				continue
			}
			s.logger.Error("auto payroll run failed", "company_id", comp.ID, "error", err)
			continue
		}
		s.logger.Info("auto payroll run finished",
			"company_id", comp.ID,
			"batch_id", summary.BatchID,
			"processed_count", summary.ProcessedCount,
			"failure_count", len(summary.Failures),
		)
	}

	return nil
}
