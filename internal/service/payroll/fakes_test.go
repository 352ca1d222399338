package payroll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
)

// In-memory repositories mirroring the PostgreSQL implementations'
// error contracts, so service tests exercise the same code paths
// without a database.

type fakeRecordRepo struct {
	mu            sync.Mutex
	seq           int
	records       map[string]payroll.Record
	attendance    []payroll.AttendanceSummary
	attendanceErr error
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[string]payroll.Record)}
}

func (r *fakeRecordRepo) Create(ctx context.Context, record payroll.Record) (payroll.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !record.IsBonus {
		for _, existing := range r.records {
			if !existing.IsBonus &&
				existing.CompanyID == record.CompanyID &&
				existing.EmployeeID == record.EmployeeID &&
				existing.PeriodMonth == record.PeriodMonth &&
				existing.PeriodYear == record.PeriodYear {
				return payroll.Record{}, payroll.ErrRecordAlreadyExists
			}
		}
	}

	r.seq++
	record.ID = fmt.Sprintf("rec-%d", r.seq)
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	r.records[record.ID] = record
	return record, nil
}

func (r *fakeRecordRepo) GetByID(ctx context.Context, id string, companyID string) (payroll.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok || record.CompanyID != companyID {
		return payroll.Record{}, payroll.ErrRecordNotFound
	}
	return record, nil
}

func (r *fakeRecordRepo) GetByEmployeePeriod(ctx context.Context, companyID, employeeID string, month, year int) (payroll.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range r.records {
		if !record.IsBonus &&
			record.CompanyID == companyID &&
			record.EmployeeID == employeeID &&
			record.PeriodMonth == month &&
			record.PeriodYear == year {
			return record, nil
		}
	}
	return payroll.Record{}, payroll.ErrRecordNotFound
}

func (r *fakeRecordRepo) List(ctx context.Context, companyID string, filter payroll.Filter) ([]payroll.Record, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []payroll.Record
	for i := 1; i <= r.seq; i++ {
		record, ok := r.records[fmt.Sprintf("rec-%d", i)]
		if !ok || record.CompanyID != companyID {
			continue
		}
		if filter.PeriodMonth != nil && record.PeriodMonth != *filter.PeriodMonth {
			continue
		}
		if filter.PeriodYear != nil && record.PeriodYear != *filter.PeriodYear {
			continue
		}
		if filter.Status != nil && record.Status != *filter.Status {
			continue
		}
		if filter.EmployeeID != nil && record.EmployeeID != *filter.EmployeeID {
			continue
		}
		matched = append(matched, record)
	}

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeRecordRepo) ListForPeriods(ctx context.Context, companyID string, periods []payroll.Period, excludeBonus bool) ([]payroll.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inPeriods := func(month, year int) bool {
		for _, p := range periods {
			if p.Month == month && p.Year == year {
				return true
			}
		}
		return false
	}

	var matched []payroll.Record
	for i := 1; i <= r.seq; i++ {
		record, ok := r.records[fmt.Sprintf("rec-%d", i)]
		if !ok || record.CompanyID != companyID {
			continue
		}
		if excludeBonus && record.IsBonus {
			continue
		}
		if inPeriods(record.PeriodMonth, record.PeriodYear) {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (r *fakeRecordRepo) ListByBatch(ctx context.Context, companyID, batchID string, statuses []payroll.Status) ([]payroll.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []payroll.Record
	for i := 1; i <= r.seq; i++ {
		record, ok := r.records[fmt.Sprintf("rec-%d", i)]
		if !ok || record.CompanyID != companyID || record.BatchID == nil || *record.BatchID != batchID {
			continue
		}
		for _, status := range statuses {
			if record.Status == status {
				matched = append(matched, record)
				break
			}
		}
	}
	return matched, nil
}

func (r *fakeRecordRepo) Save(ctx context.Context, record payroll.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[record.ID]
	if !ok {
		return payroll.ErrRecordNotFound
	}
	if stored.Status == payroll.StatusPaid {
		return payroll.ErrRecordAlreadyPaid
	}
	record.UpdatedAt = time.Now()
	r.records[record.ID] = record
	return nil
}

func (r *fakeRecordRepo) Process(ctx context.Context, id string, companyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok || record.CompanyID != companyID {
		return payroll.ErrRecordNotFound
	}
	if record.Status != payroll.StatusDraft {
		return payroll.ErrRecordNotDraft
	}
	record.Status = payroll.StatusProcessed
	r.records[id] = record
	return nil
}

func (r *fakeRecordRepo) MarkPaid(ctx context.Context, id string, companyID string, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok || record.CompanyID != companyID {
		return payroll.ErrRecordNotFound
	}
	if record.Status == payroll.StatusPaid {
		return payroll.ErrRecordAlreadyPaid
	}
	record.Status = payroll.StatusPaid
	record.PaidAt = &paidAt
	r.records[id] = record
	return nil
}

func (r *fakeRecordRepo) Delete(ctx context.Context, id string, companyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok || record.CompanyID != companyID {
		return payroll.ErrRecordNotFound
	}
	if record.Status != payroll.StatusDraft {
		return payroll.ErrRecordNotDraft
	}
	delete(r.records, id)
	return nil
}

func (r *fakeRecordRepo) AttendanceSummary(ctx context.Context, companyID string, month, year int, employeeIDs []string) ([]payroll.AttendanceSummary, error) {
	if r.attendanceErr != nil {
		return nil, r.attendanceErr
	}
	return r.attendance, nil
}

type fakeBatchRepo struct {
	mu      sync.Mutex
	seq     int
	batches map[string]payroll.Batch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[string]payroll.Batch)}
}

func (r *fakeBatchRepo) Create(ctx context.Context, batch payroll.Batch) (payroll.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.batches {
		if existing.CompanyID == batch.CompanyID &&
			existing.PeriodMonth == batch.PeriodMonth &&
			existing.PeriodYear == batch.PeriodYear {
			return payroll.Batch{}, payroll.ErrBatchAlreadyExists
		}
	}

	r.seq++
	batch.ID = fmt.Sprintf("batch-%d", r.seq)
	batch.CreatedAt = time.Now()
	r.batches[batch.ID] = batch
	return batch, nil
}

func (r *fakeBatchRepo) GetByID(ctx context.Context, id string, companyID string) (payroll.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch, ok := r.batches[id]
	if !ok || batch.CompanyID != companyID {
		return payroll.Batch{}, payroll.ErrBatchNotFound
	}
	return batch, nil
}

func (r *fakeBatchRepo) GetByPeriod(ctx context.Context, companyID string, month, year int) (payroll.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, batch := range r.batches {
		if batch.CompanyID == companyID && batch.PeriodMonth == month && batch.PeriodYear == year {
			return batch, nil
		}
	}
	return payroll.Batch{}, payroll.ErrBatchNotFound
}

func (r *fakeBatchRepo) Finalize(ctx context.Context, id string, processedCount int, status payroll.BatchStatus, failures []payroll.BatchFailure, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch, ok := r.batches[id]
	if !ok {
		return payroll.ErrBatchNotFound
	}
	batch.ProcessedCount = processedCount
	batch.Status = status
	batch.Failures = failures
	batch.CompletedAt = &completedAt
	r.batches[id] = batch
	return nil
}

type fakeYTDRepo struct {
	mu     sync.Mutex
	seq    int
	totals map[string]payroll.YTD
}

func newFakeYTDRepo() *fakeYTDRepo {
	return &fakeYTDRepo{totals: make(map[string]payroll.YTD)}
}

func ytdKey(companyID, employeeID string, fiscalYear int) string {
	return fmt.Sprintf("%s|%s|%d", companyID, employeeID, fiscalYear)
}

func (r *fakeYTDRepo) Get(ctx context.Context, companyID, employeeID string, fiscalYear int) (payroll.YTD, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ytd, ok := r.totals[ytdKey(companyID, employeeID, fiscalYear)]
	if !ok {
		return payroll.YTD{}, payroll.ErrYTDNotFound
	}
	return ytd, nil
}

func (r *fakeYTDRepo) GetForUpdate(ctx context.Context, companyID, employeeID string, fiscalYear int) (payroll.YTD, error) {
	return r.Get(ctx, companyID, employeeID, fiscalYear)
}

func (r *fakeYTDRepo) Create(ctx context.Context, ytd payroll.YTD) (payroll.YTD, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	ytd.ID = fmt.Sprintf("ytd-%d", r.seq)
	ytd.CreatedAt = time.Now()
	ytd.UpdatedAt = ytd.CreatedAt
	r.totals[ytdKey(ytd.CompanyID, ytd.EmployeeID, ytd.FiscalYear)] = ytd
	return ytd, nil
}

func (r *fakeYTDRepo) Save(ctx context.Context, ytd payroll.YTD) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ytd.UpdatedAt = time.Now()
	r.totals[ytdKey(ytd.CompanyID, ytd.EmployeeID, ytd.FiscalYear)] = ytd
	return nil
}

func (r *fakeYTDRepo) ListByFiscalYear(ctx context.Context, companyID string, fiscalYear int) ([]payroll.YTD, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []payroll.YTD
	for _, ytd := range r.totals {
		if ytd.CompanyID == companyID && ytd.FiscalYear == fiscalYear {
			matched = append(matched, ytd)
		}
	}
	return matched, nil
}

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	for _, emp := range r.employees {
		if emp.ID == id && emp.CompanyID == companyID {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) ListActiveWithSalaryStructure(ctx context.Context, companyID string) ([]employee.Employee, error) {
	var matched []employee.Employee
	for _, emp := range r.employees {
		if emp.CompanyID == companyID &&
			emp.EmploymentStatus == employee.EmploymentStatusActive &&
			emp.SalaryStructure != nil {
			matched = append(matched, emp)
		}
	}
	return matched, nil
}

func (r *fakeEmployeeRepo) ListByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	var matched []employee.Employee
	for _, emp := range r.employees {
		if emp.CompanyID == companyID {
			matched = append(matched, emp)
		}
	}
	return matched, nil
}

type fakeCompanyRepo struct {
	companies []company.Company
}

func (r *fakeCompanyRepo) GetByID(ctx context.Context, id string) (company.Company, error) {
	for _, comp := range r.companies {
		if comp.ID == id {
			return comp, nil
		}
	}
	return company.Company{}, company.ErrCompanyNotFound
}

func (r *fakeCompanyRepo) ListAutoPayroll(ctx context.Context) ([]company.Company, error) {
	var matched []company.Company
	for _, comp := range r.companies {
		if comp.AutoPayrollEnabled {
			matched = append(matched, comp)
		}
	}
	return matched, nil
}

type nopAudit struct{}

func (nopAudit) Record(ctx context.Context, entry audit.Entry) {}

type captureNotifier struct {
	mu        sync.Mutex
	summaries []payroll.BatchSummary
}

func (n *captureNotifier) BatchCompleted(ctx context.Context, summary payroll.BatchSummary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, summary)
}

type stubRenderer struct{}

func (stubRenderer) RenderPayslip(data payroll.PayslipData) ([]byte, error) {
	return []byte("%PDF-payslip"), nil
}

func (stubRenderer) RenderAnnualStatement(data payroll.AnnualStatementData) ([]byte, error) {
	return []byte("%PDF-statement"), nil
}
