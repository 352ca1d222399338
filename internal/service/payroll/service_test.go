package payroll

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/crypto"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCompanyID  = "comp-1"
	testEmployeeID = "emp-1"
	testActor      = "user-1"
)

func newTestCodec(t *testing.T) *crypto.Codec {
	t.Helper()
	codec, err := crypto.NewCodec(crypto.NewStaticKeyProvider("unit-test-encryption-secret"))
	require.NoError(t, err)
	return codec
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStructure() *employee.SalaryStructure {
	return &employee.SalaryStructure{
		ID:               "ss-1",
		EmployeeID:       testEmployeeID,
		BasicSalary:      decimal.NewFromInt(50000),
		HousingAllowance: decimal.NewFromInt(10000),
		PFEmployee:       decimal.NewFromInt(1800),
		PFEmployer:       decimal.NewFromInt(1800),
		TDS:              decimal.NewFromInt(2000),
	}
}

func testEmployee() employee.Employee {
	return employee.Employee{
		ID:                testEmployeeID,
		CompanyID:         testCompanyID,
		EmployeeCode:      "EMP001",
		FullName:          "Asha Verma",
		EmploymentStatus:  employee.EmploymentStatusActive,
		BankAccountNumber: "123456789012",
		RoutingCode:       "HDFC0001234",
		SalaryStructure:   testStructure(),
	}
}

type serviceFixture struct {
	svc       *service
	records   *fakeRecordRepo
	ytd       *fakeYTDRepo
	employees *fakeEmployeeRepo
	companies *fakeCompanyRepo
	codec     *crypto.Codec
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	codec := newTestCodec(t)
	records := newFakeRecordRepo()
	ytd := newFakeYTDRepo()
	employees := &fakeEmployeeRepo{employees: []employee.Employee{testEmployee()}}
	companies := &fakeCompanyRepo{companies: []company.Company{
		{ID: testCompanyID, Name: "Acme India", Country: company.CountryIndia},
	}}

	svc := NewService(nil, records, ytd, employees, companies, codec, stubRenderer{}, nopAudit{}, testLogger()).(*service)
	// The fakes have no pool to open a transaction on; run the body directly.
	svc.runInTx = func(ctx context.Context, db *database.DB, fn func(tx pgx.Tx) error) error {
		return fn(nil)
	}
	return &serviceFixture{
		svc:       svc,
		records:   records,
		ytd:       ytd,
		employees: employees,
		companies: companies,
		codec:     codec,
	}
}

func createRequest() payroll.CreateRecordRequest {
	return payroll.CreateRecordRequest{
		EmployeeID:       testEmployeeID,
		PeriodMonth:      5,
		PeriodYear:       2026,
		BasicSalary:      decimal.NewFromInt(50000),
		HousingAllowance: decimal.NewFromInt(10000),
		Deductions: payroll.Deductions{
			PFEmployee: decimal.NewFromInt(1800),
			PFEmployer: decimal.NewFromInt(1800),
			TDS:        decimal.NewFromInt(2000),
		},
	}
}

func assertAmount(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, actual.Equal(decimal.RequireFromString(expected)),
		"expected %s, got %s", expected, actual)
}

func TestService_CreateRecord(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	resp, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, payroll.StatusDraft, resp.Status)
	assertAmount(t, "60000", resp.GrossSalary)
	assertAmount(t, "56200", resp.NetSalary)
	assert.Equal(t, "****9012", resp.BankAccountMasked)

	// No attendance supplied: the full month is paid.
	assert.Equal(t, 31, resp.Attendance.DaysInPeriod)
	assert.Equal(t, 31, resp.Attendance.DaysWorked)

	// Stored amounts are ciphertext tokens, never the plaintext value.
	stored, err := f.records.GetByID(ctx, resp.ID, testCompanyID)
	require.NoError(t, err)
	assert.NotContains(t, string(stored.GrossSalary), "60000")
	assert.Contains(t, string(stored.GrossSalary), ":")
	gross, err := stored.GrossSalary.Reveal(f.codec)
	require.NoError(t, err)
	assertAmount(t, "60000", gross)
}

func TestService_CreateRecord_DuplicatePeriod(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)

	_, err = f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	assert.ErrorIs(t, err, payroll.ErrRecordAlreadyExists)
}

func TestService_CreateRecord_BonusBesidesRegular(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)

	bonus := createRequest()
	bonus.IsBonus = true
	bonus.Deductions = payroll.Deductions{}
	_, err = f.svc.CreateRecord(ctx, testCompanyID, testActor, bonus)
	assert.NoError(t, err)
}

func TestService_CreateRecord_DeductionsExceedGross(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	req := createRequest()
	req.Deductions.TDS = decimal.NewFromInt(100000)

	_, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, req)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "deductions", verrs[0].Field)
}

func TestService_CreateRecord_InvalidRequest(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	req := createRequest()
	req.EmployeeID = ""
	req.PeriodMonth = 13

	_, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, req)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := verrs.ToMap()
	assert.Contains(t, fields, "employee_id")
	assert.Contains(t, fields, "period_month")
}

func TestService_CreateRecord_UnknownEmployee(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	req := createRequest()
	req.EmployeeID = "emp-unknown"

	_, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, req)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestService_UpdateRecord_RecomputesTotals(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)

	newBasic := decimal.NewFromInt(40000)
	resp, err := f.svc.UpdateRecord(ctx, testCompanyID, testActor, payroll.UpdateRecordRequest{
		ID:          created.ID,
		BasicSalary: &newBasic,
	})
	require.NoError(t, err)

	assertAmount(t, "40000", resp.BasicSalary)
	assertAmount(t, "10000", resp.HousingAllowance)
	assertAmount(t, "50000", resp.GrossSalary)
	assertAmount(t, "46200", resp.NetSalary)
}

func TestService_UpdateRecord_ProcessedIsUpdatable(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)
	_, err = f.svc.ProcessRecord(ctx, testCompanyID, testActor, created.ID)
	require.NoError(t, err)

	notes := "late correction"
	resp, err := f.svc.UpdateRecord(ctx, testCompanyID, testActor, payroll.UpdateRecordRequest{
		ID:    created.ID,
		Notes: &notes,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Notes)
	assert.Equal(t, notes, *resp.Notes)
}

func TestService_UpdateRecord_PaidIsImmutable(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)
	require.NoError(t, f.records.Process(ctx, created.ID, testCompanyID))
	require.NoError(t, f.records.MarkPaid(ctx, created.ID, testCompanyID, created.CreatedAt))

	notes := "too late"
	_, err = f.svc.UpdateRecord(ctx, testCompanyID, testActor, payroll.UpdateRecordRequest{
		ID:    created.ID,
		Notes: &notes,
	})
	assert.ErrorIs(t, err, payroll.ErrRecordAlreadyPaid)
}

func TestService_DeleteRecord(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRecord(ctx, testCompanyID, testActor, created.ID))
	_, err = f.svc.GetRecord(ctx, testCompanyID, created.ID)
	assert.ErrorIs(t, err, payroll.ErrRecordNotFound)
}

func TestService_DeleteRecord_OnlyDraft(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)
	_, err = f.svc.ProcessRecord(ctx, testCompanyID, testActor, created.ID)
	require.NoError(t, err)

	err = f.svc.DeleteRecord(ctx, testCompanyID, testActor, created.ID)
	assert.ErrorIs(t, err, payroll.ErrRecordNotDraft)
}

func TestService_ProcessRecord(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)

	resp, err := f.svc.ProcessRecord(ctx, testCompanyID, testActor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusProcessed, resp.Status)

	_, err = f.svc.ProcessRecord(ctx, testCompanyID, testActor, created.ID)
	assert.ErrorIs(t, err, payroll.ErrRecordNotDraft)
}

func TestService_MarkPaid_AccumulatesYTD(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)
	_, err = f.svc.ProcessRecord(ctx, testCompanyID, testActor, created.ID)
	require.NoError(t, err)

	paidAt := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)
	resp, err := f.svc.MarkPaid(ctx, testCompanyID, testActor, created.ID, payroll.MarkPaidRequest{PaidAt: &paidAt})
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusPaid, resp.Status)
	require.NotNil(t, resp.PaidAt)
	assert.Equal(t, paidAt, *resp.PaidAt)

	// May 2026 in India falls in fiscal year 2026-27.
	totals, err := f.svc.GetYTD(ctx, testCompanyID, testEmployeeID, 2026)
	require.NoError(t, err)
	assertAmount(t, "60000", totals.GrossEarnings)
	assertAmount(t, "1800", totals.Deductions.PFEmployee)
	assertAmount(t, "2000", totals.Deductions.TDS)
}

func TestService_MarkPaid_AddsToExistingYTD(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(ctx, testCompanyID, testActor, created.ID, payroll.MarkPaidRequest{})
	require.NoError(t, err)

	bonus := createRequest()
	bonus.IsBonus = true
	bonus.BasicSalary = decimal.NewFromInt(20000)
	bonus.HousingAllowance = decimal.Zero
	bonus.Deductions = payroll.Deductions{}
	bonusCreated, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, bonus)
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(ctx, testCompanyID, testActor, bonusCreated.ID, payroll.MarkPaidRequest{})
	require.NoError(t, err)

	totals, err := f.svc.GetYTD(ctx, testCompanyID, testEmployeeID, 2026)
	require.NoError(t, err)
	assertAmount(t, "80000", totals.GrossEarnings)
	assertAmount(t, "2000", totals.Deductions.TDS)
}

func TestService_MarkPaid_PaidIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(ctx, testCompanyID, testActor, created.ID, payroll.MarkPaidRequest{})
	require.NoError(t, err)

	// Paying twice must not fold the record into YTD a second time.
	_, err = f.svc.MarkPaid(ctx, testCompanyID, testActor, created.ID, payroll.MarkPaidRequest{})
	assert.ErrorIs(t, err, payroll.ErrRecordAlreadyPaid)

	totals, err := f.svc.GetYTD(ctx, testCompanyID, testEmployeeID, 2026)
	require.NoError(t, err)
	assertAmount(t, "60000", totals.GrossEarnings)
}

func TestRecordRepo_SaveRejectsPaid(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)

	// Read the record while still mutable, then let a payment land
	// before the write. The store must refuse the stale save.
	stale, err := f.records.GetByID(ctx, created.ID, testCompanyID)
	require.NoError(t, err)
	require.NoError(t, f.records.MarkPaid(ctx, created.ID, testCompanyID, time.Now()))

	err = f.records.Save(ctx, stale)
	assert.ErrorIs(t, err, payroll.ErrRecordAlreadyPaid)
}

func TestService_AccumulateYTD(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	contribution := payroll.Contribution{
		Gross: decimal.NewFromInt(60000),
		Deductions: payroll.Deductions{
			PFEmployee: decimal.NewFromInt(1800),
			TDS:        decimal.NewFromInt(2000),
		},
	}

	// First contribution creates the fiscal-year row.
	require.NoError(t, f.svc.accumulateYTD(ctx, testCompanyID, testEmployeeID, 2026, contribution))
	totals, err := f.svc.GetYTD(ctx, testCompanyID, testEmployeeID, 2026)
	require.NoError(t, err)
	assertAmount(t, "60000", totals.GrossEarnings)
	assertAmount(t, "2000", totals.Deductions.TDS)

	// Later contributions only ever add.
	require.NoError(t, f.svc.accumulateYTD(ctx, testCompanyID, testEmployeeID, 2026, contribution))
	totals, err = f.svc.GetYTD(ctx, testCompanyID, testEmployeeID, 2026)
	require.NoError(t, err)
	assertAmount(t, "120000", totals.GrossEarnings)
	assertAmount(t, "3600", totals.Deductions.PFEmployee)
	assertAmount(t, "4000", totals.Deductions.TDS)
}

func TestService_GetYTD_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.GetYTD(ctx, testCompanyID, testEmployeeID, 2026)
	assert.ErrorIs(t, err, payroll.ErrYTDNotFound)
}

func TestService_ListRecords_Pagination(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	for month := 1; month <= 3; month++ {
		req := createRequest()
		req.PeriodMonth = month
		_, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, req)
		require.NoError(t, err)
	}

	resp, err := f.svc.ListRecords(ctx, testCompanyID, payroll.Filter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.TotalCount)
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 2, resp.Limit)
}

func TestService_PeriodSummary(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)
	_, err = f.svc.ProcessRecord(ctx, testCompanyID, testActor, created.ID)
	require.NoError(t, err)

	bonus := createRequest()
	bonus.IsBonus = true
	bonus.BasicSalary = decimal.NewFromInt(20000)
	bonus.HousingAllowance = decimal.Zero
	bonus.Deductions = payroll.Deductions{}
	_, err = f.svc.CreateRecord(ctx, testCompanyID, testActor, bonus)
	require.NoError(t, err)

	summary, err := f.svc.PeriodSummary(ctx, testCompanyID, 5, 2026)
	require.NoError(t, err)

	// Bonus records count toward the period totals.
	assert.Equal(t, 2, summary.RecordCount)
	assert.Equal(t, 1, summary.DraftCount)
	assert.Equal(t, 1, summary.ProcessedCount)
	assert.Equal(t, 0, summary.PaidCount)
	assertAmount(t, "80000", summary.TotalGross)
	assertAmount(t, "76200", summary.TotalNet)
	assertAmount(t, "3800", summary.TotalDeducted)
}

func TestService_PeriodSummary_InvalidMonth(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.PeriodSummary(ctx, testCompanyID, 0, 2026)
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}

func TestService_RenderPayslip(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)

	content, err := f.svc.RenderPayslip(ctx, testCompanyID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-payslip"), content)
}

func TestService_RenderAnnualStatement(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	require.NoError(t, f.svc.accumulateYTD(ctx, testCompanyID, testEmployeeID, 2025, payroll.Contribution{
		Gross: decimal.NewFromInt(720000),
	}))

	content, err := f.svc.RenderAnnualStatement(ctx, testCompanyID, testEmployeeID, 2025)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-statement"), content)
}

func TestService_CrossCompanyAccessDenied(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.companies.companies = append(f.companies.companies, company.Company{
		ID: "comp-2", Name: "Other Co", Country: company.CountryIndia,
	})

	created, err := f.svc.CreateRecord(ctx, testCompanyID, testActor, createRequest())
	require.NoError(t, err)

	_, err = f.svc.GetRecord(ctx, "comp-2", created.ID)
	assert.ErrorIs(t, err, payroll.ErrRecordNotFound)
}

func TestMaskAccount(t *testing.T) {
	assert.Equal(t, "", maskAccount(""))
	assert.Equal(t, "****", maskAccount("1234"))
	assert.Equal(t, "****9012", maskAccount("123456789012"))
	assert.NotContains(t, maskAccount("123456789012"), "12345678")
}
