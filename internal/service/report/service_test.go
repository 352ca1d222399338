package report

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "comp-1"

// Stubs embed the repository interfaces and implement only what report
// generation touches; an unexpected call panics and fails the test.

type stubRecordRepo struct {
	payroll.RecordRepository
	records []payroll.Record
}

func (s *stubRecordRepo) ListForPeriods(ctx context.Context, companyID string, periods []payroll.Period, excludeBonus bool) ([]payroll.Record, error) {
	inPeriods := func(month, year int) bool {
		for _, p := range periods {
			if p.Month == month && p.Year == year {
				return true
			}
		}
		return false
	}

	var matched []payroll.Record
	for _, record := range s.records {
		if record.CompanyID != companyID {
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

func (s *stubRecordRepo) ListByBatch(ctx context.Context, companyID, batchID string, statuses []payroll.Status) ([]payroll.Record, error) {
	var matched []payroll.Record
	for _, record := range s.records {
		if record.CompanyID != companyID || record.BatchID == nil || *record.BatchID != batchID {
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

type stubEmployeeRepo struct {
	employee.Repository
	employees []employee.Employee
}

func (s *stubEmployeeRepo) ListByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	var matched []employee.Employee
	for _, emp := range s.employees {
		if emp.CompanyID == companyID {
			matched = append(matched, emp)
		}
	}
	return matched, nil
}

type stubCompanyRepo struct {
	company.Repository
	companies []company.Company
}

func (s *stubCompanyRepo) GetByID(ctx context.Context, id string) (company.Company, error) {
	for _, comp := range s.companies {
		if comp.ID == id {
			return comp, nil
		}
	}
	return company.Company{}, company.ErrCompanyNotFound
}

type fixture struct {
	svc       Service
	records   *stubRecordRepo
	employees *stubEmployeeRepo
	codec     *crypto.Codec
}

func newFixture(t *testing.T, country company.Country) *fixture {
	t.Helper()
	codec, err := crypto.NewCodec(crypto.NewStaticKeyProvider("report-test-secret"))
	require.NoError(t, err)

	records := &stubRecordRepo{}
	employees := &stubEmployeeRepo{}
	companies := &stubCompanyRepo{companies: []company.Company{
		{ID: testCompanyID, Name: "Acme Corp", Country: country},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		svc:       NewService(records, employees, companies, codec, logger),
		records:   records,
		employees: employees,
		codec:     codec,
	}
}

// makeRecord builds a processed record with encrypted amounts and bank
// identifiers.
func (f *fixture) makeRecord(t *testing.T, id, employeeID, name string, month, year int, gross string, deductions payroll.Deductions) payroll.Record {
	t.Helper()

	grossAmount := decimal.RequireFromString(gross)
	net := grossAmount.Sub(deductions.EmployeeTotal())

	encGross, err := crypto.NewEncryptedMoney(f.codec, grossAmount)
	require.NoError(t, err)
	encNet, err := crypto.NewEncryptedMoney(f.codec, net)
	require.NoError(t, err)
	encAccount, err := crypto.NewEncryptedText(f.codec, "12345678"+employeeID)
	require.NoError(t, err)
	encRouting, err := crypto.NewEncryptedText(f.codec, "HDFC0001234")
	require.NoError(t, err)

	return payroll.Record{
		ID:                id,
		EmployeeID:        employeeID,
		CompanyID:         testCompanyID,
		PeriodMonth:       month,
		PeriodYear:        year,
		GrossSalary:       encGross,
		NetSalary:         encNet,
		BankAccountNumber: encAccount,
		RoutingCode:       encRouting,
		Deductions:        deductions,
		Status:            payroll.StatusProcessed,
		EmployeeName:      &name,
	}
}
