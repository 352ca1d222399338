package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/crypto"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnsupportedJurisdiction means the report type does not exist in
	// the company's country.
	ErrUnsupportedJurisdiction = errors.New("report is not available for this company's jurisdiction")
	ErrInvalidQuarter          = errors.New("quarter must be between 1 and 4")
)

// ExportFile is one generated statutory or bank file.
type ExportFile struct {
	Name    string
	Content []byte
}

// Service generates statutory filings and bank transfer files. All
// generation is read-only over stored records; a field that cannot be
// decrypted degrades to zero or empty instead of failing the file.
type Service interface {
	BankExport(ctx context.Context, companyID, batchID string) (ExportFile, error)
	Form24Q(ctx context.Context, companyID string, quarter, year int) (ExportFile, error)
	PFECR(ctx context.Context, companyID string, month, year int) (ExportFile, error)
	ESIContributions(ctx context.Context, companyID string, month, year int) (ExportFile, error)
	Form941(ctx context.Context, companyID string, quarter, year int) (ExportFile, error)
	StateTax(ctx context.Context, companyID, state string, quarter, year int) (ExportFile, error)
}

type service struct {
	records   payroll.RecordRepository
	employees employee.Repository
	companies company.Repository
	codec     *crypto.Codec
	logger    *slog.Logger
}

func NewService(
	records payroll.RecordRepository,
	employees employee.Repository,
	companies company.Repository,
	codec *crypto.Codec,
	logger *slog.Logger,
) Service {
	return &service{
		records:   records,
		employees: employees,
		companies: companies,
		codec:     codec,
		logger:    logger,
	}
}

// companyIn loads the company and enforces the report's jurisdiction.
func (s *service) companyIn(ctx context.Context, companyID string, country company.Country) (company.Company, error) {
	comp, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return company.Company{}, err
	}
	if comp.Country != country {
		return company.Company{}, ErrUnsupportedJurisdiction
	}
	return comp, nil
}

// employeeIndex maps employee id to directory data for statutory
// identifiers (PAN, UAN, resident state) that records do not carry.
func (s *service) employeeIndex(ctx context.Context, companyID string) (map[string]employee.Employee, error) {
	employees, err := s.employees.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	index := make(map[string]employee.Employee, len(employees))
	for _, emp := range employees {
		index[emp.ID] = emp
	}
	return index, nil
}

// quarterRecords loads the quarter's non-bonus records.
func (s *service) quarterRecords(ctx context.Context, companyID string, quarter, year int) ([]payroll.Record, error) {
	if quarter < 1 || quarter > 4 {
		return nil, ErrInvalidQuarter
	}
	return s.records.ListForPeriods(ctx, companyID, payroll.QuarterPeriods(quarter, year), true)
}

func recordName(record payroll.Record) string {
	if record.EmployeeName != nil {
		return *record.EmployeeName
	}
	return ""
}

// amount renders a monetary value with exactly two decimal places.
func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func amountInt(n int) string {
	return strconv.Itoa(n)
}

// quoted renders a double-quoted CSV text field, doubling embedded
// quotes per RFC 4180.
func quoted(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func fileName(prefix, companyID string, parts ...interface{}) string {
	name := prefix + "_" + companyID
	for _, p := range parts {
		name += fmt.Sprintf("_%v", p)
	}
	return name + ".csv"
}
