package report

import (
	"context"
	"strings"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/crypto"
	"github.com/shopspring/decimal"
)

// epfWageCap is the statutory ceiling on the EPF contribution base.
var epfWageCap = decimal.NewFromInt(15000)

// epsRate is the employer pension share of the capped base.
var epsRate = decimal.NewFromFloat(0.0833)

// Form24Q builds the quarterly TDS return: one row per employee with
// quarter-aggregated gross and TDS, plus a trailing TOTAL row.
func (s *service) Form24Q(ctx context.Context, companyID string, quarter, year int) (ExportFile, error) {
	if _, err := s.companyIn(ctx, companyID, company.CountryIndia); err != nil {
		return ExportFile{}, err
	}
	records, err := s.quarterRecords(ctx, companyID, quarter, year)
	if err != nil {
		return ExportFile{}, err
	}
	index, err := s.employeeIndex(ctx, companyID)
	if err != nil {
		return ExportFile{}, err
	}

	type row struct {
		name  string
		pan   string
		gross decimal.Decimal
		tds   decimal.Decimal
	}
	byEmployee := make(map[string]*row)
	var order []string
	for _, record := range records {
		r, ok := byEmployee[record.EmployeeID]
		if !ok {
			r = &row{name: recordName(record)}
			if emp, ok := index[record.EmployeeID]; ok && emp.PAN != nil {
				r.pan = *emp.PAN
			}
			byEmployee[record.EmployeeID] = r
			order = append(order, record.EmployeeID)
		}
		r.gross = r.gross.Add(crypto.SafeAmount(s.codec, record.GrossSalary))
		r.tds = r.tds.Add(record.Deductions.TDS)
	}

	var b strings.Builder
	b.WriteString("Employee Name,PAN,Gross Salary,TDS Deducted,TDS Deposited\n")
	var totalGross, totalTDS decimal.Decimal
	for _, id := range order {
		r := byEmployee[id]
		b.WriteString(quoted(r.name) + "," + r.pan + "," + amount(r.gross) + "," + amount(r.tds) + "," + amount(r.tds) + "\n")
		totalGross = totalGross.Add(r.gross)
		totalTDS = totalTDS.Add(r.tds)
	}
	b.WriteString("TOTAL,," + amount(totalGross) + "," + amount(totalTDS) + "," + amount(totalTDS) + "\n")

	return ExportFile{
		Name:    fileName("form24q", companyID, quarter, year),
		Content: []byte(b.String()),
	}, nil
}

// PFECR builds the monthly provident fund return. The EPF wage base is
// capped at 15,000; the employer's pension share (EPS) is 8.33% of the
// capped base and the remaining employer contribution goes to EPF.
func (s *service) PFECR(ctx context.Context, companyID string, month, year int) (ExportFile, error) {
	if _, err := s.companyIn(ctx, companyID, company.CountryIndia); err != nil {
		return ExportFile{}, err
	}
	if month < 1 || month > 12 {
		return ExportFile{}, payroll.ErrInvalidPeriod
	}
	records, err := s.records.ListForPeriods(ctx, companyID, []payroll.Period{{Month: month, Year: year}}, true)
	if err != nil {
		return ExportFile{}, err
	}
	index, err := s.employeeIndex(ctx, companyID)
	if err != nil {
		return ExportFile{}, err
	}

	var b strings.Builder
	b.WriteString("UAN,Employee Name,Gross Wages,EPF Wages,EPS Wages,EDLI Wages,EPF (Employee),EPS (Employer),EPF Diff (Employer),NCP Days,Refund of Advances\n")
	for _, record := range records {
		if record.Deductions.PFEmployee.IsZero() && record.Deductions.PFEmployer.IsZero() {
			continue
		}

		uan := ""
		if emp, ok := index[record.EmployeeID]; ok && emp.UAN != nil {
			uan = *emp.UAN
		}

		gross := crypto.SafeAmount(s.codec, record.GrossSalary)
		epfWages := gross
		if epfWages.GreaterThan(epfWageCap) {
			epfWages = epfWageCap
		}
		eps := epfWages.Mul(epsRate).Round(2)
		epfDiff := record.Deductions.PFEmployer.Sub(eps)

		b.WriteString(strings.Join([]string{
			uan,
			quoted(recordName(record)),
			amount(gross),
			amount(epfWages),
			amount(epfWages),
			amount(epfWages),
			amount(record.Deductions.PFEmployee),
			amount(eps),
			amount(epfDiff),
			amountInt(record.Attendance.AbsentDays),
			"0.00",
		}, ",") + "\n")
	}

	return ExportFile{
		Name:    fileName("pf_ecr", companyID, month, year),
		Content: []byte(b.String()),
	}, nil
}

// ESIContributions builds the monthly ESI sheet. Only employees with a
// nonzero ESI amount appear; a trailing TOTAL row closes the file.
func (s *service) ESIContributions(ctx context.Context, companyID string, month, year int) (ExportFile, error) {
	if _, err := s.companyIn(ctx, companyID, company.CountryIndia); err != nil {
		return ExportFile{}, err
	}
	if month < 1 || month > 12 {
		return ExportFile{}, payroll.ErrInvalidPeriod
	}
	records, err := s.records.ListForPeriods(ctx, companyID, []payroll.Period{{Month: month, Year: year}}, true)
	if err != nil {
		return ExportFile{}, err
	}

	var b strings.Builder
	b.WriteString("Employee Name,Gross Salary,ESI (Employee),ESI (Employer),Total Contribution\n")
	var totalEmployee, totalEmployer decimal.Decimal
	for _, record := range records {
		esiEmployee := record.Deductions.ESIEmployee
		esiEmployer := record.Deductions.ESIEmployer
		if esiEmployee.IsZero() && esiEmployer.IsZero() {
			continue
		}

		gross := crypto.SafeAmount(s.codec, record.GrossSalary)
		b.WriteString(quoted(recordName(record)) + "," + amount(gross) + "," +
			amount(esiEmployee) + "," + amount(esiEmployer) + "," + amount(esiEmployee.Add(esiEmployer)) + "\n")
		totalEmployee = totalEmployee.Add(esiEmployee)
		totalEmployer = totalEmployer.Add(esiEmployer)
	}
	b.WriteString("TOTAL,," + amount(totalEmployee) + "," + amount(totalEmployer) + "," + amount(totalEmployee.Add(totalEmployer)) + "\n")

	return ExportFile{
		Name:    fileName("esi", companyID, month, year),
		Content: []byte(b.String()),
	}, nil
}
