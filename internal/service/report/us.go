package report

import (
	"context"
	"strings"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/crypto"
	"github.com/shopspring/decimal"
)

// Form941 builds the quarterly federal return in its fixed key-value
// layout. Lines 5a and 5c report the taxable wage bases; their (ii)
// companions report the combined employee and employer tax on that base.
// Line 6 totals the withholdings and line 10 repeats it, since this
// model carries no quarter adjustments.
func (s *service) Form941(ctx context.Context, companyID string, quarter, year int) (ExportFile, error) {
	if _, err := s.companyIn(ctx, companyID, company.CountryUS); err != nil {
		return ExportFile{}, err
	}
	records, err := s.quarterRecords(ctx, companyID, quarter, year)
	if err != nil {
		return ExportFile{}, err
	}

	employees := make(map[string]struct{})
	var wages, federalTax, socialSecurityTax, medicareTax decimal.Decimal
	for _, record := range records {
		employees[record.EmployeeID] = struct{}{}
		wages = wages.Add(crypto.SafeAmount(s.codec, record.GrossSalary))
		federalTax = federalTax.Add(record.Deductions.FederalTax)
		socialSecurityTax = socialSecurityTax.Add(record.Deductions.SocialSecurityEmployee).Add(record.Deductions.SocialSecurityEmployer)
		medicareTax = medicareTax.Add(record.Deductions.MedicareEmployee).Add(record.Deductions.MedicareEmployer)
	}
	totalTax := federalTax.Add(socialSecurityTax).Add(medicareTax)

	var b strings.Builder
	b.WriteString("Line,Description,Amount\n")
	b.WriteString("1,Number of employees," + amountInt(len(employees)) + "\n")
	b.WriteString("2,Wages tips and other compensation," + amount(wages) + "\n")
	b.WriteString("3,Federal income tax withheld," + amount(federalTax) + "\n")
	b.WriteString("5a,Taxable social security wages," + amount(wages) + "\n")
	b.WriteString("5a(ii),Social security tax," + amount(socialSecurityTax) + "\n")
	b.WriteString("5c,Taxable Medicare wages," + amount(wages) + "\n")
	b.WriteString("5c(ii),Medicare tax," + amount(medicareTax) + "\n")
	b.WriteString("6,Total taxes before adjustments," + amount(totalTax) + "\n")
	b.WriteString("10,Total taxes after adjustments," + amount(totalTax) + "\n")

	return ExportFile{
		Name:    fileName("form941", companyID, quarter, year),
		Content: []byte(b.String()),
	}, nil
}

// StateTax builds the quarterly state withholding report, filtered to
// employees resident in the requested state.
func (s *service) StateTax(ctx context.Context, companyID, state string, quarter, year int) (ExportFile, error) {
	if _, err := s.companyIn(ctx, companyID, company.CountryUS); err != nil {
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

	var b strings.Builder
	b.WriteString("Employee Name,State,Gross Salary,State Tax Withheld\n")
	var totalGross, totalTax decimal.Decimal
	for _, record := range records {
		emp, ok := index[record.EmployeeID]
		if !ok || emp.ResidentState == nil || !strings.EqualFold(*emp.ResidentState, state) {
			continue
		}

		gross := crypto.SafeAmount(s.codec, record.GrossSalary)
		b.WriteString(quoted(recordName(record)) + "," + strings.ToUpper(state) + "," +
			amount(gross) + "," + amount(record.Deductions.StateTax) + "\n")
		totalGross = totalGross.Add(gross)
		totalTax = totalTax.Add(record.Deductions.StateTax)
	}
	b.WriteString("TOTAL,," + amount(totalGross) + "," + amount(totalTax) + "\n")

	return ExportFile{
		Name:    fileName("state_tax", companyID, strings.ToLower(state), quarter, year),
		Content: []byte(b.String()),
	}, nil
}
