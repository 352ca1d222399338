package document

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

// Renderer produces payslips and annual statements as PDF bytes. It is
// a pure transform over decrypted snapshots: it never touches storage
// or the codec.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) RenderPayslip(data payroll.PayslipData) ([]byte, error) {
	m := maroto.New()

	m.AddRow(12,
		text.NewCol(12, data.CompanyName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, fmt.Sprintf("Payslip - %s %d", time.Month(data.PeriodMonth), data.PeriodYear), props.Text{
			Size:  11,
			Align: align.Center,
		}),
	)

	m.AddRow(16,
		col.New(6).Add(
			text.New("Employee: "+data.EmployeeName, props.Text{Top: 0}),
			text.New("Code: "+data.EmployeeCode, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Days worked: %d of %d", data.Attendance.DaysWorked, data.Attendance.DaysInPeriod), props.Text{Top: 0}),
			text.New(paidLine(data.PaidAt), props.Text{Top: 5}),
		),
	)

	m.AddRow(8,
		text.NewCol(8, "Earnings", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)
	addAmountRow(m, "Basic Salary", data.BasicSalary)
	addAmountRow(m, "Housing Allowance", data.HousingAllowance)
	addAmountRow(m, "Special Allowance", data.SpecialAllowance)
	addAmountRow(m, "Other Allowances", data.OtherAllowances)
	addTotalRow(m, "Gross Salary", data.GrossSalary)

	m.AddRow(8,
		text.NewCol(8, "Deductions", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)
	for _, line := range deductionLines(data.Deductions) {
		addAmountRow(m, line.label, line.amount)
	}
	addTotalRow(m, "Total Deductions", data.Deductions.EmployeeTotal())

	addTotalRow(m, "Net Salary", data.NetSalary)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate payslip: %w", err)
	}
	return doc.GetBytes(), nil
}

func (r *Renderer) RenderAnnualStatement(data payroll.AnnualStatementData) ([]byte, error) {
	m := maroto.New()

	m.AddRow(12,
		text.NewCol(12, data.CompanyName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Annual Earnings Statement - "+data.FiscalYearLabel, props.Text{
			Size:  11,
			Align: align.Center,
		}),
	)
	m.AddRow(10,
		text.NewCol(12, "Employee: "+data.EmployeeName, props.Text{}),
	)

	addTotalRow(m, "Gross Earnings", data.GrossEarnings)

	m.AddRow(8,
		text.NewCol(8, "Cumulative Deductions", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)
	for _, line := range deductionLines(data.Deductions) {
		addAmountRow(m, line.label, line.amount)
	}
	addTotalRow(m, "Total Deductions", data.Deductions.EmployeeTotal().Add(employerTotal(data.Deductions)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate annual statement: %w", err)
	}
	return doc.GetBytes(), nil
}

type deductionLine struct {
	label  string
	amount decimal.Decimal
}

// deductionLines lists the nonzero categories in a fixed order, so the
// document only shows the jurisdiction that applies.
func deductionLines(d payroll.Deductions) []deductionLine {
	all := []deductionLine{
		{"Provident Fund (Employee)", d.PFEmployee},
		{"Provident Fund (Employer)", d.PFEmployer},
		{"ESI (Employee)", d.ESIEmployee},
		{"ESI (Employer)", d.ESIEmployer},
		{"TDS", d.TDS},
		{"Professional Tax", d.ProfessionalTax},
		{"Federal Tax", d.FederalTax},
		{"State Tax", d.StateTax},
		{"Social Security (Employee)", d.SocialSecurityEmployee},
		{"Social Security (Employer)", d.SocialSecurityEmployer},
		{"Medicare (Employee)", d.MedicareEmployee},
		{"Medicare (Employer)", d.MedicareEmployer},
		{"Other Deductions", d.Other},
	}

	var lines []deductionLine
	for _, line := range all {
		if !line.amount.IsZero() {
			lines = append(lines, line)
		}
	}
	return lines
}

func employerTotal(d payroll.Deductions) decimal.Decimal {
	return d.PFEmployer.Add(d.ESIEmployer).Add(d.SocialSecurityEmployer).Add(d.MedicareEmployer)
}

func addAmountRow(m core.Maroto, label string, amount decimal.Decimal) {
	m.AddRow(7,
		text.NewCol(8, label, props.Text{Size: 9}),
		text.NewCol(4, amount.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)
}

func addTotalRow(m core.Maroto, label string, amount decimal.Decimal) {
	m.AddRow(8,
		text.NewCol(8, label, props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(4, amount.StringFixed(2), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)
}

func paidLine(paidAt *time.Time) string {
	if paidAt == nil {
		return "Status: Pending payment"
	}
	return "Paid on: " + paidAt.Format("02 Jan 2006")
}
