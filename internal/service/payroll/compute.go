package payroll

import (
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// earnings holds one period's computed compensation components.
type earnings struct {
	Basic   decimal.Decimal
	Housing decimal.Decimal
	Special decimal.Decimal
	Other   decimal.Decimal
	Gross   decimal.Decimal
}

// computeEarnings pro-rates the monthly salary structure by attendance.
// Paid days are days worked plus approved leave; a period with no
// attendance data pays the full month. Components round to 2 decimal
// places independently and gross is their sum, so gross always equals
// the printed component total.
func computeEarnings(structure *employee.SalaryStructure, attendance payroll.Attendance) earnings {
	factor := decimal.NewFromInt(1)
	if attendance.DaysInPeriod > 0 {
		paidDays := attendance.DaysWorked + attendance.LeaveDays
		if paidDays > attendance.DaysInPeriod {
			paidDays = attendance.DaysInPeriod
		}
		factor = decimal.NewFromInt(int64(paidDays)).Div(decimal.NewFromInt(int64(attendance.DaysInPeriod)))
	}

	e := earnings{
		Basic:   structure.BasicSalary.Mul(factor).Round(2),
		Housing: structure.HousingAllowance.Mul(factor).Round(2),
		Special: structure.SpecialAllowance.Mul(factor).Round(2),
		Other:   structure.OtherAllowances.Mul(factor).Round(2),
	}
	e.Gross = e.Basic.Add(e.Housing).Add(e.Special).Add(e.Other)
	return e
}

// structureDeductions copies the per-period statutory amounts off the
// salary structure. They are configured amounts, not pro-rated.
func structureDeductions(structure *employee.SalaryStructure) payroll.Deductions {
	return payroll.Deductions{
		PFEmployee:             structure.PFEmployee,
		PFEmployer:             structure.PFEmployer,
		ESIEmployee:            structure.ESIEmployee,
		ESIEmployer:            structure.ESIEmployer,
		TDS:                    structure.TDS,
		ProfessionalTax:        structure.ProfessionalTax,
		FederalTax:             structure.FederalTax,
		StateTax:               structure.StateTax,
		SocialSecurityEmployee: structure.SocialSecurityEmployee,
		SocialSecurityEmployer: structure.SocialSecurityEmployer,
		MedicareEmployee:       structure.MedicareEmployee,
		MedicareEmployer:       structure.MedicareEmployer,
	}
}

// netSalary is gross minus everything withheld from the employee.
func netSalary(gross decimal.Decimal, deductions payroll.Deductions) decimal.Decimal {
	return gross.Sub(deductions.EmployeeTotal())
}

// maskAccount keeps the last four characters of a bank account number.
func maskAccount(account string) string {
	if account == "" {
		return ""
	}
	if len(account) <= 4 {
		return "****"
	}
	return "****" + account[len(account)-4:]
}
