package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID               string
	CompanyID        string
	EmployeeCode     string
	FullName         string
	Email            string
	EmploymentStatus EmploymentStatus

	// Jurisdiction fields
	ResidentState *string // US state code
	PAN           *string // India income tax number
	UAN           *string // India provident fund account number

	BankName          string
	BankAccountNumber string
	RoutingCode       string // IFSC (India) or ABA routing number (US)

	// Joined field; nil when no structure is assigned.
	SalaryStructure *SalaryStructure

	CreatedAt time.Time
	UpdatedAt time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// SalaryStructure - assigned monthly compensation plan. Earnings are
// full-month amounts pro-rated by attendance at batch time; statutory
// amounts come from jurisdiction configuration and are applied as-is.
type SalaryStructure struct {
	ID         string
	EmployeeID string

	BasicSalary      decimal.Decimal
	HousingAllowance decimal.Decimal
	SpecialAllowance decimal.Decimal
	OtherAllowances  decimal.Decimal

	PFEmployee             decimal.Decimal
	PFEmployer             decimal.Decimal
	ESIEmployee            decimal.Decimal
	ESIEmployer            decimal.Decimal
	TDS                    decimal.Decimal
	ProfessionalTax        decimal.Decimal
	FederalTax             decimal.Decimal
	StateTax               decimal.Decimal
	SocialSecurityEmployee decimal.Decimal
	SocialSecurityEmployer decimal.Decimal
	MedicareEmployee       decimal.Decimal
	MedicareEmployer       decimal.Decimal

	EffectiveDate time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
