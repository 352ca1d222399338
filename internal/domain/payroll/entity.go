package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/crypto"
	"github.com/shopspring/decimal"
)

// Status enum. Lifecycle is draft -> processed -> paid; paid is terminal
// and the record becomes immutable once it is reached.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusProcessed Status = "processed"
	StatusPaid      Status = "paid"
)

// SystemActor is recorded as the creator of scheduler-triggered batches.
const SystemActor = "system"

// Record - one compensation record for one employee for one (month, year)
// period. Monetary amounts and bank identifiers are stored encrypted;
// statutory contributions and attendance counters are plaintext.
type Record struct {
	ID          string
	EmployeeID  string
	CompanyID   string
	PeriodMonth int
	PeriodYear  int
	PayDate     *time.Time
	IsBonus     bool

	BasicSalary       crypto.EncryptedMoney
	HousingAllowance  crypto.EncryptedMoney
	SpecialAllowance  crypto.EncryptedMoney
	OtherAllowances   crypto.EncryptedMoney
	GrossSalary       crypto.EncryptedMoney
	NetSalary         crypto.EncryptedMoney
	BankAccountNumber crypto.EncryptedText
	RoutingCode       crypto.EncryptedText

	Deductions Deductions
	Attendance Attendance

	Status    Status
	BatchID   *string
	PaidAt    *time.Time
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
}

// Deductions - per-period statutory amounts. India and US fields coexist;
// whichever jurisdiction does not apply stays zero.
type Deductions struct {
	PFEmployee             decimal.Decimal `json:"pf_employee"`
	PFEmployer             decimal.Decimal `json:"pf_employer"`
	ESIEmployee            decimal.Decimal `json:"esi_employee"`
	ESIEmployer            decimal.Decimal `json:"esi_employer"`
	TDS                    decimal.Decimal `json:"tds"`
	ProfessionalTax        decimal.Decimal `json:"professional_tax"`
	FederalTax             decimal.Decimal `json:"federal_tax"`
	StateTax               decimal.Decimal `json:"state_tax"`
	SocialSecurityEmployee decimal.Decimal `json:"social_security_employee"`
	SocialSecurityEmployer decimal.Decimal `json:"social_security_employer"`
	MedicareEmployee       decimal.Decimal `json:"medicare_employee"`
	MedicareEmployer       decimal.Decimal `json:"medicare_employer"`
	Other                  decimal.Decimal `json:"other"`
}

// HasNegative reports whether any category holds a negative amount.
func (d Deductions) HasNegative() bool {
	for _, amount := range []decimal.Decimal{
		d.PFEmployee, d.PFEmployer, d.ESIEmployee, d.ESIEmployer,
		d.TDS, d.ProfessionalTax, d.FederalTax, d.StateTax,
		d.SocialSecurityEmployee, d.SocialSecurityEmployer,
		d.MedicareEmployee, d.MedicareEmployer, d.Other,
	} {
		if amount.IsNegative() {
			return true
		}
	}
	return false
}

// EmployeeTotal sums everything withheld from the employee's pay.
// Employer-side contributions do not reduce net salary.
func (d Deductions) EmployeeTotal() decimal.Decimal {
	return d.PFEmployee.
		Add(d.ESIEmployee).
		Add(d.TDS).
		Add(d.ProfessionalTax).
		Add(d.FederalTax).
		Add(d.StateTax).
		Add(d.SocialSecurityEmployee).
		Add(d.MedicareEmployee).
		Add(d.Other)
}

// Add returns d with o's amounts added per category.
func (d Deductions) Add(o Deductions) Deductions {
	return Deductions{
		PFEmployee:             d.PFEmployee.Add(o.PFEmployee),
		PFEmployer:             d.PFEmployer.Add(o.PFEmployer),
		ESIEmployee:            d.ESIEmployee.Add(o.ESIEmployee),
		ESIEmployer:            d.ESIEmployer.Add(o.ESIEmployer),
		TDS:                    d.TDS.Add(o.TDS),
		ProfessionalTax:        d.ProfessionalTax.Add(o.ProfessionalTax),
		FederalTax:             d.FederalTax.Add(o.FederalTax),
		StateTax:               d.StateTax.Add(o.StateTax),
		SocialSecurityEmployee: d.SocialSecurityEmployee.Add(o.SocialSecurityEmployee),
		SocialSecurityEmployer: d.SocialSecurityEmployer.Add(o.SocialSecurityEmployer),
		MedicareEmployee:       d.MedicareEmployee.Add(o.MedicareEmployee),
		MedicareEmployer:       d.MedicareEmployer.Add(o.MedicareEmployer),
		Other:                  d.Other.Add(o.Other),
	}
}

// Attendance - work counters for the period.
type Attendance struct {
	DaysWorked    int             `json:"days_worked"`
	DaysInPeriod  int             `json:"days_in_period"`
	LeaveDays     int             `json:"leave_days"`
	AbsentDays    int             `json:"absent_days"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
}

// AttendanceSummary - aggregate from the attendances table, one row per
// employee for a period.
type AttendanceSummary struct {
	EmployeeID    string
	DaysWorked    int
	LeaveDays     int
	AbsentDays    int
	OvertimeHours decimal.Decimal
}

// BatchStatus enum
type BatchStatus string

const (
	BatchStatusProcessing          BatchStatus = "processing"
	BatchStatusCompleted           BatchStatus = "completed"
	BatchStatusCompletedWithErrors BatchStatus = "completed_with_errors"
)

// Batch - one orchestrated payroll run for one company and period.
// Records reference the batch; the batch itself only carries counts.
type Batch struct {
	ID             string
	CompanyID      string
	PeriodMonth    int
	PeriodYear     int
	TotalCount     int
	ProcessedCount int
	Status         BatchStatus
	CreatedBy      string
	Failures       []BatchFailure
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// BatchFailure - one employee the orchestrator could not process.
// The employee is omitted from the period, not persisted in a failed state.
type BatchFailure struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Reason       string `json:"reason"`
}

// YTD - fiscal-year cumulative totals for one employee. Derived and
// append-only: individual records remain the source of truth.
type YTD struct {
	ID            string
	CompanyID     string
	EmployeeID    string
	FiscalYear    int
	GrossEarnings crypto.EncryptedMoney
	Deductions    Deductions
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Contribution - one finalized record's share to accumulate into YTD.
// Gross arrives decrypted; the aggregator re-encrypts the running total.
type Contribution struct {
	Gross      decimal.Decimal
	Deductions Deductions
}
