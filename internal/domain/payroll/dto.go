package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// CreateRecordRequest creates a single draft record outside a batch run,
// e.g. a correction or a bonus entry.
type CreateRecordRequest struct {
	EmployeeID  string     `json:"employee_id"`
	PeriodMonth int        `json:"period_month"`
	PeriodYear  int        `json:"period_year"`
	PayDate     *time.Time `json:"pay_date,omitempty"`
	IsBonus     bool       `json:"is_bonus"`

	BasicSalary      decimal.Decimal `json:"basic_salary"`
	HousingAllowance decimal.Decimal `json:"housing_allowance"`
	SpecialAllowance decimal.Decimal `json:"special_allowance"`
	OtherAllowances  decimal.Decimal `json:"other_allowances"`

	Deductions Deductions `json:"deductions"`
	Attendance Attendance `json:"attendance"`

	Notes *string `json:"notes,omitempty"`
}

func (r CreateRecordRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID == "" {
		errs = errs.Add("employee_id", "employee_id is required")
	}
	if r.PeriodMonth < 1 || r.PeriodMonth > 12 {
		errs = errs.Add("period_month", "period_month must be between 1 and 12")
	}
	if r.PeriodYear < 2000 || r.PeriodYear > 2100 {
		errs = errs.Add("period_year", "period_year is out of range")
	}
	for field, amount := range map[string]decimal.Decimal{
		"basic_salary":      r.BasicSalary,
		"housing_allowance": r.HousingAllowance,
		"special_allowance": r.SpecialAllowance,
		"other_allowances":  r.OtherAllowances,
	} {
		if amount.IsNegative() {
			errs = errs.Add(field, field+" must not be negative")
		}
	}
	if r.Deductions.HasNegative() {
		errs = errs.Add("deductions", "deduction amounts must not be negative")
	}
	if r.Attendance.DaysWorked < 0 || r.Attendance.LeaveDays < 0 || r.Attendance.AbsentDays < 0 {
		errs = errs.Add("attendance", "attendance counters must not be negative")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateRecordRequest patches a draft record. Nil fields are left
// untouched; when any earnings or deductions field is present the
// service recomputes gross and net.
type UpdateRecordRequest struct {
	ID string `json:"-"`

	BasicSalary      *decimal.Decimal `json:"basic_salary,omitempty"`
	HousingAllowance *decimal.Decimal `json:"housing_allowance,omitempty"`
	SpecialAllowance *decimal.Decimal `json:"special_allowance,omitempty"`
	OtherAllowances  *decimal.Decimal `json:"other_allowances,omitempty"`

	Deductions *Deductions `json:"deductions,omitempty"`
	Attendance *Attendance `json:"attendance,omitempty"`

	BankAccountNumber *string `json:"bank_account_number,omitempty"`
	RoutingCode       *string `json:"routing_code,omitempty"`

	PayDate *time.Time `json:"pay_date,omitempty"`
	Notes   *string    `json:"notes,omitempty"`
}

func (r UpdateRecordRequest) Validate() error {
	var errs validator.ValidationErrors
	for field, amount := range map[string]*decimal.Decimal{
		"basic_salary":      r.BasicSalary,
		"housing_allowance": r.HousingAllowance,
		"special_allowance": r.SpecialAllowance,
		"other_allowances":  r.OtherAllowances,
	} {
		if amount != nil && amount.IsNegative() {
			errs = errs.Add(field, field+" must not be negative")
		}
	}
	if r.Deductions != nil && r.Deductions.HasNegative() {
		errs = errs.Add("deductions", "deduction amounts must not be negative")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// TouchesAmounts reports whether the patch changes any input to the
// gross/net computation.
func (r UpdateRecordRequest) TouchesAmounts() bool {
	return r.BasicSalary != nil || r.HousingAllowance != nil ||
		r.SpecialAllowance != nil || r.OtherAllowances != nil ||
		r.Deductions != nil
}

// MarkPaidRequest finalizes a processed record. PaidAt defaults to now.
type MarkPaidRequest struct {
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

// RunBatchRequest triggers a batch run for one period.
type RunBatchRequest struct {
	PeriodMonth int `json:"period_month"`
	PeriodYear  int `json:"period_year"`
}

func (r RunBatchRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.PeriodMonth < 1 || r.PeriodMonth > 12 {
		errs = errs.Add("period_month", "period_month must be between 1 and 12")
	}
	if r.PeriodYear < 2000 || r.PeriodYear > 2100 {
		errs = errs.Add("period_year", "period_year is out of range")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Filter narrows record listings. Zero values mean "no filter".
type Filter struct {
	PeriodMonth *int    `json:"period_month,omitempty"`
	PeriodYear  *int    `json:"period_year,omitempty"`
	Status      *Status `json:"status,omitempty"`
	EmployeeID  *string `json:"employee_id,omitempty"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
}

// Normalize clamps paging to sane defaults.
func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

// RecordResponse is a decrypted view of one record. Bank identifiers are
// masked down to the last four characters.
type RecordResponse struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employee_id"`
	EmployeeName *string    `json:"employee_name,omitempty"`
	EmployeeCode *string    `json:"employee_code,omitempty"`
	PeriodMonth  int        `json:"period_month"`
	PeriodYear   int        `json:"period_year"`
	PayDate      *time.Time `json:"pay_date,omitempty"`
	IsBonus      bool       `json:"is_bonus"`

	BasicSalary      decimal.Decimal `json:"basic_salary"`
	HousingAllowance decimal.Decimal `json:"housing_allowance"`
	SpecialAllowance decimal.Decimal `json:"special_allowance"`
	OtherAllowances  decimal.Decimal `json:"other_allowances"`
	GrossSalary      decimal.Decimal `json:"gross_salary"`
	NetSalary        decimal.Decimal `json:"net_salary"`

	Deductions Deductions `json:"deductions"`
	Attendance Attendance `json:"attendance"`

	BankAccountMasked string `json:"bank_account_masked,omitempty"`

	Status    Status     `json:"status"`
	BatchID   *string    `json:"batch_id,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ListRecordsResponse wraps a paged listing.
type ListRecordsResponse struct {
	Data       []RecordResponse `json:"data"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

// BatchSummary is what a finished batch run reports back.
type BatchSummary struct {
	BatchID        string         `json:"batch_id"`
	CompanyID      string         `json:"company_id"`
	PeriodMonth    int            `json:"period_month"`
	PeriodYear     int            `json:"period_year"`
	TotalCount     int            `json:"total_count"`
	ProcessedCount int            `json:"processed_count"`
	Status         BatchStatus    `json:"status"`
	Failures       []BatchFailure `json:"failures,omitempty"`
}

// BatchResponse is the stored batch row plus its failures.
type BatchResponse struct {
	ID             string         `json:"id"`
	CompanyID      string         `json:"company_id"`
	PeriodMonth    int            `json:"period_month"`
	PeriodYear     int            `json:"period_year"`
	TotalCount     int            `json:"total_count"`
	ProcessedCount int            `json:"processed_count"`
	Status         BatchStatus    `json:"status"`
	CreatedBy      string         `json:"created_by"`
	Failures       []BatchFailure `json:"failures,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// YTDResponse is a decrypted view of one fiscal-year aggregate.
type YTDResponse struct {
	EmployeeID    string          `json:"employee_id"`
	FiscalYear    int             `json:"fiscal_year"`
	GrossEarnings decimal.Decimal `json:"gross_earnings"`
	Deductions    Deductions      `json:"deductions"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PeriodSummaryResponse - company-wide totals for one period. Amounts are
// best effort: records whose gross or net cannot be decrypted contribute
// zero rather than failing the summary.
type PeriodSummaryResponse struct {
	PeriodMonth    int             `json:"period_month"`
	PeriodYear     int             `json:"period_year"`
	RecordCount    int             `json:"record_count"`
	DraftCount     int             `json:"draft_count"`
	ProcessedCount int             `json:"processed_count"`
	PaidCount      int             `json:"paid_count"`
	TotalGross     decimal.Decimal `json:"total_gross"`
	TotalNet       decimal.Decimal `json:"total_net"`
	TotalDeducted  decimal.Decimal `json:"total_deducted"`
}
