package company

import "time"

// Country enum - jurisdictions with supported statutory rules.
type Country string

const (
	CountryIndia Country = "IN"
	CountryUS    Country = "US"
)

type Company struct {
	ID                 string
	Name               string
	Country            Country
	AutoPayrollEnabled bool
	AutoPayrollDay     int

	// Statutory identifiers; which ones are set depends on Country.
	TAN     *string // India TDS deduction account number
	PFCode  *string // India provident fund establishment code
	ESICode *string // India ESI registration code
	EIN     *string // US employer identification number

	CreatedAt time.Time
	UpdatedAt time.Time
}
