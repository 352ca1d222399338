package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/company"
)

// FiscalYearFor resolves the fiscal year a period belongs to.
// India runs April-March and the year is labeled by its April start
// (March 2026 belongs to fiscal year 2025); the US uses the calendar year.
func FiscalYearFor(country company.Country, month, year int) int {
	if country == company.CountryIndia && month <= 3 {
		return year - 1
	}
	return year
}

// FiscalYearPeriods lists the (month, year) pairs making up a fiscal year,
// in order, for range queries.
func FiscalYearPeriods(country company.Country, fiscalYear int) []Period {
	periods := make([]Period, 0, 12)
	if country == company.CountryIndia {
		for m := 4; m <= 12; m++ {
			periods = append(periods, Period{Month: m, Year: fiscalYear})
		}
		for m := 1; m <= 3; m++ {
			periods = append(periods, Period{Month: m, Year: fiscalYear + 1})
		}
		return periods
	}
	for m := 1; m <= 12; m++ {
		periods = append(periods, Period{Month: m, Year: fiscalYear})
	}
	return periods
}

// Period identifies one payroll cycle.
type Period struct {
	Month int
	Year  int
}

// QuarterPeriods returns the three periods of quarter q (1-4) of a
// calendar year. Statutory quarterly filings aggregate across them.
func QuarterPeriods(q, year int) []Period {
	first := (q-1)*3 + 1
	return []Period{
		{Month: first, Year: year},
		{Month: first + 1, Year: year},
		{Month: first + 2, Year: year},
	}
}

// DaysInPeriod returns the number of calendar days in a period.
func DaysInPeriod(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CompaniesDueToday selects the companies whose auto-payroll day matches
// today. A configured day past the end of the month fires on the month's
// last day, so a day-31 schedule still runs in February. Pure: the caller
// owns the clock and all I/O.
func CompaniesDueToday(companies []company.Company, today time.Time) []company.Company {
	lastDay := DaysInPeriod(int(today.Month()), today.Year())

	var due []company.Company
	for _, c := range companies {
		if !c.AutoPayrollEnabled {
			continue
		}
		day := c.AutoPayrollDay
		if day > lastDay {
			day = lastDay
		}
		if day == today.Day() {
			due = append(due, c)
		}
	}
	return due
}
