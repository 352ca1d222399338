package payroll

import "errors"

var (
	ErrRecordNotFound      = errors.New("payroll record not found")
	ErrRecordAlreadyExists = errors.New("payroll record already exists for this period")
	ErrRecordAlreadyPaid   = errors.New("payroll record already paid, cannot modify")
	ErrRecordNotDraft      = errors.New("payroll record is not in draft status")
	ErrBatchNotFound       = errors.New("payroll batch not found")
	ErrBatchAlreadyExists  = errors.New("payroll batch already exists for this period")
	ErrYTDNotFound         = errors.New("year-to-date totals not found")
	ErrInvalidPeriod       = errors.New("invalid payroll period")
	ErrEmployeeNotEligible = errors.New("employee is not eligible for payroll")
)
