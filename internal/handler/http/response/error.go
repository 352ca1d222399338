package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/crypto"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/cmlabs-hris/payroll-engine-go/internal/service/report"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Payroll record errors
	case errors.Is(err, payroll.ErrRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrRecordAlreadyExists):
		Conflict(w, "Payroll record already exists for this period")
	case errors.Is(err, payroll.ErrRecordAlreadyPaid):
		Conflict(w, "Payroll record is already paid")
	case errors.Is(err, payroll.ErrRecordNotDraft):
		Conflict(w, "Payroll record is not in draft status")
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Invalid payroll period", nil)
	case errors.Is(err, payroll.ErrEmployeeNotEligible):
		BadRequest(w, "Employee is not eligible for payroll", nil)

	// Batch errors
	case errors.Is(err, payroll.ErrBatchNotFound):
		NotFound(w, "Payroll batch not found")
	case errors.Is(err, payroll.ErrBatchAlreadyExists):
		Conflict(w, "Payroll batch already exists for this period")

	// YTD errors
	case errors.Is(err, payroll.ErrYTDNotFound):
		NotFound(w, "Year-to-date totals not found")

	// Directory errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrNoSalaryStructure):
		BadRequest(w, "Employee has no salary structure assigned", nil)
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")

	// Report errors
	case errors.Is(err, report.ErrUnsupportedJurisdiction):
		BadRequest(w, "Report is not available for this company's jurisdiction", nil)
	case errors.Is(err, report.ErrInvalidQuarter):
		BadRequest(w, "Quarter must be between 1 and 4", nil)

	// Crypto errors
	case errors.Is(err, crypto.ErrDecryptFailed):
		InternalServerError(w, "Stored field could not be decrypted")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
