package employee

import "context"

// Repository is the read-only employee directory boundary.
// All methods carry companyID to prevent cross-company data access.
type Repository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	// ListActiveWithSalaryStructure returns the batch-eligible population:
	// active employees that have a salary structure assigned.
	ListActiveWithSalaryStructure(ctx context.Context, companyID string) ([]Employee, error)
	ListByCompany(ctx context.Context, companyID string) ([]Employee, error)
}
