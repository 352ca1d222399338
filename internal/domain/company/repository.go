package company

import "context"

// Repository is the read-only company directory the payroll engine
// consumes. Company CRUD lives outside this service.
type Repository interface {
	GetByID(ctx context.Context, id string) (Company, error)
	ListAutoPayroll(ctx context.Context) ([]Company, error)
}
