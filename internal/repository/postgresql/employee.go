package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.Repository {
	return &employeeRepository{db: db}
}

const employeeColumns = `
	e.id, e.company_id, e.employee_code, e.full_name, e.email, e.employment_status,
	e.resident_state, e.pan, e.uan, e.bank_name, e.bank_account_number, e.routing_code,
	e.created_at, e.updated_at`

const salaryStructureColumns = `
	s.id, s.employee_id, s.basic_salary, s.housing_allowance, s.special_allowance, s.other_allowances,
	s.pf_employee, s.pf_employer, s.esi_employee, s.esi_employer, s.tds, s.professional_tax,
	s.federal_tax, s.state_tax, s.social_security_employee, s.social_security_employer,
	s.medicare_employee, s.medicare_employer, s.effective_date, s.created_at, s.updated_at`

// scanEmployeeWithStructure reads an employees row left-joined to its
// current salary structure. Every structure column is nullable in the
// join, so they scan into nullable holders first.
func scanEmployeeWithStructure(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	var structureID, structureEmployeeID *string
	var effectiveDate, structureCreatedAt, structureUpdatedAt *time.Time
	amounts := make([]decimal.NullDecimal, 16)

	dest := []interface{}{
		&e.ID, &e.CompanyID, &e.EmployeeCode, &e.FullName, &e.Email, &e.EmploymentStatus,
		&e.ResidentState, &e.PAN, &e.UAN, &e.BankName, &e.BankAccountNumber, &e.RoutingCode,
		&e.CreatedAt, &e.UpdatedAt,
		&structureID, &structureEmployeeID,
	}
	for i := range amounts {
		dest = append(dest, &amounts[i])
	}
	dest = append(dest, &effectiveDate, &structureCreatedAt, &structureUpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return employee.Employee{}, err
	}

	if structureID != nil {
		e.SalaryStructure = &employee.SalaryStructure{
			ID:                     *structureID,
			EmployeeID:             *structureEmployeeID,
			BasicSalary:            amounts[0].Decimal,
			HousingAllowance:       amounts[1].Decimal,
			SpecialAllowance:       amounts[2].Decimal,
			OtherAllowances:        amounts[3].Decimal,
			PFEmployee:             amounts[4].Decimal,
			PFEmployer:             amounts[5].Decimal,
			ESIEmployee:            amounts[6].Decimal,
			ESIEmployer:            amounts[7].Decimal,
			TDS:                    amounts[8].Decimal,
			ProfessionalTax:        amounts[9].Decimal,
			FederalTax:             amounts[10].Decimal,
			StateTax:               amounts[11].Decimal,
			SocialSecurityEmployee: amounts[12].Decimal,
			SocialSecurityEmployer: amounts[13].Decimal,
			MedicareEmployee:       amounts[14].Decimal,
			MedicareEmployer:       amounts[15].Decimal,
			EffectiveDate:          *effectiveDate,
			CreatedAt:              *structureCreatedAt,
			UpdatedAt:              *structureUpdatedAt,
		}
	}

	return e, nil
}

// structureJoin picks each employee's most recent effective structure.
const structureJoin = `
	LEFT JOIN LATERAL (
		SELECT ` + salaryStructureColumns + `
		FROM salary_structures s
		WHERE s.employee_id = e.id AND s.effective_date <= CURRENT_DATE
		ORDER BY s.effective_date DESC
		LIMIT 1
	) s ON true`

func (r *employeeRepository) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `, s.*
		FROM employees e` + structureJoin + `
		WHERE e.id = $1 AND e.company_id = $2 AND e.deleted_at IS NULL
	`

	e, err := scanEmployeeWithStructure(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return e, nil
}

func (r *employeeRepository) ListActiveWithSalaryStructure(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `, s.*
		FROM employees e` + structureJoin + `
		WHERE e.company_id = $1 AND e.employment_status = 'active'
			AND e.deleted_at IS NULL AND s.id IS NOT NULL
		ORDER BY e.full_name
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployeeWithStructure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	return employees, nil
}

func (r *employeeRepository) ListByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + employeeColumns + `, s.*
		FROM employees e` + structureJoin + `
		WHERE e.company_id = $1 AND e.deleted_at IS NULL
		ORDER BY e.full_name
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployeeWithStructure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	return employees, nil
}
