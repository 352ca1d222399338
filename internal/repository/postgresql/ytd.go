package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ytdRepository struct {
	db *database.DB
}

func NewYTDRepository(db *database.DB) payroll.YTDRepository {
	return &ytdRepository{db: db}
}

const ytdColumns = `
	id, company_id, employee_id, fiscal_year, gross_earnings, deductions, created_at, updated_at`

func scanYTD(row pgx.Row) (payroll.YTD, error) {
	var y payroll.YTD
	var deductionsBytes []byte

	err := row.Scan(
		&y.ID, &y.CompanyID, &y.EmployeeID, &y.FiscalYear,
		&y.GrossEarnings, &deductionsBytes, &y.CreatedAt, &y.UpdatedAt,
	)
	if err != nil {
		return payroll.YTD{}, err
	}
	_ = json.Unmarshal(deductionsBytes, &y.Deductions)

	return y, nil
}

func (r *ytdRepository) get(ctx context.Context, companyID, employeeID string, fiscalYear int, forUpdate bool) (payroll.YTD, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + ytdColumns + `
		FROM payroll_ytd
		WHERE company_id = $1 AND employee_id = $2 AND fiscal_year = $3
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	y, err := scanYTD(q.QueryRow(ctx, query, companyID, employeeID, fiscalYear))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.YTD{}, payroll.ErrYTDNotFound
		}
		return payroll.YTD{}, fmt.Errorf("failed to get ytd totals: %w", err)
	}

	return y, nil
}

func (r *ytdRepository) Get(ctx context.Context, companyID, employeeID string, fiscalYear int) (payroll.YTD, error) {
	return r.get(ctx, companyID, employeeID, fiscalYear, false)
}

// GetForUpdate row-locks the aggregate; only meaningful inside a
// transaction carried on ctx.
func (r *ytdRepository) GetForUpdate(ctx context.Context, companyID, employeeID string, fiscalYear int) (payroll.YTD, error) {
	return r.get(ctx, companyID, employeeID, fiscalYear, true)
}

func (r *ytdRepository) Create(ctx context.Context, ytd payroll.YTD) (payroll.YTD, error) {
	q := GetQuerier(ctx, r.db)

	deductionsJSON, _ := json.Marshal(ytd.Deductions)

	query := `
		INSERT INTO payroll_ytd (id, company_id, employee_id, fiscal_year, gross_earnings, deductions)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + ytdColumns

	y, err := scanYTD(q.QueryRow(ctx, query,
		uuid.NewString(), ytd.CompanyID, ytd.EmployeeID, ytd.FiscalYear, ytd.GrossEarnings, deductionsJSON,
	))
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_ytd") {
			return payroll.YTD{}, fmt.Errorf("ytd totals already exist: %w", err)
		}
		return payroll.YTD{}, fmt.Errorf("failed to create ytd totals: %w", err)
	}

	return y, nil
}

func (r *ytdRepository) Save(ctx context.Context, ytd payroll.YTD) error {
	q := GetQuerier(ctx, r.db)

	deductionsJSON, _ := json.Marshal(ytd.Deductions)

	query := `
		UPDATE payroll_ytd
		SET gross_earnings = $2, deductions = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, ytd.ID, ytd.GrossEarnings, deductionsJSON).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.ErrYTDNotFound
		}
		return fmt.Errorf("failed to save ytd totals: %w", err)
	}

	return nil
}

func (r *ytdRepository) ListByFiscalYear(ctx context.Context, companyID string, fiscalYear int) ([]payroll.YTD, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + ytdColumns + `
		FROM payroll_ytd
		WHERE company_id = $1 AND fiscal_year = $2
		ORDER BY employee_id
	`

	rows, err := q.Query(ctx, query, companyID, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list ytd totals: %w", err)
	}
	defer rows.Close()

	var totals []payroll.YTD
	for rows.Next() {
		y, err := scanYTD(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ytd totals: %w", err)
		}
		totals = append(totals, y)
	}

	return totals, nil
}
