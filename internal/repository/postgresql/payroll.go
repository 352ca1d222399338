package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type recordRepository struct {
	db *database.DB
}

func NewRecordRepository(db *database.DB) payroll.RecordRepository {
	return &recordRepository{db: db}
}

const recordColumns = `
	pr.id, pr.employee_id, pr.company_id, pr.period_month, pr.period_year, pr.pay_date, pr.is_bonus,
	pr.basic_salary, pr.housing_allowance, pr.special_allowance, pr.other_allowances,
	pr.gross_salary, pr.net_salary, pr.bank_account_number, pr.routing_code,
	pr.deductions, pr.days_worked, pr.days_in_period, pr.leave_days, pr.absent_days, pr.overtime_hours,
	pr.status, pr.batch_id, pr.paid_at, pr.notes, pr.created_at, pr.updated_at`

// scanRecord reads one payroll_records row. Deductions travel as a JSONB
// document; pass withEmployee when the query joins the employees table.
func scanRecord(row pgx.Row, withEmployee bool) (payroll.Record, error) {
	var rec payroll.Record
	var deductionsBytes []byte

	dest := []interface{}{
		&rec.ID, &rec.EmployeeID, &rec.CompanyID, &rec.PeriodMonth, &rec.PeriodYear, &rec.PayDate, &rec.IsBonus,
		&rec.BasicSalary, &rec.HousingAllowance, &rec.SpecialAllowance, &rec.OtherAllowances,
		&rec.GrossSalary, &rec.NetSalary, &rec.BankAccountNumber, &rec.RoutingCode,
		&deductionsBytes, &rec.Attendance.DaysWorked, &rec.Attendance.DaysInPeriod,
		&rec.Attendance.LeaveDays, &rec.Attendance.AbsentDays, &rec.Attendance.OvertimeHours,
		&rec.Status, &rec.BatchID, &rec.PaidAt, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt,
	}
	if withEmployee {
		dest = append(dest, &rec.EmployeeName, &rec.EmployeeCode)
	}

	if err := row.Scan(dest...); err != nil {
		return payroll.Record{}, err
	}
	_ = json.Unmarshal(deductionsBytes, &rec.Deductions)

	return rec, nil
}

func (r *recordRepository) Create(ctx context.Context, record payroll.Record) (payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	deductionsJSON, _ := json.Marshal(record.Deductions)

	query := `
		INSERT INTO payroll_records (
			id, employee_id, company_id, period_month, period_year, pay_date, is_bonus,
			basic_salary, housing_allowance, special_allowance, other_allowances,
			gross_salary, net_salary, bank_account_number, routing_code,
			deductions, days_worked, days_in_period, leave_days, absent_days, overtime_hours,
			status, batch_id, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING ` + strings.ReplaceAll(recordColumns, "pr.", "")

	rec, err := scanRecord(q.QueryRow(ctx, query,
		uuid.NewString(), record.EmployeeID, record.CompanyID, record.PeriodMonth, record.PeriodYear, record.PayDate, record.IsBonus,
		record.BasicSalary, record.HousingAllowance, record.SpecialAllowance, record.OtherAllowances,
		record.GrossSalary, record.NetSalary, record.BankAccountNumber, record.RoutingCode,
		deductionsJSON, record.Attendance.DaysWorked, record.Attendance.DaysInPeriod,
		record.Attendance.LeaveDays, record.Attendance.AbsentDays, record.Attendance.OvertimeHours,
		record.Status, record.BatchID, record.Notes,
	), false)
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_record_period") {
			return payroll.Record{}, payroll.ErrRecordAlreadyExists
		}
		return payroll.Record{}, fmt.Errorf("failed to create payroll record: %w", err)
	}

	return rec, nil
}

func (r *recordRepository) GetByID(ctx context.Context, id string, companyID string) (payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `,
			e.full_name as employee_name, e.employee_code
		FROM payroll_records pr
		JOIN employees e ON pr.employee_id = e.id
		WHERE pr.id = $1 AND pr.company_id = $2
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, id, companyID), true)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Record{}, payroll.ErrRecordNotFound
		}
		return payroll.Record{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return rec, nil
}

func (r *recordRepository) GetByEmployeePeriod(ctx context.Context, companyID, employeeID string, month, year int) (payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `
		FROM payroll_records pr
		WHERE pr.company_id = $1 AND pr.employee_id = $2
			AND pr.period_month = $3 AND pr.period_year = $4 AND pr.is_bonus = false
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, companyID, employeeID, month, year), false)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Record{}, payroll.ErrRecordNotFound
		}
		return payroll.Record{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return rec, nil
}

func (r *recordRepository) List(ctx context.Context, companyID string, filter payroll.Filter) ([]payroll.Record, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `
		FROM payroll_records pr
		JOIN employees e ON pr.employee_id = e.id
		WHERE pr.company_id = $1
	`
	args := []interface{}{companyID}
	argIdx := 2

	if filter.PeriodMonth != nil {
		baseQuery += fmt.Sprintf(" AND pr.period_month = $%d", argIdx)
		args = append(args, *filter.PeriodMonth)
		argIdx++
	}
	if filter.PeriodYear != nil {
		baseQuery += fmt.Sprintf(" AND pr.period_year = $%d", argIdx)
		args = append(args, *filter.PeriodYear)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND pr.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.EmployeeID != nil {
		baseQuery += fmt.Sprintf(" AND pr.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	// Count query
	var totalCount int64
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	// Pagination
	filter.Normalize()
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`
		SELECT `+recordColumns+`,
			e.full_name as employee_name, e.employee_code
		%s
		ORDER BY pr.period_year DESC, pr.period_month DESC, e.full_name ASC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIdx, argIdx+1)

	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.Record
	for rows.Next() {
		rec, err := scanRecord(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}

	return records, totalCount, nil
}

func (r *recordRepository) ListForPeriods(ctx context.Context, companyID string, periods []payroll.Period, excludeBonus bool) ([]payroll.Record, error) {
	if len(periods) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	periodClauses := make([]string, 0, len(periods))
	args := []interface{}{companyID}
	argIdx := 2
	for _, p := range periods {
		periodClauses = append(periodClauses, fmt.Sprintf("(pr.period_month = $%d AND pr.period_year = $%d)", argIdx, argIdx+1))
		args = append(args, p.Month, p.Year)
		argIdx += 2
	}

	query := `
		SELECT ` + recordColumns + `,
			e.full_name as employee_name, e.employee_code
		FROM payroll_records pr
		JOIN employees e ON pr.employee_id = e.id
		WHERE pr.company_id = $1 AND (` + strings.Join(periodClauses, " OR ") + `)`
	if excludeBonus {
		query += " AND pr.is_bonus = false"
	}
	query += " ORDER BY pr.period_year, pr.period_month, e.full_name"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll records for periods: %w", err)
	}
	defer rows.Close()

	var records []payroll.Record
	for rows.Next() {
		rec, err := scanRecord(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func (r *recordRepository) ListByBatch(ctx context.Context, companyID, batchID string, statuses []payroll.Status) ([]payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `,
			e.full_name as employee_name, e.employee_code
		FROM payroll_records pr
		JOIN employees e ON pr.employee_id = e.id
		WHERE pr.company_id = $1 AND pr.batch_id = $2
	`
	args := []interface{}{companyID, batchID}
	if len(statuses) > 0 {
		query += " AND pr.status = ANY($3)"
		statusStrings := make([]string, len(statuses))
		for i, s := range statuses {
			statusStrings[i] = string(s)
		}
		args = append(args, statusStrings)
	}
	query += " ORDER BY e.full_name"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch records: %w", err)
	}
	defer rows.Close()

	var records []payroll.Record
	for rows.Next() {
		rec, err := scanRecord(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func (r *recordRepository) Save(ctx context.Context, record payroll.Record) error {
	q := GetQuerier(ctx, r.db)

	deductionsJSON, _ := json.Marshal(record.Deductions)

	// Paid records are immutable. The guard holds even when a payment
	// commits between the caller's read and this write.
	query := `
		UPDATE payroll_records SET
			pay_date = $3,
			basic_salary = $4, housing_allowance = $5, special_allowance = $6, other_allowances = $7,
			gross_salary = $8, net_salary = $9, bank_account_number = $10, routing_code = $11,
			deductions = $12, days_worked = $13, days_in_period = $14, leave_days = $15,
			absent_days = $16, overtime_hours = $17, notes = $18,
			updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status <> 'paid'
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query,
		record.ID, record.CompanyID, record.PayDate,
		record.BasicSalary, record.HousingAllowance, record.SpecialAllowance, record.OtherAllowances,
		record.GrossSalary, record.NetSalary, record.BankAccountNumber, record.RoutingCode,
		deductionsJSON, record.Attendance.DaysWorked, record.Attendance.DaysInPeriod,
		record.Attendance.LeaveDays, record.Attendance.AbsentDays, record.Attendance.OvertimeHours,
		record.Notes,
	).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return r.statusConflict(ctx, record.ID, record.CompanyID, payroll.ErrRecordNotFound)
		}
		return fmt.Errorf("failed to save payroll record: %w", err)
	}

	return nil
}

func (r *recordRepository) Process(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_records
		SET status = 'processed', updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status = 'draft'
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, companyID).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return r.statusConflict(ctx, id, companyID, payroll.ErrRecordNotDraft)
		}
		return fmt.Errorf("failed to process payroll record: %w", err)
	}

	return nil
}

func (r *recordRepository) MarkPaid(ctx context.Context, id string, companyID string, paidAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	// Any non-paid status may finalize; paid is terminal.
	query := `
		UPDATE payroll_records
		SET status = 'paid', paid_at = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status <> 'paid'
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, companyID, paidAt).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return r.statusConflict(ctx, id, companyID, payroll.ErrRecordAlreadyPaid)
		}
		return fmt.Errorf("failed to mark payroll record paid: %w", err)
	}

	return nil
}

func (r *recordRepository) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM payroll_records
		WHERE id = $1 AND company_id = $2 AND status = 'draft'
		RETURNING id
	`

	var deletedID string
	err := q.QueryRow(ctx, query, id, companyID).Scan(&deletedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return r.statusConflict(ctx, id, companyID, payroll.ErrRecordNotDraft)
		}
		return fmt.Errorf("failed to delete payroll record: %w", err)
	}

	return nil
}

// statusConflict distinguishes "no such record" from "record exists but is
// in the wrong state" after a guarded mutation matched zero rows.
func (r *recordRepository) statusConflict(ctx context.Context, id, companyID string, conflict error) error {
	q := GetQuerier(ctx, r.db)

	var status string
	err := q.QueryRow(ctx, `SELECT status FROM payroll_records WHERE id = $1 AND company_id = $2`, id, companyID).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.ErrRecordNotFound
		}
		return fmt.Errorf("failed to check payroll record status: %w", err)
	}
	if status == string(payroll.StatusPaid) {
		return payroll.ErrRecordAlreadyPaid
	}
	return conflict
}

func (r *recordRepository) AttendanceSummary(ctx context.Context, companyID string, month, year int, employeeIDs []string) ([]payroll.AttendanceSummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			employee_id,
			COUNT(*) FILTER (WHERE status = 'present') as days_worked,
			COUNT(*) FILTER (WHERE status = 'leave') as leave_days,
			COUNT(*) FILTER (WHERE status = 'absent') as absent_days,
			COALESCE(SUM(overtime_hours), 0) as overtime_hours
		FROM attendances
		WHERE company_id = $1
			AND EXTRACT(MONTH FROM date) = $2
			AND EXTRACT(YEAR FROM date) = $3
	`

	args := []interface{}{companyID, month, year}

	if len(employeeIDs) > 0 {
		query += ` AND employee_id = ANY($4)`
		args = append(args, employeeIDs)
	}

	query += ` GROUP BY employee_id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance summary: %w", err)
	}
	defer rows.Close()

	var summaries []payroll.AttendanceSummary
	for rows.Next() {
		var s payroll.AttendanceSummary
		if err := rows.Scan(
			&s.EmployeeID, &s.DaysWorked, &s.LeaveDays, &s.AbsentDays, &s.OvertimeHours,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, nil
}
