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

type batchRepository struct {
	db *database.DB
}

func NewBatchRepository(db *database.DB) payroll.BatchRepository {
	return &batchRepository{db: db}
}

const batchColumns = `
	id, company_id, period_month, period_year, total_count, processed_count,
	status, created_by, failures, created_at, completed_at`

func scanBatch(row pgx.Row) (payroll.Batch, error) {
	var b payroll.Batch
	var failuresBytes []byte

	err := row.Scan(
		&b.ID, &b.CompanyID, &b.PeriodMonth, &b.PeriodYear, &b.TotalCount, &b.ProcessedCount,
		&b.Status, &b.CreatedBy, &failuresBytes, &b.CreatedAt, &b.CompletedAt,
	)
	if err != nil {
		return payroll.Batch{}, err
	}
	if len(failuresBytes) > 0 {
		_ = json.Unmarshal(failuresBytes, &b.Failures)
	}

	return b, nil
}

func (r *batchRepository) Create(ctx context.Context, batch payroll.Batch) (payroll.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_batches (id, company_id, period_month, period_year, total_count, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + batchColumns

	b, err := scanBatch(q.QueryRow(ctx, query,
		uuid.NewString(), batch.CompanyID, batch.PeriodMonth, batch.PeriodYear, batch.TotalCount, batch.Status, batch.CreatedBy,
	))
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_batch_period") {
			return payroll.Batch{}, payroll.ErrBatchAlreadyExists
		}
		return payroll.Batch{}, fmt.Errorf("failed to create payroll batch: %w", err)
	}

	return b, nil
}

func (r *batchRepository) GetByID(ctx context.Context, id string, companyID string) (payroll.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + batchColumns + `
		FROM payroll_batches
		WHERE id = $1 AND company_id = $2
	`

	b, err := scanBatch(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Batch{}, payroll.ErrBatchNotFound
		}
		return payroll.Batch{}, fmt.Errorf("failed to get payroll batch: %w", err)
	}

	return b, nil
}

func (r *batchRepository) GetByPeriod(ctx context.Context, companyID string, month, year int) (payroll.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + batchColumns + `
		FROM payroll_batches
		WHERE company_id = $1 AND period_month = $2 AND period_year = $3
	`

	b, err := scanBatch(q.QueryRow(ctx, query, companyID, month, year))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Batch{}, payroll.ErrBatchNotFound
		}
		return payroll.Batch{}, fmt.Errorf("failed to get payroll batch: %w", err)
	}

	return b, nil
}

func (r *batchRepository) Finalize(ctx context.Context, id string, processedCount int, status payroll.BatchStatus, failures []payroll.BatchFailure, completedAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	failuresJSON, _ := json.Marshal(failures)

	query := `
		UPDATE payroll_batches
		SET processed_count = $2, status = $3, failures = $4, completed_at = $5
		WHERE id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, processedCount, status, failuresJSON, completedAt).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.ErrBatchNotFound
		}
		return fmt.Errorf("failed to finalize payroll batch: %w", err)
	}

	return nil
}
