package payroll

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
)

// logNotifier publishes batch completion to the structured log. It is
// the default sink; messaging integrations implement the same interface.
type logNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) payroll.BatchNotifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) BatchCompleted(ctx context.Context, summary payroll.BatchSummary) {
	n.logger.InfoContext(ctx, "payroll batch completed",
		"batch_id", summary.BatchID,
		"company_id", summary.CompanyID,
		"period_month", summary.PeriodMonth,
		"period_year", summary.PeriodYear,
		"total_count", summary.TotalCount,
		"processed_count", summary.ProcessedCount,
		"failure_count", len(summary.Failures),
		"status", summary.Status,
	)
}
