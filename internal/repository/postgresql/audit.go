package postgresql

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/google/uuid"
)

type auditSink struct {
	db     *database.DB
	logger *slog.Logger
}

func NewAuditSink(db *database.DB, logger *slog.Logger) audit.Sink {
	return &auditSink{db: db, logger: logger}
}

// Record inserts the entry on the pool, never on a caller's transaction:
// a rolled-back mutation should still leave its attempt in the trail,
// and an audit failure must never roll back the mutation.
func (s *auditSink) Record(ctx context.Context, entry audit.Entry) {
	beforeJSON, _ := json.Marshal(entry.Before)
	afterJSON, _ := json.Marshal(entry.After)

	query := `
		INSERT INTO audit_entries (id, actor, action, resource, resource_id, before, after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Pool.Exec(ctx, query,
		uuid.NewString(), entry.Actor, entry.Action, entry.Resource, entry.ResourceID, beforeJSON, afterJSON,
	)
	if err != nil {
		s.logger.Error("failed to record audit entry",
			"action", entry.Action,
			"resource", entry.Resource,
			"resource_id", entry.ResourceID,
			"error", err,
		)
	}
}
