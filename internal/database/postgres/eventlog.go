package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caseforge/caseforge/internal/eventlog"
)

type auditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a PostgreSQL-backed audit log repository
func NewAuditRepository(db *pgxpool.Pool) eventlog.Repository {
	return &auditRepository{db: db}
}

// LogEvent stores an event in the database
func (r *auditRepository) LogEvent(ctx context.Context, eventType string, userID *string, payload map[string]interface{}) error {
	query := `
		INSERT INTO audit_events (event_type, user_id, payload)
		VALUES ($1, $2, $3)
	`

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, eventType, userID, payloadJSON)
	return err
}

// GetEvents retrieves events based on filter criteria
func (r *auditRepository) GetEvents(ctx context.Context, filter eventlog.Filter) ([]eventlog.Entry, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, event_type, user_id, payload, created_at
		FROM audit_events
		WHERE 1=1`)

	args := []interface{}{}
	argNum := 1

	if filter.UserID != nil {
		fmt.Fprintf(&queryBuilder, " AND user_id = $%d", argNum)
		args = append(args, *filter.UserID)
		argNum++
	}

	if filter.EventType != nil {
		fmt.Fprintf(&queryBuilder, " AND event_type = $%d", argNum)
		args = append(args, *filter.EventType)
		argNum++
	}

	if filter.Since != nil {
		fmt.Fprintf(&queryBuilder, " AND created_at >= $%d", argNum)
		args = append(args, *filter.Since)
		argNum++
	}

	if filter.Until != nil {
		fmt.Fprintf(&queryBuilder, " AND created_at <= $%d", argNum)
		args = append(args, *filter.Until)
		argNum++
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	if filter.Limit > 0 {
		fmt.Fprintf(&queryBuilder, " LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// GetEventsByUser retrieves events for a specific user
func (r *auditRepository) GetEventsByUser(ctx context.Context, userID string, limit int) ([]eventlog.Entry, error) {
	query := `
		SELECT id, event_type, user_id, payload, created_at
		FROM audit_events
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// GetEventsByType retrieves events of a specific type
func (r *auditRepository) GetEventsByType(ctx context.Context, eventType string, limit int) ([]eventlog.Entry, error) {
	query := `
		SELECT id, event_type, user_id, payload, created_at
		FROM audit_events
		WHERE event_type = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, eventType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// CleanupOldEvents removes events older than the specified number of days
func (r *auditRepository) CleanupOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	query := `
		DELETE FROM audit_events
		WHERE created_at < NOW() - INTERVAL '1 day' * $1
	`

	result, err := r.db.Exec(ctx, query, retentionDays)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

// scanEntries scans rows into Entry structs
func (r *auditRepository) scanEntries(rows pgx.Rows) ([]eventlog.Entry, error) {
	var entries []eventlog.Entry

	for rows.Next() {
		var entry eventlog.Entry
		var payloadJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.EventType,
			&entry.UserID,
			&payloadJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(payloadJSON, &entry.Payload); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
