package postgres

import (
	"context"
	"database/sql"
	"errors"

	toollife "factory-ops/internal/toollife/domain"
)

// UsageLogRepository is a Postgres repository for the append-only usage ledger.
type UsageLogRepository struct {
	db *sql.DB
}

// NewUsageLogRepository constructs a repository.
func NewUsageLogRepository(db *sql.DB) *UsageLogRepository {
	return &UsageLogRepository{db: db}
}

// Append writes one ledger entry and fills in its assigned id.
func (r *UsageLogRepository) Append(ctx context.Context, event *toollife.UsageEvent) error {
	if r == nil || r.db == nil {
		return errors.New("usage log repo: nil db")
	}
	if event == nil {
		return errors.New("usage log repo: nil event")
	}
	row := r.db.QueryRowContext(ctx, `
INSERT INTO tool_usage_logs (
	tool_id, tool_name, component_id, no_of_holes, cutting_length,
	usage_score, cumulative_total_before, cumulative_total_after,
	tool_life_threshold, usage_percentage, remaining_life,
	alert_type, alert_triggered, operator_id, recorded_at
) VALUES (
	$1, $2, $3, $4, $5,
	$6, $7, $8,
	$9, $10, $11,
	$12, $13, $14, $15
)
RETURNING id`,
		event.ToolID, event.ToolName, event.ComponentID, event.HolesCount, event.CuttingLength,
		event.UsageScore, event.CumulativeBefore, event.CumulativeAfter,
		event.Threshold, event.UsagePercentage, event.RemainingLife,
		string(event.Tier), event.AlertTriggered, event.OperatorID, event.Timestamp.UTC())
	return row.Scan(&event.ID)
}

// LatestByTool returns the newest ledger entry for a tool, or nil.
func (r *UsageLogRepository) LatestByTool(ctx context.Context, toolID int) (*toollife.UsageEvent, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("usage log repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tool_id, tool_name, component_id, no_of_holes, cutting_length,
	usage_score, cumulative_total_before, cumulative_total_after,
	tool_life_threshold, usage_percentage, remaining_life,
	alert_type, alert_triggered, operator_id, recorded_at
FROM tool_usage_logs
WHERE tool_id = $1
ORDER BY recorded_at DESC, id DESC
LIMIT 1`, toolID)
	var event toollife.UsageEvent
	if err := scanUsageEvent(row.Scan, &event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// ListByTool returns a tool's full ledger, newest first.
func (r *UsageLogRepository) ListByTool(ctx context.Context, toolID int) ([]toollife.UsageEvent, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("usage log repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, tool_id, tool_name, component_id, no_of_holes, cutting_length,
	usage_score, cumulative_total_before, cumulative_total_after,
	tool_life_threshold, usage_percentage, remaining_life,
	alert_type, alert_triggered, operator_id, recorded_at
FROM tool_usage_logs
WHERE tool_id = $1
ORDER BY recorded_at DESC, id DESC`, toolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []toollife.UsageEvent
	for rows.Next() {
		var event toollife.UsageEvent
		if err := scanUsageEvent(rows.Scan, &event); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DistinctComponents returns the component ids that contributed wear to a
// tool, excluding maintenance-reset checkpoints.
func (r *UsageLogRepository) DistinctComponents(ctx context.Context, toolID int) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("usage log repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT component_id
FROM tool_usage_logs
WHERE tool_id = $1 AND component_id <> $2
ORDER BY component_id ASC`, toolID, toollife.ResetComponentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var component string
		if err := rows.Scan(&component); err != nil {
			return nil, err
		}
		result = append(result, component)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanUsageEvent(scan func(dest ...any) error, event *toollife.UsageEvent) error {
	var tier string
	if err := scan(
		&event.ID,
		&event.ToolID,
		&event.ToolName,
		&event.ComponentID,
		&event.HolesCount,
		&event.CuttingLength,
		&event.UsageScore,
		&event.CumulativeBefore,
		&event.CumulativeAfter,
		&event.Threshold,
		&event.UsagePercentage,
		&event.RemainingLife,
		&tier,
		&event.AlertTriggered,
		&event.OperatorID,
		&event.Timestamp,
	); err != nil {
		return err
	}
	event.Tier = toollife.Tier(tier)
	event.Timestamp = event.Timestamp.UTC()
	return nil
}
