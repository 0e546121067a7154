package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	toollife "factory-ops/internal/toollife/domain"
)

// AlertRepository is a Postgres repository for threshold alerts.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository constructs a repository.
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts an alert.
func (r *AlertRepository) Create(ctx context.Context, alert *toollife.Alert) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	if alert == nil {
		return errors.New("alert repo: nil alert")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO tool_alerts (
	id, tool_id, tool_name, tool_life_threshold, cumulative_usage,
	alert_type, alert_severity, usage_percentage, remaining_life,
	components_used, supervisor_email, alert_status, alert_message,
	alert_description, created_date, sent_date, acknowledged_date
) VALUES (
	$1, $2, $3, $4, $5,
	$6, $7, $8, $9,
	$10, $11, $12, $13,
	$14, $15, $16, $17
)`,
		alert.ID, alert.ToolID, alert.ToolName, alert.Threshold, alert.CumulativeUsage,
		string(alert.Tier), alert.Severity, alert.UsagePercentage, alert.RemainingLife,
		strings.Join(alert.ComponentsUsed, ","), alert.SupervisorEmail, alert.Status, alert.Message,
		alert.Description, alert.CreatedAt.UTC(), nullTime(alert.SentAt), nullTime(alert.AcknowledgedAt))
	return err
}

// GetByID loads an alert, or nil.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*toollife.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, alertSelect+`
WHERE id = $1
LIMIT 1`, id)
	var alert toollife.Alert
	if err := scanAlert(row.Scan, &alert); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

// FindOpenByToolAndTier returns the open alert for a (tool, tier) pair, or nil.
func (r *AlertRepository) FindOpenByToolAndTier(ctx context.Context, toolID int, tier toollife.Tier) (*toollife.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, alertSelect+`
WHERE tool_id = $1 AND alert_type = $2 AND alert_status IN ('PENDING', 'SENT')
ORDER BY created_date DESC
LIMIT 1`, toolID, string(tier))
	var alert toollife.Alert
	if err := scanAlert(row.Scan, &alert); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

// ListOpen returns all open alerts, newest first.
func (r *AlertRepository) ListOpen(ctx context.Context) ([]toollife.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, alertSelect+`
WHERE alert_status IN ('PENDING', 'SENT')
ORDER BY created_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []toollife.Alert
	for rows.Next() {
		var alert toollife.Alert
		if err := scanAlert(rows.Scan, &alert); err != nil {
			return nil, err
		}
		result = append(result, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkSent transitions an open alert to SENT. Acknowledged alerts stay closed.
func (r *AlertRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE tool_alerts
SET alert_status = 'SENT', sent_date = $2
WHERE id = $1 AND alert_status IN ('PENDING', 'SENT')`, id, sentAt.UTC())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var status string
		err := r.db.QueryRowContext(ctx, `
SELECT alert_status FROM tool_alerts WHERE id = $1`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return toollife.ErrAlertNotFound
		}
		if err != nil {
			return err
		}
		return toollife.ErrAlertNotOpen
	}
	return nil
}

// AcknowledgeOpenByTool closes all open alerts for a tool.
func (r *AlertRepository) AcknowledgeOpenByTool(ctx context.Context, toolID int, ackedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE tool_alerts
SET alert_status = 'ACKNOWLEDGED', acknowledged_date = $2
WHERE tool_id = $1 AND alert_status IN ('PENDING', 'SENT')`, toolID, ackedAt.UTC())
	return err
}

const alertSelect = `
SELECT id, tool_id, tool_name, tool_life_threshold, cumulative_usage,
	alert_type, alert_severity, usage_percentage, remaining_life,
	components_used, supervisor_email, alert_status, alert_message,
	alert_description, created_date, sent_date, acknowledged_date
FROM tool_alerts`

func scanAlert(scan func(dest ...any) error, alert *toollife.Alert) error {
	var tier, components string
	var sentAt, ackedAt sql.NullTime
	if err := scan(
		&alert.ID,
		&alert.ToolID,
		&alert.ToolName,
		&alert.Threshold,
		&alert.CumulativeUsage,
		&tier,
		&alert.Severity,
		&alert.UsagePercentage,
		&alert.RemainingLife,
		&components,
		&alert.SupervisorEmail,
		&alert.Status,
		&alert.Message,
		&alert.Description,
		&alert.CreatedAt,
		&sentAt,
		&ackedAt,
	); err != nil {
		return err
	}
	alert.Tier = toollife.Tier(tier)
	if components != "" {
		alert.ComponentsUsed = strings.Split(components, ",")
	}
	alert.CreatedAt = alert.CreatedAt.UTC()
	if sentAt.Valid {
		alert.SentAt = sentAt.Time.UTC()
	}
	if ackedAt.Valid {
		alert.AcknowledgedAt = ackedAt.Time.UTC()
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
