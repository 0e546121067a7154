package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	registry "factory-ops/internal/registry/domain"
)

// ToolRepository is a Postgres repository for the master tool registry.
type ToolRepository struct {
	db *sql.DB
}

// NewToolRepository constructs a repository.
func NewToolRepository(db *sql.DB) *ToolRepository {
	return &ToolRepository{db: db}
}

// Create inserts a registry entry.
func (r *ToolRepository) Create(ctx context.Context, tool *registry.Tool) error {
	if r == nil || r.db == nil {
		return errors.New("tool repo: nil db")
	}
	if tool == nil {
		return errors.New("tool repo: nil tool")
	}
	if err := tool.Validate(); err != nil {
		return err
	}
	if tool.Status == "" {
		tool.Status = registry.StatusActive
	}
	if tool.CreatedAt.IsZero() {
		tool.CreatedAt = time.Now().UTC()
	}
	if tool.UpdatedAt.IsZero() {
		tool.UpdatedAt = tool.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO master_tools (
	tool_id, tool_name, holder_name, atc_pocket_no, tool_room_no,
	tool_life_threshold, status, supervisor_email, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5,
	$6, $7, $8, $9, $10
)`, tool.ToolID, tool.ToolName, tool.HolderName, tool.ATCPocketNo, tool.ToolRoomNo,
		tool.LifeThreshold, tool.Status, tool.SupervisorEmail, tool.CreatedAt, tool.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return registry.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByToolID loads a registry entry, or nil.
func (r *ToolRepository) GetByToolID(ctx context.Context, toolID int) (*registry.Tool, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tool repo: nil db")
	}
	if toolID <= 0 {
		return nil, errors.New("tool repo: invalid query")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT tool_id, tool_name, holder_name, atc_pocket_no, tool_room_no,
	tool_life_threshold, status, supervisor_email, created_at, updated_at
FROM master_tools
WHERE tool_id = $1
LIMIT 1`, toolID)
	var tool registry.Tool
	if err := scanTool(row.Scan, &tool); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tool, nil
}

// List returns the registry ordered by tool id.
func (r *ToolRepository) List(ctx context.Context) ([]registry.Tool, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tool repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT tool_id, tool_name, holder_name, atc_pocket_no, tool_room_no,
	tool_life_threshold, status, supervisor_email, created_at, updated_at
FROM master_tools
ORDER BY tool_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []registry.Tool
	for rows.Next() {
		var tool registry.Tool
		if err := scanTool(rows.Scan, &tool); err != nil {
			return nil, err
		}
		result = append(result, tool)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update replaces the mutable fields of a registry entry.
func (r *ToolRepository) Update(ctx context.Context, tool *registry.Tool) error {
	if r == nil || r.db == nil {
		return errors.New("tool repo: nil db")
	}
	if tool == nil {
		return errors.New("tool repo: nil tool")
	}
	if err := tool.Validate(); err != nil {
		return err
	}
	tool.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE master_tools
SET tool_name = $2, holder_name = $3, atc_pocket_no = $4, tool_room_no = $5,
	tool_life_threshold = $6, status = $7, supervisor_email = $8, updated_at = $9
WHERE tool_id = $1`,
		tool.ToolID, tool.ToolName, tool.HolderName, tool.ATCPocketNo, tool.ToolRoomNo,
		tool.LifeThreshold, tool.Status, tool.SupervisorEmail, tool.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res, registry.ErrNotFound)
}

// UpdateStatus sets only the lifecycle status.
func (r *ToolRepository) UpdateStatus(ctx context.Context, toolID int, status string, updatedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("tool repo: nil db")
	}
	if !registry.ValidStatus(status) {
		return errors.New("tool repo: invalid status")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE master_tools
SET status = $2, updated_at = $3
WHERE tool_id = $1`, toolID, status, updatedAt.UTC())
	if err != nil {
		return err
	}
	return requireRow(res, registry.ErrNotFound)
}

// Delete removes a registry entry.
func (r *ToolRepository) Delete(ctx context.Context, toolID int) error {
	if r == nil || r.db == nil {
		return errors.New("tool repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM master_tools WHERE tool_id = $1`, toolID)
	if err != nil {
		return err
	}
	return requireRow(res, registry.ErrNotFound)
}

func scanTool(scan func(dest ...any) error, tool *registry.Tool) error {
	if err := scan(
		&tool.ToolID,
		&tool.ToolName,
		&tool.HolderName,
		&tool.ATCPocketNo,
		&tool.ToolRoomNo,
		&tool.LifeThreshold,
		&tool.Status,
		&tool.SupervisorEmail,
		&tool.CreatedAt,
		&tool.UpdatedAt,
	); err != nil {
		return err
	}
	tool.CreatedAt = tool.CreatedAt.UTC()
	tool.UpdatedAt = tool.UpdatedAt.UTC()
	return nil
}

func requireRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return missing
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
