package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	stock "factory-ops/internal/stock/domain"
)

// StockRepository is a Postgres repository for spare-part stock records.
type StockRepository struct {
	db *sql.DB
}

// NewStockRepository constructs a repository.
func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

// Create inserts a stock record.
func (r *StockRepository) Create(ctx context.Context, record *stock.ToolStock) error {
	if r == nil || r.db == nil {
		return errors.New("stock repo: nil db")
	}
	if record == nil {
		return errors.New("stock repo: nil record")
	}
	if err := record.Validate(); err != nil {
		return err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO tool_stocks (
	id, tool_name, atc_pocket_no, tool_room_no, current_stock,
	minimum_stock, maximum_stock, reorder_level, reorder_quantity,
	unit, status, location, cost_per_unit, notes, last_updated_by,
	last_restock_date, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5,
	$6, $7, $8, $9,
	$10, $11, $12, $13, $14, $15,
	$16, $17, $18
)`,
		record.ID, record.ToolName, record.ATCPocketNo, record.ToolRoomNo, record.CurrentStock,
		record.MinimumStock, record.MaximumStock, record.ReorderLevel, record.ReorderQuantity,
		record.Unit, record.Status, record.Location, record.CostPerUnit, record.Notes, record.UpdatedBy,
		nullTime(record.LastRestockAt), record.CreatedAt, record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return stock.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID loads a stock record, or nil.
func (r *StockRepository) GetByID(ctx context.Context, id string) (*stock.ToolStock, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("stock repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, stockSelect+`
WHERE id = $1
LIMIT 1`, id)
	var record stock.ToolStock
	if err := scanStock(row.Scan, &record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// List returns all stock records sorted by tool name then pocket.
func (r *StockRepository) List(ctx context.Context) ([]stock.ToolStock, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("stock repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, stockSelect+`
ORDER BY tool_name ASC, atc_pocket_no ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStock(rows)
}

// Update replaces a stock record.
func (r *StockRepository) Update(ctx context.Context, record *stock.ToolStock) error {
	if r == nil || r.db == nil {
		return errors.New("stock repo: nil db")
	}
	if record == nil {
		return errors.New("stock repo: nil record")
	}
	if err := record.Validate(); err != nil {
		return err
	}
	record.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE tool_stocks
SET tool_name = $2, atc_pocket_no = $3, tool_room_no = $4, current_stock = $5,
	minimum_stock = $6, maximum_stock = $7, reorder_level = $8, reorder_quantity = $9,
	unit = $10, status = $11, location = $12, cost_per_unit = $13, notes = $14,
	last_updated_by = $15, last_restock_date = $16, updated_at = $17
WHERE id = $1`,
		record.ID, record.ToolName, record.ATCPocketNo, record.ToolRoomNo, record.CurrentStock,
		record.MinimumStock, record.MaximumStock, record.ReorderLevel, record.ReorderQuantity,
		record.Unit, record.Status, record.Location, record.CostPerUnit, record.Notes,
		record.UpdatedBy, nullTime(record.LastRestockAt), record.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return stock.ErrNotFound
	}
	return nil
}

// Delete removes a stock record.
func (r *StockRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("stock repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM tool_stocks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return stock.ErrNotFound
	}
	return nil
}

const stockSelect = `
SELECT id, tool_name, atc_pocket_no, tool_room_no, current_stock,
	minimum_stock, maximum_stock, reorder_level, reorder_quantity,
	unit, status, location, cost_per_unit, notes, last_updated_by,
	last_restock_date, created_at, updated_at
FROM tool_stocks`

func collectStock(rows *sql.Rows) ([]stock.ToolStock, error) {
	var result []stock.ToolStock
	for rows.Next() {
		var record stock.ToolStock
		if err := scanStock(rows.Scan, &record); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanStock(scan func(dest ...any) error, record *stock.ToolStock) error {
	var restockAt sql.NullTime
	if err := scan(
		&record.ID,
		&record.ToolName,
		&record.ATCPocketNo,
		&record.ToolRoomNo,
		&record.CurrentStock,
		&record.MinimumStock,
		&record.MaximumStock,
		&record.ReorderLevel,
		&record.ReorderQuantity,
		&record.Unit,
		&record.Status,
		&record.Location,
		&record.CostPerUnit,
		&record.Notes,
		&record.UpdatedBy,
		&restockAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return err
	}
	if restockAt.Valid {
		record.LastRestockAt = restockAt.Time.UTC()
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
