package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dcgrid/teamcomp/internal/domain/hardware"
)

type HardwareRepository struct {
	db *sqlx.DB
}

func NewHardwareRepository(db *sqlx.DB) *HardwareRepository {
	return &HardwareRepository{db: db}
}

func (r *HardwareRepository) List(ctx context.Context) ([]hardware.Hardware, error) {
	const query = `SELECT id, display_name, multiplier, average_rank, created_at, updated_at
		FROM hardware ORDER BY id`

	var rows []hardwareTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select hardware: %w", err)
	}

	out := make([]hardware.Hardware, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapHardwareRow(row))
	}

	return out, nil
}

func (r *HardwareRepository) GetByID(ctx context.Context, hardwareID string) (hardware.Hardware, bool, error) {
	const query = `SELECT id, display_name, multiplier, average_rank, created_at, updated_at
		FROM hardware WHERE id = $1`

	var row hardwareTableModel
	if err := r.db.GetContext(ctx, &row, query, hardwareID); err != nil {
		if isNotFound(err) {
			return hardware.Hardware{}, false, nil
		}
		return hardware.Hardware{}, false, fmt.Errorf("select hardware by id: %w", err)
	}

	return mapHardwareRow(row), true, nil
}

func (r *HardwareRepository) Upsert(ctx context.Context, item hardware.Hardware) error {
	const query = `INSERT INTO hardware (id, display_name, multiplier, average_rank, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			multiplier = EXCLUDED.multiplier,
			average_rank = EXCLUDED.average_rank,
			updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, item.ID, item.DisplayName, item.Multiplier, item.AverageRank); err != nil {
		return fmt.Errorf("upsert hardware: %w", err)
	}

	return nil
}

func (r *HardwareRepository) Delete(ctx context.Context, hardwareID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM hardware WHERE id = $1`, hardwareID); err != nil {
		return fmt.Errorf("delete hardware: %w", err)
	}
	return nil
}

func mapHardwareRow(row hardwareTableModel) hardware.Hardware {
	return hardware.Hardware{
		ID:          row.ID,
		DisplayName: row.DisplayName,
		Multiplier:  row.Multiplier,
		AverageRank: row.AverageRank,
	}
}
