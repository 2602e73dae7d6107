package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dcgrid/teamcomp/internal/domain/stats"
)

// StatsRepository stores scoring inputs. Historic rows accumulate per
// hour-truncated bucket; the retired ledger is insert-only.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) GetBaseline(ctx context.Context, userID string) (stats.BaselineStats, bool, error) {
	const query = `SELECT user_id, points, units, captured_at FROM baselines WHERE user_id = $1`

	var row baselineTableModel
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if isNotFound(err) {
			return stats.BaselineStats{}, false, nil
		}
		return stats.BaselineStats{}, false, fmt.Errorf("select baseline: %w", err)
	}

	return stats.BaselineStats{
		UserID:     row.UserID,
		Points:     row.Points,
		Units:      row.Units,
		CapturedAt: row.CapturedAt,
	}, true, nil
}

func (r *StatsRepository) CreateBaseline(ctx context.Context, item stats.BaselineStats) error {
	const query = `INSERT INTO baselines (user_id, points, units, captured_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, item.UserID, item.Points, item.Units, item.CapturedAt); err != nil {
		return fmt.Errorf("insert baseline: %w", err)
	}
	return nil
}

func (r *StatsRepository) ReplaceBaseline(ctx context.Context, item stats.BaselineStats) error {
	const query = `INSERT INTO baselines (user_id, points, units, captured_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			points = EXCLUDED.points,
			units = EXCLUDED.units,
			captured_at = EXCLUDED.captured_at`

	if _, err := r.db.ExecContext(ctx, query, item.UserID, item.Points, item.Units, item.CapturedAt); err != nil {
		return fmt.Errorf("replace baseline: %w", err)
	}
	return nil
}

func (r *StatsRepository) DeleteBaselines(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM baselines`); err != nil {
		return fmt.Errorf("delete baselines: %w", err)
	}
	return nil
}

func (r *StatsRepository) GetOffset(ctx context.Context, userID string) (stats.OffsetAdjustment, bool, error) {
	const query = `SELECT user_id, points, units FROM offsets WHERE user_id = $1`

	var row offsetTableModel
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if isNotFound(err) {
			return stats.OffsetAdjustment{}, false, nil
		}
		return stats.OffsetAdjustment{}, false, fmt.Errorf("select offset: %w", err)
	}

	return stats.OffsetAdjustment{UserID: row.UserID, Points: row.Points, Units: row.Units}, true, nil
}

func (r *StatsRepository) SetOffset(ctx context.Context, item stats.OffsetAdjustment) error {
	const query = `INSERT INTO offsets (user_id, points, units)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			points = EXCLUDED.points,
			units = EXCLUDED.units`

	if _, err := r.db.ExecContext(ctx, query, item.UserID, item.Points, item.Units); err != nil {
		return fmt.Errorf("set offset: %w", err)
	}
	return nil
}

func (r *StatsRepository) DeleteOffsets(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM offsets`); err != nil {
		return fmt.Errorf("delete offsets: %w", err)
	}
	return nil
}

func (r *StatsRepository) GetLatestRaw(ctx context.Context, userID string) (stats.RawStats, bool, error) {
	const query = `SELECT user_id, points, units FROM latest_raw_stats WHERE user_id = $1`

	var row latestRawTableModel
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if isNotFound(err) {
			return stats.RawStats{}, false, nil
		}
		return stats.RawStats{}, false, fmt.Errorf("select latest raw stats: %w", err)
	}

	return stats.RawStats{Points: row.Points, Units: row.Units}, true, nil
}

func (r *StatsRepository) SetLatestRaw(ctx context.Context, userID string, item stats.RawStats) error {
	const query = `INSERT INTO latest_raw_stats (user_id, points, units)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			points = EXCLUDED.points,
			units = EXCLUDED.units`

	if _, err := r.db.ExecContext(ctx, query, userID, item.Points, item.Units); err != nil {
		return fmt.Errorf("set latest raw stats: %w", err)
	}
	return nil
}

func (r *StatsRepository) ListRetiredByTeam(ctx context.Context, teamID string) ([]stats.RetiredUserTcStats, error) {
	const query = `SELECT id, team_id, user_id, display_name, points, multiplied_points, units, retired_at
		FROM retired_user_stats WHERE team_id = $1 ORDER BY retired_at`

	var rows []retiredTableModel
	if err := r.db.SelectContext(ctx, &rows, query, teamID); err != nil {
		return nil, fmt.Errorf("select retired records: %w", err)
	}

	out := make([]stats.RetiredUserTcStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, stats.RetiredUserTcStats{
			ID:               row.ID,
			TeamID:           row.TeamID,
			UserID:           row.UserID,
			DisplayName:      row.DisplayName,
			Points:           row.Points,
			MultipliedPoints: row.MultipliedPoints,
			Units:            row.Units,
			RetiredAt:        row.RetiredAt,
		})
	}

	return out, nil
}

func (r *StatsRepository) AppendRetired(ctx context.Context, item stats.RetiredUserTcStats) error {
	const query = `INSERT INTO retired_user_stats
		(id, team_id, user_id, display_name, points, multiplied_points, units, retired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.TeamID,
		item.UserID,
		item.DisplayName,
		item.Points,
		item.MultipliedPoints,
		item.Units,
		item.RetiredAt,
	); err != nil {
		return fmt.Errorf("insert retired record: %w", err)
	}
	return nil
}

func (r *StatsRepository) DeleteRetired(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM retired_user_stats`); err != nil {
		return fmt.Errorf("delete retired records: %w", err)
	}
	return nil
}

func (r *StatsRepository) ListHistoric(ctx context.Context, userID string, from, to time.Time) ([]stats.HistoricPoint, error) {
	query := `SELECT user_id, bucket_at, points, multiplied_points, units
		FROM historic_stats WHERE user_id = $1`
	args := []any{userID}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND bucket_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND bucket_at < $%d", len(args))
	}
	query += " ORDER BY bucket_at"

	var rows []historicTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select historic stats: %w", err)
	}

	out := make([]stats.HistoricPoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, stats.HistoricPoint{
			Timestamp:        row.BucketAt,
			Points:           row.Points,
			MultipliedPoints: row.MultipliedPoints,
			Units:            row.Units,
		})
	}

	return out, nil
}

func (r *StatsRepository) AccumulateHistoric(ctx context.Context, userID string, item stats.HistoricPoint) error {
	const query = `INSERT INTO historic_stats (user_id, bucket_at, points, multiplied_points, units)
		VALUES ($1, date_trunc('hour', $2::timestamptz), $3, $4, $5)
		ON CONFLICT (user_id, bucket_at) DO UPDATE SET
			points = historic_stats.points + EXCLUDED.points,
			multiplied_points = historic_stats.multiplied_points + EXCLUDED.multiplied_points,
			units = historic_stats.units + EXCLUDED.units`

	if _, err := r.db.ExecContext(ctx, query,
		userID,
		item.Timestamp,
		item.Points,
		item.MultipliedPoints,
		item.Units,
	); err != nil {
		return fmt.Errorf("accumulate historic stats: %w", err)
	}
	return nil
}
