package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dcgrid/teamcomp/internal/domain/user"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, display_name, forum_name, passkey, category, hardware_id, team_id, is_captain, join_order, created_at, updated_at`

func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY join_order`

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}

	return mapUserRows(rows), nil
}

func (r *UserRepository) ListByTeam(ctx context.Context, teamID string) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE team_id = $1 ORDER BY join_order`

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, teamID); err != nil {
		return nil, fmt.Errorf("select users by team: %w", err)
	}

	return mapUserRows(rows), nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("select user by id: %w", err)
	}

	return mapUserRow(row), true, nil
}

func (r *UserRepository) Upsert(ctx context.Context, item user.User) error {
	const query = `INSERT INTO users
		(id, display_name, forum_name, passkey, category, hardware_id, team_id, is_captain, join_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			COALESCE((SELECT MAX(join_order) FROM users), 0) + 1, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			forum_name = EXCLUDED.forum_name,
			passkey = EXCLUDED.passkey,
			category = EXCLUDED.category,
			hardware_id = EXCLUDED.hardware_id,
			team_id = EXCLUDED.team_id,
			is_captain = EXCLUDED.is_captain,
			updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.DisplayName,
		item.ForumName,
		item.Passkey,
		string(item.Category),
		item.HardwareID,
		item.TeamID,
		item.IsCaptain,
	); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func mapUserRows(rows []userTableModel) []user.User {
	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapUserRow(row))
	}
	return out
}

func mapUserRow(row userTableModel) user.User {
	return user.User{
		ID:          row.ID,
		DisplayName: row.DisplayName,
		ForumName:   row.ForumName,
		Passkey:     row.Passkey,
		Category:    user.Category(row.Category),
		HardwareID:  row.HardwareID,
		TeamID:      row.TeamID,
		IsCaptain:   row.IsCaptain,
		JoinOrder:   row.JoinOrder,
	}
}
