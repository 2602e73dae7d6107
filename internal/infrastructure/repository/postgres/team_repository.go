package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dcgrid/teamcomp/internal/domain/team"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	const query = `SELECT id, name, description, forum_link, created_at, updated_at
		FROM teams ORDER BY id`

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapTeamRow(row))
	}

	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	const query = `SELECT id, name, description, forum_link, created_at, updated_at
		FROM teams WHERE id = $1`

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, teamID); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team by id: %w", err)
	}

	return mapTeamRow(row), true, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) error {
	const query = `INSERT INTO teams (id, name, description, forum_link, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			forum_link = EXCLUDED.forum_link,
			updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, item.ID, item.Name, item.Description, item.ForumLink); err != nil {
		return fmt.Errorf("upsert team: %w", err)
	}

	return nil
}

func (r *TeamRepository) Delete(ctx context.Context, teamID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, teamID); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}

func mapTeamRow(row teamTableModel) team.Team {
	return team.Team{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		ForumLink:   row.ForumLink,
	}
}
