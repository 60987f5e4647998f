package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/solve-chamados/internal/domain"
)

// GroupRepository persists organisational groups.
type GroupRepository interface {
	List(ctx context.Context) ([]domain.Group, error)
	Create(ctx context.Context, group *domain.Group) error
	Delete(ctx context.Context, id int64) error
}

type groupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository returns a Postgres-backed implementation.
func NewGroupRepository(pool *pgxpool.Pool) GroupRepository {
	return &groupRepository{pool: pool}
}

func (r *groupRepository) List(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]domain.Group, 0)
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	const query = `
        INSERT INTO groups (name, description)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, group.Name, group.Description).Scan(&group.ID, &group.CreatedAt)
}

// Delete fails with a foreign key violation while users still belong to the group.
func (r *groupRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
