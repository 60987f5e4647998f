package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/solve-chamados/internal/domain"
)

// SessionRepository stores hashed session tokens.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	// FindIdentity resolves an unexpired session together with its user, role
	// permissions and group. Returns pgx.ErrNoRows when nothing matches.
	FindIdentity(ctx context.Context, tokenHash string, now time.Time) (*domain.SessionIdentity, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a Postgres-backed implementation.
func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepository{pool: pool}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	const query = `
        INSERT INTO sessions (user_id, token_hash, expires_at)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		session.UserID,
		session.TokenHash,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt)
}

func (r *sessionRepository) FindIdentity(ctx context.Context, tokenHash string, now time.Time) (*domain.SessionIdentity, error) {
	const query = `
        SELECT s.id, s.expires_at,
               u.id, u.name, u.email, u.role, u.group_id, g.name, u.is_active,
               u.last_login, u.created_at, u.updated_at,
               COALESCE(r.permissions, '[]'::jsonb)
        FROM sessions s
        JOIN users u ON u.id = s.user_id
        LEFT JOIN roles r ON r.name = u.role
        LEFT JOIN groups g ON g.id = u.group_id
        WHERE s.token_hash=$1 AND s.expires_at > $2`

	var id domain.SessionIdentity
	if err := r.pool.QueryRow(ctx, query, tokenHash, now).Scan(
		&id.SessionID,
		&id.ExpiresAt,
		&id.User.ID,
		&id.User.Name,
		&id.User.Email,
		&id.User.Role,
		&id.User.GroupID,
		&id.User.GroupName,
		&id.User.IsActive,
		&id.User.LastLogin,
		&id.User.CreatedAt,
		&id.User.UpdatedAt,
		&id.Permissions,
	); err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *sessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash=$1`, tokenHash)
	return err
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id=$1`, userID)
	return err
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
