package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/solve-chamados/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id int64) error
	// RecordLoginFailure adds one failed attempt in a single statement and
	// returns the stored counter and lockout. It returns pgx.ErrNoRows when
	// the account is missing or already locked at now.
	RecordLoginFailure(ctx context.Context, id int64, now time.Time, policy domain.LockoutPolicy) (int, *time.Time, error)
	RecordLoginSuccess(ctx context.Context, id int64, at time.Time) error
	Stats(ctx context.Context) (*domain.UserStats, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `
        u.id, u.name, u.email, u.password_hash, u.role, u.group_id, g.name,
        u.is_active, u.failed_login_attempts, u.lockout_until, u.last_login,
        u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.GroupID,
		&user.GroupName,
		&user.IsActive,
		&user.FailedLoginAttempts,
		&user.LockoutUntil,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, group_id, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.GroupID,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, role=$3, group_id=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		string(user.Role),
		user.GroupID,
		user.IsActive,
		user.ID,
	).Scan(&user.UpdatedAt)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `
        UPDATE users SET password_hash=$1, failed_login_attempts=0, lockout_until=NULL, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT` + userColumns + `
        FROM users u LEFT JOIN groups g ON g.id = u.group_id
        WHERE u.id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT` + userColumns + `
        FROM users u LEFT JOIN groups g ON g.id = u.group_id
        WHERE lower(u.email)=lower($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT` + userColumns + `
        FROM users u LEFT JOIN groups g ON g.id = u.group_id
        ORDER BY u.name, u.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) RecordLoginFailure(ctx context.Context, id int64, now time.Time, policy domain.LockoutPolicy) (int, *time.Time, error) {
	// SET expressions see the pre-update row, so both columns derive from the
	// same next count. An elapsed lockout restarts the count at 1.
	const query = `
        UPDATE users SET
            failed_login_attempts = CASE
                WHEN lockout_until IS NOT NULL THEN 1
                ELSE failed_login_attempts + 1 END,
            lockout_until = CASE
                WHEN $3 > 0 AND (CASE WHEN lockout_until IS NOT NULL THEN 1
                                      ELSE failed_login_attempts + 1 END) >= $3 THEN $4::timestamptz
                ELSE NULL END,
            updated_at = NOW()
        WHERE id = $1 AND (lockout_until IS NULL OR lockout_until <= $2)
        RETURNING failed_login_attempts, lockout_until`

	var (
		attempts int
		until    *time.Time
	)
	err := r.pool.QueryRow(ctx, query, id, now, policy.MaxFailedAttempts, now.Add(policy.LockoutDuration)).
		Scan(&attempts, &until)
	if err != nil {
		return 0, nil, err
	}
	return attempts, until, nil
}

func (r *userRepository) RecordLoginSuccess(ctx context.Context, id int64, at time.Time) error {
	const query = `
        UPDATE users SET failed_login_attempts=0, lockout_until=NULL, last_login=$1, updated_at=NOW()
        WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, at, id)
	return err
}

func (r *userRepository) Stats(ctx context.Context) (*domain.UserStats, error) {
	stats := &domain.UserStats{ByRole: make([]domain.RoleCount, 0)}
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM users`,
	).Scan(&stats.Total, &stats.Active); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role ORDER BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rc domain.RoleCount
		if err := rows.Scan(&rc.Role, &rc.Count); err != nil {
			return nil, err
		}
		stats.ByRole = append(stats.ByRole, rc)
	}
	return stats, rows.Err()
}
