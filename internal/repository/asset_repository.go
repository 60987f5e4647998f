package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/solve-chamados/internal/domain"
)

// AssetTx is the set of writes that run inside one asset transaction.
type AssetTx interface {
	Insert(ctx context.Context, asset *domain.Asset) error
	LockByID(ctx context.Context, id int64) (*domain.Asset, error)
	Update(ctx context.Context, asset *domain.Asset) error
	AppendHistory(ctx context.Context, entry *domain.AssetHistory) error
}

// AssetRepository persists assets and their audit trail.
type AssetRepository interface {
	List(ctx context.Context) ([]domain.Asset, error)
	GetByID(ctx context.Context, id int64) (*domain.Asset, error)
	History(ctx context.Context, assetID int64) ([]domain.AssetHistory, error)
	Delete(ctx context.Context, id int64) error
	// InTx runs fn in a transaction that commits only if fn returns nil.
	InTx(ctx context.Context, fn func(tx AssetTx) error) error
}

type assetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository returns a Postgres-backed implementation.
func NewAssetRepository(pool *pgxpool.Pool) AssetRepository {
	return &assetRepository{pool: pool}
}

const assetColumns = `a.id, a.name, a.code, a.description, a.status, a.acquisition_date,
        a.warranty_end, a.cost::float8, a.created_at, a.updated_at`

func scanAsset(row pgx.Row, extra ...any) (*domain.Asset, error) {
	var a domain.Asset
	dest := []any{
		&a.ID,
		&a.Name,
		&a.Code,
		&a.Description,
		&a.Status,
		&a.AcquisitionDate,
		&a.WarrantyEnd,
		&a.Cost,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assetRepository) List(ctx context.Context) ([]domain.Asset, error) {
	query := `SELECT ` + assetColumns + `,
            (SELECT h.new_status FROM asset_history h
             WHERE h.asset_id = a.id ORDER BY h.created_at DESC, h.id DESC LIMIT 1)
        FROM assets a
        ORDER BY a.created_at DESC, a.id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]domain.Asset, 0)
	for rows.Next() {
		var last *domain.AssetStatus
		asset, err := scanAsset(rows, &last)
		if err != nil {
			return nil, err
		}
		asset.LastLogStatus = last
		assets = append(assets, *asset)
	}
	return assets, rows.Err()
}

func (r *assetRepository) GetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	return scanAsset(r.pool.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets a WHERE a.id=$1`, id))
}

func (r *assetRepository) History(ctx context.Context, assetID int64) ([]domain.AssetHistory, error) {
	const query = `
        SELECT h.id, h.asset_id, h.user_id, u.name, h.action_type, h.description,
               h.old_status, h.new_status, h.created_at
        FROM asset_history h
        LEFT JOIN users u ON u.id = h.user_id
        WHERE h.asset_id=$1
        ORDER BY h.created_at DESC, h.id DESC`

	rows, err := r.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.AssetHistory, 0)
	for rows.Next() {
		var h domain.AssetHistory
		if err := rows.Scan(
			&h.ID,
			&h.AssetID,
			&h.UserID,
			&h.UserName,
			&h.ActionType,
			&h.Description,
			&h.OldStatus,
			&h.NewStatus,
			&h.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

// Delete fails with a foreign key violation while tickets reference the asset.
func (r *assetRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM assets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assetRepository) InTx(ctx context.Context, fn func(tx AssetTx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&assetTx{tx: tx})
	})
}

type assetTx struct {
	tx pgx.Tx
}

func (t *assetTx) Insert(ctx context.Context, asset *domain.Asset) error {
	const query = `
        INSERT INTO assets (name, code, description, status, acquisition_date, warranty_end, cost)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`
	return t.tx.QueryRow(ctx, query,
		asset.Name,
		asset.Code,
		asset.Description,
		string(asset.Status),
		asset.AcquisitionDate,
		asset.WarrantyEnd,
		asset.Cost,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
}

func (t *assetTx) LockByID(ctx context.Context, id int64) (*domain.Asset, error) {
	return scanAsset(t.tx.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets a WHERE a.id=$1 FOR UPDATE`, id))
}

func (t *assetTx) Update(ctx context.Context, asset *domain.Asset) error {
	const query = `
        UPDATE assets SET name=$1, code=$2, description=$3, status=$4, acquisition_date=$5,
            warranty_end=$6, cost=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return t.tx.QueryRow(ctx, query,
		asset.Name,
		asset.Code,
		asset.Description,
		string(asset.Status),
		asset.AcquisitionDate,
		asset.WarrantyEnd,
		asset.Cost,
		asset.ID,
	).Scan(&asset.UpdatedAt)
}

func (t *assetTx) AppendHistory(ctx context.Context, entry *domain.AssetHistory) error {
	var oldStatus *string
	if entry.OldStatus != nil {
		s := string(*entry.OldStatus)
		oldStatus = &s
	}
	const query = `
        INSERT INTO asset_history (asset_id, user_id, action_type, description, old_status, new_status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`
	return t.tx.QueryRow(ctx, query,
		entry.AssetID,
		entry.UserID,
		string(entry.ActionType),
		entry.Description,
		oldStatus,
		string(entry.NewStatus),
	).Scan(&entry.ID, &entry.CreatedAt)
}
