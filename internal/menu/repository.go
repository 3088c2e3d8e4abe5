package menu

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/catering/internal/platform/db"
)

// Repository defines menu item persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context, req ListRequest) ([]Item, int, error)
	Create(ctx context.Context, item Item) (*Item, error)
	Update(ctx context.Context, item Item) (*Item, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a postgres repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, name, description, unit_price, unit, is_active, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.UnitPrice, &it.Unit, &it.IsActive, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM menu_items WHERE id = $1`, id))
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Item, int, error) {
	where := ""
	if req.ActiveOnly {
		where = "WHERE is_active"
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM menu_items `+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM menu_items `+where+` ORDER BY name, id LIMIT $1 OFFSET $2`, req.Limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *it)
	}
	return items, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, item Item) (*Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `
		INSERT INTO menu_items (name, description, unit_price, unit, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+itemColumns,
		item.Name, item.Description, item.UnitPrice, item.Unit, item.IsActive))
}

func (r *repository) Update(ctx context.Context, item Item) (*Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `
		UPDATE menu_items
		SET name = $2, description = $3, unit_price = $4, unit = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+itemColumns,
		item.ID, item.Name, item.Description, item.UnitPrice, item.Unit, item.IsActive))
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		if db.HasCode(err, db.CodeForeignKeyViolation) {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
