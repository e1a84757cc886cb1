package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/menuboard/internal/domain"
)

const menuColumns = `id, name, category, price, active, best_seller, description, attributes, image_url, created_at, updated_at`

type MenuRepo struct {
	pool *pgxpool.Pool
}

func NewMenuRepo(pool *pgxpool.Pool) *MenuRepo {
	return &MenuRepo{pool: pool}
}

func (r *MenuRepo) ListActive(ctx context.Context) ([]*domain.MenuItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+menuColumns+`
		 FROM menu_items WHERE active
		 ORDER BY category, name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("menuRepo.ListActive: %w", err)
	}
	defer rows.Close()

	return scanMenuItems(rows, "menuRepo.ListActive")
}

// ListBestSellers returns active best-sellers. A limit <= 0 means uncapped.
func (r *MenuRepo) ListBestSellers(ctx context.Context, limit int) ([]*domain.MenuItem, error) {
	var capArg any
	if limit > 0 {
		capArg = limit
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+menuColumns+`
		 FROM menu_items WHERE active AND best_seller
		 ORDER BY category, name, id
		 LIMIT $1`,
		capArg,
	)
	if err != nil {
		return nil, fmt.Errorf("menuRepo.ListBestSellers: %w", err)
	}
	defer rows.Close()

	return scanMenuItems(rows, "menuRepo.ListBestSellers")
}

func (r *MenuRepo) List(ctx context.Context) ([]*domain.MenuItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+menuColumns+`
		 FROM menu_items
		 ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("menuRepo.List: %w", err)
	}
	defer rows.Close()

	return scanMenuItems(rows, "menuRepo.List")
}

func (r *MenuRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.MenuItem, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = $1`,
		id,
	)

	m, err := scanMenuItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("menuRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("menuRepo.GetByID: %w", err)
	}

	return m, nil
}

// Create inserts m and refreshes it from the stored row, so attributes come
// back in their JSONB form exactly as a later read returns them.
func (r *MenuRepo) Create(ctx context.Context, m *domain.MenuItem) error {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO menu_items (`+menuColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+menuColumns,
		m.ID, m.Name, m.Category, m.Price, m.Active, m.BestSeller,
		m.Description, []byte(m.Attributes), m.ImageURL, m.CreatedAt, m.UpdatedAt,
	)

	stored, err := scanMenuItem(row)
	if err != nil {
		return fmt.Errorf("menuRepo.Create: %w", err)
	}
	*m = *stored

	return nil
}

// Update writes every mutable column of m and refreshes m from the stored
// row. created_at is never touched.
func (r *MenuRepo) Update(ctx context.Context, m *domain.MenuItem) error {
	row := r.pool.QueryRow(ctx,
		`UPDATE menu_items
		 SET name = $1, category = $2, price = $3, active = $4, best_seller = $5,
		     description = $6, attributes = $7, image_url = $8, updated_at = $9
		 WHERE id = $10
		 RETURNING `+menuColumns,
		m.Name, m.Category, m.Price, m.Active, m.BestSeller,
		m.Description, []byte(m.Attributes), m.ImageURL, m.UpdatedAt, m.ID,
	)

	stored, err := scanMenuItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("menuRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("menuRepo.Update: %w", err)
	}
	*m = *stored

	return nil
}

func (r *MenuRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("menuRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("menuRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func scanMenuItem(row pgx.Row) (*domain.MenuItem, error) {
	var m domain.MenuItem
	var attrs []byte

	err := row.Scan(
		&m.ID, &m.Name, &m.Category, &m.Price, &m.Active, &m.BestSeller,
		&m.Description, &attrs, &m.ImageURL, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Attributes = attrs
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()

	return &m, nil
}

func scanMenuItems(rows pgx.Rows, caller string) ([]*domain.MenuItem, error) {
	items := make([]*domain.MenuItem, 0)
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return items, nil
}
