package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/bizdirectory/api/internal/entity"
)

// CategoriesRepository reads the category catalogue.
type CategoriesRepository interface {
	ListCategories(ctx context.Context) ([]entity.Category, error)
}

// PGXCategoriesRepository implements CategoriesRepository using pgx.
type PGXCategoriesRepository struct {
	pool pgxPool
}

// NewPGXCategoriesRepository wires a pgx backed catalogue repository.
func NewPGXCategoriesRepository(pool *pgxpool.Pool) *PGXCategoriesRepository {
	return &PGXCategoriesRepository{pool: pool}
}

// ListCategories returns the catalogue in a stable order, which is also the
// tie-break order for category reconciliation.
func (r *PGXCategoriesRepository) ListCategories(ctx context.Context) ([]entity.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug, description, icon, color FROM categories ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}
