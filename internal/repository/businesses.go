package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/bizdirectory/api/internal/dto"
	"github.com/octobees/bizdirectory/api/internal/entity"
)

var (
	// ErrBusinessNotFound indicates no business matches the lookup.
	ErrBusinessNotFound = errors.New("business not found")
	// ErrSlugTaken is returned when the slug unique constraint rejects a write.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrPlaceIDTaken is returned when the place_id unique constraint rejects a write.
	ErrPlaceIDTaken = errors.New("place id already exists")
)

const uniqueViolation = "23505"

// BusinessesRepository describes persistence operations for businesses.
type BusinessesRepository interface {
	GetByPlaceID(ctx context.Context, placeID string) (*entity.Business, error)
	Create(ctx context.Context, business *entity.Business) error
	Update(ctx context.Context, business *entity.Business) error
	SlugExists(ctx context.Context, slug string, excludePlaceID *string) (bool, error)
	List(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error)
	ListAll(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error)
	Random(ctx context.Context, limit int) ([]entity.Business, error)
	SetFeatured(ctx context.Context, placeID string, featured bool) error
	Delete(ctx context.Context, placeID string) error
}

// PGXBusinessesRepository implements BusinessesRepository using pgx.
type PGXBusinessesRepository struct {
	pool pgxPool
}

// NewPGXBusinessesRepository wires a pgx backed repository.
func NewPGXBusinessesRepository(pool *pgxpool.Pool) *PGXBusinessesRepository {
	return &PGXBusinessesRepository{pool: pool}
}

// GetByPlaceID fetches a business by its provider place id.
func (r *PGXBusinessesRepository) GetByPlaceID(ctx context.Context, placeID string) (*entity.Business, error) {
	query := "SELECT " + businessColumns + " FROM businesses WHERE place_id = $1"

	var b entity.Business
	if err := r.pool.QueryRow(ctx, query, placeID).Scan(businessScanTargets(&b)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("query business by place_id: %w", err)
	}
	return &b, nil
}

// SlugExists reports whether slug belongs to a business other than excludePlaceID.
func (r *PGXBusinessesRepository) SlugExists(ctx context.Context, slug string, excludePlaceID *string) (bool, error) {
	query := `SELECT EXISTS (
        SELECT 1 FROM businesses
        WHERE slug = $1 AND ($2::text IS NULL OR place_id <> $2::text)
    )`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, slug, excludePlaceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new business and fills in its generated id and timestamps.
func (r *PGXBusinessesRepository) Create(ctx context.Context, business *entity.Business) error {
	if business == nil {
		return fmt.Errorf("business payload is nil")
	}

	query := `
        INSERT INTO businesses (` + writableColumns + `, created_at, updated_at)
        VALUES (` + placeholders(1, writableColumnCount) + `, NOW(), NOW())
        RETURNING id, created_at, updated_at
    `

	err := r.pool.QueryRow(ctx, query, writableArgs(business)...).Scan(&business.ID, &business.CreatedAt, &business.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert business: %w", mapWriteError(err))
	}
	return nil
}

// Update overwrites the business identified by its place id.
func (r *PGXBusinessesRepository) Update(ctx context.Context, business *entity.Business) error {
	if business == nil {
		return fmt.Errorf("business payload is nil")
	}

	query := `
        UPDATE businesses SET ` + assignments(writableColumnList[1:], 2) + `, updated_at = NOW()
        WHERE place_id = $1
        RETURNING id, created_at, updated_at
    `

	err := r.pool.QueryRow(ctx, query, writableArgs(business)...).Scan(&business.ID, &business.CreatedAt, &business.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBusinessNotFound
		}
		return fmt.Errorf("update business: %w", mapWriteError(err))
	}
	return nil
}

// List returns one page of businesses matching filter.
func (r *PGXBusinessesRepository) List(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error) {
	query, args := buildListQuery(filter, true)
	return r.query(ctx, "list businesses", query, args)
}

// ListAll returns every business matching filter in listing order, ignoring
// limit and offset.
func (r *PGXBusinessesRepository) ListAll(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error) {
	query, args := buildListQuery(filter, false)
	return r.query(ctx, "list all businesses", query, args)
}

// Random returns up to limit open businesses in random order.
func (r *PGXBusinessesRepository) Random(ctx context.Context, limit int) ([]entity.Business, error) {
	query, args := buildRandomQuery(limit)
	return r.query(ctx, "list random businesses", query, args)
}

// SetFeatured toggles the featured flag of a business.
func (r *PGXBusinessesRepository) SetFeatured(ctx context.Context, placeID string, featured bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE businesses SET featured = $2, updated_at = NOW() WHERE place_id = $1`, placeID, featured)
	if err != nil {
		return fmt.Errorf("set featured: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrBusinessNotFound
	}
	return nil
}

// Delete removes a business by place id.
func (r *PGXBusinessesRepository) Delete(ctx context.Context, placeID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM businesses WHERE place_id = $1`, placeID)
	if err != nil {
		return fmt.Errorf("delete business: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrBusinessNotFound
	}
	return nil
}

func (r *PGXBusinessesRepository) query(ctx context.Context, op, query string, args []any) ([]entity.Business, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanBusinesses(rows)
}

func scanBusinesses(rows pgx.Rows) ([]entity.Business, error) {
	businesses := []entity.Business{}
	for rows.Next() {
		var b entity.Business
		if err := rows.Scan(businessScanTargets(&b)...); err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		businesses = append(businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate businesses: %w", err)
	}
	return businesses, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "businesses_slug_key":
			return fmt.Errorf("%w: %v", ErrSlugTaken, pgErr)
		case "businesses_place_id_key":
			return fmt.Errorf("%w: %v", ErrPlaceIDTaken, pgErr)
		}
	}
	return err
}
