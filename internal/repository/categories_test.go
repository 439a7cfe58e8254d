package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCategories(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	icon := "coffee"
	scan := func(id uuid.UUID, name, slug string, icon *string) func(dest ...any) error {
		return func(dest ...any) error {
			*dest[0].(*uuid.UUID) = id
			*dest[1].(*string) = name
			*dest[2].(*string) = slug
			*dest[4].(**string) = icon
			return nil
		}
	}

	var gotQuery string
	pool := &stubPool{
		queryFunc: func(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
			gotQuery = query
			return &stubRows{scans: []func(dest ...any) error{
				scan(first, "Bakery", "bakery", nil),
				scan(second, "Cafes", "cafes", &icon),
			}}, nil
		},
	}
	repo := &PGXCategoriesRepository{pool: pool}

	categories, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, first, categories[0].ID)
	assert.Equal(t, "Cafes", categories[1].Name)
	require.NotNil(t, categories[1].Icon)
	assert.Equal(t, "coffee", *categories[1].Icon)
	assert.Contains(t, gotQuery, "ORDER BY name ASC, id ASC")
}

func TestListCategories_QueryError(t *testing.T) {
	pool := &stubPool{
		queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) {
			return nil, errors.New("relation does not exist")
		},
	}
	repo := &PGXCategoriesRepository{pool: pool}

	_, err := repo.ListCategories(context.Background())
	require.Error(t, err)
}
