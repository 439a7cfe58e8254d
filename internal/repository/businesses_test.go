package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/bizdirectory/api/internal/dto"
	"github.com/octobees/bizdirectory/api/internal/entity"
)

func scanBusiness(id uuid.UUID, placeID, title string, featured bool) func(dest ...any) error {
	return func(dest ...any) error {
		if len(dest) != 37 {
			return errors.New("unexpected scan target count")
		}
		*dest[0].(*uuid.UUID) = id
		*dest[1].(*string) = placeID
		*dest[2].(*string) = title
		*dest[3].(*string) = strings.ToLower(title)
		*dest[22].(*bool) = featured
		*dest[27].(*json.RawMessage) = json.RawMessage(`["Cafe"]`)
		return nil
	}
}

func TestGetByPlaceID(t *testing.T) {
	id := uuid.New()
	var gotQuery string
	var gotArgs []any
	pool := &stubPool{
		queryRowFunc: func(_ context.Context, query string, args ...any) pgx.Row {
			gotQuery, gotArgs = query, args
			return &stubRow{scan: scanBusiness(id, "p1", "Cafe", true)}
		},
	}
	repo := &PGXBusinessesRepository{pool: pool}

	b, err := repo.GetByPlaceID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, id, b.ID)
	assert.Equal(t, "p1", b.PlaceID)
	assert.True(t, b.Featured)
	assert.JSONEq(t, `["Cafe"]`, string(b.Categories))
	assert.Contains(t, gotQuery, "WHERE place_id = $1")
	assert.Equal(t, []any{"p1"}, gotArgs)
}

func TestGetByPlaceID_NotFound(t *testing.T) {
	pool := &stubPool{
		queryRowFunc: func(context.Context, string, ...any) pgx.Row {
			return &stubRow{scan: func(...any) error { return pgx.ErrNoRows }}
		},
	}
	repo := &PGXBusinessesRepository{pool: pool}

	_, err := repo.GetByPlaceID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestSlugExists(t *testing.T) {
	exclude := "p1"
	var gotArgs []any
	pool := &stubPool{
		queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
			gotArgs = args
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*bool) = true
				return nil
			}}
		},
	}
	repo := &PGXBusinessesRepository{pool: pool}

	exists, err := repo.SlugExists(context.Background(), "cafe", &exclude)
	require.NoError(t, err)
	assert.True(t, exists)
	require.Len(t, gotArgs, 2)
	assert.Equal(t, "cafe", gotArgs[0])
	assert.Equal(t, &exclude, gotArgs[1])
}

func TestCreate_FillsGeneratedFields(t *testing.T) {
	id := uuid.New()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var gotQuery string
	var gotArgs []any
	pool := &stubPool{
		queryRowFunc: func(_ context.Context, query string, args ...any) pgx.Row {
			gotQuery, gotArgs = query, args
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*uuid.UUID) = id
				*dest[1].(**time.Time) = &now
				*dest[2].(**time.Time) = &now
				return nil
			}}
		},
	}
	repo := &PGXBusinessesRepository{pool: pool}

	b := &entity.Business{PlaceID: "p1", Title: "Cafe", Slug: "cafe-p1"}
	require.NoError(t, repo.Create(context.Background(), b))
	assert.Equal(t, id, b.ID)
	require.NotNil(t, b.CreatedAt)
	assert.Equal(t, now, *b.CreatedAt)
	assert.Contains(t, gotQuery, "INSERT INTO businesses")
	assert.Contains(t, gotQuery, "$34")
	assert.Len(t, gotArgs, writableColumnCount)
	assert.Equal(t, "p1", gotArgs[0])
	assert.Nil(t, gotArgs[26], "empty JSON documents are stored as NULL")
}

func TestCreate_NilPayload(t *testing.T) {
	repo := &PGXBusinessesRepository{pool: &stubPool{}}
	require.Error(t, repo.Create(context.Background(), nil))
}

func TestCreate_UniqueViolations(t *testing.T) {
	cases := map[string]struct {
		constraint string
		want       error
	}{
		"slug":     {constraint: "businesses_slug_key", want: ErrSlugTaken},
		"place id": {constraint: "businesses_place_id_key", want: ErrPlaceIDTaken},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			pool := &stubPool{
				queryRowFunc: func(context.Context, string, ...any) pgx.Row {
					return &stubRow{scan: func(...any) error {
						return &pgconn.PgError{Code: "23505", ConstraintName: tc.constraint}
					}}
				},
			}
			repo := &PGXBusinessesRepository{pool: pool}

			err := repo.Create(context.Background(), &entity.Business{PlaceID: "p1", Title: "Cafe", Slug: "cafe"})
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdate_KeysOnPlaceID(t *testing.T) {
	var gotQuery string
	var gotArgs []any
	pool := &stubPool{
		queryRowFunc: func(_ context.Context, query string, args ...any) pgx.Row {
			gotQuery, gotArgs = query, args
			return &stubRow{scan: func(...any) error { return nil }}
		},
	}
	repo := &PGXBusinessesRepository{pool: pool}

	b := &entity.Business{PlaceID: "p1", Title: "Cafe", Slug: "cafe", Categories: json.RawMessage(`["Cafe"]`)}
	require.NoError(t, repo.Update(context.Background(), b))
	assert.Contains(t, gotQuery, "WHERE place_id = $1")
	assert.Contains(t, gotQuery, "title = $2")
	assert.NotContains(t, gotQuery, "place_id = $2")
	assert.Equal(t, "p1", gotArgs[0])
	assert.Equal(t, `["Cafe"]`, gotArgs[26])
}

func TestUpdate_NotFound(t *testing.T) {
	pool := &stubPool{
		queryRowFunc: func(context.Context, string, ...any) pgx.Row {
			return &stubRow{scan: func(...any) error { return pgx.ErrNoRows }}
		},
	}
	repo := &PGXBusinessesRepository{pool: pool}

	err := repo.Update(context.Background(), &entity.Business{PlaceID: "gone"})
	require.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestList_ScansRows(t *testing.T) {
	var gotArgs []any
	pool := &stubPool{
		queryFunc: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
			gotArgs = args
			return &stubRows{scans: []func(dest ...any) error{
				scanBusiness(uuid.New(), "p1", "Alpha", false),
				scanBusiness(uuid.New(), "p2", "Beta", true),
			}}, nil
		},
	}
	repo := &PGXBusinessesRepository{pool: pool}

	list, err := repo.List(context.Background(), dto.BusinessFilter{City: "Austin", Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].PlaceID)
	assert.Equal(t, "p2", list[1].PlaceID)
	assert.Equal(t, []any{"Austin", 10, 0}, gotArgs)
}

func TestListAll_EmptyResultIsNotNil(t *testing.T) {
	pool := &stubPool{
		queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) {
			return &stubRows{}, nil
		},
	}
	repo := &PGXBusinessesRepository{pool: pool}

	list, err := repo.ListAll(context.Background(), dto.BusinessFilter{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestRandom_PropagatesQueryErrors(t *testing.T) {
	boom := errors.New("connection reset")
	pool := &stubPool{
		queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) {
			return nil, boom
		},
	}
	repo := &PGXBusinessesRepository{pool: pool}

	_, err := repo.Random(context.Background(), 5)
	require.ErrorIs(t, err, boom)
}

func TestList_RowIterationError(t *testing.T) {
	boom := errors.New("stream broken")
	pool := &stubPool{
		queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) {
			return &stubRows{err: boom}, nil
		},
	}
	repo := &PGXBusinessesRepository{pool: pool}

	_, err := repo.List(context.Background(), dto.BusinessFilter{})
	require.ErrorIs(t, err, boom)
}

func TestSetFeaturedAndDelete(t *testing.T) {
	cases := map[string]struct {
		tag  string
		want error
	}{
		"updated": {tag: "UPDATE 1"},
		"missing": {tag: "UPDATE 0", want: ErrBusinessNotFound},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var gotArgs []any
			pool := &stubPool{
				execFunc: func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
					gotArgs = args
					return pgconn.NewCommandTag(tc.tag), nil
				},
			}
			repo := &PGXBusinessesRepository{pool: pool}

			err := repo.SetFeatured(context.Background(), "p1", true)
			if tc.want != nil {
				require.ErrorIs(t, err, tc.want)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, []any{"p1", true}, gotArgs)

			err = repo.Delete(context.Background(), "p1")
			if tc.want != nil {
				require.ErrorIs(t, err, tc.want)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, []any{"p1"}, gotArgs)
		})
	}
}
