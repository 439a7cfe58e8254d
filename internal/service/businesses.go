package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/octobees/bizdirectory/api/internal/cache"
	"github.com/octobees/bizdirectory/api/internal/dto"
	"github.com/octobees/bizdirectory/api/internal/entity"
	"github.com/octobees/bizdirectory/api/internal/repository"
	"github.com/octobees/bizdirectory/api/internal/service/catalog"
)

// Default cache lifetimes. Featured listings change rarely; random listings
// are meant to rotate.
const (
	DefaultFeaturedTTL = 10 * time.Minute
	DefaultRandomTTL   = 2 * time.Minute
)

// CacheTTLs configures per-dataset cache lifetimes.
type CacheTTLs struct {
	Featured time.Duration
	Random   time.Duration
}

func (t CacheTTLs) withDefaults() CacheTTLs {
	if t.Featured <= 0 {
		t.Featured = DefaultFeaturedTTL
	}
	if t.Random <= 0 {
		t.Random = DefaultRandomTTL
	}
	return t
}

// BusinessQuery resolves listing filters against the store and attaches the
// best matching catalogue category to every result.
type BusinessQuery struct {
	businesses repository.BusinessesRepository
	categories repository.CategoriesRepository
}

// NewBusinessQuery wires a query builder over the given repositories.
func NewBusinessQuery(businesses repository.BusinessesRepository, categories repository.CategoriesRepository) *BusinessQuery {
	return &BusinessQuery{businesses: businesses, categories: categories}
}

// Find returns businesses matching filter in listing order. When a category is
// requested, pagination is applied after reconciliation so pages only hold
// businesses resolved to that category.
func (q *BusinessQuery) Find(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error) {
	filter = filter.Normalized()

	categories, err := q.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	if filter.CategoryID == nil {
		businesses, err := q.businesses.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		catalog.Attach(businesses, categories)
		return businesses, nil
	}

	businesses, err := q.businesses.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	catalog.Attach(businesses, categories)

	matched := make([]entity.Business, 0, len(businesses))
	for _, b := range businesses {
		if b.Category != nil && b.Category.ID == *filter.CategoryID {
			matched = append(matched, b)
		}
	}
	return paginate(matched, filter.Offset, filter.Limit), nil
}

// Random returns up to limit open businesses in random order.
func (q *BusinessQuery) Random(ctx context.Context, limit int) ([]entity.Business, error) {
	categories, err := q.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	businesses, err := q.businesses.Random(ctx, limit)
	if err != nil {
		return nil, err
	}
	catalog.Attach(businesses, categories)
	return businesses, nil
}

func paginate(items []entity.Business, offset, limit int) []entity.Business {
	if offset >= len(items) {
		return []entity.Business{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

// BusinessesService is the public entry point for business listings. Featured
// and random listings are served through the cache; ad-hoc filters always
// reach the store.
type BusinessesService struct {
	query  *BusinessQuery
	repo   repository.BusinessesRepository
	cache  *cache.Cache
	ttl    CacheTTLs
	logger *zap.Logger
}

// NewBusinessesService creates the listing facade.
func NewBusinessesService(repo repository.BusinessesRepository, categories repository.CategoriesRepository, c *cache.Cache, ttl CacheTTLs, logger *zap.Logger) *BusinessesService {
	if c == nil {
		c = cache.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BusinessesService{
		query:  NewBusinessQuery(repo, categories),
		repo:   repo,
		cache:  c,
		ttl:    ttl.withDefaults(),
		logger: logger,
	}
}

// Search runs an ad-hoc filter without caching.
func (s *BusinessesService) Search(ctx context.Context, filter dto.BusinessFilter) ([]entity.Business, error) {
	businesses, err := s.query.Find(ctx, filter)
	if err != nil {
		s.logger.Error("search businesses failed", zap.Error(err))
		return []entity.Business{}, fmt.Errorf("search businesses: %w", err)
	}
	return businesses, nil
}

// Featured returns featured open businesses, cached per limit.
func (s *BusinessesService) Featured(ctx context.Context, limit int) ([]entity.Business, error) {
	limit = dto.BusinessFilter{Limit: limit}.Normalized().Limit
	featured := true
	return s.cached(ctx, "featured", cache.FeaturedKey(limit), s.ttl.Featured, func(ctx context.Context) ([]entity.Business, error) {
		return s.query.Find(ctx, dto.BusinessFilter{Featured: &featured, Limit: limit})
	})
}

// Random returns a random selection of open businesses, cached per limit.
func (s *BusinessesService) Random(ctx context.Context, limit int) ([]entity.Business, error) {
	limit = dto.BusinessFilter{Limit: limit}.Normalized().Limit
	return s.cached(ctx, "random", cache.RandomKey(limit), s.ttl.Random, func(ctx context.Context) ([]entity.Business, error) {
		return s.query.Random(ctx, limit)
	})
}

func (s *BusinessesService) cached(ctx context.Context, dataset, key string, ttl time.Duration, load func(ctx context.Context) ([]entity.Business, error)) ([]entity.Business, error) {
	data, hit, err := s.cache.GetOrLoad(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		s.logger.Error("load business listing failed", zap.String("dataset", dataset), zap.Error(err))
		return []entity.Business{}, fmt.Errorf("load %s businesses: %w", dataset, err)
	}
	s.logger.Debug("business listing served", zap.String("key", key), zap.Bool("cache_hit", hit))

	businesses, _ := data.([]entity.Business)
	return append([]entity.Business{}, businesses...), nil
}

// SetFeatured toggles the featured flag and drops cached listings.
func (s *BusinessesService) SetFeatured(ctx context.Context, placeID string, featured bool) error {
	if err := s.repo.SetFeatured(ctx, placeID, featured); err != nil {
		return err
	}
	s.InvalidateBusinesses()
	return nil
}

// Delete removes a business and drops cached listings.
func (s *BusinessesService) Delete(ctx context.Context, placeID string) error {
	if err := s.repo.Delete(ctx, placeID); err != nil {
		return err
	}
	s.InvalidateBusinesses()
	return nil
}

// InvalidateBusinesses evicts every cached business dataset.
func (s *BusinessesService) InvalidateBusinesses() int {
	removed := s.cache.InvalidatePrefix(cache.BusinessPrefix)
	if removed > 0 {
		s.logger.Info("business cache invalidated", zap.Int("evicted", removed))
	}
	return removed
}
