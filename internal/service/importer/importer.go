package importer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/octobees/bizdirectory/api/internal/dto"
	"github.com/octobees/bizdirectory/api/internal/entity"
	"github.com/octobees/bizdirectory/api/internal/metrics"
	"github.com/octobees/bizdirectory/api/internal/repository"
)

// DefaultBatchSize is used when neither the caller nor the configuration sets one.
const DefaultBatchSize = 100

// Store is the persistence surface the import pipeline depends on.
// GetByPlaceID returns repository.ErrBusinessNotFound for unknown ids.
type Store interface {
	SlugChecker
	GetByPlaceID(ctx context.Context, placeID string) (*entity.Business, error)
	Create(ctx context.Context, business *entity.Business) error
	Update(ctx context.Context, business *entity.Business) error
}

// Invalidator drops cached business listings after a run changed data.
type Invalidator interface {
	InvalidateBusinesses() int
}

// Importer drives uploaded rows through validation, transformation, slug
// resolution and persistence. Rows are processed one at a time in upload order.
type Importer struct {
	store            Store
	transformer      *Transformer
	slugs            *SlugResolver
	invalidator      Invalidator
	metrics          *metrics.Metrics
	logger           *zap.Logger
	defaultBatchSize int
}

// Option configures optional dependencies.
type Option func(*Importer)

// WithLogger overrides the default no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// WithMetrics records row outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(im *Importer) {
		im.metrics = m
	}
}

// WithInvalidator registers the cache owner notified after mutations.
func WithInvalidator(inv Invalidator) Option {
	return func(im *Importer) {
		im.invalidator = inv
	}
}

// WithDefaultBatchSize sets the chunk size used when a run does not request one.
func WithDefaultBatchSize(size int) Option {
	return func(im *Importer) {
		if size > 0 {
			im.defaultBatchSize = size
		}
	}
}

// WithDefaultCountry sets the country code stored for rows without one.
func WithDefaultCountry(code string) Option {
	return func(im *Importer) {
		im.transformer.defaultCountry = NewTransformer(code, nil).defaultCountry
	}
}

// New builds an importer persisting through store.
func New(store Store, opts ...Option) *Importer {
	im := &Importer{
		store:            store,
		transformer:      NewTransformer(DefaultCountryCode, nil),
		slugs:            NewSlugResolver(store),
		logger:           zap.NewNop(),
		defaultBatchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(im)
	}
	im.transformer.logger = im.logger
	return im
}

// ImportFile parses an upload buffer and imports its rows. Only an unreadable
// upload is returned as an error; row problems are reported in the result.
func (im *Importer) ImportFile(ctx context.Context, data []byte, filename string, opts dto.ImportOptions) (dto.ImportResult, error) {
	rows, err := Parse(data, filename)
	if err != nil {
		return newResult(), err
	}
	return im.Import(ctx, rows, opts)
}

// Import processes parsed rows under the given duplicate policy. The returned
// error is non-nil only when ctx ends the run early; the partial result is
// still returned.
func (im *Importer) Import(ctx context.Context, rows []RawRow, opts dto.ImportOptions) (dto.ImportResult, error) {
	result := newResult()
	log := im.logger.With(
		zap.Int("rows", len(rows)),
		zap.Bool("validate_only", opts.ValidateOnly),
		zap.Bool("update_duplicates", opts.UpdateDuplicates),
		zap.Bool("skip_duplicates", opts.SkipDuplicates),
	)

	invalid := make(map[int]struct{})
	for _, verr := range Validate(rows) {
		result.Errors = append(result.Errors, dto.RowError{
			Row:     verr.Row,
			Field:   verr.Field,
			Value:   verr.Value,
			Message: verr.Message,
		})
		invalid[verr.Row] = struct{}{}
	}
	for range invalid {
		im.metrics.ImportRow("invalid")
	}

	if opts.ValidateOnly {
		im.metrics.ImportRun("validate_only")
		result.Success = len(rows) - len(invalid)
		result.Warnings = append(result.Warnings, "validation only: no records were written")
		log.Info("import validated", zap.Int("valid", result.Success), zap.Int("errors", len(result.Errors)))
		return result, nil
	}
	im.metrics.ImportRun("write")

	pending := make([]int, 0, len(rows))
	for i := range rows {
		if _, bad := invalid[i+1]; !bad {
			pending = append(pending, i)
		}
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = im.defaultBatchSize
	}

	var runErr error
	processed := 0
chunks:
	for start := 0; start < len(pending); start += batchSize {
		end := min(start+batchSize, len(pending))
		for _, idx := range pending[start:end] {
			if err := ctx.Err(); err != nil {
				runErr = fmt.Errorf("import interrupted after %d of %d rows: %w", processed, len(pending), err)
				break chunks
			}
			im.importRow(ctx, idx+1, rows[idx], opts, &result)
			processed++
		}
		log.Debug("import chunk processed", zap.Int("from", start), zap.Int("to", end))
	}

	if result.Created+result.Updated > 0 && im.invalidator != nil {
		evicted := im.invalidator.InvalidateBusinesses()
		log.Debug("business cache invalidated", zap.Int("evicted", evicted))
	}

	log.Info("import finished",
		zap.Int("success", result.Success),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("duplicates_skipped", result.DuplicatesSkipped),
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, runErr
}

func (im *Importer) importRow(ctx context.Context, rowNum int, row RawRow, opts dto.ImportOptions, result *dto.ImportResult) {
	fail := func(field string, message string) {
		rowErr := dto.RowError{Row: rowNum, Message: message}
		if field != "" {
			rowErr.Field = field
			rowErr.Value = row[field]
		}
		result.Errors = append(result.Errors, rowErr)
		im.metrics.ImportRow("failed")
	}

	placeID, _ := row.Value(colPlaceID)
	existing, err := im.store.GetByPlaceID(ctx, placeID)
	if err != nil && !errors.Is(err, repository.ErrBusinessNotFound) {
		fail("", fmt.Sprintf("lookup existing business: %v", err))
		return
	}
	if existing != nil && !opts.UpdateDuplicates {
		if opts.SkipDuplicates {
			result.DuplicatesSkipped++
			im.metrics.ImportRow("skipped")
			return
		}
		fail(colPlaceID, "business with this placeid already exists")
		return
	}

	record, warnings, err := im.transformer.Transform(rowNum, row)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		fail("", fmt.Sprintf("transform row: %v", err))
		return
	}

	var exclude *string
	if existing != nil {
		exclude = &existing.PlaceID
	}
	slug, err := im.slugs.Resolve(ctx, record.Title, record.PlaceID, true, exclude)
	if err != nil {
		fail("", fmt.Sprintf("resolve slug: %v", err))
		return
	}
	record.Slug = slug

	if existing != nil {
		record.ID = existing.ID
		if err := im.store.Update(ctx, record); err != nil {
			fail("", err.Error())
			return
		}
		result.Updated++
		im.metrics.ImportRow("updated")
	} else {
		if err := im.store.Create(ctx, record); err != nil {
			fail("", err.Error())
			return
		}
		result.Created++
		im.metrics.ImportRow("created")
	}
	result.Success++
}

func newResult() dto.ImportResult {
	return dto.ImportResult{Errors: []dto.RowError{}, Warnings: []string{}}
}
