package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"salesview/internal/dataset"
	apierrors "salesview/internal/errors"
	"salesview/internal/exporter"
	"salesview/internal/infrastructure"
	"salesview/internal/validation"
	"salesview/pkg/contracts/domain"
)

// DatasetNotifier receives dataset lifecycle events. Satisfied by the
// websocket hub; nil is allowed and disables notifications.
type DatasetNotifier interface {
	NotifyDatasetReplaced(meta domain.DatasetMeta)
}

// DashboardService runs the ingestion pipeline and serves aggregated
// views off the cached dataset. It is the single owner of the dataset
// cache; handlers never touch the cache directly.
type DashboardService struct {
	logger    *slog.Logger
	cache     *dataset.Cache
	validator *validation.UploadValidator
	otel      *infrastructure.OTelProviders
	notifier  DatasetNotifier

	csvWriter   *exporter.CSVWriter
	excelWriter *exporter.ExcelWriter

	measureLabel string
}

// NewDashboardService creates the dashboard service
func NewDashboardService(
	logger *slog.Logger,
	cache *dataset.Cache,
	validator *validation.UploadValidator,
	otel *infrastructure.OTelProviders,
	notifier DatasetNotifier,
	measureLabel string,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if otel == nil {
		// Instruments stay nil; recording becomes a no-op.
		otel = &infrastructure.OTelProviders{}
	}
	return &DashboardService{
		logger:       logger.With(slog.String("service", "dashboard")),
		cache:        cache,
		validator:    validator,
		otel:         otel,
		notifier:     notifier,
		csvWriter:    exporter.NewCSVWriter(logger),
		excelWriter:  exporter.NewExcelWriter(logger),
		measureLabel: measureLabel,
	}
}

// Upload runs the full ingestion pipeline on raw uploaded bytes:
// validate, parse, schema check, clean, cache. Re-uploading identical
// bytes is a cache hit and returns the existing metadata without
// re-parsing.
func (s *DashboardService) Upload(ctx context.Context, filename string, data []byte) (domain.DatasetMeta, error) {
	start := time.Now()

	if err := s.validator.ValidateUpload(filename, int64(len(data))); err != nil {
		return domain.DatasetMeta{}, apierrors.ErrValidation("file", err.Error())
	}

	id := dataset.Key(data)
	if entry, ok := s.cache.Get(id); ok {
		s.count(ctx, s.otel.CacheHits)
		s.logger.InfoContext(ctx, "upload served from cache",
			slog.String("dataset_id", id),
			slog.String("filename", filename))
		return entry.Meta, nil
	}

	table, err := dataset.Parse(data)
	if err != nil {
		s.count(ctx, s.otel.ParseFailures)
		s.otel.RecordPipeline(ctx, start, "parse_failed")
		s.logger.WarnContext(ctx, "upload rejected: parse failed",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return domain.DatasetMeta{}, apierrors.ParseFailedError(err)
	}

	if err := dataset.ValidateSchema(table, domain.RequiredColumns); err != nil {
		s.count(ctx, s.otel.SchemaFailures)
		s.otel.RecordPipeline(ctx, start, "schema_invalid")
		var schemaErr *dataset.SchemaError
		if errors.As(err, &schemaErr) {
			s.logger.WarnContext(ctx, "upload rejected: schema invalid",
				slog.String("filename", filename),
				slog.Any("missing_columns", schemaErr.Missing))
			return domain.DatasetMeta{}, apierrors.SchemaInvalidError(schemaErr.Missing, schemaErr.Detected)
		}
		return domain.DatasetMeta{}, apierrors.ParseFailedError(err)
	}

	clean := dataset.Clean(table)
	if clean.Len() == 0 {
		s.count(ctx, s.otel.EmptyResults)
	}

	meta := buildMeta(id, filename, table, clean)
	entry := &dataset.Entry{Meta: meta, Raw: table, Clean: clean}
	s.cache.Put(entry)

	s.otel.RecordPipeline(ctx, start, "success")
	s.logger.InfoContext(ctx, "dataset ingested",
		slog.String("dataset_id", id),
		slog.String("filename", filename),
		slog.Int("raw_rows", meta.RawRows),
		slog.Int("clean_rows", meta.CleanRows),
		slog.Int("dropped_rows", meta.DroppedRows))

	if s.notifier != nil {
		s.notifier.NotifyDatasetReplaced(meta)
	}
	return meta, nil
}

// Current returns metadata for the active dataset, whatever its id
func (s *DashboardService) Current() (domain.DatasetMeta, error) {
	entry, ok := s.cache.Current()
	if !ok {
		return domain.DatasetMeta{}, apierrors.ErrDatasetNotFound
	}
	return entry.Meta, nil
}

// Meta returns metadata for the dataset with the given id
func (s *DashboardService) Meta(id string) (domain.DatasetMeta, error) {
	entry, err := s.entry(id)
	if err != nil {
		return domain.DatasetMeta{}, err
	}
	return entry.Meta, nil
}

// Rows returns a window of filtered records plus the total matching count
func (s *DashboardService) Rows(ctx context.Context, id string, spec domain.FilterSpec, offset, limit int) ([]domain.SalesRecord, int, error) {
	filtered, err := s.filtered(ctx, id, spec)
	if err != nil {
		return nil, 0, err
	}

	records := filtered.Records
	total := len(records)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return records[offset:end], total, nil
}

// ByYear aggregates the filtered dataset by year, ascending
func (s *DashboardService) ByYear(ctx context.Context, id string, spec domain.FilterSpec, measure string) ([]domain.YearTotal, error) {
	filtered, err := s.filtered(ctx, id, spec)
	if err != nil {
		return nil, err
	}
	return dataset.AggregateByYear(filtered, measure), nil
}

// ByYearPlatform aggregates the filtered dataset by year and platform
func (s *DashboardService) ByYearPlatform(ctx context.Context, id string, spec domain.FilterSpec, measure string) ([]domain.YearPlatformTotal, error) {
	filtered, err := s.filtered(ctx, id, spec)
	if err != nil {
		return nil, err
	}
	return dataset.AggregateByYearPlatform(filtered, measure), nil
}

// Rank returns platforms ordered by total measure descending
func (s *DashboardService) Rank(ctx context.Context, id string, spec domain.FilterSpec, measure string, limit int) ([]domain.PlatformTotal, error) {
	filtered, err := s.filtered(ctx, id, spec)
	if err != nil {
		return nil, err
	}
	return dataset.Rank(filtered, measure, limit), nil
}

// Pivot returns the zero-filled Year x Platform pivot of the filtered dataset
func (s *DashboardService) Pivot(ctx context.Context, id string, spec domain.FilterSpec, measure string) (domain.PivotTable, error) {
	filtered, err := s.filtered(ctx, id, spec)
	if err != nil {
		return domain.PivotTable{}, err
	}
	return dataset.Pivot(dataset.AggregateByYearPlatform(filtered, measure), 0), nil
}

// Regions returns per-year regional sales sums for the filtered dataset.
// A dataset without regional columns yields an empty result; zero-filled
// rows would be indistinguishable from sales that genuinely sum to zero.
func (s *DashboardService) Regions(ctx context.Context, id string, spec domain.FilterSpec) ([]domain.RegionTotal, error) {
	filtered, err := s.filtered(ctx, id, spec)
	if err != nil {
		return nil, err
	}
	if len(filtered.RegionColumns()) == 0 {
		return nil, nil
	}
	return dataset.RegionBreakdown(filtered), nil
}

// Stats returns the KPI block for the filtered dataset
func (s *DashboardService) Stats(ctx context.Context, id string, spec domain.FilterSpec, measure string) (domain.DatasetStats, error) {
	filtered, err := s.filtered(ctx, id, spec)
	if err != nil {
		return domain.DatasetStats{}, err
	}
	return dataset.Stats(filtered, measure), nil
}

// ExportCSV writes the Platform/Year aggregation of the filtered dataset
// as the downloadable CSV artifact.
func (s *DashboardService) ExportCSV(ctx context.Context, id string, spec domain.FilterSpec, out io.Writer) error {
	agg, err := s.ByYearPlatform(ctx, id, spec, domain.ColGlobalSales)
	if err != nil {
		return err
	}
	if err := s.csvWriter.WriteAggregation(out, agg, s.measureLabel); err != nil {
		s.logger.ErrorContext(ctx, "CSV export failed",
			slog.String("dataset_id", id),
			slog.String("error", err.Error()))
		return apierrors.ErrExportFailed
	}
	return nil
}

// ExportExcel writes the same aggregation as an xlsx workbook
func (s *DashboardService) ExportExcel(ctx context.Context, id string, spec domain.FilterSpec, out io.Writer) error {
	agg, err := s.ByYearPlatform(ctx, id, spec, domain.ColGlobalSales)
	if err != nil {
		return err
	}
	if err := s.excelWriter.WriteAggregation(out, agg, s.measureLabel); err != nil {
		s.logger.ErrorContext(ctx, "Excel export failed",
			slog.String("dataset_id", id),
			slog.String("error", err.Error()))
		return apierrors.ErrExportFailed
	}
	return nil
}

// entry resolves a dataset id against the cache
func (s *DashboardService) entry(id string) (*dataset.Entry, error) {
	entry, ok := s.cache.Get(id)
	if !ok {
		return nil, apierrors.DatasetNotFoundError(id)
	}
	return entry, nil
}

// filtered resolves the dataset and applies the filter. A filter that
// matches no rows is not an error; it is counted and the caller returns
// an empty result with a warning.
func (s *DashboardService) filtered(ctx context.Context, id string, spec domain.FilterSpec) (*dataset.CleanTable, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	if spec.YearFrom == 0 && spec.YearTo == 0 && len(spec.Platforms) == 0 {
		return entry.Clean, nil
	}

	filtered := dataset.Filter(entry.Clean, spec)
	if filtered.Len() == 0 && entry.Clean.Len() > 0 {
		s.count(ctx, s.otel.EmptyResults)
		s.logger.DebugContext(ctx, "filter produced empty result",
			slog.String("dataset_id", id),
			slog.Int("year_from", spec.YearFrom),
			slog.Int("year_to", spec.YearTo),
			slog.Int("platform_count", len(spec.Platforms)))
	}
	return filtered, nil
}

func (s *DashboardService) count(ctx context.Context, counter metric.Int64Counter) {
	if s.otel == nil || counter == nil {
		return
	}
	counter.Add(ctx, 1)
}

// buildMeta derives dataset metadata from the parsed and cleaned tables
func buildMeta(id, filename string, table *dataset.Table, clean *dataset.CleanTable) domain.DatasetMeta {
	yearMin, yearMax, _ := clean.YearRange()
	return domain.DatasetMeta{
		ID:          id,
		Filename:    filename,
		RawRows:     table.RowCount(),
		CleanRows:   clean.Len(),
		DroppedRows: table.RowCount() - clean.Len(),
		Columns:     table.Columns,
		Platforms:   clean.Platforms(),
		YearMin:     yearMin,
		YearMax:     yearMax,
		HasRegions:  len(clean.RegionColumns()) > 0,
	}
}
