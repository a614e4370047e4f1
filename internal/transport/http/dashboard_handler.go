package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "salesview/internal/errors"
	"salesview/pkg/contracts/domain"
)

const (
	defaultRowLimit  = 100
	maxRowLimit      = 1000
	defaultRankLimit = 8
)

// DashboardService is the service surface the dashboard handler depends on
type DashboardService interface {
	Upload(ctx context.Context, filename string, data []byte) (domain.DatasetMeta, error)
	Current() (domain.DatasetMeta, error)
	Meta(id string) (domain.DatasetMeta, error)
	Rows(ctx context.Context, id string, spec domain.FilterSpec, offset, limit int) ([]domain.SalesRecord, int, error)
	ByYear(ctx context.Context, id string, spec domain.FilterSpec, measure string) ([]domain.YearTotal, error)
	ByYearPlatform(ctx context.Context, id string, spec domain.FilterSpec, measure string) ([]domain.YearPlatformTotal, error)
	Rank(ctx context.Context, id string, spec domain.FilterSpec, measure string, limit int) ([]domain.PlatformTotal, error)
	Pivot(ctx context.Context, id string, spec domain.FilterSpec, measure string) (domain.PivotTable, error)
	Regions(ctx context.Context, id string, spec domain.FilterSpec) ([]domain.RegionTotal, error)
	Stats(ctx context.Context, id string, spec domain.FilterSpec, measure string) (domain.DatasetStats, error)
	ExportCSV(ctx context.Context, id string, spec domain.FilterSpec, out io.Writer) error
	ExportExcel(ctx context.Context, id string, spec domain.FilterSpec, out io.Writer) error
}

// DashboardHandler serves the dataset ingestion and aggregation API
type DashboardHandler struct {
	service        DashboardService
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	validate       *validator.Validate
	maxUploadBytes int64
	exportFilename string
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64, exportFilename string) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "dashboard_handler")),
		errorHandler:   errorHandler,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
		exportFilename: exportFilename,
	}
}

// Routes returns the dataset routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.UploadDataset)
	r.Get("/current", h.GetCurrentDataset)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.GetDataset)
		r.Get("/rows", h.GetRows)
		r.Get("/by-year", h.GetByYear)
		r.Get("/by-year-platform", h.GetByYearPlatform)
		r.Get("/rank", h.GetRank)
		r.Get("/pivot", h.GetPivot)
		r.Get("/regions", h.GetRegions)
		r.Get("/stats", h.GetStats)
		r.Get("/export", h.ExportAggregation)
	})

	return r
}

// DatasetCtx validates the dataset id parameter
func (h *DashboardHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if len(id) != 64 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "Dataset id must be a 64 character hex digest"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UploadDataset handles POST /api/datasets: a multipart form with a
// single "file" part holding the CSV bytes.
func (h *DashboardHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Request must be multipart/form-data with a file part"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Missing file part"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read upload",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ErrInternalServer)
		return
	}

	meta, err := h.service.Upload(r.Context(), header.Filename, data)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   meta,
	})
}

// GetCurrentDataset handles GET /api/datasets/current: metadata of the
// active dataset without knowing its id.
func (h *DashboardHandler) GetCurrentDataset(w http.ResponseWriter, r *http.Request) {
	meta, err := h.service.Current()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   meta,
	})
}

// GetDataset handles GET /api/datasets/{id}
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	meta, err := h.service.Meta(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   meta,
	})
}

// GetRows handles GET /api/datasets/{id}/rows?offset=&limit= plus the
// shared filter parameters.
func (h *DashboardHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	id, spec, _, ok := h.bindView(w, r)
	if !ok {
		return
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultRowLimit)
	if limit > maxRowLimit {
		limit = maxRowLimit
	}
	if limit < 1 || offset < 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", "limit must be positive and offset non-negative"))
		return
	}

	rows, total, err := h.service.Rows(r.Context(), id, spec, offset, limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  len(rows),
		"total":  total,
		"offset": offset,
	})
}

// GetByYear handles GET /api/datasets/{id}/by-year
func (h *DashboardHandler) GetByYear(w http.ResponseWriter, r *http.Request) {
	id, spec, measure, ok := h.bindView(w, r)
	if !ok {
		return
	}
	agg, err := h.service.ByYear(r.Context(), id, spec, measure)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.renderView(w, r, agg, len(agg))
}

// GetByYearPlatform handles GET /api/datasets/{id}/by-year-platform
func (h *DashboardHandler) GetByYearPlatform(w http.ResponseWriter, r *http.Request) {
	id, spec, measure, ok := h.bindView(w, r)
	if !ok {
		return
	}
	agg, err := h.service.ByYearPlatform(r.Context(), id, spec, measure)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.renderView(w, r, agg, len(agg))
}

// GetRank handles GET /api/datasets/{id}/rank?limit=
func (h *DashboardHandler) GetRank(w http.ResponseWriter, r *http.Request) {
	id, spec, measure, ok := h.bindView(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", defaultRankLimit)
	if limit < 1 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", "limit must be positive"))
		return
	}

	rank, err := h.service.Rank(r.Context(), id, spec, measure, limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.renderView(w, r, rank, len(rank))
}

// GetPivot handles GET /api/datasets/{id}/pivot
func (h *DashboardHandler) GetPivot(w http.ResponseWriter, r *http.Request) {
	id, spec, measure, ok := h.bindView(w, r)
	if !ok {
		return
	}
	pivot, err := h.service.Pivot(r.Context(), id, spec, measure)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.renderView(w, r, pivot, len(pivot.Years))
}

// GetRegions handles GET /api/datasets/{id}/regions. An upload without
// regional columns gets an empty payload with a note, not an error.
func (h *DashboardHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	id, spec, _, ok := h.bindView(w, r)
	if !ok {
		return
	}
	regions, err := h.service.Regions(r.Context(), id, spec)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if len(regions) == 0 {
		if meta, metaErr := h.service.Meta(id); metaErr == nil && !meta.HasRegions {
			render.JSON(w, r, map[string]interface{}{
				"status":  "success",
				"data":    []domain.RegionTotal{},
				"count":   0,
				"warning": "This dataset has no regional sales columns",
			})
			return
		}
	}
	h.renderView(w, r, regions, len(regions))
}

// GetStats handles GET /api/datasets/{id}/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, spec, measure, ok := h.bindView(w, r)
	if !ok {
		return
	}
	stats, err := h.service.Stats(r.Context(), id, spec, measure)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.renderView(w, r, stats, stats.Rows)
}

// ExportAggregation handles GET /api/datasets/{id}/export?format=csv|xlsx.
// The artifact filename is fixed regardless of the uploaded file's name.
func (h *DashboardHandler) ExportAggregation(w http.ResponseWriter, r *http.Request) {
	id, spec, _, ok := h.bindView(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.exportFilename))
		if err := h.service.ExportCSV(r.Context(), id, spec, w); err != nil {
			h.errorHandler.HandleError(w, r, err)
		}
	case "xlsx":
		filename := strings.TrimSuffix(h.exportFilename, ".csv") + ".xlsx"
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := h.service.ExportExcel(r.Context(), id, spec, w); err != nil {
			h.errorHandler.HandleError(w, r, err)
		}
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", fmt.Sprintf("Unsupported export format %q", format)))
	}
}

// bindView extracts the dataset id, filter and measure from the request.
// Missing year bounds default to the dataset's full span, matching the
// dashboard's year slider default.
func (h *DashboardHandler) bindView(w http.ResponseWriter, r *http.Request) (string, domain.FilterSpec, string, bool) {
	id := chi.URLParam(r, "id")

	meta, err := h.service.Meta(id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return "", domain.FilterSpec{}, "", false
	}

	q := r.URL.Query()
	spec := domain.FilterSpec{
		YearFrom:  queryInt(r, "year_from", meta.YearMin),
		YearTo:    queryInt(r, "year_to", meta.YearMax),
		Platforms: q["platform"],
	}
	if err := h.validate.Struct(spec); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("year_from", "year_from must not exceed year_to"))
		return "", domain.FilterSpec{}, "", false
	}

	measure := q.Get("measure")
	if measure == "" {
		measure = domain.ColGlobalSales
	}
	if !validMeasure(measure) {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("measure", fmt.Sprintf("Unknown measure %q", measure)))
		return "", domain.FilterSpec{}, "", false
	}

	return id, spec, measure, true
}

// renderView writes a success envelope; an empty result carries a warning
// rather than an error status.
func (h *DashboardHandler) renderView(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	resp := map[string]interface{}{
		"status": "success",
		"data":   data,
		"count":  count,
	}
	if count == 0 {
		resp["warning"] = "No rows match the current filter"
	}
	render.JSON(w, r, resp)
}

func validMeasure(measure string) bool {
	if measure == domain.ColGlobalSales {
		return true
	}
	for _, c := range domain.RegionColumns {
		if measure == c {
			return true
		}
	}
	return false
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
