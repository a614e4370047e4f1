package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesview/internal/dataset"
	apierrors "salesview/internal/errors"
	"salesview/internal/validation"
	"salesview/pkg/contracts/domain"
)

const sampleCSV = `Name,Platform,Year,Global_Sales
Wii Sports,Wii,2006,82.74
Super Mario Bros.,NES,1985,40.24
Mario Kart Wii,Wii,2008,15.00
`

type recordingNotifier struct {
	replaced []domain.DatasetMeta
}

func (n *recordingNotifier) NotifyDatasetReplaced(meta domain.DatasetMeta) {
	n.replaced = append(n.replaced, meta)
}

func newTestService(t *testing.T) (*DashboardService, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	validator := validation.NewUploadValidator(nil, 1<<20, []string{".csv"})
	svc := NewDashboardService(nil, dataset.NewCache(), validator, nil, notifier, "Ventas_Globales")
	return svc, notifier
}

func mustUpload(t *testing.T, svc *DashboardService, filename, body string) domain.DatasetMeta {
	t.Helper()
	meta, err := svc.Upload(context.Background(), filename, []byte(body))
	require.NoError(t, err)
	return meta
}

func TestUploadIngestsDataset(t *testing.T) {
	svc, notifier := newTestService(t)

	meta := mustUpload(t, svc, "vgsales.csv", sampleCSV)

	assert.Len(t, meta.ID, 64)
	assert.Equal(t, "vgsales.csv", meta.Filename)
	assert.Equal(t, 3, meta.RawRows)
	assert.Equal(t, 3, meta.CleanRows)
	assert.Equal(t, 0, meta.DroppedRows)
	assert.Equal(t, []string{"NES", "Wii"}, meta.Platforms)
	assert.Equal(t, 1985, meta.YearMin)
	assert.Equal(t, 2006, meta.YearMax)
	assert.False(t, meta.HasRegions)

	require.Len(t, notifier.replaced, 1)
	assert.Equal(t, meta.ID, notifier.replaced[0].ID)
}

func TestUploadSameContentIsCacheHit(t *testing.T) {
	svc, notifier := newTestService(t)

	first := mustUpload(t, svc, "vgsales.csv", sampleCSV)
	second := mustUpload(t, svc, "renamed.csv", sampleCSV)

	// Content identity: same bytes, same dataset, original filename kept.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "vgsales.csv", second.Filename)
	assert.Len(t, notifier.replaced, 1)
}

func TestUploadReplacesDataset(t *testing.T) {
	svc, _ := newTestService(t)

	first := mustUpload(t, svc, "a.csv", sampleCSV)
	second := mustUpload(t, svc, "b.csv", sampleCSV+"Wii Play,Wii,2006,29.02\n")

	require.NotEqual(t, first.ID, second.ID)

	_, err := svc.Meta(first.ID)
	requireAPIError(t, err, "DATASET_NOT_FOUND")

	meta, err := svc.Meta(second.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, meta.CleanRows)

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
}

func TestCurrentWithoutUpload(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Current()
	requireAPIError(t, err, "DATASET_NOT_FOUND")
}

func TestUploadRejectsBadExtension(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Upload(context.Background(), "report.xlsx", []byte(sampleCSV))
	requireAPIError(t, err, "VALIDATION_FAILED")
}

func TestUploadRejectsUnparsableBytes(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Upload(context.Background(), "bad.csv", []byte("a,b\n\"unterminated\n"))
	requireAPIError(t, err, "PARSE_FAILED")
}

func TestUploadRejectsMissingColumns(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Upload(context.Background(), "bad.csv", []byte("Name,Year\nWii Sports,2006\n"))
	requireAPIError(t, err, "SCHEMA_INVALID")
}

func TestRowsWindow(t *testing.T) {
	svc, _ := newTestService(t)
	meta := mustUpload(t, svc, "vgsales.csv", sampleCSV)
	ctx := context.Background()
	all := domain.FilterSpec{}

	rows, total, err := svc.Rows(ctx, meta.ID, all, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "Wii Sports", rows[0].Name)

	rows, total, err = svc.Rows(ctx, meta.ID, all, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mario Kart Wii", rows[0].Name)

	rows, _, err = svc.Rows(ctx, meta.ID, all, 99, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRowsFiltered(t *testing.T) {
	svc, _ := newTestService(t)
	meta := mustUpload(t, svc, "vgsales.csv", sampleCSV)

	spec := domain.FilterSpec{YearFrom: 2006, YearTo: 2008, Platforms: []string{"Wii"}}
	rows, total, err := svc.Rows(context.Background(), meta.ID, spec, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "Wii Sports", rows[0].Name)
}

func TestAggregationViews(t *testing.T) {
	svc, _ := newTestService(t)
	meta := mustUpload(t, svc, "vgsales.csv", sampleCSV)
	ctx := context.Background()
	all := domain.FilterSpec{}

	byYear, err := svc.ByYear(ctx, meta.ID, all, domain.ColGlobalSales)
	require.NoError(t, err)
	assert.Equal(t, []domain.YearTotal{
		{Year: 1985, Total: 40.24},
		{Year: 2006, Total: 82.74},
		{Year: 2008, Total: 15.00},
	}, byYear)

	rank, err := svc.Rank(ctx, meta.ID, all, domain.ColGlobalSales, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.PlatformTotal{
		{Platform: "Wii", Total: 97.74},
		{Platform: "NES", Total: 40.24},
	}, rank)

	pivot, err := svc.Pivot(ctx, meta.ID, all, domain.ColGlobalSales)
	require.NoError(t, err)
	assert.Equal(t, []int{1985, 2006, 2008}, pivot.Years)
	assert.Equal(t, []string{"NES", "Wii"}, pivot.Platforms)
	assert.Equal(t, 0.0, pivot.Cells[0][1]) // NES row has no Wii sales

	stats, err := svc.Stats(ctx, meta.ID, all, domain.ColGlobalSales)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 2, stats.PlatformCount)
	assert.InDelta(t, 137.98, stats.TotalSales, 1e-9)
}

func TestFilteredViews(t *testing.T) {
	svc, _ := newTestService(t)
	meta := mustUpload(t, svc, "vgsales.csv", sampleCSV)
	ctx := context.Background()

	spec := domain.FilterSpec{YearFrom: 2006, YearTo: 2008, Platforms: []string{"Wii"}}
	byYear, err := svc.ByYear(ctx, meta.ID, spec, domain.ColGlobalSales)
	require.NoError(t, err)
	assert.Equal(t, []domain.YearTotal{
		{Year: 2006, Total: 82.74},
		{Year: 2008, Total: 15.00},
	}, byYear)

	// A filter matching nothing is not an error.
	empty, err := svc.ByYear(ctx, meta.ID, domain.FilterSpec{YearFrom: 1990, YearTo: 1991}, domain.ColGlobalSales)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRegionsWithRegionalColumns(t *testing.T) {
	svc, _ := newTestService(t)
	csv := "Platform,Year,NA_Sales,EU_Sales,Global_Sales\n" +
		"Wii,2006,41.49,29.02,82.74\n" +
		"NES,1985,29.08,3.58,40.24\n"
	meta := mustUpload(t, svc, "vgsales.csv", csv)

	regions, err := svc.Regions(context.Background(), meta.ID, domain.FilterSpec{})
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, 1985, regions[0].Year)
	assert.InDelta(t, 29.08, regions[0].NASales, 1e-9)
}

func TestRegionsWithoutRegionalColumns(t *testing.T) {
	svc, _ := newTestService(t)
	meta := mustUpload(t, svc, "vgsales.csv", sampleCSV)
	require.False(t, meta.HasRegions)

	// No regional columns means no rows, not zero-filled rows per year.
	regions, err := svc.Regions(context.Background(), meta.ID, domain.FilterSpec{})
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestViewsOnUnknownDataset(t *testing.T) {
	svc, _ := newTestService(t)
	mustUpload(t, svc, "vgsales.csv", sampleCSV)

	_, err := svc.ByYear(context.Background(), "deadbeef", domain.FilterSpec{}, domain.ColGlobalSales)
	requireAPIError(t, err, "DATASET_NOT_FOUND")

	_, _, err = svc.Rows(context.Background(), "deadbeef", domain.FilterSpec{}, 0, 10)
	requireAPIError(t, err, "DATASET_NOT_FOUND")
}

func TestExportCSV(t *testing.T) {
	svc, _ := newTestService(t)
	meta := mustUpload(t, svc, "vgsales.csv", sampleCSV)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), meta.ID, domain.FilterSpec{}, &buf))

	out := strings.TrimPrefix(buf.String(), "\xEF\xBB\xBF")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Platform,Year,Ventas_Globales", lines[0])
	// Sorted by platform, then year.
	assert.Equal(t, "NES,1985,40.24", lines[1])
	assert.Equal(t, "Wii,2006,82.74", lines[2])
	assert.Equal(t, "Wii,2008,15.00", lines[3])
}

func TestExportExcel(t *testing.T) {
	svc, _ := newTestService(t)
	meta := mustUpload(t, svc, "vgsales.csv", sampleCSV)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportExcel(context.Background(), meta.ID, domain.FilterSpec{}, &buf))
	// xlsx files are zip archives.
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))
}

func requireAPIError(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, code, apiErr.ErrorCode)
}
