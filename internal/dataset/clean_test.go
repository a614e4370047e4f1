package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesview/pkg/contracts/domain"
)

func mustParse(t *testing.T, csv string) *Table {
	t.Helper()
	table, err := Parse([]byte(csv))
	require.NoError(t, err)
	return table
}

func TestCleanYearCoercion(t *testing.T) {
	tests := []struct {
		name      string
		csv       string
		wantYears []int
	}{
		{
			name:      "integer years pass through",
			csv:       "Platform,Year,Global_Sales\nWii,2006,82.74\nNES,1985,40.24\nWii,2009,15.0\n",
			wantYears: []int{2006, 1985, 2009},
		},
		{
			name:      "float year truncates to integer",
			csv:       "Platform,Year,Global_Sales\nWii,2006.0,82.74\n",
			wantYears: []int{2006},
		},
		{
			name:      "malformed fractional year truncates toward zero",
			csv:       "Platform,Year,Global_Sales\nWii,2006.7,82.74\n",
			wantYears: []int{2006},
		},
		{
			name:      "unparsable year drops the row",
			csv:       "Platform,Year,Global_Sales\nWii,abc,82.74\nNES,1985,40.24\n",
			wantYears: []int{1985},
		},
		{
			name:      "empty year drops the row",
			csv:       "Platform,Year,Global_Sales\nWii,,82.74\nNES,1985,40.24\n",
			wantYears: []int{1985},
		},
		{
			name:      "all rows failing yields empty table",
			csv:       "Platform,Year,Global_Sales\nWii,abc,82.74\nNES,N/A,40.24\n",
			wantYears: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := Clean(mustParse(t, tt.csv))
			var years []int
			for _, r := range ct.Records {
				years = append(years, r.Year)
			}
			assert.Equal(t, tt.wantYears, years)
		})
	}
}

func TestCleanSalesCoercion(t *testing.T) {
	// Sales failures zero-fill the cell; Year failures delete the row.
	// The asymmetry is the contract.
	ct := Clean(mustParse(t, "Platform,Year,Global_Sales\nWii,2006,abc\n"))
	require.Equal(t, 1, ct.Len())
	assert.Equal(t, 0.0, ct.Records[0].GlobalSales)

	ct = Clean(mustParse(t, "Platform,Year,Global_Sales,NA_Sales\nWii,2006,82.74,not-a-number\n"))
	require.Equal(t, 1, ct.Len())
	assert.Equal(t, 82.74, ct.Records[0].GlobalSales)
	assert.Equal(t, 0.0, ct.Records[0].NASales)
}

func TestCleanDropsRowsWithBlankRequiredCells(t *testing.T) {
	csv := "Platform,Year,Global_Sales\n" +
		",2006,82.74\n" + // blank platform
		"Wii,2006,\n" + // blank global sales
		"NES,1985,40.24\n"

	ct := Clean(mustParse(t, csv))
	require.Equal(t, 1, ct.Len())
	assert.Equal(t, "NES", ct.Records[0].Platform)
}

func TestCleanOptionalColumns(t *testing.T) {
	csv := "Name,Platform,Year,Genre,Publisher,NA_Sales,Global_Sales\n" +
		"Wii Sports,Wii,2006,Sports,Nintendo,41.49,82.74\n"

	ct := Clean(mustParse(t, csv))
	require.Equal(t, 1, ct.Len())

	rec := ct.Records[0]
	assert.Equal(t, "Wii Sports", rec.Name)
	assert.Equal(t, "Sports", rec.Genre)
	assert.Equal(t, "Nintendo", rec.Publisher)
	assert.Equal(t, 41.49, rec.NASales)
	assert.Equal(t, 0.0, rec.EUSales)

	assert.True(t, ct.HasColumn(domain.ColNASales))
	assert.False(t, ct.HasColumn(domain.ColEUSales))
	assert.Equal(t, []string{domain.ColNASales}, ct.RegionColumns())
}

func TestFilter(t *testing.T) {
	ct := Clean(mustParse(t, "Platform,Year,Global_Sales\nWii,2006,82.74\nNES,1985,40.24\nWii,2009,15.0\n"))

	tests := []struct {
		name         string
		spec         domain.FilterSpec
		wantYears    []int
		wantPlatform []string
	}{
		{
			name:         "year range only",
			spec:         domain.FilterSpec{YearFrom: 2006, YearTo: 2006},
			wantYears:    []int{2006},
			wantPlatform: []string{"Wii"},
		},
		{
			name:         "empty platform set retains all platforms",
			spec:         domain.FilterSpec{YearFrom: 1980, YearTo: 2020},
			wantYears:    []int{2006, 1985, 2009},
			wantPlatform: []string{"Wii", "NES", "Wii"},
		},
		{
			name:         "platform subset",
			spec:         domain.FilterSpec{YearFrom: 1980, YearTo: 2020, Platforms: []string{"NES"}},
			wantYears:    []int{1985},
			wantPlatform: []string{"NES"},
		},
		{
			name:      "no matches is empty not error",
			spec:      domain.FilterSpec{YearFrom: 1990, YearTo: 1995},
			wantYears: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(ct, tt.spec)
			var years []int
			var platforms []string
			for _, r := range got.Records {
				years = append(years, r.Year)
				platforms = append(platforms, r.Platform)
			}
			assert.Equal(t, tt.wantYears, years)
			if tt.wantPlatform != nil {
				assert.Equal(t, tt.wantPlatform, platforms)
			}
		})
	}
}

func TestFilterEmptySetEquivalentToFullSet(t *testing.T) {
	ct := Clean(mustParse(t, "Platform,Year,Global_Sales\nWii,2006,82.74\nNES,1985,40.24\nWii,2009,15.0\n"))
	span := ct.FullSpan()

	all := Filter(ct, span)
	explicit := Filter(ct, domain.FilterSpec{
		YearFrom:  span.YearFrom,
		YearTo:    span.YearTo,
		Platforms: ct.Platforms(),
	})

	assert.Equal(t, all.Records, explicit.Records)
}

func TestFilterPreservesOrder(t *testing.T) {
	ct := Clean(mustParse(t, "Platform,Year,Global_Sales\nWii,2006,1\nNES,2006,2\nWii,2006,3\n"))
	got := Filter(ct, domain.FilterSpec{YearFrom: 2006, YearTo: 2006})

	require.Equal(t, 3, got.Len())
	assert.Equal(t, 1.0, got.Records[0].GlobalSales)
	assert.Equal(t, 2.0, got.Records[1].GlobalSales)
	assert.Equal(t, 3.0, got.Records[2].GlobalSales)
}
