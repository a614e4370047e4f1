package domain

// Canonical column names for uploaded sales CSV files.
const (
	ColName        = "Name"
	ColPlatform    = "Platform"
	ColYear        = "Year"
	ColGenre       = "Genre"
	ColPublisher   = "Publisher"
	ColNASales     = "NA_Sales"
	ColEUSales     = "EU_Sales"
	ColJPSales     = "JP_Sales"
	ColOtherSales  = "Other_Sales"
	ColGlobalSales = "Global_Sales"
)

// RequiredColumns is the minimal schema an uploaded file must carry.
var RequiredColumns = []string{ColPlatform, ColYear, ColGlobalSales}

// RegionColumns are the optional per-region sales columns, in display order.
var RegionColumns = []string{ColNASales, ColEUSales, ColJPSales, ColOtherSales}

// PreferredColumnOrder is the column ordering used when rendering raw rows.
// Columns absent from the uploaded file are skipped.
var PreferredColumnOrder = []string{
	ColName, ColPlatform, ColYear, ColGenre, ColPublisher,
	ColNASales, ColEUSales, ColJPSales, ColOtherSales, ColGlobalSales,
}

// SalesRecord is one cleaned row of an uploaded sales dataset.
// Year is always a valid integer and every sales figure is a parsed
// float64; rows that failed Year coercion never become records.
type SalesRecord struct {
	Name        string  `json:"name,omitempty" csv:"Name"`
	Platform    string  `json:"platform" csv:"Platform"`
	Year        int     `json:"year" csv:"Year"`
	Genre       string  `json:"genre,omitempty" csv:"Genre"`
	Publisher   string  `json:"publisher,omitempty" csv:"Publisher"`
	NASales     float64 `json:"na_sales" csv:"NA_Sales"`
	EUSales     float64 `json:"eu_sales" csv:"EU_Sales"`
	JPSales     float64 `json:"jp_sales" csv:"JP_Sales"`
	OtherSales  float64 `json:"other_sales" csv:"Other_Sales"`
	GlobalSales float64 `json:"global_sales" csv:"Global_Sales"`
}

// Measure returns the named sales measure for the record.
// Unknown measure names fall back to Global_Sales.
func (r SalesRecord) Measure(name string) float64 {
	switch name {
	case ColNASales:
		return r.NASales
	case ColEUSales:
		return r.EUSales
	case ColJPSales:
		return r.JPSales
	case ColOtherSales:
		return r.OtherSales
	default:
		return r.GlobalSales
	}
}

// FilterSpec narrows a dataset to a year range and optional platform set.
// An empty Platforms slice means no platform filtering is applied; every
// platform present in the data is retained. That behaviour is relied on by
// the dashboard's "all platforms" default and must not change.
type FilterSpec struct {
	YearFrom  int      `json:"year_from" validate:"min=0"`
	YearTo    int      `json:"year_to" validate:"min=0,gtefield=YearFrom"`
	Platforms []string `json:"platforms,omitempty"`
}

// Matches reports whether the record satisfies the filter.
func (f FilterSpec) Matches(r SalesRecord) bool {
	if r.Year < f.YearFrom || r.Year > f.YearTo {
		return false
	}
	if len(f.Platforms) == 0 {
		return true
	}
	for _, p := range f.Platforms {
		if p == r.Platform {
			return true
		}
	}
	return false
}

// YearTotal is one row of a one-dimensional aggregation keyed on Year.
type YearTotal struct {
	Year  int     `json:"year" csv:"Year"`
	Total float64 `json:"total" csv:"Total"`
}

// YearPlatformTotal is one row of the Year x Platform aggregation.
type YearPlatformTotal struct {
	Year     int     `json:"year" csv:"Year"`
	Platform string  `json:"platform" csv:"Platform"`
	Total    float64 `json:"total" csv:"Total"`
}

// PlatformTotal is one entry of a platform ranking.
type PlatformTotal struct {
	Platform string  `json:"platform" csv:"Platform"`
	Total    float64 `json:"total" csv:"Total"`
}

// PivotTable reshapes the Year x Platform aggregation so years become row
// labels and platforms become column labels. Cells[i][j] holds the summed
// measure for Years[i] and Platforms[j]; combinations absent from the
// aggregation are zero-filled, never null.
type PivotTable struct {
	Years     []int       `json:"years"`
	Platforms []string    `json:"platforms"`
	Cells     [][]float64 `json:"cells"`
}

// RegionTotal holds per-region sums for one year. Only regions whose
// columns were present in the uploaded file carry meaningful values; the
// Regions map on DatasetMeta records which ones those are.
type RegionTotal struct {
	Year       int     `json:"year" csv:"Year"`
	NASales    float64 `json:"na_sales" csv:"NA_Sales"`
	EUSales    float64 `json:"eu_sales" csv:"EU_Sales"`
	JPSales    float64 `json:"jp_sales" csv:"JP_Sales"`
	OtherSales float64 `json:"other_sales" csv:"Other_Sales"`
}

// DatasetStats is the KPI block shown above the dashboard charts.
type DatasetStats struct {
	Rows          int     `json:"rows"`
	PlatformCount int     `json:"platform_count"`
	YearMin       int     `json:"year_min"`
	YearMax       int     `json:"year_max"`
	TotalSales    float64 `json:"total_sales"`
}

// DatasetMeta describes an uploaded dataset after parsing and cleaning.
// ID is the hex SHA-256 of the raw uploaded bytes, so re-uploading the
// same content yields the same dataset identity.
type DatasetMeta struct {
	ID          string   `json:"id"`
	Filename    string   `json:"filename"`
	RawRows     int      `json:"raw_rows"`
	CleanRows   int      `json:"clean_rows"`
	DroppedRows int      `json:"dropped_rows"`
	Columns     []string `json:"columns"`
	Platforms   []string `json:"platforms"`
	YearMin     int      `json:"year_min"`
	YearMax     int      `json:"year_max"`
	HasRegions  bool     `json:"has_regions"`
}
