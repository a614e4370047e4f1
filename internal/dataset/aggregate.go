package dataset

import (
	"sort"

	"salesview/pkg/contracts/domain"
)

// AggregateByYear groups records by year and sums the named measure per
// group, sorted by year ascending. Years with no matching records produce
// no row at all; "no data for a year" and "data summing to zero" stay
// distinguishable.
func AggregateByYear(ct *CleanTable, measure string) []domain.YearTotal {
	totals := make(map[int]float64)
	for _, r := range ct.Records {
		totals[r.Year] += r.Measure(measure)
	}

	out := make([]domain.YearTotal, 0, len(totals))
	for year, total := range totals {
		out = append(out, domain.YearTotal{Year: year, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// AggregateByYearPlatform groups by (Year, Platform) and sums the measure,
// sorted by year ascending then platform ascending.
func AggregateByYearPlatform(ct *CleanTable, measure string) []domain.YearPlatformTotal {
	type key struct {
		year     int
		platform string
	}
	totals := make(map[key]float64)
	for _, r := range ct.Records {
		totals[key{r.Year, r.Platform}] += r.Measure(measure)
	}

	out := make([]domain.YearPlatformTotal, 0, len(totals))
	for k, total := range totals {
		out = append(out, domain.YearPlatformTotal{Year: k.year, Platform: k.platform, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Platform < out[j].Platform
	})
	return out
}

// Rank groups by platform, sums the measure and sorts descending by total.
// Ties keep the first-seen platform order from the input (stable sort).
// At most limit entries are returned; fewer groups than limit is fine.
// limit <= 0 means no limit.
func Rank(ct *CleanTable, measure string, limit int) []domain.PlatformTotal {
	totals := make(map[string]float64)
	var order []string
	for _, r := range ct.Records {
		if _, seen := totals[r.Platform]; !seen {
			order = append(order, r.Platform)
		}
		totals[r.Platform] += r.Measure(measure)
	}

	out := make([]domain.PlatformTotal, 0, len(order))
	for _, platform := range order {
		out = append(out, domain.PlatformTotal{Platform: platform, Total: totals[platform]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopPlatforms returns the names of the n best-selling platforms, used as
// the dashboard's default platform selection.
func TopPlatforms(ct *CleanTable, measure string, n int) []string {
	ranked := Rank(ct, measure, n)
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Platform
	}
	return names
}

// Pivot reshapes a Year x Platform aggregation into a 2D table: years as
// rows sorted ascending, platforms as columns sorted ascending, and every
// (year, platform) pair absent from the aggregation filled with fill.
func Pivot(agg []domain.YearPlatformTotal, fill float64) domain.PivotTable {
	yearSet := make(map[int]bool)
	platformSet := make(map[string]bool)
	for _, row := range agg {
		yearSet[row.Year] = true
		platformSet[row.Platform] = true
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	platforms := make([]string, 0, len(platformSet))
	for p := range platformSet {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	yearIdx := make(map[int]int, len(years))
	for i, y := range years {
		yearIdx[y] = i
	}
	platformIdx := make(map[string]int, len(platforms))
	for i, p := range platforms {
		platformIdx[p] = i
	}

	cells := make([][]float64, len(years))
	for i := range cells {
		row := make([]float64, len(platforms))
		for j := range row {
			row[j] = fill
		}
		cells[i] = row
	}
	for _, row := range agg {
		cells[yearIdx[row.Year]][platformIdx[row.Platform]] = row.Total
	}

	return domain.PivotTable{Years: years, Platforms: platforms, Cells: cells}
}

// RegionBreakdown sums the regional sales columns per year, sorted by year
// ascending. Regions whose columns were absent from the upload sum to zero;
// callers should consult RegionColumns before rendering a breakdown panel.
func RegionBreakdown(ct *CleanTable) []domain.RegionTotal {
	totals := make(map[int]*domain.RegionTotal)
	for _, r := range ct.Records {
		rt, ok := totals[r.Year]
		if !ok {
			rt = &domain.RegionTotal{Year: r.Year}
			totals[r.Year] = rt
		}
		rt.NASales += r.NASales
		rt.EUSales += r.EUSales
		rt.JPSales += r.JPSales
		rt.OtherSales += r.OtherSales
	}

	out := make([]domain.RegionTotal, 0, len(totals))
	for _, rt := range totals {
		out = append(out, *rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Stats computes the KPI block for a (possibly filtered) table.
func Stats(ct *CleanTable, measure string) domain.DatasetStats {
	stats := domain.DatasetStats{Rows: ct.Len()}
	if ct.Len() == 0 {
		return stats
	}

	stats.PlatformCount = len(ct.Platforms())
	stats.YearMin, stats.YearMax, _ = ct.YearRange()
	for _, r := range ct.Records {
		stats.TotalSales += r.Measure(measure)
	}
	return stats
}
