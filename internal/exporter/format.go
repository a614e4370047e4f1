package exporter

import "fmt"

// formatSales formats a sales figure for export with exactly 2 decimal
// places, so 13.4 appears as 13.40 in every artifact.
func formatSales(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatYear formats a year value for export
func formatYear(year int) string {
	return fmt.Sprintf("%d", year)
}
