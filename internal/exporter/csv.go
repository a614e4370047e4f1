package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"salesview/pkg/contracts/domain"
)

// CSVWriter exports aggregated views as CSV
type CSVWriter struct {
	logger *slog.Logger
	// BOMPrefix adds a UTF-8 BOM so Excel recognises the encoding.
	BOMPrefix bool
}

// NewCSVWriter creates a new CSV exporter
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger, BOMPrefix: true}
}

// WriteAggregation writes the Platform/Year aggregation with the measure
// column renamed to measureLabel. Rows are ordered by platform ascending,
// then year ascending, matching the downloadable artifact of the dashboard.
func (w *CSVWriter) WriteAggregation(out io.Writer, agg []domain.YearPlatformTotal, measureLabel string) error {
	rows := make([]domain.YearPlatformTotal, len(agg))
	copy(rows, agg)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Platform != rows[j].Platform {
			return rows[i].Platform < rows[j].Platform
		}
		return rows[i].Year < rows[j].Year
	})

	w.logger.Debug("writing aggregation CSV",
		slog.Int("row_count", len(rows)),
		slog.String("measure_label", measureLabel))

	if w.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if err := writer.Write([]string{domain.ColPlatform, domain.ColYear, measureLabel}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		record := []string{row.Platform, formatYear(row.Year), formatSales(row.Total)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WritePivot writes a zero-filled pivot table: years as rows, platforms as
// columns, with a leading Year column.
func (w *CSVWriter) WritePivot(out io.Writer, pivot domain.PivotTable) error {
	if w.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	header := append([]string{domain.ColYear}, pivot.Platforms...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, year := range pivot.Years {
		record := make([]string, 0, len(pivot.Platforms)+1)
		record = append(record, formatYear(year))
		for _, cell := range pivot.Cells[i] {
			record = append(record, formatSales(cell))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write pivot row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
