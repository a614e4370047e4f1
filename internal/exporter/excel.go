package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"

	"salesview/pkg/contracts/domain"
)

const aggregationSheet = "Aggregation"

// ExcelWriter exports aggregated views as xlsx workbooks
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a new Excel exporter
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// WriteAggregation writes the Platform/Year aggregation to an xlsx
// workbook with a single sheet, same column layout as the CSV artifact.
func (w *ExcelWriter) WriteAggregation(out io.Writer, agg []domain.YearPlatformTotal, measureLabel string) error {
	rows := make([]domain.YearPlatformTotal, len(agg))
	copy(rows, agg)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Platform != rows[j].Platform {
			return rows[i].Platform < rows[j].Platform
		}
		return rows[i].Year < rows[j].Year
	})

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", aggregationSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := []interface{}{domain.ColPlatform, domain.ColYear, measureLabel}
	if err := f.SetSheetRow(aggregationSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell for row %d: %w", i, err)
		}
		values := []interface{}{row.Platform, row.Year, row.Total}
		if err := f.SetSheetRow(aggregationSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.logger.Debug("writing aggregation workbook",
		slog.Int("row_count", len(rows)),
		slog.String("measure_label", measureLabel))

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
