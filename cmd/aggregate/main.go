// Command aggregate runs the ingestion pipeline on a local CSV file and
// writes the Platform/Year aggregation artifact without starting the
// HTTP server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"salesview/internal/config"
	"salesview/internal/dataset"
	"salesview/internal/exporter"
	"salesview/pkg/contracts/domain"
)

func main() {
	var (
		input     = flag.String("input", "", "path to the sales CSV file (required)")
		output    = flag.String("output", "", "output path; defaults to the standard artifact name, \"-\" for stdout")
		format    = flag.String("format", "csv", "output format: csv or xlsx")
		yearFrom  = flag.Int("year-from", 0, "lower year bound; 0 means the dataset minimum")
		yearTo    = flag.Int("year-to", 0, "upper year bound; 0 means the dataset maximum")
		platforms = flag.String("platforms", "", "comma-separated platform filter; empty keeps all")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: aggregate -input sales.csv [-output out.csv] [-format csv|xlsx]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(logger, *input, *output, *format, *yearFrom, *yearTo, *platforms); err != nil {
		logger.Error("aggregation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, input, output, format string, yearFrom, yearTo int, platformList string) error {
	cfg := config.Default()

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	table, err := dataset.Parse(data)
	if err != nil {
		return err
	}
	if err := dataset.ValidateSchema(table, domain.RequiredColumns); err != nil {
		var schemaErr *dataset.SchemaError
		if errors.As(err, &schemaErr) {
			return fmt.Errorf("%s is missing required columns %v", input, schemaErr.Missing)
		}
		return err
	}

	clean := dataset.Clean(table)
	logger.Info("dataset cleaned",
		slog.Int("raw_rows", table.RowCount()),
		slog.Int("clean_rows", clean.Len()),
		slog.Int("dropped_rows", table.RowCount()-clean.Len()))

	spec := clean.FullSpan()
	if yearFrom > 0 {
		spec.YearFrom = yearFrom
	}
	if yearTo > 0 {
		spec.YearTo = yearTo
	}
	if platformList != "" {
		for _, p := range strings.Split(platformList, ",") {
			if p = strings.TrimSpace(p); p != "" {
				spec.Platforms = append(spec.Platforms, p)
			}
		}
	}
	if spec.YearTo < spec.YearFrom {
		return fmt.Errorf("year-from %d exceeds year-to %d", spec.YearFrom, spec.YearTo)
	}

	filtered := dataset.Filter(clean, spec)
	if filtered.Len() == 0 {
		logger.Warn("no rows match the current filter; writing an empty artifact")
	}
	agg := dataset.AggregateByYearPlatform(filtered, domain.ColGlobalSales)

	if output == "" {
		output = cfg.Export.Filename
		if format == "xlsx" {
			output = strings.TrimSuffix(output, ".csv") + ".xlsx"
		}
	}

	out := os.Stdout
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		out = f
	}

	switch format {
	case "csv":
		if err := exporter.NewCSVWriter(logger).WriteAggregation(out, agg, cfg.Export.MeasureLabel); err != nil {
			return err
		}
	case "xlsx":
		if err := exporter.NewExcelWriter(logger).WriteAggregation(out, agg, cfg.Export.MeasureLabel); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	if output != "-" {
		logger.Info("artifact written",
			slog.String("path", output),
			slog.Int("rows", len(agg)))
	}
	return nil
}
