package dataset

import (
	"fmt"
	"sort"

	"salesview/pkg/contracts/domain"
)

// Table is an uploaded CSV file after parsing: an ordered header plus rows
// of untyped string cells. Every row has exactly len(Columns) cells; the
// parser rejects files where that does not hold.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// RowCount returns the number of data rows (header excluded).
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// CleanTable holds the typed records that survived cleaning, together with
// the set of canonical columns the source file actually carried. Cleaning
// never mutates the Table it was derived from.
type CleanTable struct {
	Records []domain.SalesRecord

	columns map[string]bool
}

// Len returns the number of cleaned records.
func (ct *CleanTable) Len() int {
	return len(ct.Records)
}

// HasColumn reports whether the source file carried the named canonical column.
func (ct *CleanTable) HasColumn(name string) bool {
	return ct.columns[name]
}

// RegionColumns returns the optional regional sales columns present in the
// source file, in display order.
func (ct *CleanTable) RegionColumns() []string {
	var present []string
	for _, c := range domain.RegionColumns {
		if ct.columns[c] {
			present = append(present, c)
		}
	}
	return present
}

// Platforms returns the distinct platform names present, sorted ascending.
func (ct *CleanTable) Platforms() []string {
	seen := make(map[string]bool)
	var platforms []string
	for _, r := range ct.Records {
		if !seen[r.Platform] {
			seen[r.Platform] = true
			platforms = append(platforms, r.Platform)
		}
	}
	sort.Strings(platforms)
	return platforms
}

// YearRange returns the minimum and maximum year present.
// ok is false for an empty table.
func (ct *CleanTable) YearRange() (minYear, maxYear int, ok bool) {
	if len(ct.Records) == 0 {
		return 0, 0, false
	}
	minYear, maxYear = ct.Records[0].Year, ct.Records[0].Year
	for _, r := range ct.Records[1:] {
		if r.Year < minYear {
			minYear = r.Year
		}
		if r.Year > maxYear {
			maxYear = r.Year
		}
	}
	return minYear, maxYear, true
}

// FullSpan returns a FilterSpec covering every record in the table.
func (ct *CleanTable) FullSpan() domain.FilterSpec {
	minYear, maxYear, _ := ct.YearRange()
	return domain.FilterSpec{YearFrom: minYear, YearTo: maxYear}
}

// ParseError reports that uploaded bytes could not be interpreted as CSV
// under any attempted encoding.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse CSV: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse CSV: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports required columns missing from a parsed table.
type SchemaError struct {
	Missing  []string
	Detected []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns %v (detected %v)", e.Missing, e.Detected)
}
