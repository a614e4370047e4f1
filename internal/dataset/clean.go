package dataset

import (
	"strconv"
	"strings"

	"salesview/pkg/contracts/domain"
)

// Clean derives a typed CleanTable from a parsed table.
//
// Coercion policy, in order:
//
//   - Rows with a blank Platform, Year or Global_Sales cell are dropped.
//   - Year is coerced to a number; rows that fail are dropped entirely.
//     Fractional years truncate toward zero, so "2006.0" and a malformed
//     "2006.7" both become 2006.
//   - Sales columns (Global_Sales plus any regional columns present) are
//     coerced to float64; cells that fail become 0.0. The asymmetry with
//     Year (drop vs zero-fill) is deliberate and callers depend on it.
//
// An empty result is a valid outcome, not an error; it means every row
// failed Year coercion, which callers must treat differently from a parse
// failure. The input table is never mutated.
func Clean(t *Table) *CleanTable {
	idx := columnIndexes(t)

	ct := &CleanTable{columns: make(map[string]bool, len(idx))}
	for name := range idx {
		ct.columns[name] = true
	}

	for _, row := range t.Rows {
		platform := strings.TrimSpace(cell(row, idx, domain.ColPlatform))
		yearRaw := strings.TrimSpace(cell(row, idx, domain.ColYear))
		globalRaw := strings.TrimSpace(cell(row, idx, domain.ColGlobalSales))
		if platform == "" || yearRaw == "" || globalRaw == "" {
			continue
		}

		yearF, err := strconv.ParseFloat(yearRaw, 64)
		if err != nil {
			continue
		}

		rec := domain.SalesRecord{
			Platform:    platform,
			Year:        int(yearF),
			Name:        strings.TrimSpace(cell(row, idx, domain.ColName)),
			Genre:       strings.TrimSpace(cell(row, idx, domain.ColGenre)),
			Publisher:   strings.TrimSpace(cell(row, idx, domain.ColPublisher)),
			GlobalSales: coerceSales(globalRaw),
			NASales:     coerceSales(cell(row, idx, domain.ColNASales)),
			EUSales:     coerceSales(cell(row, idx, domain.ColEUSales)),
			JPSales:     coerceSales(cell(row, idx, domain.ColJPSales)),
			OtherSales:  coerceSales(cell(row, idx, domain.ColOtherSales)),
		}
		ct.Records = append(ct.Records, rec)
	}

	return ct
}

// columnIndexes maps each canonical column present in the table to its
// position. Non-canonical columns are ignored by cleaning.
func columnIndexes(t *Table) map[string]int {
	idx := make(map[string]int)
	for _, name := range domain.PreferredColumnOrder {
		if i := t.ColumnIndex(name); i >= 0 {
			idx[name] = i
		}
	}
	return idx
}

func cell(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// coerceSales parses a sales cell, zero-filling anything unparsable.
func coerceSales(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0.0
	}
	return v
}
