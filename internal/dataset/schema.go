package dataset

// MissingColumns returns the subset of required column names absent from
// the table, in the order they appear in required. A nil result means the
// schema check passed. The table is not modified.
func MissingColumns(t *Table, required []string) []string {
	present := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = true
	}

	var missing []string
	for _, c := range required {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// ValidateSchema runs MissingColumns against the required column set and
// wraps a non-empty result in a *SchemaError carrying the detected columns
// for the user-facing message.
func ValidateSchema(t *Table, required []string) error {
	missing := MissingColumns(t, required)
	if len(missing) == 0 {
		return nil
	}
	detected := make([]string, len(t.Columns))
	copy(detected, t.Columns)
	return &SchemaError{Missing: missing, Detected: detected}
}
