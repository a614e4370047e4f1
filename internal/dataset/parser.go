package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse interprets uploaded bytes as a CSV table. Decoding is attempted as
// UTF-8 first, then Latin-1, then once more with the bytes taken as-is.
// The input slice is never modified, so callers may hand the same buffer to
// other readers afterwards.
//
// A *ParseError is returned when no strategy yields a structurally valid
// table: empty input, a header-only file with inconsistent rows, or rows
// whose field count differs from the header.
func Parse(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Reason: "empty input"}
	}

	var lastErr error

	// Attempt 1: UTF-8. Reject up front when the bytes are not valid UTF-8
	// so Latin-1 content does not sneak through with replacement runes.
	if utf8.Valid(data) {
		if t, err := parseCSV(bytes.NewReader(data)); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	// Attempt 2: Latin-1. Every byte sequence decodes, so this only fails
	// on structural CSV problems.
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err == nil {
		if t, err := parseCSV(bytes.NewReader(decoded)); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	// Final attempt: no explicit encoding, bytes as-is.
	if t, err := parseCSV(bytes.NewReader(data)); err == nil {
		return t, nil
	} else if lastErr == nil {
		lastErr = err
	}

	return nil, &ParseError{Reason: "no encoding strategy produced a valid table", Err: lastErr}
}

func parseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	// FieldsPerRecord defaults to the header width, which enforces the
	// consistent-column-count requirement.

	header, err := reader.Read()
	if err != nil {
		return nil, &ParseError{Reason: "reading header", Err: err}
	}

	columns := make([]string, len(header))
	copy(columns, header)

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Reason: "reading rows", Err: err}
		}
		rows = append(rows, record)
	}

	return &Table{Columns: columns, Rows: rows}, nil
}
