// Package tabular implements the Tabular Adapter: delimited/spreadsheet
// ingestion feeding the Repair Engine, and schema-ordered CSV serialization
// of its output.
//
// Grounded on the teacher's paste/CSV handling in internal/converter
// (renderer.go's cell normalization, converter.go's row parsing) for the
// permissive-decode-then-parse shape, generalized to feed the engine
// instead of the teacher's markdown table renderer.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/ingresskit/repair/internal/engine"
	"github.com/ingresskit/repair/internal/schema"
)

// ErrUnreadableInput is the structural error for an empty CSV file
// (spec.md §7's unreadable_input). A header-only file is not an error; it
// yields zero data rows.
var ErrUnreadableInput = fmt.Errorf("unreadable_input")

// sanitizeUTF8 replaces invalid byte sequences with the Unicode replacement
// character, matching spec.md §4.6's "permissive decoder" requirement
// (original_source opens files with errors="ignore"; Go's csv.Reader
// rejects invalid UTF-8 outright, so invalid bytes are scrubbed first).
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	var out bytes.Buffer
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			out.WriteRune(utf8.RuneError)
			data = data[1:]
			continue
		}
		out.Write(data[:size])
		data = data[size:]
	}
	return out.Bytes()
}

// ReadCSV parses raw CSV bytes into a header row and data rows, using a
// permissive UTF-8 decode. The first row is always treated as the header.
func ReadCSV(data []byte) (headers []string, rows [][]string, err error) {
	clean := sanitizeUTF8(data)
	r := csv.NewReader(bytes.NewReader(clean))
	r.FieldsPerRecord = -1 // tolerate ragged rows rather than rejecting the file

	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("unreadable_input: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, ErrUnreadableInput
	}

	return all[0], all[1:], nil
}

// RepairCSV parses data as CSV and runs it through the Repair Engine for
// the given schema.
func RepairCSV(s schema.Schema, data []byte) (engine.Result, error) {
	headers, rows, err := ReadCSV(data)
	if err != nil {
		return engine.Result{}, err
	}
	return engine.Repair(s, headers, rows), nil
}

// WriteCSV serializes an engine Result as schema-ordered CSV, rendering
// absent fields as empty strings, per spec.md §4.6 / §6.
func WriteCSV(w io.Writer, s schema.Schema, result engine.Result) error {
	cw := csv.NewWriter(w)
	fields := s.FieldNames()

	if err := cw.Write(fields); err != nil {
		return err
	}
	for _, rec := range result.RecordsOut {
		row := make([]string, len(fields))
		for i, f := range fields {
			if fv, ok := rec[f]; ok && fv.Present {
				row[i] = fv.Value
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
