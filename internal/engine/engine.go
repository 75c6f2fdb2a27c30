// Package engine implements the Repair Engine: the deterministic core that
// drives an input record through the Header Resolver and Value Coercer and
// assembles the audit trail every adapter depends on.
//
// Grounded on the teacher's internal/converter pipeline shape (resolve
// headers once per batch, then render each row through the same map) but
// replacing its fuzzy/statistical mapping and markdown rendering with the
// rule-based resolver and kind-based coercer demanded by spec.md.
package engine

import (
	"encoding/json"

	"github.com/ingresskit/repair/internal/coerce"
	"github.com/ingresskit/repair/internal/resolver"
	"github.com/ingresskit/repair/internal/schema"
	"github.com/ingresskit/repair/internal/trace"
)

// maxSampleDiffs bounds sample_diffs per spec.md §3 (N=5).
const maxSampleDiffs = 5

// FieldValue is one canonical value, with Present tracking absence
// distinctly from an empty string value.
type FieldValue struct {
	Value   string
	Present bool
}

// Record is one output row: canonical field name to its FieldValue.
type Record map[string]FieldValue

// MarshalJSON renders an absent field as null and a present field as its
// canonical string value, so a Record serializes as a plain field->value
// object rather than exposing the Present flag to API consumers.
func (f FieldValue) MarshalJSON() ([]byte, error) {
	if !f.Present {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// SampleDiff captures a before/after pair for inspection.
type SampleDiff struct {
	Before map[string]string `json:"before"`
	After  map[string]string `json:"after"`
}

// Summary reports batch-level statistics.
type Summary struct {
	Schema      []string          `json:"schema"`
	RowsIn      int               `json:"rows_in"`
	RowsOut     int               `json:"rows_out"`
	HeaderMap   map[string]string `json:"header_map"`
	ErrorCounts map[string]int    `json:"error_counts"`
}

// Result is the engine's full output for one batch.
type Result struct {
	RecordsOut  []Record        `json:"records_out"`
	Summary     Summary         `json:"summary"`
	SampleDiffs []SampleDiff    `json:"sample_diffs"`
	Trace       [][]trace.Entry `json:"trace"` // per-record trace, same order as RecordsOut
}

// Repair runs the full pipeline over a batch of records that share one set
// of input headers/keys, per spec.md §4.5:
//  1. resolve headers once against the schema (batch-wide)
//  2. for each record, initialize every schema field absent
//  3. coerce each mapped input value, setting the field or recording an error
//  4. retain the first maxSampleDiffs before/after pairs
//  5. produce a summary with row counts, header map, and error histogram
//
// headers and each entry of rows must have the same length and column
// order; rows[i][j] is the raw value for headers[j] in record i.
func Repair(s schema.Schema, headers []string, rows [][]string) Result {
	res := New(s)
	hm := res.Resolve(headers)

	headerMap := make(map[string]string, len(headers))
	errorCounts := make(map[string]int)
	recordTrace := make([][]trace.Entry, 0, len(rows))
	recordsOut := make([]Record, 0, len(rows))
	sampleDiffs := make([]SampleDiff, 0, maxSampleDiffs)

	for i, header := range headers {
		m := hm.Mappings[i]
		if m.Mapped {
			headerMap[header] = m.Field
		} else {
			headerMap[header] = ""
		}
	}
	for _, e := range hm.Trace {
		accountError(errorCounts, e)
	}

	for _, row := range rows {
		out := initRecord(s)
		entries := append([]trace.Entry(nil), hm.Trace...)
		before := make(map[string]string)
		after := make(map[string]string)

		for i, val := range row {
			if i >= len(headers) {
				break
			}
			m := hm.Mappings[i]
			if !m.Mapped {
				continue
			}
			field, _ := s.Field(m.Field)
			before[m.Field] = val

			cr := coerce.Coerce(m.Field, field.Kind, val, m.Unit)
			entries = append(entries, cr.Entries...)
			for _, e := range cr.Entries {
				accountError(errorCounts, e)
			}
			if cr.Present {
				out[m.Field] = FieldValue{Value: cr.Value, Present: true}
				after[m.Field] = cr.Value
			}
		}

		recordsOut = append(recordsOut, out)
		recordTrace = append(recordTrace, entries)
		if len(sampleDiffs) < maxSampleDiffs {
			sampleDiffs = append(sampleDiffs, SampleDiff{Before: before, After: after})
		}
	}

	return Result{
		RecordsOut: recordsOut,
		Trace:      recordTrace,
		Summary: Summary{
			Schema:      s.FieldNames(),
			RowsIn:      len(rows),
			RowsOut:     len(recordsOut),
			HeaderMap:   headerMap,
			ErrorCounts: errorCounts,
		},
		SampleDiffs: sampleDiffs,
	}
}

// RepairObject applies the engine to a single key/value object (the Object
// Adapter's use case, spec.md §4.8): resolves the object's own keys rather
// than a shared batch header row, then runs one record through the batch
// path for consistent semantics. keys/values must be caller-ordered as they
// appeared in the input (e.g. via a streaming JSON token decoder) so that
// trace order reflects input order per spec.md §5.
func RepairObject(s schema.Schema, keys []string, values []string) (Record, []trace.Entry) {
	result := Repair(s, keys, [][]string{values})
	return result.RecordsOut[0], result.Trace[0]
}

// initRecord returns a record with every schema field absent, satisfying
// the invariant that every declared field appears exactly once in the
// output.
func initRecord(s schema.Schema) Record {
	r := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		r[f.Name] = FieldValue{Present: false}
	}
	return r
}

// New is re-exported for adapters that need to resolve headers without
// running the full coercion pass (e.g. a dry-run mapping preview).
func New(s schema.Schema) *resolver.Resolver {
	return resolver.New(s)
}

func accountError(counts map[string]int, e trace.Entry) {
	switch e.Op {
	case trace.OpUnmapped:
		if e.Detail != "" {
			counts[detailKind(e.Detail)]++
		} else {
			counts["unmapped"]++
		}
	case trace.OpCoerceError:
		counts[detailKind(e.Detail)]++
	}
}

// detailKind extracts the error-kind prefix from a "kind:payload" detail
// string (e.g. "bad_decimal:abc" -> "bad_decimal"), matching the vocabulary
// in spec.md §7.
func detailKind(detail string) string {
	for i := 0; i < len(detail); i++ {
		if detail[i] == ':' {
			return detail[:i]
		}
	}
	return detail
}
