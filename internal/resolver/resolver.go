// Package resolver implements the Header Resolver: mapping arbitrary input
// keys/columns to a declared schema's canonical fields.
//
// Grounded on the teacher's internal/converter/header_resolver.go, which
// builds a normalized-header -> canonical field map once per template and
// resolves a batch of headers against it in one pass. Unlike the teacher's
// internal/converter/dynamic_mapping.go, this resolver performs no
// statistical/heuristic scoring against sample values — spec.md's Non-goals
// rule out fuzzy inference, so resolution is purely rule-based and
// reproducible (exact slug, then synonym, then unit-tagged, then unmapped).
package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ingresskit/repair/internal/schema"
	"github.com/ingresskit/repair/internal/trace"
)

// unitTagPattern captures "base (unit)" headers, e.g. "Weight (lb)".
var unitTagPattern = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)\s*$`)

// Slug lower-cases s, collapses runs of non-alphanumeric characters to a
// single separator, and joins the result with underscores. Used for all
// key comparisons so spellings such as "E-Mail" and "e mail" compare equal
// (both become "e_mail"); "email" and "email address" match each other
// only through a schema's synonym table.
func Slug(s string) string {
	var b strings.Builder
	lastWasSep := true // avoid a leading underscore
	for _, r := range strings.ToLower(s) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastWasSep = false
			continue
		}
		if !lastWasSep {
			b.WriteByte('_')
			lastWasSep = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// SplitUnitTag parses a "base (unit)" header into its base text and unit
// string. ok is false if header carries no parenthetical unit.
func SplitUnitTag(header string) (base string, unit string, ok bool) {
	m := unitTagPattern.FindStringSubmatch(strings.TrimSpace(header))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Mapping is the resolution outcome for one input header.
type Mapping struct {
	Field  string // canonical field name; empty when Unmapped
	Unit   string // captured unit string for a unit-tagged header, if any
	Mapped bool
}

// HeaderMap is the per-batch, immutable result of resolving a set of input
// headers against a schema. Index i corresponds to input header i.
type HeaderMap struct {
	Mappings []Mapping
	Trace    []trace.Entry
}

// FieldIndex returns the input index mapped to the given canonical field,
// or -1 if no input header resolved to it.
func (h HeaderMap) FieldIndex(field string) int {
	for i, m := range h.Mappings {
		if m.Mapped && m.Field == field {
			return i
		}
	}
	return -1
}

// Resolver resolves headers against one fixed schema. Built once per
// schema/batch and safe for concurrent reuse since it holds no mutable state
// after construction.
type Resolver struct {
	// slugToField maps a slugged synonym (or canonical name) to the
	// canonical field name it resolves to. First synonym registered for a
	// slug wins, matching the teacher's "first match wins" header map
	// construction.
	slugToField map[string]string
	fieldOrder  []string
}

// New builds a Resolver for the given schema.
func New(s schema.Schema) *Resolver {
	r := &Resolver{slugToField: make(map[string]string)}
	for _, f := range s.Fields {
		r.fieldOrder = append(r.fieldOrder, f.Name)
		nameSlug := Slug(f.Name)
		if _, exists := r.slugToField[nameSlug]; !exists {
			r.slugToField[nameSlug] = f.Name
		}
		for _, syn := range f.Synonyms {
			synSlug := Slug(syn)
			if _, exists := r.slugToField[synSlug]; !exists {
				r.slugToField[synSlug] = f.Name
			}
		}
	}
	return r
}

// Resolve maps a batch of input headers to canonical fields, applying
// spec.md §4.3's algorithm in order (exact slug, synonym, unit-tagged,
// unmapped) and spec.md §4.3's duplicate rule (earlier key wins; later
// keys marked unmapped with a duplicate_of detail).
func (r *Resolver) Resolve(headers []string) HeaderMap {
	mappings := make([]Mapping, len(headers))
	entries := make([]trace.Entry, 0, len(headers))
	seen := make(map[string]bool, len(r.fieldOrder))

	for i, header := range headers {
		field, unit, matched := r.matchHeader(header)
		if !matched {
			mappings[i] = Mapping{Mapped: false}
			entries = append(entries, trace.Entry{Op: trace.OpUnmapped, From: header})
			continue
		}

		if seen[field] {
			mappings[i] = Mapping{Mapped: false}
			entries = append(entries, trace.Entry{
				Op:     trace.OpUnmapped,
				From:   header,
				Detail: fmt.Sprintf("duplicate_of:%s", field),
			})
			continue
		}

		seen[field] = true
		mappings[i] = Mapping{Field: field, Unit: unit, Mapped: true}
		entries = append(entries, trace.Entry{
			Op:     trace.OpMapHeader,
			Field:  field,
			From:   header,
			To:     field,
			Detail: unit,
		})
	}

	return HeaderMap{Mappings: mappings, Trace: entries}
}

// matchHeader applies rules 1-3 of spec.md §4.3 to a single header.
func (r *Resolver) matchHeader(header string) (field string, unit string, ok bool) {
	// Rule 1 & 2: exact slug / synonym match on the raw header.
	if f, found := r.slugToField[Slug(header)]; found {
		return f, "", true
	}

	// Rule 3: unit-tagged header, retry rules 1-2 on the captured base.
	if base, u, tagged := SplitUnitTag(header); tagged {
		if f, found := r.slugToField[Slug(base)]; found {
			return f, u, true
		}
	}

	return "", "", false
}
