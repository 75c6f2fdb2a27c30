// Package coerce implements the Value Coercer: per-Kind normalization of a
// single raw string value into its canonical textual form, plus the emitted
// trace entries and semantic errors for each kind.
//
// Grounded on original_source/sdk/python/ingresskit/repair.py's
// _coerce_value, translated rule-for-rule rather than re-derived, and on
// the teacher's internal/converter/renderer.go normalizeCellValue for the
// trim-then-normalize shape of a single-value transform.
package coerce

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ingresskit/repair/internal/schema"
	"github.com/ingresskit/repair/internal/trace"
	"github.com/ingresskit/repair/internal/units"
)

var (
	nonDigits      = regexp.MustCompile(`\D`)
	nonDecimalChar = regexp.MustCompile(`[^0-9.\-]`)
	nonLetter      = regexp.MustCompile(`[^A-Za-z]`)
)

var commonCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CAD": true, "AUD": true, "INR": true,
}

// dateLayouts are tried in order, mirroring the fixed strptime formats in
// original_source before falling back to a general parse.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
	"02/01/2006",
	"Jan 2, 2006",
}

// Result is the outcome of coercing one raw value for one field.
type Result struct {
	Value   string // canonical value; meaningful only when Present
	Present bool
	Entries []trace.Entry
}

// absent builds a Result with no value, optionally carrying trace entries
// (e.g. a coerce_error detail).
func absent(entries ...trace.Entry) Result {
	return Result{Present: false, Entries: entries}
}

func present(value string, entries ...trace.Entry) Result {
	return Result{Value: value, Present: true, Entries: entries}
}

// Coerce normalizes raw for the given field/kind. unit is the parenthetical
// unit captured from the header, if any (only consulted for mass_si/
// length_si kinds).
func Coerce(field string, kind schema.Kind, raw string, unit string) Result {
	v := strings.TrimSpace(raw)
	if v == "" {
		return absent()
	}

	switch kind {
	case schema.KindEmail:
		return coerceEmail(field, v)
	case schema.KindPhone:
		return coercePhone(field, v)
	case schema.KindDecimal:
		return coerceDecimal(field, v)
	case schema.KindDate:
		return coerceDate(field, v)
	case schema.KindCurrency:
		return coerceCurrency(field, v)
	case schema.KindOpaqueID:
		return present(v)
	case schema.KindFreeText:
		return present(v)
	case schema.KindMassSI:
		return coerceUnitSI(field, v, unit, units.NormalizeMass)
	case schema.KindLengthSI:
		return coerceUnitSI(field, v, unit, units.NormalizeLength)
	default:
		return present(v)
	}
}

func coerceEmail(field, v string) Result {
	lower := strings.ToLower(v)
	return present(lower, trace.Entry{Op: trace.OpLower, Field: field, From: v, To: lower})
}

func coercePhone(field, v string) Result {
	digits := nonDigits.ReplaceAllString(v, "")
	if digits == "" {
		return absent()
	}
	return present(digits, trace.Entry{Op: trace.OpDigits, Field: field, From: v, To: digits})
}

func coerceDecimal(field, v string) Result {
	num := nonDecimalChar.ReplaceAllString(v, "")
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return absent(trace.Entry{
			Op: trace.OpCoerceError, Field: field, From: v,
			Detail: fmt.Sprintf("bad_decimal:%s", v),
		})
	}
	formatted := strconv.FormatFloat(f, 'f', 2, 64)
	return present(formatted, trace.Entry{Op: trace.OpParseDecimal, Field: field, From: v, To: formatted})
}

func coerceDate(field, v string) Result {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			out := t.Format("2006-01-02")
			return present(out, trace.Entry{Op: trace.OpParseDate, Field: field, From: v, To: out})
		}
	}
	if t, err := generalParseDate(v); err == nil {
		out := t.Format("2006-01-02")
		return present(out, trace.Entry{Op: trace.OpParseDate, Field: field, From: v, To: out})
	}
	return absent(trace.Entry{
		Op: trace.OpCoerceError, Field: field, From: v,
		Detail: fmt.Sprintf("unrecognized_date:%s", v),
	})
}

// generalParseDate is the fallback behind the fixed layouts, analogous to
// original_source's dateutil.parser.parse call. time.Parse has no single
// "guess the format" mode, so a short list of additional common layouts is
// tried before giving up.
func generalParseDate(v string) (time.Time, error) {
	extra := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"January 2, 2006",
		"2 January 2006",
		"Jan 2 2006",
		"1/2/2006",
		"2006-1-2",
	}
	for _, layout := range extra {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matched %q", v)
}

func coerceCurrency(field, v string) Result {
	cur := strings.ToUpper(nonLetter.ReplaceAllString(v, ""))
	if commonCurrencies[cur] || (len(cur) >= 2 && len(cur) <= 4) {
		return present(cur, trace.Entry{Op: trace.OpUppercaseCurrency, Field: field, From: v, To: cur})
	}
	return absent(trace.Entry{
		Op: trace.OpCoerceError, Field: field, From: v,
		Detail: fmt.Sprintf("bad_currency:%s", v),
	})
}

type unitNormalizer func(value float64, unit string) (float64, error)

// coerceUnitSI implements the mass_si/length_si kinds: when the header
// carried a unit tag, the raw numeric portion is converted to the SI base
// unit; otherwise the value is treated as already-SI decimal input.
func coerceUnitSI(field, v, unit string, normalize unitNormalizer) Result {
	num := nonDecimalChar.ReplaceAllString(v, "")
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return absent(trace.Entry{
			Op: trace.OpCoerceError, Field: field, From: v,
			Detail: fmt.Sprintf("bad_decimal:%s", v),
		})
	}

	if unit == "" {
		formatted := strconv.FormatFloat(f, 'f', 6, 64)
		return present(formatted, trace.Entry{Op: trace.OpParseDecimal, Field: field, From: v, To: formatted})
	}

	si, err := normalize(f, unit)
	if err != nil {
		return absent(trace.Entry{Op: trace.OpCoerceError, Field: field, From: v, Detail: err.Error()})
	}
	formatted := strconv.FormatFloat(si, 'f', 6, 64)
	return present(formatted, trace.Entry{
		Op: trace.OpConvertUnit, Field: field, From: v, To: formatted,
		Detail: unit,
	})
}

// SplitName implements the contact adapter's name-splitting rule: comma
// present means "Last, First"; otherwise split on first whitespace means
// "First Last"; a single token becomes first_name only.
func SplitName(name string) (firstName, lastName string, entry trace.Entry) {
	v := strings.TrimSpace(name)
	if v == "" {
		return "", "", trace.Entry{}
	}

	if idx := strings.Index(v, ","); idx >= 0 {
		last := strings.TrimSpace(v[:idx])
		first := strings.TrimSpace(v[idx+1:])
		return first, last, trace.Entry{
			Op: trace.OpSplitName, Field: "name", From: v,
			To: fmt.Sprintf("%s %s", first, last),
		}
	}

	if idx := strings.IndexAny(v, " \t"); idx >= 0 {
		first := v[:idx]
		last := strings.TrimSpace(v[idx+1:])
		return first, last, trace.Entry{
			Op: trace.OpSplitName, Field: "name", From: v,
			To: fmt.Sprintf("%s %s", first, last),
		}
	}

	return v, "", trace.Entry{Op: trace.OpSplitName, Field: "name", From: v, To: v}
}
