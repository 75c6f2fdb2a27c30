package engine

import (
	"testing"

	"github.com/ingresskit/repair/internal/schema"
)

func contactsSchema() schema.Schema {
	r := schema.NewRegistry()
	s, _ := r.Get("contacts")
	return s
}

func transactionsSchema() schema.Schema {
	r := schema.NewRegistry()
	s, _ := r.Get("transactions")
	return s
}

func productsSchema() schema.Schema {
	r := schema.NewRegistry()
	s, _ := r.Get("products")
	return s
}

func TestRepairBasicCoverage(t *testing.T) {
	headers := []string{"Email", "Phone Number", "Favorite Color"}
	rows := [][]string{{"X@Y.Z", "(555) 123-4567", "blue"}}

	res := Repair(contactsSchema(), headers, rows)

	rec := res.RecordsOut[0]
	if rec["email"].Value != "x@y.z" || !rec["email"].Present {
		t.Errorf("expected email x@y.z, got %+v", rec["email"])
	}
	if rec["phone"].Value != "5551234567" {
		t.Errorf("expected phone 5551234567, got %+v", rec["phone"])
	}
	if rec["first_name"].Present {
		t.Errorf("expected first_name absent, got %+v", rec["first_name"])
	}

	// the trace must hold at least one entry per input column (its
	// map_header or unmapped entry), ahead of any coercion entries
	if len(res.Trace[0]) < len(headers) {
		t.Fatalf("expected at least %d trace entries, got %d", len(headers), len(res.Trace[0]))
	}
}

func TestRepairEveryFieldPresentInOutput(t *testing.T) {
	res := Repair(contactsSchema(), []string{"Email"}, [][]string{{"a@b.com"}})
	rec := res.RecordsOut[0]
	for _, f := range contactsSchema().FieldNames() {
		if _, ok := rec[f]; !ok {
			t.Errorf("expected field %q to appear in output record", f)
		}
	}
}

func TestRepairAllFieldsFailingStillProducesRow(t *testing.T) {
	res := Repair(transactionsSchema(), []string{"Amount"}, [][]string{{"-"}})
	if len(res.RecordsOut) != 1 {
		t.Fatalf("expected 1 output row, got %d", len(res.RecordsOut))
	}
	if res.RecordsOut[0]["amount"].Present {
		t.Errorf("expected amount absent after bad_decimal, got %+v", res.RecordsOut[0]["amount"])
	}
	if res.Summary.ErrorCounts["bad_decimal"] != 1 {
		t.Errorf("expected 1 bad_decimal error, got %d", res.Summary.ErrorCounts["bad_decimal"])
	}
}

func TestRepairMixedDateFormats(t *testing.T) {
	headers := []string{"occurred at"}
	rows := [][]string{
		{"2024-01-02"},
		{"01/02/2024"},
		{"Jan 2, 2024"},
		{"not a date"},
	}
	res := Repair(transactionsSchema(), headers, rows)
	want := []string{"2024-01-02", "2024-01-02", "2024-01-02", ""}
	for i, w := range want {
		got := res.RecordsOut[i]["occurred_at"]
		if w == "" {
			if got.Present {
				t.Errorf("row %d: expected absent, got %+v", i, got)
			}
			continue
		}
		if !got.Present || got.Value != w {
			t.Errorf("row %d: expected %q, got %+v", i, w, got)
		}
	}
	if res.Summary.ErrorCounts["unrecognized_date"] != 1 {
		t.Errorf("expected 1 unrecognized_date error, got %d", res.Summary.ErrorCounts["unrecognized_date"])
	}
}

func TestRepairUnitTaggedWeightColumn(t *testing.T) {
	res := Repair(productsSchema(), []string{"Weight (lb)"}, [][]string{{"2.2"}})
	field := res.RecordsOut[0]["weight_kg"]
	if !field.Present || field.Value != "0.997903" {
		t.Errorf("expected 0.997903, got %+v", field)
	}
}

func TestRepairDeterministic(t *testing.T) {
	headers := []string{"Email", "Phone"}
	rows := [][]string{{"A@B.com", "555-1234"}}
	r1 := Repair(contactsSchema(), headers, rows)
	r2 := Repair(contactsSchema(), headers, rows)
	if r1.RecordsOut[0]["email"] != r2.RecordsOut[0]["email"] {
		t.Errorf("expected deterministic output across runs")
	}
	if len(r1.Trace[0]) != len(r2.Trace[0]) {
		t.Errorf("expected deterministic trace length across runs")
	}
}

func TestRepairIdempotentOnOwnOutput(t *testing.T) {
	headers := []string{"Email", "Phone Number"}
	rows := [][]string{{"  A@B.COM ", "(555) 123-4567"}}
	first := Repair(contactsSchema(), headers, rows)

	rec := first.RecordsOut[0]
	secondHeaders := []string{"email", "phone"}
	secondRow := []string{rec["email"].Value, rec["phone"].Value}
	second := Repair(contactsSchema(), secondHeaders, [][]string{secondRow})

	if second.RecordsOut[0]["email"].Value != rec["email"].Value {
		t.Errorf("expected idempotent email, got %q vs %q", second.RecordsOut[0]["email"].Value, rec["email"].Value)
	}
	if second.RecordsOut[0]["phone"].Value != rec["phone"].Value {
		t.Errorf("expected idempotent phone, got %q vs %q", second.RecordsOut[0]["phone"].Value, rec["phone"].Value)
	}
}

func TestRepairObject(t *testing.T) {
	rec, entries := RepairObject(contactsSchema(), []string{"Email"}, []string{"X@Y.Z"})
	if rec["email"].Value != "x@y.z" {
		t.Errorf("expected x@y.z, got %+v", rec["email"])
	}
	if len(entries) == 0 {
		t.Errorf("expected non-empty trace")
	}
}

func TestRepairSampleDiffsCappedAtFive(t *testing.T) {
	headers := []string{"Email"}
	rows := make([][]string, 0, 10)
	for i := 0; i < 10; i++ {
		rows = append(rows, []string{"a@b.com"})
	}
	res := Repair(contactsSchema(), headers, rows)
	if len(res.SampleDiffs) != maxSampleDiffs {
		t.Errorf("expected %d sample diffs, got %d", maxSampleDiffs, len(res.SampleDiffs))
	}
}

func TestRepairOrderPreservation(t *testing.T) {
	headers := []string{"Email"}
	rows := [][]string{{"a@b.com"}, {"c@d.com"}, {"e@f.com"}}
	res := Repair(contactsSchema(), headers, rows)
	want := []string{"a@b.com", "c@d.com", "e@f.com"}
	for i, w := range want {
		if res.RecordsOut[i]["email"].Value != w {
			t.Errorf("row %d: expected %q, got %q", i, w, res.RecordsOut[i]["email"].Value)
		}
	}
}
