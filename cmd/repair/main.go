// Command repair is the CLI adapter over the Repair Pipeline: spec.md §6's
// `repair --in <path> --out <path> --schema <name> [--tenant <id>]`.
//
// Grounded on the teacher's cmd/cli/main.go flag-parsing and stderr-reporting
// shape, replaced with the single repair subcommand this tool needs.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/ingresskit/repair/internal/schema"
	"github.com/ingresskit/repair/internal/tabular"
	"github.com/ingresskit/repair/internal/tracediff"
)

func main() {
	fs := flag.NewFlagSet("repair", flag.ExitOnError)
	in := fs.String("in", "", "input CSV file path (required)")
	out := fs.String("out", "", "output CSV file path (required)")
	schemaName := fs.String("schema", "", "target schema name (required)")
	_ = fs.String("tenant", "", "tenant identifier (accepted, no observable effect)")
	verifyIdempotent := fs.Bool("verify-idempotent", false, "run the repair twice and diff the two outputs, failing if they differ")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage:
  repair --in <path> --out <path> --schema <name> [--tenant <id>] [--verify-idempotent]`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if *in == "" || *out == "" || *schemaName == "" {
		fmt.Fprintln(os.Stderr, "Error: --in, --out, and --schema are required")
		fs.Usage()
		os.Exit(1)
	}

	registry := schema.NewRegistry()
	s, err := registry.Get(*schemaName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
		os.Exit(1)
	}

	result, err := tabular.RepairCSV(s, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var buf bytes.Buffer
	if err := tabular.WriteCSV(&buf, s, result); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	if *verifyIdempotent {
		if err := runVerifyIdempotent(s, buf.Bytes()); err != nil {
			fmt.Fprintf(os.Stderr, "Idempotence check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Idempotence check passed: re-running the repair on its own output is a no-op.")
	}

	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Repaired %d rows (%d in, %d out) -> %s\n",
		result.Summary.RowsOut, result.Summary.RowsIn, result.Summary.RowsOut, *out)
}

// runVerifyIdempotent feeds the first repair's own CSV output back through
// the engine and diffs the two renderings, exercising invariant 1
// (Idempotence) from spec.md §8 as a self-check.
func runVerifyIdempotent(s schema.Schema, firstOutput []byte) error {
	second, err := tabular.RepairCSV(s, firstOutput)
	if err != nil {
		return err
	}

	var secondBuf bytes.Buffer
	if err := tabular.WriteCSV(&secondBuf, s, second); err != nil {
		return err
	}

	if tracediff.Identical(string(firstOutput), secondBuf.String()) {
		return nil
	}

	lines := tracediff.Diff(string(firstOutput), secondBuf.String())
	fmt.Fprint(os.Stderr, tracediff.Render(lines))
	return fmt.Errorf("repairing the output a second time produced a different result")
}
