// Package tracediff computes a unified diff between two text renderings,
// used by the CLI's --verify-idempotent flag to compare a repair run
// against a second run over its own output (spec.md §8's idempotence
// invariant). Grounded on the teacher's internal/diff/differ.go, which
// reaches for go-difflib's SequenceMatcher/opcodes for the same purpose.
package tracediff

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Line is one line of a unified diff: unchanged, added, or removed.
type Line struct {
	Type    string `json:"type"` // "context", "add", "remove"
	Content string `json:"content"`
}

// Diff computes the line-level unified diff between oldText and newText.
// Identical texts yield only "context" lines; see Identical.
func Diff(oldText, newText string) []Line {
	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")

	matcher := difflib.NewMatcher(oldLines, newLines)
	var lines []Line

	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, l := range oldLines[op.I1:op.I2] {
				lines = append(lines, Line{Type: "context", Content: l})
			}
		case 'd':
			for _, l := range oldLines[op.I1:op.I2] {
				lines = append(lines, Line{Type: "remove", Content: l})
			}
		case 'i':
			for _, l := range newLines[op.J1:op.J2] {
				lines = append(lines, Line{Type: "add", Content: l})
			}
		case 'r':
			for _, l := range oldLines[op.I1:op.I2] {
				lines = append(lines, Line{Type: "remove", Content: l})
			}
			for _, l := range newLines[op.J1:op.J2] {
				lines = append(lines, Line{Type: "add", Content: l})
			}
		}
	}

	return lines
}

// Identical reports whether oldText and newText have no effective diff
// (only context lines, no additions or removals).
func Identical(oldText, newText string) bool {
	for _, l := range Diff(oldText, newText) {
		if l.Type != "context" {
			return false
		}
	}
	return true
}

// Render formats a diff as plain unified-diff-style text, for CLI output.
func Render(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		switch l.Type {
		case "add":
			fmt.Fprintf(&sb, "+%s\n", l.Content)
		case "remove":
			fmt.Fprintf(&sb, "-%s\n", l.Content)
		default:
			fmt.Fprintf(&sb, " %s\n", l.Content)
		}
	}
	return sb.String()
}
