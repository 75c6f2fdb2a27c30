// Package webhook implements the Event Adapter: pure functions mapping
// vendor-specific webhook payloads into one canonical event shape.
//
// Grounded rule-for-rule on original_source/server/main_oss.py's
// normalize_stripe_webhook/normalize_github_webhook/normalize_slack_webhook,
// with the Unix-timestamp conversion hardened per spec.md §4.7: an invalid
// or missing timestamp falls back to current UTC and emits a
// timestamp_fallback trace entry instead of silently substituting "now".
package webhook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ingresskit/repair/internal/trace"
)

// isoOffsetLayout mirrors Python's datetime.isoformat(), which always
// renders a numeric UTC offset ("+00:00"), never the "Z" shorthand
// time.RFC3339 produces.
const isoOffsetLayout = "2006-01-02T15:04:05-07:00"

// Source is the closed set of supported webhook vendors.
type Source string

const (
	SourceStripe Source = "stripe"
	SourceGitHub Source = "github"
	SourceSlack  Source = "slack"
)

// ErrUnsupportedSource is the structural error for an unrecognized source
// query parameter.
type ErrUnsupportedSource struct{ Source string }

func (e *ErrUnsupportedSource) Error() string {
	return fmt.Sprintf("unsupported_source:%s", e.Source)
}

// CanonicalEvent is the unified shape every adapter normalizes into,
// per spec.md §3.
type CanonicalEvent struct {
	EventID    string         `json:"event_id"`
	Source     string         `json:"source"`
	OccurredAt string         `json:"occurred_at"`
	Actor      map[string]any `json:"actor,omitempty"`
	Subject    map[string]any `json:"subject,omitempty"`
	Action     string         `json:"action"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Trace      []trace.Entry  `json:"trace,omitempty"`
}

// Normalize dispatches to the normalizer for source, returning
// ErrUnsupportedSource for anything outside the closed vendor set.
func Normalize(source string, payload map[string]any) (CanonicalEvent, error) {
	switch Source(source) {
	case SourceStripe:
		return normalizeStripe(payload), nil
	case SourceGitHub:
		return normalizeGitHub(payload), nil
	case SourceSlack:
		return normalizeSlack(payload), nil
	default:
		return CanonicalEvent{}, &ErrUnsupportedSource{Source: source}
	}
}

func normalizeStripe(payload map[string]any) CanonicalEvent {
	data, _ := payload["data"].(map[string]any)
	obj, _ := data["object"].(map[string]any)

	occurredAt, entries := utcTimestamp(payload["created"])

	event := CanonicalEvent{
		EventID:    asString(payload["id"]),
		Source:     string(SourceStripe),
		OccurredAt: occurredAt,
		Action:     asString(payload["type"]),
		Metadata:   omit(obj, "id", "object", "customer"),
		Trace:      entries,
	}
	if customer, ok := obj["customer"]; ok && customer != nil {
		event.Actor = map[string]any{"id": customer}
	}
	event.Subject = map[string]any{
		"type": objectOrDefault(obj["object"], "unknown"),
		"id":   obj["id"],
	}
	return event
}

func normalizeGitHub(payload map[string]any) CanonicalEvent {
	issue, _ := payload["issue"].(map[string]any)
	pr, _ := payload["pull_request"].(map[string]any)
	sender, _ := payload["sender"].(map[string]any)
	repo, _ := payload["repository"].(map[string]any)

	subjectType := "unknown"
	subject := issue
	if _, hasIssue := payload["issue"]; hasIssue {
		subjectType = "issue"
	} else if _, hasPR := payload["pull_request"]; hasPR {
		subjectType = "pull_request"
		subject = pr
	}

	event := CanonicalEvent{
		EventID:    asString(payload["id"]),
		Source:     string(SourceGitHub),
		OccurredAt: time.Now().UTC().Format(isoOffsetLayout),
		Action:     asStringOrDefault(payload["action"], "unknown"),
		Subject: map[string]any{
			"type":   subjectType,
			"id":     subject["id"],
			"number": subject["number"],
		},
		Metadata: map[string]any{
			"title":      subject["title"],
			"url":        subject["html_url"],
			"repository": repo["full_name"],
		},
	}
	if len(sender) > 0 {
		event.Actor = map[string]any{
			"id":    sender["id"],
			"login": sender["login"],
		}
	}
	return event
}

func normalizeSlack(payload map[string]any) CanonicalEvent {
	event, _ := payload["event"].(map[string]any)

	occurredAt, entries := utcTimestamp(payload["event_time"])

	canonical := CanonicalEvent{
		EventID:    asString(payload["event_id"]),
		Source:     string(SourceSlack),
		OccurredAt: occurredAt,
		Action:     asStringOrDefault(event["type"], "message"),
		Metadata:   omit(event, "user", "channel", "type"),
		Trace:      entries,
	}
	if user, ok := event["user"]; ok && user != nil {
		canonical.Actor = map[string]any{"id": user}
	}
	canonical.Subject = map[string]any{
		"type":    objectOrDefault(event["type"], "message"),
		"channel": event["channel"],
	}
	return canonical
}

// utcTimestamp converts a Unix timestamp (int/float/numeric-string) to an
// ISO 8601 UTC string with a numeric offset. A missing or unparsable value
// falls back to the current UTC time and emits a timestamp_fallback trace
// entry, per spec.md §4.7.
func utcTimestamp(raw any) (string, []trace.Entry) {
	if f, ok := asNumber(raw); ok {
		return time.Unix(int64(f), 0).UTC().Format(isoOffsetLayout), nil
	}
	return time.Now().UTC().Format(isoOffsetLayout), []trace.Entry{
		{Op: trace.OpCoerceError, Field: "occurred_at", Detail: "timestamp_fallback"},
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func objectOrDefault(v any, def string) any {
	if v == nil {
		return def
	}
	if s, ok := v.(string); ok && s == "" {
		return def
	}
	return v
}

func asStringOrDefault(v any, def string) string {
	if v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return def
		}
		return s
	}
	return fmt.Sprintf("%v", v)
}

// omit returns a shallow copy of m with the given keys removed, mirroring
// original_source's dict-comprehension metadata exclusion sets.
func omit(m map[string]any, keys ...string) map[string]any {
	excl := make(map[string]bool, len(keys))
	for _, k := range keys {
		excl[k] = true
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if !excl[k] {
			out[k] = v
		}
	}
	return out
}
