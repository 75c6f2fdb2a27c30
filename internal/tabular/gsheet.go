package tabular

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/ingresskit/repair/internal/engine"
	"github.com/ingresskit/repair/internal/schema"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleSheetsAPIKeyEnv names the env var gating Google Sheets ingestion.
// Unset means unsupported_source, per SPEC_FULL.md §4.6.
const GoogleSheetsAPIKeyEnv = "GOOGLE_SHEETS_API_KEY"

// ErrSheetsNotConfigured is returned when GoogleSheetsAPIKeyEnv is unset.
var ErrSheetsNotConfigured = errors.New("unsupported_source: google sheets ingestion not configured")

var sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9\-_]+)`)
var gidPattern = regexp.MustCompile(`gid=(\d+)`)

// ParseGoogleSheetURL extracts the spreadsheet ID and optional gid from a
// Google Sheets share URL. Grounded on the teacher's
// internal/gsheetutils.ParseGoogleSheetURL.
func ParseGoogleSheetURL(rawURL string) (sheetID string, gid string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}
	host := strings.ToLower(u.Host)
	if host != "docs.google.com" && host != "spreadsheets.google.com" {
		return "", "", false
	}

	m := sheetIDPattern.FindStringSubmatch(u.Path)
	if len(m) < 2 || m[1] == "" {
		return "", "", false
	}
	sheetID = m[1]

	if u.Fragment != "" {
		if gm := gidPattern.FindStringSubmatch(u.Fragment); len(gm) >= 2 {
			gid = gm[1]
		}
	}
	if gid == "" {
		gid = u.Query().Get("gid")
	}
	return sheetID, gid, true
}

// fetchSheetsService builds a Sheets API client from the configured API
// key, mirroring the teacher's oauth2.StaticTokenSource construction for a
// caller-supplied token, adapted here to a server-side API key credential.
func fetchSheetsService(ctx context.Context) (*sheets.Service, error) {
	apiKey := strings.TrimSpace(os.Getenv(GoogleSheetsAPIKeyEnv))
	if apiKey == "" {
		return nil, ErrSheetsNotConfigured
	}
	return sheets.NewService(ctx, option.WithAPIKey(apiKey))
}

// fetchSheetsServiceWithToken builds a Sheets API client from a caller
// access token, for deployments that prefer OAuth delegation over a static
// API key. Grounded verbatim on the teacher's getSheetsServiceWithToken.
func fetchSheetsServiceWithToken(ctx context.Context, accessToken string) (*sheets.Service, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("missing access token")
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
	}))
	return sheets.NewService(ctx, option.WithHTTPClient(client))
}

// sheetsServiceFor picks the caller-supplied OAuth token over the
// server-configured API key when both are available, mirroring the
// teacher's gsheet_handler.go precedence (a request-scoped credential wins
// over a static one).
func sheetsServiceFor(ctx context.Context, accessToken string) (*sheets.Service, error) {
	if strings.TrimSpace(accessToken) != "" {
		return fetchSheetsServiceWithToken(ctx, accessToken)
	}
	return fetchSheetsService(ctx)
}

// ReadGoogleSheet fetches a sheet's values by URL and returns a header row
// and data rows, padding every row to the width of the widest row.
// accessToken, when non-empty, authenticates via OAuth delegation instead
// of the server-configured GoogleSheetsAPIKeyEnv.
func ReadGoogleSheet(ctx context.Context, sheetURL string, accessToken string) (headers []string, rows [][]string, err error) {
	sheetID, gid, ok := ParseGoogleSheetURL(sheetURL)
	if !ok {
		return nil, nil, fmt.Errorf("unreadable_input: not a google sheets url")
	}

	service, err := sheetsServiceFor(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}

	rangeStr := "A1:ZZ"
	if gid != "" {
		rangeStr = fmt.Sprintf("%s!A1:ZZ", gid)
	}

	resp, err := service.Spreadsheets.Values.Get(sheetID, rangeStr).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("unreadable_input: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, ErrUnreadableInput
	}

	all := make([][]string, len(resp.Values))
	width := 0
	for _, row := range resp.Values {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range resp.Values {
		out := make([]string, width)
		for j, cell := range row {
			out[j] = fmt.Sprintf("%v", cell)
		}
		all[i] = out
	}

	return all[0], all[1:], nil
}

// RepairGoogleSheet fetches the sheet at sheetURL and runs it through the
// Repair Engine for the given schema. accessToken, when non-empty,
// authenticates via OAuth delegation instead of the server-configured
// GoogleSheetsAPIKeyEnv.
func RepairGoogleSheet(ctx context.Context, s schema.Schema, sheetURL string, accessToken string) (engine.Result, error) {
	headers, rows, err := ReadGoogleSheet(ctx, sheetURL, accessToken)
	if err != nil {
		return engine.Result{}, err
	}
	return engine.Repair(s, headers, rows), nil
}
