package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ingresskit/repair/internal/httpapi/middleware"
	"github.com/ingresskit/repair/internal/schema"
	"github.com/ingresskit/repair/internal/tabular"
)

// TabularHandler serves the Tabular Adapter's HTTP routes: CSV, XLSX, and
// Google Sheets, all sharing the same engine.Result response shape.
type TabularHandler struct {
	registry *schema.Registry
}

func NewTabularHandler(registry *schema.Registry) *TabularHandler {
	return &TabularHandler{registry: registry}
}

func (h *TabularHandler) schemaFor(c *gin.Context) (schema.Schema, bool) {
	s, err := h.registry.Get(c.Query("schema"))
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: err})
		return schema.Schema{}, false
	}
	return s, true
}

// readUploadOrBody reads either a multipart "file" field or, absent a
// multipart body, the raw request body — so the same route accepts a
// direct curl upload or a form post, matching the teacher's handlers'
// tolerance for both.
func readUploadOrBody(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("file")
	if err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxUploadReadBytes))
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, maxUploadReadBytes))
}

const maxUploadReadBytes = 64 << 20 // the only size cap on tabular uploads; config.MaxUploadBytes is not applied to these routes

// CSV answers POST /v1/tabular/csv?schema=...: a CSV file in, an
// engine.Result out.
func (h *TabularHandler) CSV(c *gin.Context) {
	s, ok := h.schemaFor(c)
	if !ok {
		return
	}

	data, err := readUploadOrBody(c)
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("unreadable_input: %w", err)})
		return
	}

	result, err := tabular.RepairCSV(s, data)
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: err})
		return
	}
	c.JSON(200, result)
}

// XLSX answers POST /v1/tabular/xlsx?schema=...: a multipart XLSX upload in,
// the same engine.Result shape as CSV out. Grounded per SPEC_FULL.md §4.6.
func (h *TabularHandler) XLSX(c *gin.Context) {
	s, ok := h.schemaFor(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("unreadable_input: %w", err)})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("unreadable_input: %w", err)})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadReadBytes))
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("unreadable_input: %w", err)})
		return
	}

	result, err := tabular.RepairXLSX(s, data)
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: err})
		return
	}
	c.JSON(200, result)
}

type gsheetRequest struct {
	SheetURL  string `json:"sheet_url"`
	SheetName string `json:"sheet_name,omitempty"`
}

// GSheet answers POST /v1/tabular/gsheet?schema=...: body {sheet_url,
// sheet_name?}, fetches and repairs a Google Sheet. sheet_name is decoded
// but not used; the range read is chosen from the URL alone. A caller-supplied
// `Authorization: Bearer <oauth-token>` authenticates the Sheets API call
// in place of the server-configured GOOGLE_SHEETS_API_KEY, mirroring the
// teacher's dual-auth gsheet_handler.go. Returns 400 unsupported_source
// when neither is available.
func (h *TabularHandler) GSheet(c *gin.Context) {
	s, ok := h.schemaFor(c)
	if !ok {
		return
	}

	var req gsheetRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("invalid_json: %w", err)})
		return
	}
	if req.SheetURL == "" {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("invalid_json: sheet_url is required")})
		return
	}

	accessToken := bearerToken(c)
	result, err := tabular.RepairGoogleSheet(c.Request.Context(), s, req.SheetURL, accessToken)
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: err})
		return
	}
	c.JSON(200, result)
}

// bearerToken extracts the raw token from an `Authorization: Bearer <token>`
// header, returning "" when the header is absent or malformed.
func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
}
