package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ingresskit/repair/internal/creditstore"
	"github.com/ingresskit/repair/internal/httpapi/middleware"
	"github.com/ingresskit/repair/internal/schema"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealth(t *testing.T) {
	router := gin.New()
	router.GET("/health", Health)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestSchemaHandlerList(t *testing.T) {
	registry := schema.NewRegistry()
	h := NewSchemaHandler(registry)
	router := gin.New()
	router.GET("/v1/schemas", h.List)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/schemas", nil)
	router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Schemas []schemaView `json:"schemas"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Schemas) == 0 {
		t.Fatal("expected at least one registered schema")
	}
}

func TestWebhookIngestUnsupportedSourceIs400(t *testing.T) {
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.POST("/v1/webhooks/ingest", WebhookIngest)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/webhooks/ingest?source=unknown", bytes.NewBufferString(`{}`))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWebhookIngestInvalidJSONIs400(t *testing.T) {
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.POST("/v1/webhooks/ingest", WebhookIngest)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/webhooks/ingest?source=stripe", bytes.NewBufferString(`not json`))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWebhookIngestStripeReturnsCanonicalEvent(t *testing.T) {
	router := gin.New()
	router.POST("/v1/webhooks/ingest", WebhookIngest)

	payload := `{"id":"evt_1","type":"charge.succeeded","created":1700000000,"data":{"object":{"id":"ch_1"}}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/webhooks/ingest?source=stripe", bytes.NewBufferString(payload))
	router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["source"] != "stripe" {
		t.Errorf("expected source stripe, got %v", body["source"])
	}
}

func TestJSONHandlerNormalizeUnsupportedSchemaIs400(t *testing.T) {
	registry := schema.NewRegistry()
	h := NewJSONHandler(registry)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.POST("/v1/json/normalize", h.Normalize)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/json/normalize?schema=nope", bytes.NewBufferString(`{}`))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestJSONHandlerNormalizeContacts(t *testing.T) {
	registry := schema.NewRegistry()
	h := NewJSONHandler(registry)
	router := gin.New()
	router.POST("/v1/json/normalize", h.Normalize)

	payload := `{"Email":"A@B.com","Name":"Doe, Jane"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/json/normalize?schema=contacts", bytes.NewBufferString(payload))
	router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Record map[string]any `json:"record"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Record["email"] != "a@b.com" {
		t.Errorf("expected lowercased email, got %v", body.Record["email"])
	}
}

func TestTabularHandlerCSVUnknownSchemaIs400(t *testing.T) {
	registry := schema.NewRegistry()
	h := NewTabularHandler(registry)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.POST("/v1/tabular/csv", h.CSV)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/tabular/csv?schema=nope", bytes.NewBufferString("a,b\n1,2\n"))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestTabularHandlerCSVRepairsRawBody(t *testing.T) {
	registry := schema.NewRegistry()
	h := NewTabularHandler(registry)
	router := gin.New()
	router.POST("/v1/tabular/csv", h.CSV)

	csv := "Email,Name\nA@B.com,Doe\n"
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/tabular/csv?schema=contacts", bytes.NewBufferString(csv))
	router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSuggestHandlerDisabledReturns501(t *testing.T) {
	registry := schema.NewRegistry()
	h := NewSuggestHandler(registry, nil)
	router := gin.New()
	router.POST("/v1/schemas/suggest-synonyms", h.Suggest)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/schemas/suggest-synonyms?schema=contacts", bytes.NewBufferString(`{}`))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", w.Code)
	}
}

func TestCreditHandlerBalanceNoStoreConfiguredIs500(t *testing.T) {
	h := NewCreditHandler(nil, "")
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.GET("/v1/credit/balance", h.Balance)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/credit/balance", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 (store not configured), got %d", w.Code)
	}
}

func TestCreditHandlerBalanceMissingBearerIs401(t *testing.T) {
	store, err := creditstore.NewFileStore(filepath.Join(t.TempDir(), "credits.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := NewCreditHandler(store, "")
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.GET("/v1/credit/balance", h.Balance)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/credit/balance", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCreditHandlerAdminCreditRequiresToken(t *testing.T) {
	store, err := creditstore.NewFileStore(filepath.Join(t.TempDir(), "credits.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := NewCreditHandler(store, "secret")
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.POST("/v1/admin/credit", h.AdminCredit)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/admin/credit", bytes.NewBufferString(`{"key":"k1","amount":10}`))
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin token, got %d", w.Code)
	}

	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("POST", "/v1/admin/credit", bytes.NewBufferString(`{"key":"k1","amount":10}`))
	req2.Header.Set("X-Admin-Token", "secret")
	router.ServeHTTP(w2, req2)
	if w2.Code != 200 {
		t.Fatalf("expected 200 with correct admin token, got %d", w2.Code)
	}
}
