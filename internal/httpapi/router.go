// Package httpapi wires the HTTP surface of the repair toolkit: the Gin
// middleware chain and the adapter handlers that sit on top of the Repair
// Engine. Grounded on the teacher's internal/http/router.go (group-by-
// concern route registration, a cleanup closure for graceful shutdown).
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ingresskit/repair/internal/config"
	"github.com/ingresskit/repair/internal/creditstore"
	"github.com/ingresskit/repair/internal/httpapi/handlers"
	"github.com/ingresskit/repair/internal/httpapi/middleware"
	"github.com/ingresskit/repair/internal/schema"
	"github.com/ingresskit/repair/internal/suggestai"
)

// SetupRouter builds the Gin engine and returns it alongside a cleanup
// closure the caller should run during graceful shutdown.
func SetupRouter(cfg *config.Config, registry *schema.Registry) (*gin.Engine, func()) {
	router := gin.Default()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		slog.Error("failed to set trusted proxies", "error", err)
	}
	router.MaxMultipartMemory = 8 * 1024 * 1024

	var creditStore creditstore.Store
	var cleanupStore func()
	if cfg.CreditStoreEnabled {
		switch cfg.CreditStoreBackend {
		case "sqlite":
			s, err := creditstore.NewSQLiteStore(cfg.CreditStorePath)
			if err != nil {
				slog.Error("failed to open sqlite credit store", "error", err)
			} else {
				creditStore = s
				cleanupStore = func() { _ = s.Close() }
			}
		default:
			s, err := creditstore.NewFileStore(cfg.CreditStorePath)
			if err != nil {
				slog.Error("failed to open file credit store", "error", err)
			} else {
				creditStore = s
			}
		}
	}

	var suggestClient *suggestai.Client
	if cfg.OpenAIAPIKey != "" {
		client, err := suggestai.NewClient(suggestai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIModel,
			MaxRetries:     cfg.AIMaxRetries,
			RetryBaseDelay: cfg.AIRetryBaseDelay,
		})
		if err != nil {
			slog.Warn("synonym suggester initialization failed", "error", err)
		} else {
			suggestClient = client
		}
	}

	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateLimitWindow))
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health)
	router.GET("/ping", handlers.Health)

	schemaHandler := handlers.NewSchemaHandler(registry)
	tabularHandler := handlers.NewTabularHandler(registry)
	jsonHandler := handlers.NewJSONHandler(registry)
	suggestHandler := handlers.NewSuggestHandler(registry, suggestClient)
	creditHandler := handlers.NewCreditHandler(creditStore, cfg.AdminToken)

	creditCheck := middleware.CreditCheck(creditStore)

	v1 := router.Group("/v1")
	{
		v1.GET("/ping", handlers.Health)
		v1.GET("/schemas", schemaHandler.List)

		v1.POST("/webhooks/ingest", creditCheck, handlers.WebhookIngest)
		v1.POST("/json/normalize", creditCheck, jsonHandler.Normalize)

		v1.POST("/tabular/csv", creditCheck, tabularHandler.CSV)
		v1.POST("/tabular/xlsx", creditCheck, tabularHandler.XLSX)
		v1.POST("/tabular/gsheet", creditCheck, tabularHandler.GSheet)

		v1.POST("/schemas/suggest-synonyms", suggestHandler.Suggest)

		v1.GET("/credit/balance", creditHandler.Balance)
		v1.POST("/admin/credit", creditHandler.AdminCredit)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	cleanup := func() {
		if cleanupStore != nil {
			cleanupStore()
		}
	}
	return router, cleanup
}
