package handlers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/ingresskit/repair/internal/httpapi/middleware"
	"github.com/ingresskit/repair/internal/webhook"
)

// WebhookIngest answers POST /v1/webhooks/ingest?source=stripe|github|slack
// per spec.md §6: normalizes a vendor payload into a canonical event, or
// 400s on invalid JSON / an unsupported source.
func WebhookIngest(c *gin.Context) {
	source := c.Query("source")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("invalid_json: %w", err)})
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("invalid_json: %w", err)})
		return
	}

	event, err := webhook.Normalize(source, payload)
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: err})
		return
	}

	c.JSON(200, event)
}
