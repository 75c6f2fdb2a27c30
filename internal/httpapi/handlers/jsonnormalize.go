package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/ingresskit/repair/internal/httpapi/middleware"
	"github.com/ingresskit/repair/internal/jsonadapter"
	"github.com/ingresskit/repair/internal/schema"
)

// JSONHandler serves the Object Adapter's HTTP route.
type JSONHandler struct {
	registry *schema.Registry
}

func NewJSONHandler(registry *schema.Registry) *JSONHandler {
	return &JSONHandler{registry: registry}
}

// Normalize answers POST /v1/json/normalize?schema=contacts per spec.md §6:
// a key/value object in, a canonical record plus trace out.
func (h *JSONHandler) Normalize(c *gin.Context) {
	schemaName := c.Query("schema")
	s, err := h.registry.Get(schemaName)
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: err})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("invalid_json: %w", err)})
		return
	}

	keys, values, err := jsonadapter.ParseOrderedObject(body)
	if err != nil {
		if errors.Is(err, jsonadapter.ErrInvalidJSON) || errors.Is(err, jsonadapter.ErrNotAnObject) {
			c.Error(&middleware.ErrBadRequest{Err: err})
			return
		}
		c.Error(&middleware.ErrInternal{Err: err})
		return
	}

	record, entries := jsonadapter.Normalize(s, keys, values)
	c.JSON(200, gin.H{
		"record": record,
		"trace":  entries,
	})
}
