package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ingresskit/repair/internal/httpapi/middleware"
	"github.com/ingresskit/repair/internal/schema"
	"github.com/ingresskit/repair/internal/suggestai"
)

// SuggestHandler serves the optional AI-assisted synonym suggester. Nil
// client means the feature is disabled (no OPENAI_API_KEY configured).
type SuggestHandler struct {
	registry *schema.Registry
	client   *suggestai.Client
}

func NewSuggestHandler(registry *schema.Registry, client *suggestai.Client) *SuggestHandler {
	return &SuggestHandler{registry: registry, client: client}
}

type suggestRequest struct {
	Field           string   `json:"field"`
	UnmappedHeaders []string `json:"unmapped_headers"`
}

// Suggest answers POST /v1/schemas/suggest-synonyms?schema=...: given a
// field and a list of unmapped headers observed in a prior repair's
// summary.header_map, asks the optional LLM client for candidate synonyms.
// The result is advisory only; nothing here touches the Schema Registry.
// Returns 501 when no OPENAI_API_KEY is configured, per SPEC_FULL.md §6.
func (h *SuggestHandler) Suggest(c *gin.Context) {
	if h.client == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "synonym suggestion is not configured"})
		return
	}

	s, err := h.registry.Get(c.Query("schema"))
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: err})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("invalid_json: %w", err)})
		return
	}
	var req suggestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("invalid_json: %w", err)})
		return
	}

	field, ok := s.Field(req.Field)
	if !ok {
		c.Error(&middleware.ErrBadRequest{Err: fmt.Errorf("unsupported_schema: field %q is not part of schema %q", req.Field, s.Name)})
		return
	}

	result, err := h.client.SuggestSynonyms(c.Request.Context(), field.Name, field.Synonyms, req.UnmappedHeaders)
	if err != nil {
		c.Error(&middleware.ErrInternal{Err: err})
		return
	}
	c.JSON(200, result)
}
