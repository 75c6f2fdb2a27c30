package handlers

import (
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/ingresskit/repair/internal/schema"
)

// SchemaHandler serves the registry description route.
type SchemaHandler struct {
	registry *schema.Registry
}

func NewSchemaHandler(registry *schema.Registry) *SchemaHandler {
	return &SchemaHandler{registry: registry}
}

type schemaFieldView struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Synonyms []string `json:"synonyms"`
}

type schemaView struct {
	Name   string            `json:"name"`
	Fields []schemaFieldView `json:"fields"`
}

// List answers GET /v1/schemas: the full registry description, sorted by
// schema name for a stable response.
func (h *SchemaHandler) List(c *gin.Context) {
	names := h.registry.Names()
	sort.Strings(names)

	out := make([]schemaView, 0, len(names))
	for _, name := range names {
		s, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		fields := make([]schemaFieldView, 0, len(s.Fields))
		for _, f := range s.Fields {
			fields = append(fields, schemaFieldView{
				Name:     f.Name,
				Kind:     string(f.Kind),
				Synonyms: f.Synonyms,
			})
		}
		out = append(out, schemaView{Name: s.Name, Fields: fields})
	}

	c.JSON(200, gin.H{"schemas": out})
}
