// Package schema holds the Schema Registry: named canonical target shapes
// that the repair engine coerces input records into.
//
// Schemas are immutable once registered, mirroring the teacher's
// TemplateConfig/HeaderSynonyms pattern (internal/converter/column_map.go,
// internal/converter/template.go) but with a closed-set Kind per field
// instead of free-form rendering rules.
package schema

import "fmt"

// Kind is the closed set of value normalization rules a field can carry.
type Kind string

const (
	KindEmail    Kind = "email"
	KindPhone    Kind = "phone"
	KindDecimal  Kind = "decimal"
	KindDate     Kind = "date"
	KindCurrency Kind = "currency"
	KindOpaqueID Kind = "opaque_id"
	KindFreeText Kind = "free_text"
	KindMassSI   Kind = "mass_si"
	KindLengthSI Kind = "length_si"
)

// Field is one canonical field of a schema: its name, its kind, and the
// raw-input aliases that resolve to it.
type Field struct {
	Name     string
	Kind     Kind
	Synonyms []string
}

// Schema is a named, ordered, immutable canonical target.
type Schema struct {
	Name   string
	Fields []Field
}

// FieldNames returns the schema's field names in declared order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by canonical name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Registry holds named schemas, registered once at startup and never
// mutated afterward — safe to share across concurrent callers.
type Registry struct {
	schemas map[string]Schema
}

// ErrUnknownSchema is returned by Get for an unregistered schema name.
type ErrUnknownSchema struct{ Name string }

func (e *ErrUnknownSchema) Error() string {
	return fmt.Sprintf("unsupported_schema:%s", e.Name)
}

// NewRegistry returns a registry pre-loaded with the bootstrap schema set
// (contacts, transactions, products) from spec.md §4.2.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[string]Schema)}
	for _, s := range bootstrapSchemas() {
		r.schemas[s.Name] = s
	}
	return r
}

// Register adds or replaces a schema. Intended for startup wiring only;
// the registry is treated as immutable once the server begins serving.
func (r *Registry) Register(s Schema) {
	r.schemas[s.Name] = s
}

// Get returns the named schema.
func (r *Registry) Get(name string) (Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return Schema{}, &ErrUnknownSchema{Name: name}
	}
	return s, nil
}

// Names returns all registered schema names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	return names
}

func bootstrapSchemas() []Schema {
	return []Schema{
		{
			Name: "contacts",
			Fields: []Field{
				{Name: "email", Kind: KindEmail, Synonyms: []string{"email", "e-mail", "mail", "email address"}},
				{Name: "phone", Kind: KindPhone, Synonyms: []string{"phone", "phone number", "tel", "telephone"}},
				{Name: "first_name", Kind: KindFreeText, Synonyms: []string{"first", "first name", "fname", "given name"}},
				{Name: "last_name", Kind: KindFreeText, Synonyms: []string{"last", "last name", "lname", "surname", "family name"}},
				{Name: "company", Kind: KindFreeText, Synonyms: []string{"company", "organization", "org", "employer"}},
			},
		},
		{
			Name: "transactions",
			Fields: []Field{
				{Name: "id", Kind: KindOpaqueID, Synonyms: []string{"id", "txn id", "transaction id"}},
				{Name: "amount", Kind: KindDecimal, Synonyms: []string{"amount", "total", "value", "amount_cents", "amount (usd)", "price"}},
				{Name: "currency", Kind: KindCurrency, Synonyms: []string{"currency", "curr", "iso currency"}},
				{Name: "occurred_at", Kind: KindDate, Synonyms: []string{"date", "occurred at", "timestamp", "created", "time"}},
				{Name: "customer_id", Kind: KindOpaqueID, Synonyms: []string{"customer id", "customer", "client id", "account id"}},
			},
		},
		{
			Name: "products",
			Fields: []Field{
				{Name: "sku", Kind: KindOpaqueID, Synonyms: []string{"sku", "id", "product id", "code"}},
				{Name: "name", Kind: KindFreeText, Synonyms: []string{"name", "title", "product name"}},
				{Name: "price", Kind: KindDecimal, Synonyms: []string{"price", "amount", "cost"}},
				{Name: "currency", Kind: KindCurrency, Synonyms: []string{"currency", "curr", "iso currency"}},
				{Name: "category", Kind: KindFreeText, Synonyms: []string{"category", "type", "group"}},
				{Name: "weight_kg", Kind: KindMassSI, Synonyms: []string{"weight", "mass", "weight_kg"}},
				{Name: "length_m", Kind: KindLengthSI, Synonyms: []string{"length", "size", "height", "width", "depth", "length_m"}},
			},
		},
	}
}
