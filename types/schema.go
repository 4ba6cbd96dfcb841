package types

// TransformFunc optionally post-processes a coerced value before it is
// assigned into the record. It must not retain the value.
type TransformFunc func(value any) any

// ColumnDef maps one source column onto one typed target field.
type ColumnDef struct {
	Name      string        `json:"name"`       // source column header, matched case-insensitively
	FieldName string        `json:"field_name"` // target field in the record
	Type      DataType      `json:"type"`
	Required  bool          `json:"required,omitempty"`
	Default   any           `json:"default,omitempty"`
	Transform TransformFunc `json:"-"`
}

// NestedGroup produces a sub-record from a subset of columns. The group is
// included in the parent only when at least one sub-field is non-null.
type NestedGroup struct {
	FieldName string      `json:"field_name"`
	Columns   []ColumnDef `json:"columns"`
}

// Schema is the declarative mapping applied to every row of an input.
//
// Duplicate field names are resolved last-writer-wins in declaration order;
// this mirrors upstream behavior and is intentionally not rejected.
type Schema struct {
	Name          string        `json:"name"`
	Columns       []ColumnDef   `json:"columns"`
	Nested        []NestedGroup `json:"nested,omitempty"`
	HasHeader     bool          `json:"has_header"`
	IdentityField string        `json:"identity_field,omitempty"`
}

// FieldNames returns the effective target field names, deduplicated with the
// later declaration winning.
func (s *Schema) FieldNames() []string {
	seen := map[string]bool{}
	names := []string{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, col := range s.Columns {
		add(col.FieldName)
	}
	for _, group := range s.Nested {
		add(group.FieldName)
	}
	return names
}
