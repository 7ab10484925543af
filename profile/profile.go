package profile

import "encoding/json"

// Model is a content model: the mapping of field names to definitions for one
// record shape. Models are addressed by path within a Guesser, the root model
// has the empty path.
type Model struct {
	path   string
	names  []string
	fields map[string]*Definition
}

func newModel(path string) *Model {
	return &Model{
		path:   path,
		fields: make(map[string]*Definition),
	}
}

// Path returns the address of the model within its guesser.
func (m *Model) Path() string {
	return m.path
}

// Len returns the number of modeled fields.
func (m *Model) Len() int {
	return len(m.names)
}

// Names returns the modeled field names in the order they were first seen.
func (m *Model) Names() []string {
	names := make([]string, len(m.names))
	copy(names, m.names)
	return names
}

// Definition returns the definition of a field.
func (m *Model) Definition(name string) (*Definition, bool) {
	d, ok := m.fields[name]
	return d, ok
}

// set stores the definition for a field, replacing any existing one.
func (m *Model) set(name string, d *Definition) {
	if _, ok := m.fields[name]; !ok {
		m.names = append(m.names, name)
	}
	m.fields[name] = d
}

// Field summarizes a modeled field and, for object kinds, its nested fields.
type Field struct {
	// Name of the field in the source.
	Name string `json:"name" yaml:"name"`

	// Kind of the field.
	Kind Kind `json:"kind" yaml:"kind"`

	// Nature is the reported kind name.
	Nature string `json:"nature" yaml:"nature"`

	// True if blank values are errors.
	Required bool `json:"required" yaml:"required"`

	// Description of the definition and its provenance.
	Description string `json:"description" yaml:"description"`

	// Fields of the nested model.
	Fields []*Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Describe returns the field summaries of a model, recursing into nested models.
func (g *Guesser) Describe(m *Model) []*Field {
	fields := make([]*Field, 0, m.Len())

	for _, n := range m.names {
		d := m.fields[n]

		f := &Field{
			Name:        n,
			Kind:        d.Kind,
			Nature:      d.Nature,
			Required:    d.IsRequired(),
			Description: d.Description(),
		}

		if nested := g.Nested(d); nested != nil {
			f.Fields = g.Describe(nested)
		}

		fields = append(fields, f)
	}

	return fields
}

// MarshalJSON encodes the model as a field name to nature mapping.
func (m *Model) MarshalJSON() ([]byte, error) {
	natures := make(map[string]string, len(m.fields))
	for n, d := range m.fields {
		natures[n] = d.Nature
	}
	return json.Marshal(natures)
}
