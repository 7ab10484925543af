package profile

import "fmt"

// Transformer walks a content model against records, validating and
// converting every modeled field into a destination record.
type Transformer struct {
	guesser *Guesser
	errors  ErrorHandler
	rename  func(string) string
}

// NewTransformer returns a transformer over the models of g. Problems are
// sent to h. Destination keys are passed through rename when it is not nil.
func NewTransformer(g *Guesser, h ErrorHandler, rename func(string) string) *Transformer {
	if h == nil {
		h = Discard
	}

	return &Transformer{
		guesser: g,
		errors:  h,
		rename:  rename,
	}
}

// Transform returns the destination record for rec. Fields that fail are
// reported and left out; processing always continues with the next field.
func (t *Transformer) Transform(m *Model, rec Record) Content {
	dest := make(Content, m.Len())
	t.transform(m, rec, "", dest)
	return dest
}

// Validate runs the same pipeline as Transform without producing a destination.
func (t *Transformer) Validate(m *Model, rec Record) {
	t.transform(m, rec, "", nil)
}

func (t *Transformer) key(name string) string {
	if t.rename == nil {
		return name
	}
	return t.rename(name)
}

// transform iterates the fields of the model, not of the record. Fields
// missing from the record are treated as absent. A nil dest only validates.
func (t *Transformer) transform(m *Model, rec Record, prefix string, dest Content) {
	for _, name := range m.names {
		d := m.fields[name]
		raw, _ := rec.Value(name)
		field := joinPath(prefix, name)

		if d.Kind == UnknownKind {
			t.unknown(m, name, d, raw, field, rec, dest)
			continue
		}

		t.field(name, d, raw, field, rec, dest)
	}
}

func (t *Transformer) field(name string, d *Definition, raw interface{}, field string, rec Record, dest Content) {
	if isBlank(raw) {
		if d.IsRequired() {
			t.fail(d, field, raw, rec, fmt.Sprintf("%s property value is required", d.Nature))
		}
		return
	}

	v, ok := t.convert(d, raw, field, rec, dest != nil)
	if ok && dest != nil {
		dest[t.key(name)] = v
	}
}

// unknown applies the refinement rule: a field modeled unknown is guessed
// again from the current value and, once concrete, promoted in the model and
// converted immediately so the triggering record keeps its value.
func (t *Transformer) unknown(m *Model, name string, d *Definition, raw interface{}, field string, rec Record, dest Content) {
	// Supplied unknowns are never promoted.
	if d.GuessedBy == nil || t.guesser == nil {
		return
	}

	promoted, ok := t.guesser.refine(m, name, d, rec.Index(), raw)
	if !ok {
		t.fail(d, field, raw, rec, fmt.Sprintf("%s property first seen as %s cannot take %s values", d.Nature, d.Shape, typeName(raw)))
		return
	}
	if promoted == nil {
		return
	}

	t.field(name, promoted, raw, field, rec, dest)
}

func (t *Transformer) convert(d *Definition, raw interface{}, field string, rec Record, build bool) (interface{}, bool) {
	switch d.Kind {
	case ObjectKind:
		return t.object(d, raw, field, rec, build)
	case ObjectArrayKind:
		return t.objectArray(d, raw, field, rec, build)
	}

	v, err := d.Convert(raw)
	if err != nil {
		t.fail(d, field, raw, rec, err.Error())
		return nil, false
	}
	return v, true
}

func (t *Transformer) nested(d *Definition, field string, rec Record) (*Model, bool) {
	var m *Model
	if t.guesser != nil {
		m = t.guesser.Nested(d)
	}
	if m == nil {
		t.fail(d, field, nil, rec, fmt.Sprintf("%s property has no nested model", d.Nature))
		return nil, false
	}
	return m, true
}

func (t *Transformer) object(d *Definition, raw interface{}, field string, rec Record, build bool) (interface{}, bool) {
	values, ok := asMap(raw)
	if !ok {
		t.fail(d, field, raw, rec, fmt.Sprintf("%s property values must be an object (not %s)", d.Nature, typeName(raw)))
		return nil, false
	}

	m, ok := t.nested(d, field, rec)
	if !ok {
		return nil, false
	}

	child := t.child(m, rec, values, field, build)
	return child, true
}

func (t *Transformer) objectArray(d *Definition, raw interface{}, field string, rec Record, build bool) (interface{}, bool) {
	items, ok := asArray(raw)
	if !ok {
		t.fail(d, field, raw, rec, fmt.Sprintf("%s property values must be an array (not %s)", d.Nature, typeName(raw)))
		return nil, false
	}

	m, ok := t.nested(d, field, rec)
	if !ok {
		return nil, false
	}

	children := make([]Content, 0, len(items))
	for i, item := range items {
		itemField := fmt.Sprintf("%s[%d]", field, i)

		values, ok := asMap(item)
		if !ok {
			t.fail(d, itemField, item, rec, fmt.Sprintf("%s item values must be an object (item %d is %s)", d.Nature, i, typeName(item)))
			continue
		}

		children = append(children, t.child(m, rec, values, itemField, build))
	}

	return children, true
}

// child transforms a nested object. Nested records keep the index of the
// record they belong to.
func (t *Transformer) child(m *Model, rec Record, values map[string]interface{}, field string, build bool) Content {
	nested := &MapRecord{
		index:  rec.Index(),
		values: values,
	}

	if !build {
		t.transform(m, nested, field, nil)
		return nil
	}

	dest := make(Content, m.Len())
	t.transform(m, nested, field, dest)
	return dest
}

func (t *Transformer) fail(d *Definition, field string, raw interface{}, rec Record, msg string) {
	t.errors.ReportFieldError(&FieldError{
		Definition: d,
		Field:      field,
		Value:      raw,
		Index:      rec.Index(),
		Record:     rec,
		Message:    msg,
	})
}
