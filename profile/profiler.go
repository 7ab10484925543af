package profile

import "strings"

// Options configures a Guesser. Field keyed maps are consulted with the
// qualified field path first (e.g. "address.city" or "items[].sku") and then
// the bare field name.
type Options struct {
	// SkipFields omits the selected fields from models entirely.
	SkipFields map[string]Predicate

	// KeepOnlyFields, when set, omits every field it does not select. It
	// applies to the root model and to nested models it names fields of.
	KeepOnlyFields map[string]Predicate

	// ForceDefinition supplies the definition of a field, bypassing the guess chain.
	ForceDefinition map[string]*Definition

	// RequireField marks fields whose absent or blank values are errors.
	RequireField map[string]Predicate

	// ConfirmGuess receives every guessed definition and may replace it.
	ConfirmGuess func(field string, guessed *Definition, g *Guess) *Definition

	// OnUnknown is called whenever the chain resolves a value to unknown.
	OnUnknown func(field string, d *Definition, g *Guess)

	// DefaultDefinition is used when no recognizer matches instead of text.
	DefaultDefinition func(g *Guess) *Definition

	// UnknownDefinition substitutes the definition produced for blank values.
	UnknownDefinition func(g *Guess) *Definition

	DateFormats     DateFormats
	TextConstraints TextConstraints
}

// Guesser builds content models from representative records and owns them.
// Nested models are addressed by the path of the field holding them. A
// Guesser is the single writer of its models and is not safe for concurrent use.
type Guesser struct {
	opts   *Options
	models map[string]*Model
}

func NewGuesser(opts *Options) *Guesser {
	if opts == nil {
		opts = &Options{}
	}

	return &Guesser{
		opts:   opts,
		models: make(map[string]*Model),
	}
}

// joinPath qualifies a field name with the path of its model.
func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func lookup[T any](m map[string]T, path, field string) (T, bool) {
	if path != "" {
		if v, ok := m[joinPath(path, field)]; ok {
			return v, true
		}
	}
	v, ok := m[field]
	return v, ok
}

// Build returns the root model, building it from rec the first time.
// Subsequent calls return the same model.
func (g *Guesser) Build(rec Record) *Model {
	if m, ok := g.models[""]; ok {
		return m
	}
	return g.build("", rec)
}

// Model returns the model at path.
func (g *Guesser) Model(path string) (*Model, bool) {
	m, ok := g.models[path]
	return m, ok
}

// Nested returns the nested model of an object definition or nil.
func (g *Guesser) Nested(d *Definition) *Model {
	if d.Kind.Scalar() {
		return nil
	}
	return g.models[d.Model]
}

// build guesses a model at path from a representative record, replacing any
// model already registered there.
func (g *Guesser) build(path string, rec Record) *Model {
	m := newModel(path)
	g.models[path] = m

	for _, name := range rec.Names() {
		v, _ := rec.Value(name)

		if d := g.guess(path, name, rec.Index(), v); d != nil {
			m.set(name, d)
		}
	}

	return m
}

// keepApplies returns true if the keep list constrains the model at path.
func (g *Guesser) keepApplies(path string) bool {
	if len(g.opts.KeepOnlyFields) == 0 {
		return false
	}
	if path == "" {
		return true
	}

	prefix := path + "."
	for k := range g.opts.KeepOnlyFields {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// Guess returns the definition of a field of the model at path guessed from
// value, or nil if the field is not modeled.
func (g *Guesser) Guess(path, field string, index int, value interface{}) *Definition {
	return g.guess(path, field, index, value)
}

func (g *Guesser) guess(path, field string, index int, value interface{}) *Definition {
	if skip, ok := lookup(g.opts.SkipFields, path, field); ok && skip.eval() {
		return nil
	}

	if g.keepApplies(path) {
		keep, ok := lookup(g.opts.KeepOnlyFields, path, field)
		if !ok || !keep.eval() {
			return nil
		}
	}

	if forced, ok := lookup(g.opts.ForceDefinition, path, field); ok && forced != nil {
		return g.force(path, field, index, value, forced)
	}

	required, _ := lookup(g.opts.RequireField, path, field)

	pg := &Guess{
		Value:    value,
		Field:    field,
		Path:     path,
		Index:    index,
		Required: required,
		guesser:  g,
	}

	d := pg.Definition()

	if g.opts.ConfirmGuess != nil {
		if c := g.opts.ConfirmGuess(field, d, pg); c != nil {
			d = c
		}
	}

	return d
}

// force copies a supplied definition into a model slot. Object kinds get a
// nested model built from the value.
func (g *Guesser) force(path, field string, index int, value interface{}, forced *Definition) *Definition {
	d := *forced
	d.retries = 0

	switch d.Kind {
	case ObjectKind:
		d.Model = joinPath(path, field)
		m, ok := asMap(value)
		if !ok {
			m = map[string]interface{}{}
		}
		g.build(d.Model, NewMapRecord(index, m))

	case ObjectArrayKind:
		d.Model = joinPath(path, field) + "[]"
		first := map[string]interface{}{}
		if items, ok := asArray(value); ok && len(items) > 0 {
			if m, ok := asMap(items[0]); ok {
				first = m
			}
		}
		g.build(d.Model, NewMapRecord(index, first))
	}

	return &d
}

// refine guesses an unknown field of m again from a later value. When the
// new guess is concrete it replaces the field's slot and is returned. The
// second result is false when the value's shape cannot replace the unknown.
func (g *Guesser) refine(m *Model, field string, unknown *Definition, index int, value interface{}) (*Definition, bool) {
	d := g.guess(m.path, field, index, value)
	unknown.retries++

	if d == nil || d.Kind == UnknownKind {
		return nil, true
	}

	if !unknown.Shape.accepts(d.Kind) {
		if d.Model != "" {
			g.drop(d.Model)
		}
		return nil, false
	}

	m.set(field, d)

	return d, true
}

// drop removes the model at path and every model nested below it.
func (g *Guesser) drop(path string) {
	for p := range g.models {
		if p == path || strings.HasPrefix(p, path+".") || strings.HasPrefix(p, path+"[") {
			delete(g.models, p)
		}
	}
}
