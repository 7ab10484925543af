package profile

import "time"

// Guess is the context of classifying one value of one field.
type Guess struct {
	// Value is the raw value being classified.
	Value interface{}

	// Field is the name of the field within its model.
	Field string

	// Path is the path of the model the field belongs to.
	Path string

	// Index is the index of the record the value came from.
	Index int

	// Required is applied to the resulting definition.
	Required Predicate

	guesser *Guesser
}

// FieldPath returns the qualified name of the field, e.g. "items[].sku".
func (g *Guess) FieldPath() string {
	return joinPath(g.Path, g.Field)
}

// Definition runs the recognizers in their fixed precedence and returns the
// first match. Text is the fallback when none match.
func (g *Guess) Definition() *Definition {
	if d := unknowable(g); d != nil {
		return d
	}
	if d := numeric(g); d != nil {
		return d
	}
	if d := boolean(g); d != nil {
		return d
	}
	if d := constrainedText(g); d != nil {
		return d
	}
	if d := objectArray(g); d != nil {
		return d
	}
	if d := object(g); d != nil {
		return d
	}

	return g.fallback()
}

func (g *Guess) fallback() *Definition {
	if fn := g.guesser.opts.DefaultDefinition; fn != nil {
		if d := fn(g); d != nil {
			return d
		}
	}
	return g.tag(NewText(g.Required))
}

// tag marks a definition as produced by this guess.
func (g *Guess) tag(d *Definition) *Definition {
	d.GuessedBy = g
	return d
}

// unknowable matches absent values, blank strings and empty collections.
func unknowable(g *Guess) *Definition {
	if !isBlank(g.Value) {
		return nil
	}

	var d *Definition
	if fn := g.guesser.opts.UnknownDefinition; fn != nil {
		d = fn(g)
	}
	if d == nil {
		d = NewUnknown()
	}
	g.tag(d)
	d.Shape = shapeOf(g.Value)

	if fn := g.guesser.opts.OnUnknown; fn != nil {
		fn(g.Field, d, g)
	}

	return d
}

// numeric matches numbers and numeric text. Integral values are integers.
func numeric(g *Guess) *Definition {
	if _, ok := g.Value.(bool); ok {
		return nil
	}

	_, integral, ok := ParseNumber(g.Value)
	if !ok {
		return nil
	}

	if integral {
		return g.tag(NewInteger(g.Required))
	}
	return g.tag(NewFloat(g.Required))
}

// boolean matches native booleans and boolean words other than 0 and 1,
// which numeric already claimed.
func boolean(g *Guess) *Definition {
	switch x := g.Value.(type) {
	case bool:
		return g.tag(NewBoolean(g.Required))
	case string:
		if isBoolWord(x) {
			return g.tag(NewBoolean(g.Required))
		}
	}
	return nil
}

// constrainedText matches text against the configured constraints in order.
func constrainedText(g *Guess) *Definition {
	s, ok := g.Value.(string)
	if !ok {
		return nil
	}

	for _, c := range g.guesser.opts.TextConstraints.list() {
		if c.Match(s) {
			return g.tag(NewConstrainedText(g.Required, c))
		}
	}
	return nil
}

// dateTime matches native times and text parsed by the first matching format.
func dateTime(g *Guess) *Definition {
	switch x := g.Value.(type) {
	case time.Time:
		return g.tag(NewDateTime(g.Required, nil))
	case string:
		for _, f := range g.guesser.opts.DateFormats.list() {
			if _, ok := f.Parse(x); ok {
				return g.tag(NewDateTime(g.Required, f))
			}
		}
	}
	return nil
}

// objectArray matches arrays whose first element is an object. The nested
// model is built from that element.
func objectArray(g *Guess) *Definition {
	items, ok := asArray(g.Value)
	if !ok || len(items) == 0 {
		return nil
	}

	first, ok := asMap(items[0])
	if !ok {
		return nil
	}

	d := g.tag(NewObjectArray(g.Required))
	d.Model = g.FieldPath() + "[]"
	g.guesser.build(d.Model, NewMapRecord(g.Index, first))

	return d
}

// object matches key/value values. Date text is tested first so that it is
// never treated as a generic value.
func object(g *Guess) *Definition {
	if d := dateTime(g); d != nil {
		return d
	}

	m, ok := asMap(g.Value)
	if !ok {
		return nil
	}

	d := g.tag(NewObject(g.Required))
	d.Model = g.FieldPath()
	g.guesser.build(d.Model, NewMapRecord(g.Index, m))

	return d
}
