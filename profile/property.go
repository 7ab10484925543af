package profile

import (
	"fmt"
	"math"
	"time"
)

// Predicate is a deferred boolean, evaluated each time it is consulted.
type Predicate func() bool

// Always returns a predicate with a constant result.
func Always(b bool) Predicate {
	return func() bool { return b }
}

// Fields returns a predicate map selecting each named field.
func Fields(names ...string) map[string]Predicate {
	m := make(map[string]Predicate, len(names))
	for _, n := range names {
		m[n] = Always(true)
	}
	return m
}

func (p Predicate) eval() bool {
	return p != nil && p()
}

// Definition describes the inferred type of one field and converts its values.
// Apart from the retry counter of unknowns, definitions are not modified once
// stored in a model; refinement replaces the model slot instead.
type Definition struct {
	Kind Kind

	// Nature is the human-readable kind name, e.g. "Integer" or "IP Address".
	Nature string

	// Required values treat absent or blank input as an error instead of a skip.
	Required Predicate

	// Constraint narrows constrained text and boolean values.
	Constraint *TextConstraint

	// Format parses date time strings. A nil format accepts time.Time values only.
	Format DateFormat

	// Model is the path of the nested content model of object kinds.
	Model string

	// Shape records what the absent value of an unknown looked like.
	Shape Shape

	// GuessedBy is set when the definition was produced by the guess chain.
	GuessedBy *Guess

	retries int
}

func NewUnknown() *Definition {
	return &Definition{Kind: UnknownKind, Nature: "Unknown"}
}

func NewText(required Predicate) *Definition {
	return &Definition{Kind: TextKind, Nature: "Text", Required: required}
}

func NewConstrainedText(required Predicate, c *TextConstraint) *Definition {
	return &Definition{Kind: ConstrainedTextKind, Nature: c.Name, Required: required, Constraint: c}
}

func NewBoolean(required Predicate) *Definition {
	return &Definition{Kind: BoolKind, Nature: "Boolean", Required: required, Constraint: booleanConstraint}
}

func NewInteger(required Predicate) *Definition {
	return &Definition{Kind: IntKind, Nature: "Integer", Required: required}
}

func NewFloat(required Predicate) *Definition {
	return &Definition{Kind: FloatKind, Nature: "Float", Required: required}
}

func NewDateTime(required Predicate, format DateFormat) *Definition {
	return &Definition{Kind: DateTimeKind, Nature: "DateTime", Required: required, Format: format}
}

// NewObject returns an object definition. Its nested model is built from the
// first value seen for the field.
func NewObject(required Predicate) *Definition {
	return &Definition{Kind: ObjectKind, Nature: "Object", Required: required}
}

// NewObjectArray returns an array-of-objects definition. Its nested model is
// built from the first element of the first value seen for the field.
func NewObjectArray(required Predicate) *Definition {
	return &Definition{Kind: ObjectArrayKind, Nature: "Array", Required: required}
}

// IsRequired evaluates the required predicate.
func (d *Definition) IsRequired() bool {
	return d.Required.eval()
}

// Retries returns the number of times an unknown definition was guessed again.
func (d *Definition) Retries() int {
	return d.retries
}

func (d *Definition) provenance() string {
	if d.GuessedBy == nil {
		return " (supplied)"
	}
	if d.Kind == UnknownKind {
		return fmt.Sprintf(" (guessed from '%s' row %d, retried: %d)", d.GuessedBy.Field, d.GuessedBy.Index, d.retries)
	}
	return fmt.Sprintf(" (guessed from '%s' row %d)", d.GuessedBy.Field, d.GuessedBy.Index)
}

// Description returns a human-readable account of the definition and where it came from.
func (d *Definition) Description() string {
	p := d.provenance()

	switch d.Kind {
	case UnknownKind:
		return "Unknown property" + p
	case TextKind:
		return "Any arbitrary text" + p
	case ConstrainedTextKind:
		return fmt.Sprintf("Any text that matches %s%s", d.Constraint.Pattern, p)
	case BoolKind:
		return "Boolean value where 'yes', 'true', 'on', or '1' will be true, all others will be false" + p
	case IntKind:
		return "Any text that can be converted to an integer value" + p
	case FloatKind:
		return "Any text that can be converted to a float value" + p
	case DateTimeKind:
		if d.Format == nil {
			return "Any date instance" + p
		}
		return fmt.Sprintf("Any text that matches date format '%s'%s", d.Format.Name(), p)
	case ObjectKind:
		return "Object instance" + p
	case ObjectArrayKind:
		return "Array of object instances" + p
	}

	return d.Nature + p
}

// rejection is a field-level validation failure message.
type rejection string

func (r rejection) Error() string {
	return string(r)
}

func rejectf(format string, args ...interface{}) error {
	return rejection(fmt.Sprintf(format, args...))
}

// Convert validates a scalar raw value and converts it to the definition's
// Go type: string, bool, int64, float64 or time.Time. Object kinds are
// converted by a Transformer against their nested model.
func (d *Definition) Convert(v interface{}) (interface{}, error) {
	switch d.Kind {
	case TextKind:
		return convertText(d, v)
	case ConstrainedTextKind:
		return convertConstrainedText(d, v)
	case BoolKind:
		return convertBool(d, v)
	case IntKind:
		return convertInt(d, v)
	case FloatKind:
		return convertFloat(d, v)
	case DateTimeKind:
		return convertDateTime(d, v)
	case UnknownKind:
		return nil, rejectf("%s property has no values to convert with", d.Nature)
	case ObjectKind, ObjectArrayKind:
		return nil, rejectf("%s property values are converted with a nested model", d.Nature)
	}

	return nil, rejectf("unsupported property kind %d", d.Kind)
}

func convertText(d *Definition, v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, rejectf("%s property values must be a string (not %s)", d.Nature, typeName(v))
	}
	return s, nil
}

func convertConstrainedText(d *Definition, v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, rejectf("%s property values must be a string (not %s)", d.Nature, typeName(v))
	}
	if !d.Constraint.Match(s) {
		return nil, rejectf("%s property values must be a string matching %s", d.Nature, d.Constraint.Pattern)
	}
	return s, nil
}

func convertBool(d *Definition, v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, ok := ParseBool(x)
		if !ok {
			return nil, rejectf("%s property values must be a string (yes, no, on, off, 0, 1, true, or false)", d.Nature)
		}
		return b, nil
	}

	return nil, rejectf("%s property values must be either a boolean or string (not %s)", d.Nature, typeName(v))
}

// convertInt parses text strictly. Native numbers, including decoded JSON
// numbers, are rounded.
func convertInt(d *Definition, v interface{}) (interface{}, error) {
	if _, isText := v.(string); !isText {
		if i, ok := ParseInt(v); ok {
			return i, nil
		}
		f, isNum := ParseFloat(v)
		if !isNum {
			return nil, rejectf("%s property values must be either a number or parseable string (not %s)", d.Nature, typeName(v))
		}
		return int64(math.Round(f)), nil
	}

	i, ok := ParseInt(v)
	if !ok {
		return nil, rejectf("%s property values must be parseable as an integer", d.Nature)
	}
	return i, nil
}

func convertFloat(d *Definition, v interface{}) (interface{}, error) {
	if _, ok := numericText(v); !ok {
		if _, _, isNum := ParseNumber(v); !isNum {
			return nil, rejectf("%s property values must be either a number or parseable string (not %s)", d.Nature, typeName(v))
		}
	}

	f, ok := ParseFloat(v)
	if !ok {
		return nil, rejectf("%s property values must be parseable as a float", d.Nature)
	}
	return f, nil
}

func convertDateTime(d *Definition, v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		if d.Format == nil {
			return nil, rejectf("%s property is a string but no date format supplied", d.Nature)
		}
		t, ok := d.Format.Parse(x)
		if !ok {
			return nil, rejectf("%s property values must be formatted as '%s'", d.Nature, d.Format.Name())
		}
		return t, nil
	}

	return nil, rejectf("%s property values must be either a date or string (not %s)", d.Nature, typeName(v))
}
