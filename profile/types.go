package profile

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	UnknownKind Kind = iota
	TextKind
	ConstrainedTextKind
	BoolKind
	IntKind
	FloatKind
	DateTimeKind
	ObjectKind
	ObjectArrayKind
)

// Kind is the closed set of property kinds a value can be classified into.
type Kind uint8

func (k Kind) String() string {
	switch k {
	case UnknownKind:
		return "unknown"
	case TextKind:
		return "text"
	case ConstrainedTextKind:
		return "constrained-text"
	case BoolKind:
		return "boolean"
	case IntKind:
		return "integer"
	case FloatKind:
		return "float"
	case DateTimeKind:
		return "datetime"
	case ObjectKind:
		return "object"
	case ObjectArrayKind:
		return "object-array"
	}

	return ""
}

// Scalar returns true if values of this kind are not nested records.
func (k Kind) Scalar() bool {
	return k != ObjectKind && k != ObjectArrayKind
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	t, ok := ParseKind(s)
	if !ok {
		return eris.Errorf("profile: unknown kind %q", s)
	}
	*k = t

	return nil
}

// ParseKind parses a kind name. Unrecognized names return UnknownKind and false.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknown":
		return UnknownKind, true
	case "text", "string":
		return TextKind, true
	case "constrained-text":
		return ConstrainedTextKind, true
	case "boolean", "bool":
		return BoolKind, true
	case "integer", "int":
		return IntKind, true
	case "float", "number":
		return FloatKind, true
	case "datetime", "date":
		return DateTimeKind, true
	case "object":
		return ObjectKind, true
	case "object-array", "array":
		return ObjectArrayKind, true
	}

	return UnknownKind, false
}

// Shape is the structural form of a raw value, used to remember what an
// absent value looked like when a field is first modeled as unknown.
type Shape uint8

const (
	// AnyShape is recorded for nil values, which carry no shape.
	AnyShape Shape = iota
	ScalarShape
	ArrayShape
	ObjectShape
)

func (s Shape) String() string {
	switch s {
	case ScalarShape:
		return "scalar"
	case ArrayShape:
		return "array"
	case ObjectShape:
		return "object"
	}

	return "any"
}

// accepts returns true if a value of kind k may replace an unknown of this shape.
func (s Shape) accepts(k Kind) bool {
	switch s {
	case ScalarShape:
		return k.Scalar()
	case ArrayShape:
		return k == ObjectArrayKind
	case ObjectShape:
		return k == ObjectKind
	}

	return true
}

// shapeOf returns the shape of a raw value.
func shapeOf(v interface{}) Shape {
	switch v.(type) {
	case nil:
		return AnyShape
	case []interface{}, []map[string]interface{}:
		return ArrayShape
	case map[string]interface{}, Content:
		return ObjectShape
	}

	return ScalarShape
}
