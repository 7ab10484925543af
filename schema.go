package sqlimporter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/chop-dbhi/content-importer/profile"
	"github.com/rotisserie/eris"
)

var (
	badChars = regexp.MustCompile(`[^a-z0-9_\-\.\+]+`)
	sepChars = regexp.MustCompile(`[_\-\.\+]+`)
)

// Column types per content kind.
var (
	postgresTypeMap = map[profile.Kind]string{
		profile.UnknownKind:         "text",
		profile.TextKind:            "text",
		profile.ConstrainedTextKind: "text",
		profile.BoolKind:            "boolean",
		profile.IntKind:             "bigint",
		profile.FloatKind:           "double precision",
		profile.DateTimeKind:        "timestamp",
		profile.ObjectKind:          "jsonb",
		profile.ObjectArrayKind:     "jsonb",
	}

	sqliteTypeMap = map[profile.Kind]string{
		profile.BoolKind:     "integer",
		profile.IntKind:      "integer",
		profile.FloatKind:    "real",
		profile.DateTimeKind: "datetime",
	}
)

func postgresType(k profile.Kind) string {
	if t, ok := postgresTypeMap[k]; ok {
		return t
	}
	return "text"
}

func sqliteType(k profile.Kind) string {
	if t, ok := sqliteTypeMap[k]; ok {
		return t
	}
	return "text"
}

// Schema is the table layout derived from a content model.
type Schema struct {
	Cstore bool
	Fields []*Field `json:"fields"`
}

// Field is a column of the table.
type Field struct {
	// Name of the field in the source records.
	Name string `json:"name"`

	// Key of the field in destination records.
	Key string `json:"key"`

	// Column is the cleaned, unique column name.
	Column string `json:"column"`

	Kind profile.Kind `json:"kind"`

	// If false, values can be "null", that is, not specified.
	Required bool `json:"required"`
}

// NewSchema maps each field of the model, in model order, to a column.
// rename must be the function destination keys were produced with.
func NewSchema(m *profile.Model, rename func(string) string) *Schema {
	names := m.Names()
	fields := make([]*Field, 0, len(names))
	seen := make(map[string]int, len(names))

	for _, n := range names {
		d, _ := m.Definition(n)

		key := n
		if rename != nil {
			key = rename(n)
		}

		col := cleanFieldName(key)
		if col == "" {
			col = fmt.Sprintf("c%d", len(fields))
		}

		// Columns that clean to the same name are numbered.
		if c, ok := seen[col]; ok {
			seen[col] = c + 1
			col = fmt.Sprintf("%s_%d", col, c+1)
		} else {
			seen[col] = 1
		}

		fields = append(fields, &Field{
			Name:     n,
			Key:      key,
			Column:   col,
			Kind:     d.Kind,
			Required: d.IsRequired(),
		})
	}

	return &Schema{
		Fields: fields,
	}
}

// Columns returns the column names in schema order.
func (s *Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Values returns the row of a destination record in schema order. Missing
// keys are null and nested records are encoded as JSON text.
func (s *Schema) Values(dest profile.Content, row []interface{}) ([]interface{}, error) {
	if cap(row) < len(s.Fields) {
		row = make([]interface{}, len(s.Fields))
	}
	row = row[:len(s.Fields)]

	for i, f := range s.Fields {
		v, ok := dest[f.Key]
		if !ok {
			row[i] = nil
			continue
		}

		switch x := v.(type) {
		case profile.Content, []profile.Content:
			b, err := json.Marshal(x)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlimporter: encode %s", f.Name)
			}
			row[i] = string(b)
		default:
			row[i] = v
		}
	}

	return row, nil
}

func cleanFieldName(n string) string {
	n = strings.ToLower(n)
	n = badChars.ReplaceAllString(n, "_")
	n = sepChars.ReplaceAllString(n, "_")
	return strings.Trim(n, "_")
}
