package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHeader() *Header {
	return NewHeader([]string{"id", "name", "email", "score", "active", "notes"})
}

func TestGuesserBuild(t *testing.T) {
	h := sampleHeader()
	g := NewGuesser(nil)

	m := g.Build(h.Row(1, []string{"1", "Jane", "jane@example.com", "9.5", "yes", ""}))

	assert.Equal(t, "", m.Path())
	assert.Equal(t, []string{"id", "name", "email", "score", "active", "notes"}, m.Names())

	natures := map[string]string{}
	for _, n := range m.Names() {
		d, _ := m.Definition(n)
		natures[n] = d.Nature
	}

	assert.Equal(t, map[string]string{
		"id":     "Integer",
		"name":   "Text",
		"email":  "E-mail Address",
		"score":  "Float",
		"active": "Boolean",
		"notes":  "Unknown",
	}, natures)

	// Later records never rebuild the root model.
	again := g.Build(h.Row(2, []string{"x", "y", "z", "w", "v", "u"}))
	assert.Same(t, m, again)
}

func TestGuesserSkipKeep(t *testing.T) {
	h := sampleHeader()
	row := h.Row(1, []string{"1", "Jane", "jane@example.com", "9.5", "yes", ""})

	g := NewGuesser(&Options{
		SkipFields: Fields("notes", "email"),
	})
	assert.Equal(t, []string{"id", "name", "score", "active"}, g.Build(row).Names())

	g = NewGuesser(&Options{
		KeepOnlyFields: Fields("id", "name", "notes"),
		SkipFields:     map[string]Predicate{"notes": Always(true), "id": Always(false)},
	})
	assert.Equal(t, []string{"id", "name"}, g.Build(row).Names())
}

func TestGuesserKeepNested(t *testing.T) {
	rec := NewMapRecord(0, map[string]interface{}{
		"id": "1",
		"address": map[string]interface{}{
			"city":   "Philadelphia",
			"street": "Market",
		},
		"other": map[string]interface{}{
			"x": "1",
		},
	})

	g := NewGuesser(&Options{
		KeepOnlyFields: Fields("id", "address", "other", "address.city"),
	})
	m := g.Build(rec)

	d, ok := m.Definition("address")
	require.True(t, ok)
	assert.Equal(t, []string{"city"}, g.Nested(d).Names())

	d, ok = m.Definition("other")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, g.Nested(d).Names())
}

func TestGuesserForce(t *testing.T) {
	h := NewHeader([]string{"zip", "meta"})

	g := NewGuesser(&Options{
		ForceDefinition: map[string]*Definition{
			"zip":  NewText(nil),
			"meta": NewObject(nil),
		},
	})
	m := g.Build(h.Row(1, []string{"19104", "ignored"}))

	zip, _ := m.Definition("zip")
	assert.Equal(t, TextKind, zip.Kind)
	assert.Nil(t, zip.GuessedBy)
	assert.Contains(t, zip.Description(), "(supplied)")

	meta, _ := m.Definition("meta")
	assert.Equal(t, ObjectKind, meta.Kind)
	assert.Equal(t, "meta", meta.Model)
	assert.NotNil(t, g.Nested(meta))
}

func TestGuesserQualifiedLookup(t *testing.T) {
	rec := NewMapRecord(0, map[string]interface{}{
		"code": "100",
		"items": []interface{}{
			map[string]interface{}{"code": "200"},
		},
	})

	g := NewGuesser(&Options{
		ForceDefinition: map[string]*Definition{
			"items[].code": NewText(nil),
		},
		RequireField: map[string]Predicate{
			"code": Always(true),
		},
	})
	m := g.Build(rec)

	code, _ := m.Definition("code")
	assert.Equal(t, IntKind, code.Kind)
	assert.True(t, code.IsRequired())

	items, _ := m.Definition("items")
	nested := g.Nested(items)
	require.NotNil(t, nested)

	itemCode, _ := nested.Definition("code")
	assert.Equal(t, TextKind, itemCode.Kind)
}

func TestGuesserConfirmGuess(t *testing.T) {
	var confirmed []string

	g := NewGuesser(&Options{
		ConfirmGuess: func(field string, guessed *Definition, pg *Guess) *Definition {
			confirmed = append(confirmed, field)
			if field == "amount" {
				return pg.tag(NewFloat(pg.Required))
			}
			return nil
		},
	})

	h := NewHeader([]string{"amount", "name"})
	m := g.Build(h.Row(1, []string{"100", "Jane"}))

	amount, _ := m.Definition("amount")
	assert.Equal(t, FloatKind, amount.Kind)

	name, _ := m.Definition("name")
	assert.Equal(t, TextKind, name.Kind)

	assert.Equal(t, []string{"amount", "name"}, confirmed)
}

func TestRequiredPredicateIsDeferred(t *testing.T) {
	strict := false

	g := NewGuesser(&Options{
		RequireField: map[string]Predicate{
			"id": func() bool { return strict },
		},
	})

	d := g.Guess("", "id", 0, "1")
	assert.False(t, d.IsRequired())

	strict = true
	assert.True(t, d.IsRequired())
}

func TestDescribe(t *testing.T) {
	rec := NewMapRecord(4, map[string]interface{}{
		"id":      "1",
		"address": map[string]interface{}{"city": "Philadelphia"},
	})

	g := NewGuesser(nil)
	fields := g.Describe(g.Build(rec))

	require.Len(t, fields, 2)
	assert.Equal(t, "address", fields[0].Name)
	assert.Equal(t, ObjectKind, fields[0].Kind)
	assert.Equal(t, "Object instance (guessed from 'address' row 4)", fields[0].Description)

	require.Len(t, fields[0].Fields, 1)
	assert.Equal(t, "city", fields[0].Fields[0].Name)
	assert.Equal(t, "Any arbitrary text (guessed from 'city' row 4)", fields[0].Fields[0].Description)

	assert.Equal(t, "id", fields[1].Name)
	assert.Equal(t, "Integer", fields[1].Nature)
}
