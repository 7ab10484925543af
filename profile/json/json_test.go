package json

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/chop-dbhi/content-importer/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, src *Source) ([]profile.Record, []*profile.ContentError) {
	t.Helper()

	var (
		recs []profile.Record
		errs []*profile.ContentError
	)

	for {
		rec, err := src.Next()
		if err == io.EOF {
			return recs, errs
		}

		if cerr, ok := err.(*profile.ContentError); ok {
			errs = append(errs, cerr)
			continue
		}
		require.NoError(t, err)

		recs = append(recs, rec)
	}
}

func TestSourceArray(t *testing.T) {
	src, err := NewSource(strings.NewReader(`[
		{"name": "John", "color": "Blue", "dob": "1985-03-10", "age": 38},
		"oops",
		{"name": "Jane", "color": "Red"}
	]`), JSON)
	require.NoError(t, err)

	recs, errs := readAll(t, src)
	require.Len(t, recs, 2)
	require.Len(t, errs, 1)

	assert.Equal(t, 0, recs[0].Index())
	assert.Equal(t, []string{"age", "color", "dob", "name"}, recs[0].Names())

	age, _ := recs[0].Value("age")
	assert.Equal(t, json.Number("38"), age)

	assert.Equal(t, 1, errs[0].Index)
	assert.Equal(t, 2, recs[1].Index())
}

func TestSourceSingleObject(t *testing.T) {
	src, err := NewSource(strings.NewReader(`  {"name": "John", "tags": [{"k": "v"}]}`), JSON)
	require.NoError(t, err)

	recs, errs := readAll(t, src)
	assert.Empty(t, errs)
	require.Len(t, recs, 1)

	tags, ok := recs[0].Value("tags")
	require.True(t, ok)
	assert.Equal(t, []interface{}{map[string]interface{}{"k": "v"}}, tags)
}

func TestSourceLDJSON(t *testing.T) {
	src, err := NewSource(strings.NewReader(`
		{"name": "John", "color": "Blue", "dob": "1985-03-10"}
		{"name": broken
		[1, 2]

		{"name": "Jane", "color": "Red"}
		`), LDJSON)
	require.NoError(t, err)

	recs, errs := readAll(t, src)
	require.Len(t, recs, 2)
	require.Len(t, errs, 2)

	assert.Equal(t, 1, errs[0].Index)
	assert.Contains(t, errs[0].Message, "malformed line")
	assert.Equal(t, 2, errs[1].Index)

	name, _ := recs[1].Value("name")
	assert.Equal(t, "Jane", name)
	assert.Equal(t, 3, recs[1].Index())
}

func TestSourceLDJSONTrailingContent(t *testing.T) {
	src, err := NewSource(strings.NewReader("{\"a\":1} {\"a\":2}\n{\"a\":3}\n{\"a\":4}]\n"), LDJSON)
	require.NoError(t, err)

	recs, errs := readAll(t, src)
	require.Len(t, recs, 1)
	require.Len(t, errs, 2)

	assert.Equal(t, 0, errs[0].Index)
	assert.Contains(t, errs[0].Message, "trailing content")
	assert.Equal(t, 2, errs[1].Index)

	a, _ := recs[0].Value("a")
	assert.Equal(t, json.Number("3"), a)
	assert.Equal(t, 1, recs[0].Index())
}

func TestSourceErrors(t *testing.T) {
	_, err := NewSource(strings.NewReader(""), "xml")
	assert.Error(t, err)

	src, err := NewSource(strings.NewReader(""), JSON)
	require.NoError(t, err)
	_, err = src.Next()
	assert.Equal(t, io.EOF, err)

	src, err = NewSource(strings.NewReader(`[{"a": 1}, {"a": `), JSON)
	require.NoError(t, err)

	_, err = src.Next()
	require.NoError(t, err)

	_, err = src.Next()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}

func TestSourceStream(t *testing.T) {
	src, err := NewSource(strings.NewReader(`[
		{"id": 1, "address": {"city": "Philadelphia"}, "items": [{"sku": "A1", "qty": 2}], "note": null},
		{"id": 2.5, "address": {"city": "Boston"}, "items": [], "note": "hello"}
	]`), JSON)
	require.NoError(t, err)

	errs := &profile.Errors{}
	s := profile.NewStream(nil, errs, nil)

	var dests []profile.Content
	m, err := s.Consume(src, func(dest profile.Content, _ int, _ *profile.Model) bool {
		dests = append(dests, dest)
		return true
	})
	require.NoError(t, err)

	require.Len(t, dests, 2)
	assert.Equal(t, profile.Content{
		"id":      int64(1),
		"address": profile.Content{"city": "Philadelphia"},
		"items":   []profile.Content{{"sku": "A1", "qty": int64(2)}},
	}, dests[0])
	assert.Equal(t, profile.Content{
		"address": profile.Content{"city": "Boston"},
		"note":    "hello",
	}, dests[1])

	note, _ := m.Definition("note")
	assert.Equal(t, profile.TextKind, note.Kind)

	require.Len(t, errs.Fields, 1)
	assert.Equal(t, "id", errs.Fields[0].Field)
}
