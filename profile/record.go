package profile

import (
	"sort"
	"strings"
)

// Record provides random access to the raw values of one source record.
type Record interface {
	// Index is the position of the record in its source.
	Index() int

	// Names returns the field names present in the record, in source order.
	Names() []string

	// Value returns the raw value of a field and true if the field is present.
	Value(name string) (interface{}, bool)
}

// Content is a destination record produced by a Transformer.
type Content map[string]interface{}

// MapRecord is a Record backed by a decoded key/value object.
type MapRecord struct {
	index  int
	names  []string
	values map[string]interface{}
}

func (r *MapRecord) Index() int {
	return r.index
}

func (r *MapRecord) Names() []string {
	return r.names
}

func (r *MapRecord) Value(name string) (interface{}, bool) {
	v, ok := r.values[name]
	return v, ok
}

// NewMapRecord returns a record for a decoded object. Decoded maps carry no
// key order, so names are sorted to keep models deterministic.
func NewMapRecord(index int, values map[string]interface{}) *MapRecord {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	return &MapRecord{
		index:  index,
		names:  names,
		values: values,
	}
}

// asMap returns the key/value form of a nested object value.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch x := v.(type) {
	case map[string]interface{}:
		return x, true
	case Content:
		return map[string]interface{}(x), true
	}
	return nil, false
}

// asArray returns the element form of a nested array value.
func asArray(v interface{}) ([]interface{}, bool) {
	switch x := v.(type) {
	case []interface{}:
		return x, true
	case []map[string]interface{}:
		l := make([]interface{}, len(x))
		for i, m := range x {
			l[i] = m
		}
		return l, true
	}
	return nil, false
}

// Header maps the column names of a tabular source to positions.
type Header struct {
	names []string
	index map[string]int
}

// NewHeader returns a header for the given column names. For duplicate
// names the first column wins.
func NewHeader(names []string) *Header {
	h := &Header{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}

	for i, n := range names {
		n = strings.TrimSpace(n)
		h.names[i] = n

		if _, ok := h.index[n]; !ok {
			h.index[n] = i
		}
	}

	return h
}

// Names returns the column names.
func (h *Header) Names() []string {
	return h.names
}

// Row returns a record for one positional row of the source.
func (h *Header) Row(index int, values []string) *Row {
	return &Row{
		header: h,
		index:  index,
		values: values,
	}
}

// Row is a Record backed by a header and a positional row of strings.
type Row struct {
	header *Header
	index  int
	values []string
}

func (r *Row) Index() int {
	return r.index
}

func (r *Row) Names() []string {
	return r.header.names
}

// Value returns the cell for the named column. Columns missing from a short
// row are reported absent.
func (r *Row) Value(name string) (interface{}, bool) {
	i, ok := r.header.index[name]
	if !ok || i >= len(r.values) {
		return nil, false
	}
	return r.values[i], true
}
