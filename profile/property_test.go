package profile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionConvert(t *testing.T) {
	email := DefaultTextConstraints[1]
	date := NewDateTime(nil, Layout("2006-01-02"))

	tests := map[string]struct {
		Def   *Definition
		Raw   interface{}
		Value interface{}
		Err   string
	}{
		"text":             {NewText(nil), "abc", "abc", ""},
		"text number":      {NewText(nil), 10, nil, "Text property values must be a string (not number)"},
		"constrained":      {NewConstrainedText(nil, email), "a@b.co", "a@b.co", ""},
		"constrained miss": {NewConstrainedText(nil, email), "nope", nil, "E-mail Address property values must be a string matching " + email.Pattern.String()},
		"bool word":        {NewBoolean(nil), "On", true, ""},
		"bool zero":        {NewBoolean(nil), "0", false, ""},
		"bool native":      {NewBoolean(nil), true, true, ""},
		"bool bad":         {NewBoolean(nil), "maybe", nil, "Boolean property values must be a string (yes, no, on, off, 0, 1, true, or false)"},
		"int":              {NewInteger(nil), "1,024", int64(1024), ""},
		"int big":          {NewInteger(nil), "9007199254740993", int64(9007199254740993), ""},
		"int json":         {NewInteger(nil), json.Number("12"), int64(12), ""},
		"int json round":   {NewInteger(nil), json.Number("2.5"), int64(3), ""},
		"int json big":     {NewInteger(nil), json.Number("9007199254740993"), int64(9007199254740993), ""},
		"int underscores":  {NewInteger(nil), "1_000", nil, "Integer property values must be parseable as an integer"},
		"int native":       {NewInteger(nil), 2.6, int64(3), ""},
		"int fraction":     {NewInteger(nil), "2.5", nil, "Integer property values must be parseable as an integer"},
		"int bool":         {NewInteger(nil), true, nil, "Integer property values must be either a number or parseable string (not boolean)"},
		"float":            {NewFloat(nil), "2.5", 2.5, ""},
		"float text":       {NewFloat(nil), "abc", nil, "Float property values must be parseable as a float"},
		"float underscore": {NewFloat(nil), "1_0.5", nil, "Float property values must be parseable as a float"},
		"float hex":        {NewFloat(nil), "0x1p4", nil, "Float property values must be parseable as a float"},
		"float date digit": {NewFloat(nil), "2020_01", nil, "Float property values must be parseable as a float"},
		"date":             {date, "2014-02-01", time.Date(2014, 2, 1, 0, 0, 0, 0, time.UTC), ""},
		"date bad":         {date, "02/01/2014", nil, "DateTime property values must be formatted as '2006-01-02'"},
		"date no format":   {NewDateTime(nil, nil), "2014-02-01", nil, "DateTime property is a string but no date format supplied"},
		"date number":      {date, 5, nil, "DateTime property values must be either a date or string (not number)"},
		"unknown":          {NewUnknown(), "x", nil, "Unknown property has no values to convert with"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := test.Def.Convert(test.Raw)
			if test.Err != "" {
				require.Error(t, err)
				assert.Equal(t, test.Err, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.Value, v)
		})
	}
}

func TestDefinitionDescription(t *testing.T) {
	g := NewGuesser(nil)

	d := g.Guess("", "visits", 7, "")
	d.retries = 2
	assert.Equal(t, "Unknown property (guessed from 'visits' row 7, retried: 2)", d.Description())

	d = g.Guess("", "on", 1, "yes")
	assert.Equal(t, "Boolean value where 'yes', 'true', 'on', or '1' will be true, all others will be false (guessed from 'on' row 1)", d.Description())

	assert.Equal(t, "Any date instance (supplied)", NewDateTime(nil, nil).Description())
	assert.Equal(t, "Any text that matches date format '2006-01-02' (supplied)", NewDateTime(nil, Layout("2006-01-02")).Description())
}
