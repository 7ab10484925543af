package profile

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// boolWords are accepted when converting a boolean value.
	boolWords = regexp.MustCompile(`(?i)^(yes|no|true|false|on|off|0|1)$`)

	// guessBoolWords excludes 0 and 1 so numeric fields are not mistaken for booleans.
	guessBoolWords = regexp.MustCompile(`(?i)^(yes|no|true|false|on|off)$`)

	// decimalText is plain decimal notation. strconv also accepts Go literal
	// syntax such as digit underscores and hex floats.
	decimalText = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// stripSeparators removes thousands separators from numeric text.
func stripSeparators(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

// parseIntPrefix parses the leading optionally signed run of digits in s.
func parseIntPrefix(s string) (int64, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}

	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	if end == digits {
		return 0, false
	}

	i, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}

	return i, true
}

// parseNumericText parses s as a number after removing separators. A number is
// integral when the float parse equals the integer parse of the same text.
func parseNumericText(s string) (float64, bool, bool) {
	t := stripSeparators(s)
	if !decimalText.MatchString(t) {
		return 0, false, false
	}

	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, false
	}

	i, ok := parseIntPrefix(t)

	return f, ok && float64(i) == f, true
}

// ParseNumber returns the float value of a numeric raw value, whether it is
// integral and true if the value is numeric at all. Strings and json.Number
// are parsed, native Go numbers are accepted as is.
func ParseNumber(v interface{}) (float64, bool, bool) {
	switch x := v.(type) {
	case string:
		return parseNumericText(x)
	case json.Number:
		return parseNumericText(x.String())
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false, false
		}
		return x, math.Round(x) == x, true
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false, false
		}
		return f, math.Round(f) == f, true
	case int:
		return float64(x), true, true
	case int8:
		return float64(x), true, true
	case int16:
		return float64(x), true, true
	case int32:
		return float64(x), true, true
	case int64:
		return float64(x), true, true
	case uint:
		return float64(x), true, true
	case uint8:
		return float64(x), true, true
	case uint16:
		return float64(x), true, true
	case uint32:
		return float64(x), true, true
	case uint64:
		return float64(x), true, true
	}

	return 0, false, false
}

// ParseInt returns the integer value of a numeric raw value. Values with a
// fractional part are rejected.
func ParseInt(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case int32:
		return int64(x), true
	}

	f, integral, ok := ParseNumber(v)
	if !ok || !integral {
		return 0, false
	}

	// Integral text beyond float precision still parses exactly.
	if s, isText := numericText(v); isText {
		if i, err := strconv.ParseInt(stripSeparators(s), 10, 64); err == nil {
			return i, true
		}
	}

	return int64(f), true
}

// ParseFloat returns the float value of a numeric raw value.
func ParseFloat(v interface{}) (float64, bool) {
	f, _, ok := ParseNumber(v)
	return f, ok
}

// ParseBool converts a boolean word, case-insensitively. The truthy words
// are 1, yes, true and on.
func ParseBool(s string) (bool, bool) {
	s = strings.TrimSpace(s)
	if !boolWords.MatchString(s) {
		return false, false
	}

	switch strings.ToLower(s) {
	case "1", "yes", "true", "on":
		return true, true
	}

	return false, true
}

// isBoolWord returns true if s looks like a boolean at guess time.
func isBoolWord(s string) bool {
	return guessBoolWords.MatchString(strings.TrimSpace(s))
}

func numericText(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

// isBlank returns true for absent values, blank strings and empty collections.
func isBlank(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []interface{}:
		return len(x) == 0
	case []map[string]interface{}:
		return len(x) == 0
	case map[string]interface{}:
		return len(x) == 0
	case Content:
		return len(x) == 0
	}

	return false
}

// typeName describes the Go type of a raw value for error messages.
func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	case bool:
		return "boolean"
	case []interface{}, []map[string]interface{}:
		return "array"
	case map[string]interface{}, Content:
		return "object"
	case time.Time:
		return "date"
	}

	return "value"
}
