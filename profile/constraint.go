package profile

import (
	"regexp"
	"time"
)

// TextConstraint narrows text to values matching a named pattern. The name
// becomes the nature reported for fields guessed with it.
type TextConstraint struct {
	Name    string
	Pattern *regexp.Regexp
}

// Match returns true if s satisfies the constraint.
func (c *TextConstraint) Match(s string) bool {
	return c.Pattern.MatchString(s)
}

var DefaultTextConstraints = []*TextConstraint{
	{
		Name:    "IP Address",
		Pattern: regexp.MustCompile(`^(([0-9]|[1-9][0-9]|1[0-9]{2}|2[0-4][0-9]|25[0-5])\.){3}([0-9]|[1-9][0-9]|1[0-9]{2}|2[0-4][0-9]|25[0-5])$`),
	},
	{
		Name:    "E-mail Address",
		Pattern: regexp.MustCompile(`^[A-Za-z0-9._-]*@[A-Za-z0-9_-]*\.[A-Za-z0-9.]*$`),
	},
	{
		Name:    "Telephone Number",
		Pattern: regexp.MustCompile(`^\+\d{2}/\d{4}/\d{6}$`),
	},
}

// booleanConstraint is the constraint carried by boolean definitions.
var booleanConstraint = &TextConstraint{
	Name:    "Boolean Value",
	Pattern: boolWords,
}

// TextConstraints configures the constraint list consulted when guessing.
// Additional constraints are tested first, followed by Only when set or the
// defaults otherwise.
type TextConstraints struct {
	Only       []*TextConstraint
	Additional []*TextConstraint
}

func (c TextConstraints) list() []*TextConstraint {
	base := c.Only
	if base == nil {
		base = DefaultTextConstraints
	}

	l := make([]*TextConstraint, 0, len(c.Additional)+len(base))
	l = append(l, c.Additional...)
	return append(l, base...)
}

// DateFormat recognizes and parses date text in strict mode. Partial or
// ambiguous matches must be rejected.
type DateFormat interface {
	Name() string
	Parse(s string) (time.Time, bool)
}

// Layout is a DateFormat backed by a time package layout.
type Layout string

func (l Layout) Name() string {
	return string(l)
}

func (l Layout) Parse(s string) (time.Time, bool) {
	t, err := time.Parse(string(l), s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var DefaultDateFormats = []DateFormat{
	Layout("2006-01-02"),
	Layout("02/01/2006"),
	Layout("2006-01-02 15:04:05"),
	Layout("2006-01-02 15:04:05Z07:00"),
	Layout("2006-01-02 15:04:05 UTC"),
	Layout("Mon Jan 02 15:04:05 UTC 2006"),
	Layout("2006-01-02T15:04:05"),
	Layout(time.RFC3339),
	Layout(time.RFC1123Z),
	Layout(time.RFC1123),
}

// DateFormats configures the date formats consulted when guessing, with the
// same ordering rules as TextConstraints.
type DateFormats struct {
	Only       []DateFormat
	Additional []DateFormat
}

func (f DateFormats) list() []DateFormat {
	base := f.Only
	if base == nil {
		base = DefaultDateFormats
	}

	l := make([]DateFormat, 0, len(f.Additional)+len(base))
	l = append(l, f.Additional...)
	return append(l, base...)
}
