package profile

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CamelCase renames a source field name into a camel cased destination key,
// e.g. "Login Date" becomes "loginDate" and "Item(s)" becomes "items".
func CamelCase(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, "(s)") {
		name = strings.TrimSuffix(name, "(s)") + "s"
	}

	words := splitWords(name)
	if len(words) == 0 {
		return name
	}

	// Casers are stateful and not shared between goroutines.
	lower := cases.Lower(language.Und)
	title := cases.Title(language.Und)

	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(lower.String(w))
		} else {
			b.WriteString(title.String(w))
		}
	}
	return b.String()
}

// splitWords splits on any non letter or digit and on case boundaries. A run
// of upper case letters is one word, ending before an upper case letter
// followed by a lower case one ("HTTPServer" is "HTTP", "Server").
func splitWords(s string) []string {
	var (
		words []string
		cur   []rune
	)

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	rs := []rune(s)
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}

		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := cur[len(cur)-1]
			next := i+1 < len(rs) && unicode.IsLower(rs[i+1])

			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && next) {
				flush()
			}
		}

		cur = append(cur, r)
	}
	flush()

	return words
}
