package textutil

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var strict = bluemonday.StrictPolicy()

const maxSanitizePasses = 4

// StripHTML removes every tag from user supplied text and trims it. Entities
// are decoded so "a &amp; b" is stored as "a & b"; decoding repeats until the
// text is stable under the policy, so encoded markup never comes back as tags.
// Input that does not settle is returned in escaped form.
func StripHTML(s string) string {
	current := s
	for i := 0; i < maxSanitizePasses; i++ {
		sanitized := strict.Sanitize(current)
		decoded := html.UnescapeString(sanitized)
		if decoded == current {
			return strings.TrimSpace(decoded)
		}
		current = decoded
	}
	return strings.TrimSpace(strict.Sanitize(current))
}

// StripHTMLPtr is StripHTML for optional fields; blank results become nil.
func StripHTMLPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := StripHTML(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// MachineName turns a display label into the identifier used for roles:
// lowercase ASCII, diacritics stripped, whitespace runs collapsed to "_".
func MachineName(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(label)))
	if err != nil {
		folded = strings.ToLower(strings.TrimSpace(label))
	}

	var b strings.Builder
	underscore := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case unicode.IsSpace(r) || r == '_' || r == '-':
			if b.Len() > 0 && !underscore {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
