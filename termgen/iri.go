package termgen

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const upperHex = "0123456789ABCDEF"
const lowerHex = "0123456789abcdef"

var absoluteIRI = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)

// IsAbsoluteIRI reports whether s starts with a URI scheme.
func IsAbsoluteIRI(s string) bool {
	return absoluteIRI.MatchString(s)
}

// EncodeIRISafe normalizes a template expression value to the given
// Unicode form and percent-encodes every byte outside the RFC 3986
// unreserved set, so the value can be embedded into an IRI template
// without introducing separators.
func EncodeIRISafe(value string, form norm.Form, upperCase bool) string {
	value = form.String(value)

	hex := upperHex
	if !upperCase {
		hex = lowerHex
	}

	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	default:
		return false
	}
}

var blankLabelInvalid = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// sanitizeBlankLabel maps an arbitrary value onto the blank node
// label alphabet.
func sanitizeBlankLabel(v string) string {
	v = blankLabelInvalid.ReplaceAllString(v, "-")
	v = strings.Trim(v, "-")
	if v == "" {
		return "b"
	}
	return v
}

var languageTag = regexp.MustCompile(`^[a-zA-Z]{1,8}(-[a-zA-Z0-9]{1,8})*$`)

// validLanguageTag reports whether tag is a well-formed BCP 47 tag in
// the shape RDF literals require.
func validLanguageTag(tag string) bool {
	return languageTag.MatchString(tag)
}
