// Package html reduces the HTML-ish labels stored by the survey tool to
// plain text. Answer options are often saved as "<p>Very satisfied</p>" while
// exports carry "Very satisfied"; comparing the two needs both cleaned.
//
// It does not attempt full HTML parsing:
//
//   - StripHTML removes <...> tag sequences.
//   - CollapseWhitespace reduces runs of whitespace to a single space.
//   - NormalizeText does both and decodes entities.
package html

import (
	stdhtml "html"
	"strings"
)

// StripHTML removes simplistic HTML/markup tags of the form <...> from s.
// Every character between '<' and the next '>' is dropped, delimiters
// included. A closed tag leaves a space behind so "<p>a</p><p>b</p>" reads
// as two words; CollapseWhitespace removes the excess.
//
// Labels must not contain a literal '<'.
func StripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseWhitespace replaces consecutive whitespace characters with a single
// ASCII space and trims leading and trailing whitespace. A non-breaking space
// (U+00A0, what &nbsp; decodes to) counts as whitespace.
func CollapseWhitespace(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	seenSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\u00a0':
			if !seenSpace {
				b.WriteByte(' ')
				seenSpace = true
			}
		default:
			b.WriteRune(r)
			seenSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

// NormalizeText strips tags, decodes entities and collapses whitespace:
// "<p>Caf&eacute;&nbsp; bar</p>" becomes "Café bar".
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	return CollapseWhitespace(stdhtml.UnescapeString(StripHTML(s)))
}
