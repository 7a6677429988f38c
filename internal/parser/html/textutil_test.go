package html

import (
	"testing"
)

// TestStripHTML locks in the tag heuristic: anything between '<' and the
// next '>' is dropped and leaves a single space behind.
func TestStripHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty string", in: "", want: ""},
		{name: "no tags present", in: "plain text only", want: "plain text only"},
		{name: "simple tag pair", in: "<b>bold</b>", want: " bold "},
		{name: "adjacent paragraphs", in: "<p>North</p><p>East</p>", want: " North  East "},
		{name: "attributes inside tag", in: `<a href="https://example.com">link</a>`, want: " link "},
		{name: "unclosed tag", in: "text <b not closed", want: "text "},
		{name: "stray closing bracket", in: "3 > 2", want: "3 > 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StripHTML(tt.in); got != tt.want {
				t.Fatalf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "a"},
		{"  a  b  ", "a b"},
		{"a\t\tb\r\nc", "a b c"},
		{"a\u00a0\u00a0b", "a b"},
	}
	for _, tt := range tests {
		if got := CollapseWhitespace(tt.in); got != tt.want {
			t.Errorf("CollapseWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Very satisfied", "Very satisfied"},
		{"empty", "", ""},
		{"paragraph", "<p>Very satisfied</p>", "Very satisfied"},
		{"two paragraphs", "<p>North</p><p>East</p>", "North East"},
		{"inline tag", "Very <b>satisfied</b>", "Very satisfied"},
		{"entities", "Caf&eacute; &amp; bar", "Café & bar"},
		{"nbsp", "Very&nbsp;satisfied", "Very satisfied"},
		{"whitespace", "  Very\n\tsatisfied ", "Very satisfied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Fatalf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
