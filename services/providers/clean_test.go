package providers

import "testing"

func TestStripTimeTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"two fraction digits", "[00:27.12]故事的小黄花", "故事的小黄花"},
		{"three fraction digits", "[01:02.345]从出生那年就飘着", "从出生那年就飘着"},
		{"multiple lines", "[00:01.00]a\n[00:02.00]b\n", "a\nb"},
		{"metadata tags kept", "[ti:晴天]\n[00:01.00]a", "[ti:晴天]\na"},
		{"one fraction digit kept", "[00:01.1]a", "[00:01.1]a"},
		{"tags only", "[00:01.00][00:02.00]", ""},
		{"surrounding whitespace", "  \n[00:01.00]a  \n", "a"},
		{"tag rebuilt by removal", "[0[00:01.00]0:02.00]晴天", "晴天"},
		{"tag nested twice", "[0[0[00:01.00]0:02.00]0:03.00]晴天", "晴天"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripTimeTags(tt.input); got != tt.expected {
				t.Errorf("StripTimeTags(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNumericEntities(t *testing.T) {
	decoded := DecodeNumericEntities("[00&#58;01&#46;00]a&#32;b")
	if decoded != "[00:01.00]a&#32;b" {
		t.Errorf("DecodeNumericEntities = %q", decoded)
	}
	if got := StripNumericEntities(decoded); got != "[00:01.00]ab" {
		t.Errorf("StripNumericEntities = %q", got)
	}
}

func TestHasTimeTags(t *testing.T) {
	if !HasTimeTags("x[00:01.00]") {
		t.Error("Expected a time tag to be detected")
	}
	if HasTimeTags("[ti:晴天]") {
		t.Error("Metadata tags are not time tags")
	}
}

func TestCleanEntityLyrics(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"encoded separators", "[00&#58;01&#46;00]故事的小黄花", "故事的小黄花"},
		{"other entities dropped", "[00:01.00]a&#32;b", "ab"},
		{"entity inside a tag", "[00:01&#9;.00]晴天", "晴天"},
		{"entity rebuilt by tag removal", "&#[00:01.00]32;晴天", "晴天"},
		{"plain text", "晴天", "晴天"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanEntityLyrics(tt.input)
			if got != tt.expected {
				t.Errorf("CleanEntityLyrics(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
			if HasTimeTags(got) {
				t.Errorf("CleanEntityLyrics(%q) left a time tag in %q", tt.input, got)
			}
		})
	}
}
