package normalize

import (
	"testing"

	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
)

func TestContent(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"plain string", "  hello  ", "hello"},
		{"entities decoded", "A &amp; B", "A & B"},
		{"nil", nil, ""},
		{"unknown shape", 42, ""},
		{"string slice joined", []string{"a", "b"}, "a b"},
		{"cdata container", map[string]any{"#cdata": "Inside"}, "Inside"},
		{"text container", map[string]any{"#text": "Text node"}, "Text node"},
		{"underscore container", map[string]any{"_": "xml2js style"}, "xml2js style"},
		{"standard field fallback", map[string]any{"description": "the description"}, "the description"},
		{"nested standard field", map[string]any{"content": map[string]any{"#": "nested"}}, "nested"},
		{"extension value", ext.Extension{Value: "media text"}, "media text"},
		{"empty map", map[string]any{}, ""},
		{"replacement chars removed", "bro�ken", "broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Content(tt.input))
		})
	}
}

func TestContentExtensionChildren(t *testing.T) {
	e := ext.Extension{
		Children: map[string][]ext.Extension{
			"text": {{Value: "child value"}},
		},
	}
	assert.Equal(t, "child value", Content(e))
}

func TestStripControlChars(t *testing.T) {
	in := "a\x00b\x7fc�d\tkeep\nthis\rtoo"
	assert.Equal(t, "abcd\tkeep\nthis\rtoo", StripControlChars(in))
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"paragraph with entity", "<p>A &amp; B</p>", "A & B"},
		{"nested tags", "<div>Hi <b>there</b> friend</div>", "Hi there friend"},
		{"style removed", "<style>p{color:red}</style><p>Visible</p>", "Visible"},
		{"script removed", "<script>alert(1)</script>Body text", "Body text"},
		{"whitespace collapsed", "<p>too   many\n\n  spaces</p>", "too many spaces"},
		{"plain text untouched", "no markup here", "no markup here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripHTML(tt.input))
		})
	}
}
