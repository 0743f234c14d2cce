// Package normalize flattens the messy field values that come out of
// heterogeneous RSS/Atom/RDF feeds into plain strings.
package normalize

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	ext "github.com/mmcdole/gofeed/extensions"
)

// Feed parsers wrap CDATA and attributed nodes in objects whose text
// lives under one of these keys.
var containerKeys = []string{"_", "$t", "#", "#text", "#cdata", "p", "span", "div"}

// Standard fields tried when an object carries no direct text key.
var standardFields = []string{"content:encoded", "content", "description", "summary"}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Content coerces an arbitrarily-shaped feed field value into a clean
// string: entity-decoded, with control and replacement characters
// removed. Unrecognized shapes yield "".
func Content(value any) string {
	text := flatten(value)
	if text == "" {
		return ""
	}
	return StripControlChars(html.UnescapeString(strings.TrimSpace(text)))
}

func flatten(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		parts := make([]string, 0, len(v))
		for _, s := range v {
			if f := flatten(s); f != "" {
				parts = append(parts, f)
			}
		}
		return strings.Join(parts, " ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if f := flatten(item); f != "" {
				parts = append(parts, f)
			}
		}
		return strings.Join(parts, " ")
	case ext.Extension:
		if v.Value != "" {
			return v.Value
		}
		for _, children := range v.Children {
			for _, child := range children {
				if f := flatten(child); f != "" {
					return f
				}
			}
		}
		return ""
	case []ext.Extension:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			if f := flatten(e); f != "" {
				parts = append(parts, f)
			}
		}
		return strings.Join(parts, " ")
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return flattenMap(m)
	case map[string]any:
		return flattenMap(v)
	default:
		return ""
	}
}

func flattenMap(m map[string]any) string {
	for _, key := range containerKeys {
		if raw, ok := m[key]; ok {
			if s, ok := raw.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, key := range standardFields {
		if raw, ok := m[key]; ok {
			if f := flatten(raw); strings.TrimSpace(f) != "" {
				return f
			}
		}
	}
	return ""
}

// StripControlChars removes the Unicode replacement character and
// ASCII control characters (tab/newline/CR survive).
func StripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '�':
			return -1
		case r == 0x7F:
			return -1
		case r < 0x20 && r != '\t' && r != '\n' && r != '\r':
			return -1
		}
		return r
	}, s)
}

// StripHTML turns an HTML fragment into plain text: style and script
// subtrees are dropped entirely, remaining tags removed, entities
// decoded and whitespace collapsed to single spaces. It never fails;
// if the fragment cannot be parsed the tags are stripped textually.
func StripHTML(htmlString string) string {
	if htmlString == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlString))
	if err != nil {
		return collapseWhitespace(tagPattern.ReplaceAllString(html.UnescapeString(htmlString), " "))
	}

	doc.Find("style, script").Remove()
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
