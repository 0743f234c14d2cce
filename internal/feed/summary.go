package feed

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"newsgrid/internal/normalize"
)

const noSummaryPlaceholder = "No summary available."

// similarityThreshold is the title-word overlap ratio above which a
// summary counts as the title repeated.
const similarityThreshold = 0.8

// Reddit feeds wrap every entry in submission boilerplate.
var redditJunkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<p>submitted by.*?</p>`),
	regexp.MustCompile(`(?i)<a href="[^"]*">\[comments?\]</a>`),
	regexp.MustCompile(`(?i)<a href="[^"]*">\[link\]</a>`),
	regexp.MustCompile(`(?i)<a[^>]*?>\[\d+ comments?\]</a>`),
	regexp.MustCompile(`(?i)<p><a href="[^"]*">.*?read more.*?</a></p>`),
}

// buildSummary produces the plain-text summary: the full content when
// it is meaningfully longer than the description, else the
// description, stripped of HTML and truncated with an ellipsis.
func buildSummary(descriptionInput any, fullContent, sourceName string, maxLength int) string {
	description := normalize.Content(descriptionInput)

	var text string
	switch {
	case fullContent != "" && len(fullContent) > len(description)+50:
		text = fullContent
	case description != "":
		text = description
	default:
		text = fullContent
	}

	if strings.Contains(strings.ToLower(sourceName), "reddit") {
		for _, pattern := range redditJunkPatterns {
			text = pattern.ReplaceAllString(text, "")
		}
	}

	plain := normalize.StripHTML(text)
	if plain == "" && fullContent != "" && fullContent != text {
		plain = normalize.StripHTML(fullContent)
	}
	if plain == "" {
		return noSummaryPlaceholder
	}

	return ellipsize(plain, maxLength)
}

func ellipsize(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}

// isSummaryJustTitle reports whether the summary is effectively the
// title repeated: either the summary starts with the title and barely
// extends it, or at least 80% of the title's significant words recur.
func isSummaryJustTitle(title, summary string) bool {
	if title == "" || summary == "" {
		return false
	}

	normTitle := strings.ToLower(normalize.StripHTML(title))
	normSummary := strings.ToLower(normalize.StripHTML(summary))
	if normTitle == "" || normSummary == "" {
		return false
	}

	if strings.HasPrefix(normSummary, normTitle) && len(normSummary) < len(normTitle)+30 {
		return true
	}

	titleWords := make(map[string]struct{})
	for _, w := range strings.Fields(normTitle) {
		if len(w) > 2 {
			titleWords[w] = struct{}{}
		}
	}
	if len(titleWords) == 0 {
		return false
	}

	common := 0
	for _, w := range strings.Fields(normSummary) {
		if len(w) > 2 {
			if _, ok := titleWords[w]; ok {
				common++
			}
		}
	}

	return float64(common)/float64(len(titleWords)) >= similarityThreshold
}
