// Package identity builds the stable, URL-safe article IDs used as the
// upsert key in persistence.
package identity

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsgrid/internal/article"
)

const (
	maxSlugLength   = 150
	maxSuffixLength = 25
	minSlugLength   = 5
)

// Tracking parameters stripped from links before they are used as ID
// material. This is a shorter list than the dedup normalizer on
// purpose; IDs predate the dedup pass and must stay stable.
var idTrackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"fbclid", "gclid", "msclkid", "source", "src", "ref",
}

var (
	nonWordPattern     = regexp.MustCompile(`[^\w-]+`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	multiHyphenPattern = regexp.MustCompile(`--+`)
)

// Slugify lowercases text, replaces whitespace with hyphens, drops all
// remaining non-word characters and collapses hyphen runs.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = whitespacePattern.ReplaceAllString(s, "-")
	s = nonWordPattern.ReplaceAllString(s, "")
	s = multiHyphenPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// BuildID derives the article ID from the best available material:
// the tracking-stripped source link, then the title, then a synthetic
// source-timestamp-index seed. Degenerate results are regenerated from
// a randomized seed so the ID is never empty or trivially short.
func BuildID(sourceLink, title, sourceName string, date time.Time, index int) string {
	var base string
	switch {
	case sourceLink != "" && sourceLink != article.LinkSentinel && strings.HasPrefix(sourceLink, "http"):
		base = stripTrackingParams(sourceLink)
	case title != "":
		base = title
	default:
		base = fmt.Sprintf("fallback-%s-%d-%d", sourceName, date.UnixMilli(), index)
	}

	slug := truncate(Slugify(base), maxSlugLength)
	if len(slug) < minSlugLength {
		seed := fmt.Sprintf("emptybase-%s-%d-%d-%s", Slugify(sourceName), date.UnixMilli(), index, randomSeed(3))
		slug = truncate(Slugify(seed), maxSlugLength)
	}

	suffix := truncate(Slugify(sourceName), maxSuffixLength)
	if suffix == "" {
		suffix = "unknownsrc"
	}

	id := slug + "-" + suffix
	if len(id) < len(suffix)+minSlugLength {
		id = Slugify(fmt.Sprintf("override-unique-%s-%d-%d-%s", Slugify(sourceName), date.UnixMilli(), index, randomSeed(5)))
	}

	return id
}

// EnsureUnique resolves ID collisions within a batch by appending an
// incrementing -dupfixN suffix. This is a final safety net; duplicate
// articles are expected to have been removed on link/title already.
func EnsureUnique(candidates []article.Candidate) []article.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	dupCounter := 0

	for i := range candidates {
		id := candidates[i].ID
		if id == "" {
			id = Slugify(fmt.Sprintf("emergency-id-%s-%d-%s", candidates[i].Source, time.Now().UnixMilli(), randomSeed(5)))
			candidates[i].ID = id
		}

		if _, dup := seen[id]; dup {
			newID := id
			for {
				dupCounter++
				newID = fmt.Sprintf("%s-dupfix%d", id, dupCounter)
				if _, taken := seen[newID]; !taken {
					break
				}
			}
			candidates[i].ID = newID
			id = newID
		}

		seen[id] = struct{}{}
	}

	return candidates
}

func stripTrackingParams(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}

	q := u.Query()
	for _, param := range idTrackingParams {
		q.Del(param)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""

	return u.String()
}

func randomSeed(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n < len(s) {
		return s[:n]
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
