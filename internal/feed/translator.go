package feed

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
)

// guidPermalinkKey marks items whose RSS guid carried an explicit
// isPermaLink="false"; such guids identify the item but never link to
// it, so they must not become the article's source link.
const guidPermalinkKey = "guidIsPermaLink"

// rssTranslator keeps gofeed's default RSS mapping and surfaces the
// guid's isPermaLink attribute, which the universal Item drops.
type rssTranslator struct {
	defaultTranslator *gofeed.DefaultRSSTranslator
}

func (t *rssTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	rssFeed, ok := feed.(*rss.Feed)
	if !ok {
		return nil, fmt.Errorf("feed did not match expected type of *rss.Feed")
	}

	translated, err := t.defaultTranslator.Translate(rssFeed)
	if err != nil {
		return nil, err
	}

	for i, item := range rssFeed.Items {
		if i >= len(translated.Items) {
			break
		}
		if item.GUID == nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(item.GUID.IsPermalink), "false") {
			if translated.Items[i].Custom == nil {
				translated.Items[i].Custom = make(map[string]string)
			}
			translated.Items[i].Custom[guidPermalinkKey] = "false"
		}
	}
	return translated, nil
}

func newFeedParser() *gofeed.Parser {
	p := gofeed.NewParser()
	p.RSSTranslator = &rssTranslator{defaultTranslator: &gofeed.DefaultRSSTranslator{}}
	return p
}
