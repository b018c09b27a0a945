package crawler

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// FeedLinks fetches an RSS or Atom feed and returns the item links, in feed
// order. Used to seed a project's sources from a publication feed.
func FeedLinks(ctx context.Context, feedURL string, max int) ([]string, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	var links []string
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		links = append(links, item.Link)
		if max > 0 && len(links) >= max {
			break
		}
	}
	return links, nil
}
