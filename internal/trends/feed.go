package trends

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Fetch downloads and parses the trends RSS feed. timeout bounds the
// whole HTTP exchange so a stalled feed server cannot block the run.
// A fetch failure is fatal for the whole run: without feed entries
// there is nothing to process, so the error is returned to the caller.
func Fetch(ctx context.Context, url string, timeout time.Duration) ([]Trend, error) {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}

	feed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch trends feed %s: %w", url, err)
	}

	result := make([]Trend, 0, len(feed.Items))
	for _, item := range feed.Items {
		t := FromFeedItem(item)
		if t.Title == "" {
			continue // malformed entry
		}
		result = append(result, t)
	}

	log.Printf("Loaded %d trends from %s", len(result), url)
	return result, nil
}
