package trends

import (
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// FromFeedItem maps one raw feed entry into a Trend.
// Google Trends ships its extra fields in the "ht" XML namespace:
// ht:approx_traffic, ht:picture and a nested ht:news_item block.
func FromFeedItem(item *gofeed.Item) Trend {
	t := Trend{
		Title:        strings.TrimSpace(item.Title),
		ApproxVolume: ParseApproxVolume(extValue(item, "approx_traffic")),
		PictureURL:   extValue(item, "picture"),
	}

	if ns, ok := item.Extensions["ht"]; ok {
		if items := ns["news_item"]; len(items) > 0 {
			n := NewsLink{
				Title:      childValue(items[0], "news_item_title"),
				URL:        childValue(items[0], "news_item_url"),
				Source:     childValue(items[0], "news_item_source"),
				PictureURL: childValue(items[0], "news_item_picture"),
			}
			// Partial article data is useless for composing, drop it.
			if n.Title != "" && n.URL != "" {
				t.News = &n
			}
		}
	}

	return t
}

// ParseApproxVolume parses the feed's free-form traffic string,
// e.g. "500+" -> 500, "1,000+" -> 1000. Anything unparseable maps to 0
// so ambiguous volumes fail the threshold and never get announced.
func ParseApproxVolume(s string) int {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "+")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}

	// Atoi tolerates a leading sign; only plain digit runs count here.
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func extValue(item *gofeed.Item, name string) string {
	ns, ok := item.Extensions["ht"]
	if !ok {
		return ""
	}
	exts := ns[name]
	if len(exts) == 0 {
		return ""
	}
	return strings.TrimSpace(exts[0].Value)
}

func childValue(e ext.Extension, name string) string {
	children := e.Children[name]
	if len(children) == 0 {
		return ""
	}
	return strings.TrimSpace(children[0].Value)
}
