package trends

// Trend is one candidate topic from the trends feed.
// Title doubles as the dedup key in the ledger.
type Trend struct {
	Title        string
	ApproxVolume int
	News         *NewsLink // nil when the feed attaches no article
	PictureURL   string    // feed-declared preview image, not yet validated
}

// NewsLink is the most relevant article the feed attached to a trend.
// A NewsLink always has both Title and URL; partial article data from
// the feed is treated as no article at all.
type NewsLink struct {
	Title      string
	URL        string
	Source     string
	PictureURL string
}
