// Package compose turns a normalized trend into a publishable post
// record: text, link facets over byte ranges, and the preview card.
package compose

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/deusflow/trendsky/internal/bluesky"
	"github.com/deusflow/trendsky/internal/trends"
)

// Compose builds the post for a trend. thumb is the uploaded blob
// reference for the preview card, nil when no image survived resolution,
// shrinking or upload.
//
// With a linked article the text is laid out as
//
//	title
//
//	news title
//	news url
//
// and exactly one link facet spans the URL. Facet offsets are byte
// offsets into the UTF-8 text; strings.Builder.Len counts bytes, which
// keeps this correct for multibyte scripts.
func Compose(t trends.Trend, lang string, thumb json.RawMessage) bluesky.Post {
	post := bluesky.Post{
		Type:      bluesky.PostType,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Langs:     []string{lang},
	}

	if t.News == nil {
		post.Text = t.Title
		return post
	}

	var b strings.Builder
	b.WriteString(t.Title)
	b.WriteString("\n\n")
	b.WriteString(t.News.Title)
	b.WriteString("\n")
	linkStart := b.Len()
	b.WriteString(t.News.URL)
	post.Text = b.String()

	post.Facets = []bluesky.Facet{
		bluesky.LinkFacet(linkStart, b.Len(), t.News.URL),
	}

	post.Embed = &bluesky.Embed{
		Type: bluesky.ExternalEmbedType,
		External: bluesky.External{
			URI:         t.News.URL,
			Title:       t.News.Title,
			Description: t.News.Source,
			Thumb:       thumb,
		},
	}

	return post
}
