package bluesky

import "encoding/json"

const (
	// PostType is the lexicon type of a feed post record.
	PostType = "app.bsky.feed.post"
	// LinkFeatureType marks a facet feature as a hyperlink.
	LinkFeatureType = "app.bsky.richtext.facet#link"
	// ExternalEmbedType is the preview-card embed.
	ExternalEmbedType = "app.bsky.embed.external"
)

// Post is an app.bsky.feed.post record.
type Post struct {
	Type      string   `json:"$type"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"createdAt"`
	Langs     []string `json:"langs,omitempty"`
	Facets    []Facet  `json:"facets,omitempty"`
	Embed     *Embed   `json:"embed,omitempty"`
}

// Facet decorates a byte range of the post text. ByteStart/ByteEnd are
// offsets into the UTF-8 encoding of Text, not rune counts.
type Facet struct {
	Index    ByteSlice `json:"index"`
	Features []Feature `json:"features"`
}

type ByteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

type Feature struct {
	Type string `json:"$type"`
	URI  string `json:"uri"`
}

// Embed is the optional preview card attached to a post.
type Embed struct {
	Type     string   `json:"$type"`
	External External `json:"external"`
}

// External summarizes the linked article. Thumb carries the opaque blob
// reference returned by UploadBlob; it is kept as raw JSON because its
// shape belongs to the server, not to us.
type External struct {
	URI         string          `json:"uri"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Thumb       json.RawMessage `json:"thumb,omitempty"`
}

// LinkFacet builds the single-link facet used for article URLs.
func LinkFacet(byteStart, byteEnd int, uri string) Facet {
	return Facet{
		Index: ByteSlice{ByteStart: byteStart, ByteEnd: byteEnd},
		Features: []Feature{
			{Type: LinkFeatureType, URI: uri},
		},
	}
}
