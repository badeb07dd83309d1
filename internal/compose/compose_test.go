package compose

import (
	"encoding/json"
	"testing"

	"github.com/deusflow/trendsky/internal/trends"
)

func TestCompose_WithArticle(t *testing.T) {
	trend := trends.Trend{
		Title:        "天気",
		ApproxVolume: 1000,
		News: &trends.NewsLink{
			Title:  "台風が接近",
			URL:    "https://example.jp/a",
			Source: "Example News",
		},
	}

	post := Compose(trend, "ja", nil)

	wantText := "天気\n\n台風が接近\nhttps://example.jp/a"
	if post.Text != wantText {
		t.Errorf("Text = %q, want %q", post.Text, wantText)
	}

	if len(post.Facets) != 1 {
		t.Fatalf("got %d facets, want exactly 1", len(post.Facets))
	}

	// The facet's byte range must slice the UTF-8 text to exactly the URL.
	facet := post.Facets[0]
	sliced := post.Text[facet.Index.ByteStart:facet.Index.ByteEnd]
	if sliced != trend.News.URL {
		t.Errorf("facet slice = %q, want %q", sliced, trend.News.URL)
	}
	if facet.Index.ByteEnd != len(post.Text) {
		t.Errorf("ByteEnd = %d, want end of text %d", facet.Index.ByteEnd, len(post.Text))
	}
	if len(facet.Features) != 1 || facet.Features[0].URI != trend.News.URL {
		t.Errorf("facet features = %+v", facet.Features)
	}

	if post.Embed == nil {
		t.Fatal("expected an external embed for a trend with an article")
	}
	if post.Embed.External.URI != trend.News.URL {
		t.Errorf("embed URI = %q", post.Embed.External.URI)
	}
	if post.Embed.External.Title != trend.News.Title {
		t.Errorf("embed title = %q", post.Embed.External.Title)
	}
	if post.Embed.External.Description != trend.News.Source {
		t.Errorf("embed description = %q", post.Embed.External.Description)
	}
	if post.Embed.External.Thumb != nil {
		t.Errorf("embed thumb = %s, want none", post.Embed.External.Thumb)
	}

	if len(post.Langs) != 1 || post.Langs[0] != "ja" {
		t.Errorf("Langs = %v, want [ja]", post.Langs)
	}
	if post.CreatedAt == "" {
		t.Error("CreatedAt must be set")
	}
}

func TestCompose_TitleOnly(t *testing.T) {
	post := Compose(trends.Trend{Title: "猫"}, "ja", nil)

	if post.Text != "猫" {
		t.Errorf("Text = %q, want bare title", post.Text)
	}
	if len(post.Facets) != 0 {
		t.Errorf("got %d facets, want none without an article", len(post.Facets))
	}
	if post.Embed != nil {
		t.Error("embed must be omitted without an article")
	}
}

func TestCompose_ThumbAttached(t *testing.T) {
	thumb := json.RawMessage(`{"$type":"blob","mimeType":"image/jpeg"}`)
	trend := trends.Trend{
		Title: "天気",
		News:  &trends.NewsLink{Title: "記事", URL: "https://example.jp/b"},
	}

	post := Compose(trend, "ja", thumb)

	if post.Embed == nil {
		t.Fatal("expected embed")
	}
	if string(post.Embed.External.Thumb) != string(thumb) {
		t.Errorf("thumb = %s, want passthrough of uploaded blob ref", post.Embed.External.Thumb)
	}
}

func TestCompose_FacetOffsetsAreBytes(t *testing.T) {
	// Multibyte title and article name push the URL past any rune-count
	// offsets; byte offsets are the contract.
	trend := trends.Trend{
		Title: "ヴィッセル神戸",
		News: &trends.NewsLink{
			Title: "試合結果について",
			URL:   "https://example.jp/kobe",
		},
	}

	post := Compose(trend, "ja", nil)
	facet := post.Facets[0]

	if got := post.Text[facet.Index.ByteStart:facet.Index.ByteEnd]; got != trend.News.URL {
		t.Errorf("facet slice = %q, want %q", got, trend.News.URL)
	}

	runeCount := len([]rune(post.Text)) - len([]rune(trend.News.URL))
	if facet.Index.ByteStart == runeCount {
		t.Error("facet offsets look rune-based; they must count bytes")
	}
}
