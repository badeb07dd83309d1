package images

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/trendsky/internal/cache"
	"github.com/deusflow/trendsky/internal/trends"
)

// maxDownloadBytes caps image downloads; anything bigger is not worth
// shrinking for a thumbnail anyway.
const maxDownloadBytes = 10 << 20

// probeTTL is how long a probe verdict for a URL stays cached.
const probeTTL = time.Hour

// Resolved is a downloaded, probe-validated preview image.
type Resolved struct {
	URL  string
	MIME string
	Data []byte
}

// Resolver finds a representative preview image for a trend. Every
// failure inside degrades to "no image"; a trend is never aborted over
// its thumbnail.
type Resolver struct {
	client *http.Client
	probes *cache.Cache
}

type probeResult struct {
	mime string
	ok   bool
}

func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: timeout},
		probes: cache.New(),
	}
}

// Resolve tries, in priority order: the article's feed-declared picture,
// the trend's feed-declared picture, then an image scraped from the
// article page's metadata. The first candidate that probes as a real
// image is downloaded and returned; nil means post without a thumbnail.
func (r *Resolver) Resolve(ctx context.Context, t trends.Trend) *Resolved {
	var candidates []string
	if t.News != nil && t.News.PictureURL != "" {
		candidates = append(candidates, t.News.PictureURL)
	}
	if t.PictureURL != "" {
		candidates = append(candidates, t.PictureURL)
	}
	if len(candidates) == 0 && t.News != nil {
		if scraped := r.scrapePreviewImage(ctx, t.News.URL); scraped != "" {
			candidates = append(candidates, scraped)
		}
	}

	for _, url := range candidates {
		mime, ok := r.probe(ctx, url)
		if !ok {
			continue
		}
		data, err := r.download(ctx, url)
		if err != nil {
			log.Printf("Image download failed for %s: %v", url, err)
			continue
		}
		return &Resolved{URL: url, MIME: mime, Data: data}
	}

	return nil
}

// probe checks with a HEAD request that the URL answers with an image.
// Verdicts are cached so repeated candidates are not re-checked.
func (r *Resolver) probe(ctx context.Context, url string) (string, bool) {
	if v, hit := r.probes.Get(url); hit {
		res := v.(probeResult)
		return res.mime, res.ok
	}

	res := probeResult{}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		r.probes.Set(url, res, probeTTL)
		return "", false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("Image probe failed for %s: %v", url, err)
		r.probes.Set(url, res, probeTTL)
		return "", false
	}
	resp.Body.Close()

	mime := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && strings.HasPrefix(mime, "image/") {
		res = probeResult{mime: mime, ok: true}
	}
	r.probes.Set(url, res, probeTTL)
	return res.mime, res.ok
}

func (r *Resolver) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpStatusError{code: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
}

// scrapePreviewImage fetches the article page and looks for a declared
// preview image. First present value wins.
func (r *Resolver) scrapePreviewImage(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("Preview scrape failed for %s: %v", pageURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	selectors := []string{
		`meta[property="og:image"]`,
		`meta[property="og:image:secure_url"]`,
		`meta[name="twitter:image"]`,
	}

	for _, selector := range selectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if url := strings.TrimSpace(content); url != "" {
				return url
			}
		}
	}

	return ""
}

type httpStatusError struct {
	code int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.code)
}
