// Package app wires the pipeline together: fetch trends, skip what the
// ledger already knows, compose and publish the rest, record successes.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/deusflow/trendsky/internal/bluesky"
	"github.com/deusflow/trendsky/internal/compose"
	"github.com/deusflow/trendsky/internal/config"
	"github.com/deusflow/trendsky/internal/images"
	"github.com/deusflow/trendsky/internal/ledger"
	"github.com/deusflow/trendsky/internal/logger"
	"github.com/deusflow/trendsky/internal/metrics"
	"github.com/deusflow/trendsky/internal/ratelimit"
	"github.com/deusflow/trendsky/internal/retry"
	"github.com/deusflow/trendsky/internal/trends"
)

// Publisher is the slice of the Bluesky client the loop needs. Kept as
// an interface so tests can publish into a fake.
type Publisher interface {
	UploadBlob(ctx context.Context, data []byte, mime string) (json.RawMessage, error)
	CreatePost(ctx context.Context, post bluesky.Post) error
}

// ImageResolver finds and downloads a preview image, or nil for none.
type ImageResolver interface {
	Resolve(ctx context.Context, t trends.Trend) *images.Resolved
}

type App struct {
	cfg      *config.Config
	ledger   *ledger.Ledger
	pub      Publisher
	resolver ImageResolver
	budget   *ratelimit.Budget
}

func New(cfg *config.Config, l *ledger.Ledger, pub Publisher, resolver ImageResolver) *App {
	return &App{
		cfg:      cfg,
		ledger:   l,
		pub:      pub,
		resolver: resolver,
		budget:   ratelimit.NewBudget(cfg.MaxPostsPerRun, cfg.PostDelay),
	}
}

// Run executes one batch invocation. Only a feed fetch failure is fatal;
// every per-trend failure is logged and the loop moves on, so one broken
// trend can never abort the rest.
func (a *App) Run(ctx context.Context) error {
	start := time.Now()

	list, err := trends.Fetch(ctx, a.cfg.FeedURL, a.cfg.RequestTimeout)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}

	for _, t := range list {
		metrics.Global.IncrementTrendsSeen()

		if t.ApproxVolume < a.cfg.MinVolume {
			metrics.Global.IncrementTrendsFiltered()
			logger.Debug("trend below volume threshold", "trend", t.Title, "volume", t.ApproxVolume)
			continue
		}

		posted, err := a.ledger.HasPosted(t.Title)
		if err != nil {
			logger.Error("ledger lookup failed", "trend", t.Title, "error", err)
			continue
		}
		if posted {
			metrics.Global.IncrementDuplicatesSkipped()
			logger.Debug("trend already posted", "trend", t.Title)
			continue
		}

		if !a.budget.CanPost() {
			break
		}
		if err := a.budget.Wait(ctx); err != nil {
			return err
		}

		if err := a.processTrend(ctx, t); err != nil {
			metrics.Global.IncrementPublishFailures()
			logger.Error("publish failed", "trend", t.Title, "error", err)
			continue
		}
		a.budget.RecordPost()
	}

	metrics.Global.RecordRun(time.Since(start))

	budgetStats := a.budget.Stats()
	logger.Info("run complete",
		"trends", len(list),
		"posts_used", budgetStats["posts_used"],
		"duration", time.Since(start))
	return nil
}

// processTrend runs compose -> publish -> record for one trend. The
// ledger is only written after a confirmed publish; a publish failure
// leaves no trace so the next run retries the trend.
func (a *App) processTrend(ctx context.Context, t trends.Trend) error {
	thumb := a.resolveThumb(ctx, t)
	post := compose.Compose(t, a.cfg.OutputLang, thumb)

	err := retry.WithRetry(ctx, retry.Config{
		MaxAttempts: a.cfg.RetryAttempts,
		Delay:       a.cfg.RetryDelay,
		Backoff:     true,
	}, func() error {
		return a.pub.CreatePost(ctx, post)
	})
	if err != nil {
		return err
	}

	metrics.Global.IncrementPostsPublished()
	if thumb != nil {
		metrics.Global.IncrementImagesAttached()
	}

	if err := a.ledger.MarkPosted(t.Title); err != nil {
		if errors.Is(err, ledger.ErrAlreadyPosted) {
			// Another run published the same title in parallel.
			logger.Info("trend recorded by a concurrent run", "trend", t.Title)
			return nil
		}
		// The post is out but unrecorded; the next run will repost it.
		logger.Error("ledger write failed after publish", "trend", t.Title, "error", err)
		return nil
	}

	logger.Info("posted new trend", "trend", t.Title, "volume", t.ApproxVolume)
	return nil
}

// resolveThumb produces the uploaded blob reference for the preview
// card. Any failure along resolve -> shrink -> upload degrades to a card
// without a thumbnail.
func (a *App) resolveThumb(ctx context.Context, t trends.Trend) json.RawMessage {
	if t.News == nil {
		return nil // no article, no card to decorate
	}

	resolved := a.resolver.Resolve(ctx, t)
	if resolved == nil {
		return nil
	}

	data := images.Shrink(resolved.Data, a.cfg.MaxImageKB)
	if data == nil {
		return nil
	}

	blob, err := a.pub.UploadBlob(ctx, data, resolved.MIME)
	if err != nil {
		logger.Warn("image upload failed, posting without thumbnail", "trend", t.Title, "error", err)
		return nil
	}
	return blob
}
