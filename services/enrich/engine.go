package enrich

import (
	"context"
	"log"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"

	"reelscout/metrics"
	"reelscout/models"
	"reelscout/services/catalog"
	"reelscout/services/ratings"
)

const maxConcurrent = 5

// Engine attaches deep metadata (credits, ratings, watch providers) to
// catalog items. Batches enrich only a bounded prefix; the order and count of
// the input always survives into the output.
type Engine struct {
	catalog *catalog.Client
	ratings *ratings.Client

	primaryRegion   string
	secondaryRegion string
}

func NewEngine(cat *catalog.Client, rat *ratings.Client, primaryRegion, secondaryRegion string) *Engine {
	return &Engine{
		catalog:         cat,
		ratings:         rat,
		primaryRegion:   primaryRegion,
		secondaryRegion: secondaryRegion,
	}
}

// Enrich deep-enriches the first limit items concurrently and passes the
// remainder through shallow. A failed item falls back to its shallow form;
// the batch never fails as a whole.
func (e *Engine) Enrich(ctx context.Context, items []models.Item, limit int) []models.EnrichedItem {
	start := time.Now()
	defer func() {
		metrics.EnrichmentDuration.Observe(time.Since(start).Seconds())
	}()

	if limit > len(items) {
		limit = len(items)
	}

	out := make([]models.EnrichedItem, len(items))
	for i, item := range items {
		out[i] = models.EnrichedItem{Item: item}
	}

	p := pool.New().WithMaxGoroutines(maxConcurrent)
	for i := 0; i < limit; i++ {
		i := i
		p.Go(func() {
			enriched, err := e.One(ctx, items[i])
			if err != nil {
				log.Printf("[enrich] keeping shallow result for %q: %v", items[i].Title, err)
				return
			}
			out[i] = *enriched
		})
	}
	p.Wait()

	return out
}

// One fully enriches a single item. Credits are required; ratings and watch
// providers are best-effort and leave their fields empty on failure.
func (e *Engine) One(ctx context.Context, item models.Item) (*models.EnrichedItem, error) {
	enriched := models.EnrichedItem{Item: item}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		details, err := e.catalog.Details(ctx, item.MediaType, item.ID)
		if err != nil {
			return err
		}
		enriched.Genres = details.Item.Genres
		enriched.Director = details.Director
		enriched.Cast = details.Cast
		if enriched.Overview == "" {
			enriched.Overview = details.Item.Overview
		}
		if enriched.PosterPath == "" {
			enriched.PosterPath = details.Item.PosterPath
		}
		if enriched.ReleaseDate == "" {
			enriched.ReleaseDate = details.Item.ReleaseDate
		}
		return nil
	})

	g.Go(func() error {
		scores, err := e.ratings.Lookup(ctx, item.Title, item.Year())
		if err != nil {
			log.Printf("[enrich] ratings unavailable for %q: %v", item.Title, err)
			return nil
		}
		enriched.IMDBRating = scores.IMDB
		enriched.RottenTomatoes = scores.RottenTomatoes
		return nil
	})

	g.Go(func() error {
		providers, err := e.catalog.WatchProviders(ctx, item.MediaType, item.ID, e.primaryRegion, e.secondaryRegion)
		if err != nil {
			log.Printf("[enrich] watch providers unavailable for %q: %v", item.Title, err)
			return nil
		}
		enriched.Providers = providers
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &enriched, nil
}
