package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"reelscout/cache"
	"reelscout/metrics"
	"reelscout/models"
	"reelscout/services/catalog"
	"reelscout/services/enrich"
	"reelscout/services/resolver"
)

// ErrEmptyQuery reports a blank search query.
var ErrEmptyQuery = errors.New("empty query")

// ErrNotFound reports that a title resolved to nothing in the catalog.
var ErrNotFound = errors.New("title not found")

const (
	fastPathEnrichLimit = 20
	fallbackEnrichLimit = 10

	searchTTL   = time.Hour
	resolvedTTL = 24 * time.Hour
	detailsTTL  = time.Hour
	similarTTL  = 24 * time.Hour
	fallbackTTL = 5 * time.Minute
)

// Service runs the query resolution cascade: cache, title fast path,
// grounded resolver, deterministic catalog fallback. Each stage either
// produces results, yields to the next stage, or — for resolver quota
// errors — aborts the whole cascade.
type Service struct {
	cache    *cache.Cache
	catalog  *catalog.Client
	resolver *resolver.Client
	engine   *enrich.Engine
}

func NewService(c *cache.Cache, cat *catalog.Client, res *resolver.Client, eng *enrich.Engine) *Service {
	return &Service{
		cache:    c,
		catalog:  cat,
		resolver: res,
		engine:   eng,
	}
}

func recordStage(stage, outcome string) {
	metrics.PipelineStageTotal.WithLabelValues(stage, outcome).Inc()
}

// FindMovies resolves a free-text query to a list of enriched titles.
func (s *Service) FindMovies(ctx context.Context, query string) ([]models.EnrichedItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	key := "search_" + strings.ToLower(query)
	if cached, ok := s.cache.Get(key); ok {
		recordStage("cache", "hit")
		return cached.([]models.EnrichedItem), nil
	}
	recordStage("cache", "empty")

	forceTV := tvHint.MatchString(query)

	if IsLikelyTitle(query) {
		items, err := s.catalog.SearchAll(ctx, query)
		switch {
		case err != nil:
			recordStage("fast_path", "error")
			log.Printf("[search] fast path failed for %q: %v", query, err)
		case len(items) > 0:
			recordStage("fast_path", "hit")
			enriched := s.engine.Enrich(ctx, items, fastPathEnrichLimit)
			s.cache.Set(key, enriched, searchTTL)
			return enriched, nil
		default:
			recordStage("fast_path", "empty")
		}
	}

	if s.resolver.Configured() {
		suggestions, err := s.resolver.ResolveGrounded(ctx, query)
		switch {
		case errors.Is(err, resolver.ErrRateLimited):
			recordStage("resolver", "rate_limited")
			return nil, err
		case err != nil:
			recordStage("resolver", "error")
			log.Printf("[search] grounded resolver failed for %q: %v", query, err)
		default:
			if enriched, ok := s.finishResolved(ctx, key, suggestions, forceTV); ok {
				recordStage("resolver", "hit")
				return enriched, nil
			}
			recordStage("resolver", "empty")
		}

		// Grounding misses older and regional titles the model still
		// knows. One more attempt from its own knowledge before giving
		// up on the resolver.
		suggestions, err = s.resolver.ResolveInternal(ctx, resolver.QueryPrompt(query))
		switch {
		case errors.Is(err, resolver.ErrRateLimited):
			recordStage("resolver_internal", "rate_limited")
			return nil, err
		case err != nil:
			recordStage("resolver_internal", "error")
			log.Printf("[search] internal resolver failed for %q: %v", query, err)
		default:
			if enriched, ok := s.finishResolved(ctx, key, suggestions, forceTV); ok {
				recordStage("resolver_internal", "hit")
				return enriched, nil
			}
			recordStage("resolver_internal", "empty")
		}
	}

	items, err := s.catalog.SearchAll(ctx, query)
	if err != nil {
		recordStage("fallback", "error")
		return nil, fmt.Errorf("fallback search for %q: %w", query, err)
	}
	if len(items) == 0 {
		recordStage("fallback", "empty")
		empty := []models.EnrichedItem{}
		s.cache.Set(key, empty, fallbackTTL)
		return empty, nil
	}
	recordStage("fallback", "hit")

	enriched := s.engine.Enrich(ctx, items, fallbackEnrichLimit)
	s.cache.Set(key, enriched, fallbackTTL)
	return enriched, nil
}

// finishResolved turns resolver suggestions into enriched, cached results.
// Returns ok=false when nothing resolved so the caller can move on to the
// next stage. Resolver-driven results are stable and expensive to produce,
// so they keep a full-day cache lifetime.
func (s *Service) finishResolved(ctx context.Context, key string, suggestions []resolver.Suggestion, forceTV bool) ([]models.EnrichedItem, bool) {
	items := s.resolveSuggestions(ctx, suggestions, forceTV)
	if len(items) == 0 {
		return nil, false
	}
	enriched := s.engine.Enrich(ctx, items, fastPathEnrichLimit)
	s.cache.Set(key, enriched, resolvedTTL)
	return enriched, true
}

// resolveSuggestions maps resolver suggestions to concrete catalog entries,
// preserving suggestion order and dropping duplicates and misses. forceTV
// steers every lookup to the tv namespace when the raw query asked for a
// show.
func (s *Service) resolveSuggestions(ctx context.Context, suggestions []resolver.Suggestion, forceTV bool) []models.Item {
	resolved := make([]*models.Item, len(suggestions))

	p := pool.New().WithMaxGoroutines(5)
	for i, sug := range suggestions {
		i, sug := i, sug
		p.Go(func() {
			mediaType := sug.MediaType
			if forceTV {
				mediaType = "tv"
			}
			item, err := s.catalog.Resolve(ctx, sug.Title, sug.Year.String(), mediaType)
			if err != nil {
				log.Printf("[search] resolving %q: %v", sug.Title, err)
				return
			}
			resolved[i] = item
		})
	}
	p.Wait()

	seen := make(map[string]bool)
	var items []models.Item
	for _, item := range resolved {
		if item == nil {
			continue
		}
		key := fmt.Sprintf("%d_%s", item.ID, item.MediaType)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, *item)
	}
	return items
}

// Similar returns curated recommendations for titles like the given one. The
// resolver's own knowledge drives the list; when it produces nothing usable
// the catalog's similar endpoint fills in. Year disambiguates remakes and
// mediaType pins which namespace the anchor title lives in.
func (s *Service) Similar(ctx context.Context, title, year, mediaType string) ([]models.EnrichedItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyQuery
	}
	if mediaType != "movie" && mediaType != "tv" {
		mediaType = "movie"
	}

	key := fmt.Sprintf("similar_%s_%s_%s", strings.ToLower(title), year, mediaType)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]models.EnrichedItem), nil
	}

	if s.resolver.Configured() {
		suggestions, err := s.resolver.ResolveInternal(ctx, resolver.SimilarPrompt(title, year, mediaType))
		switch {
		case errors.Is(err, resolver.ErrRateLimited):
			return nil, err
		case err != nil:
			log.Printf("[search] similar resolver failed for %q: %v", title, err)
		default:
			items := s.resolveSuggestions(ctx, suggestions, false)
			if len(items) > 0 {
				enriched := s.engine.Enrich(ctx, items, fallbackEnrichLimit)
				s.cache.Set(key, enriched, similarTTL)
				return enriched, nil
			}
		}
	}

	anchor, err := s.catalog.Resolve(ctx, title, year, mediaType)
	if err != nil {
		return nil, err
	}
	if anchor == nil {
		return nil, ErrNotFound
	}

	items, err := s.catalog.Similar(ctx, anchor.MediaType, anchor.ID)
	if err != nil {
		return nil, err
	}
	if len(items) > fallbackEnrichLimit {
		items = items[:fallbackEnrichLimit]
	}

	enriched := s.engine.Enrich(ctx, items, fallbackEnrichLimit)
	s.cache.Set(key, enriched, fallbackTTL)
	return enriched, nil
}

// Details resolves one title and enriches it fully.
func (s *Service) Details(ctx context.Context, title, year, mediaType string) (*models.EnrichedItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyQuery
	}

	key := fmt.Sprintf("details_%s_%s_%s", strings.ToLower(title), year, mediaType)
	if cached, ok := s.cache.Get(key); ok {
		item := cached.(models.EnrichedItem)
		return &item, nil
	}

	item, err := s.catalog.Resolve(ctx, title, year, mediaType)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	enriched, err := s.engine.One(ctx, *item)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, *enriched, detailsTTL)
	return enriched, nil
}

// Extras returns the trailers and teasers for one title.
func (s *Service) Extras(ctx context.Context, title, year, mediaType string) ([]models.Video, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyQuery
	}

	item, err := s.catalog.Resolve(ctx, title, year, mediaType)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	videos, err := s.catalog.Videos(ctx, item.MediaType, item.ID)
	if err != nil {
		return nil, err
	}

	out := videos[:0]
	for _, v := range videos {
		if v.Site != "YouTube" {
			continue
		}
		if v.Type != "Trailer" && v.Type != "Teaser" {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
