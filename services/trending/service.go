package trending

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"reelscout/cache"
	"reelscout/models"
	"reelscout/services/catalog"
	"reelscout/services/enrich"
)

const (
	enrichLimit = 12
	trendingTTL = 6 * time.Hour
)

// ErrUnknownPlatform reports a platform slug with no configured provider id.
type ErrUnknownPlatform struct {
	Platform string
}

func (e *ErrUnknownPlatform) Error() string {
	return fmt.Sprintf("unknown platform %q", e.Platform)
}

// Service aggregates trending views: global weekly trending, regional
// originals, and per-platform catalogs. Every view is cached for six hours.
type Service struct {
	cache   *cache.Cache
	catalog *catalog.Client
	engine  *enrich.Engine

	region    string
	languages []string
	platforms map[string]int
}

func NewService(c *cache.Cache, cat *catalog.Client, eng *enrich.Engine, region string, languages []string, platforms map[string]int) *Service {
	return &Service{
		cache:     c,
		catalog:   cat,
		engine:    eng,
		region:    region,
		languages: languages,
		platforms: platforms,
	}
}

// Global returns the weekly cross-media trending list.
func (s *Service) Global(ctx context.Context) ([]models.EnrichedItem, error) {
	const key = "trending_all"
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]models.EnrichedItem), nil
	}

	items, err := s.catalog.Trending(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching global trending: %w", err)
	}
	if len(items) > enrichLimit {
		items = items[:enrichLimit]
	}

	enriched := s.engine.Enrich(ctx, items, enrichLimit)
	s.cache.Set(key, enriched, trendingTTL)
	return enriched, nil
}

// Regional returns popular titles in the configured regional languages. Each
// namespace contributes at most ten entries and the combined list is shuffled
// so neither movies nor shows dominate the view.
func (s *Service) Regional(ctx context.Context) ([]models.EnrichedItem, error) {
	const key = "trending_regional"
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]models.EnrichedItem), nil
	}

	langs := strings.Join(s.languages, "|")
	params := func(dateField string) url.Values {
		return url.Values{
			"with_original_language": {langs},
			"region":                 {s.region},
			"sort_by":                {"popularity.desc"},
			dateField:                {time.Now().AddDate(0, -6, 0).Format("2006-01-02")},
		}
	}

	var movies, shows []models.Item
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movies, err = s.catalog.Discover(gctx, "movie", params("primary_release_date.gte"))
		return err
	})
	g.Go(func() error {
		var err error
		shows, err = s.catalog.Discover(gctx, "tv", params("first_air_date.gte"))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching regional trending: %w", err)
	}

	merged := interleaveShuffled(movies, shows, enrichLimit)
	enriched := s.engine.Enrich(ctx, merged, enrichLimit)
	s.cache.Set(key, enriched, trendingTTL)
	return enriched, nil
}

// Platform returns what is popular on one streaming platform. The slug must
// be one of the configured platforms.
func (s *Service) Platform(ctx context.Context, platform string) ([]models.EnrichedItem, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	providerID, ok := s.platforms[platform]
	if !ok {
		return nil, &ErrUnknownPlatform{Platform: platform}
	}

	key := "trending_" + platform
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]models.EnrichedItem), nil
	}

	params := url.Values{
		"with_watch_providers": {fmt.Sprint(providerID)},
		"watch_region":         {s.region},
		"sort_by":              {"popularity.desc"},
	}

	var movies, shows []models.Item
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movies, err = s.catalog.Discover(gctx, "movie", cloneValues(params))
		return err
	})
	g.Go(func() error {
		var err error
		shows, err = s.catalog.Discover(gctx, "tv", cloneValues(params))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching %s trending: %w", platform, err)
	}

	merged := mergeByVoteAverage(movies, shows, enrichLimit)
	enriched := s.engine.Enrich(ctx, merged, enrichLimit)
	s.cache.Set(key, enriched, trendingTTL)
	return enriched, nil
}

// perTypeLimit caps each namespace's contribution to the regional view
// before the shuffle.
const perTypeLimit = 10

func interleaveShuffled(movies, shows []models.Item, limit int) []models.Item {
	if len(movies) > perTypeLimit {
		movies = movies[:perTypeLimit]
	}
	if len(shows) > perTypeLimit {
		shows = shows[:perTypeLimit]
	}
	merged := make([]models.Item, 0, len(movies)+len(shows))
	merged = append(merged, movies...)
	merged = append(merged, shows...)
	rand.Shuffle(len(merged), func(i, j int) {
		merged[i], merged[j] = merged[j], merged[i]
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func mergeByVoteAverage(movies, shows []models.Item, limit int) []models.Item {
	merged := make([]models.Item, 0, len(movies)+len(shows))
	merged = append(merged, movies...)
	merged = append(merged, shows...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].VoteAverage > merged[j].VoteAverage
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
