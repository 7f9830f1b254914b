package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"

	"reelscout/metrics"
	"reelscout/models"
)

const searchResultLimit = 10

// Client talks to a TMDB-compatible catalog API. All lookups go through get,
// which retries transient upstream failures.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a catalog client. httpClient may be nil.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// statusError marks a non-2xx catalog response; 5xx values are retryable.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("catalog API returned status %d: %s", e.code, e.body)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	fullURL := c.baseURL + path + "?" + query.Encode()

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				serr := &statusError{code: resp.StatusCode, body: string(body)}
				if resp.StatusCode >= 500 {
					return serr
				}
				return retry.Unrecoverable(serr)
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decoding catalog response: %w", err))
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("catalog", "error").Inc()
		return fmt.Errorf("catalog GET %s: %w", path, err)
	}

	metrics.ProviderRequestsTotal.WithLabelValues("catalog", "ok").Inc()
	return nil
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	Popularity   float64 `json:"popularity"`
	MediaType    string  `json:"media_type"`
	GenreIDs     []int   `json:"genre_ids"`
}

// Search queries a single media type ("movie" or "tv") by title.
func (c *Client) Search(ctx context.Context, mediaType, query string) ([]models.Item, error) {
	var resp searchResponse
	q := url.Values{"query": {query}}
	if err := c.get(ctx, "/search/"+mediaType, q, &resp); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, normalizeResult(r, mediaType))
	}
	return items, nil
}

// SearchAll queries movies and TV in parallel-free sequence, merges both
// result sets by descending popularity and keeps the top entries. Used by the
// deterministic fallback when the upstream resolvers produce nothing.
func (c *Client) SearchAll(ctx context.Context, query string) ([]models.Item, error) {
	var movies, shows searchResponse

	movieErr := c.get(ctx, "/search/movie", url.Values{"query": {query}}, &movies)
	tvErr := c.get(ctx, "/search/tv", url.Values{"query": {query}}, &shows)
	if movieErr != nil && tvErr != nil {
		return nil, fmt.Errorf("searching catalog: %w", movieErr)
	}

	merged := make([]searchResult, 0, len(movies.Results)+len(shows.Results))
	for _, r := range movies.Results {
		r.MediaType = "movie"
		merged = append(merged, r)
	}
	for _, r := range shows.Results {
		r.MediaType = "tv"
		merged = append(merged, r)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Popularity > merged[j].Popularity
	})
	if len(merged) > searchResultLimit {
		merged = merged[:searchResultLimit]
	}

	items := make([]models.Item, 0, len(merged))
	for _, r := range merged {
		items = append(items, normalizeResult(r, r.MediaType))
	}
	return items, nil
}

type detailsResponse struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
	CreatedBy []struct {
		Name string `json:"name"`
	} `json:"created_by"`
	Credits struct {
		Cast []struct {
			Name string `json:"name"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

// Details holds the deep metadata for one catalog entry.
type Details struct {
	Item     models.Item
	Director string
	Cast     []string
}

// Details fetches full metadata plus credits for one entry and derives the
// director and top-billed cast per the media type's crediting rules.
func (c *Client) Details(ctx context.Context, mediaType string, id int64) (*Details, error) {
	var resp detailsResponse
	path := fmt.Sprintf("/%s/%d", mediaType, id)
	q := url.Values{"append_to_response": {"credits"}}
	if err := c.get(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	return buildDetails(resp, mediaType), nil
}

type providersResponse struct {
	Results map[string]struct {
		Flatrate []struct {
			ProviderName string `json:"provider_name"`
			LogoPath     string `json:"logo_path"`
		} `json:"flatrate"`
	} `json:"results"`
}

// WatchProviders returns the subscription offerings for the primary region,
// falling back to the secondary region when the primary has none.
func (c *Client) WatchProviders(ctx context.Context, mediaType string, id int64, primary, secondary string) ([]models.WatchProvider, error) {
	var resp providersResponse
	path := fmt.Sprintf("/%s/%d/watch/providers", mediaType, id)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	region, ok := resp.Results[primary]
	if !ok || len(region.Flatrate) == 0 {
		region = resp.Results[secondary]
	}

	providers := make([]models.WatchProvider, 0, len(region.Flatrate))
	for _, p := range region.Flatrate {
		providers = append(providers, models.WatchProvider{
			Name: p.ProviderName,
			Logo: p.LogoPath,
		})
	}
	return providers, nil
}

// Trending returns the weekly cross-media trending list.
func (c *Client) Trending(ctx context.Context) ([]models.Item, error) {
	var resp searchResponse
	if err := c.get(ctx, "/trending/all/week", nil, &resp); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.MediaType != "movie" && r.MediaType != "tv" {
			continue
		}
		items = append(items, normalizeResult(r, r.MediaType))
	}
	return items, nil
}

// Discover runs a filtered discovery query against one media type. params are
// passed through to the catalog API untouched.
func (c *Client) Discover(ctx context.Context, mediaType string, params url.Values) ([]models.Item, error) {
	var resp searchResponse
	if err := c.get(ctx, "/discover/"+mediaType, params, &resp); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, normalizeResult(r, mediaType))
	}
	return items, nil
}

// Similar returns catalog-curated similar titles for one entry.
func (c *Client) Similar(ctx context.Context, mediaType string, id int64) ([]models.Item, error) {
	var resp searchResponse
	path := fmt.Sprintf("/%s/%d/similar", mediaType, id)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, normalizeResult(r, mediaType))
	}
	return items, nil
}

type videosResponse struct {
	Results []models.Video `json:"results"`
}

// Videos returns the trailers, teasers and clips attached to one entry.
func (c *Client) Videos(ctx context.Context, mediaType string, id int64) ([]models.Video, error) {
	var resp videosResponse
	path := fmt.Sprintf("/%s/%d/videos", mediaType, id)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
