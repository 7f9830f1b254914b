package ratings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelscout/cache"
	"reelscout/metrics"
	"reelscout/models"
)

const cacheTTL = 24 * time.Hour

// Client fetches third-party review scores from an OMDb-compatible API.
// Lookups are memoized for a day since scores barely move. A missing API key
// disables the client; every lookup then returns empty ratings.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
}

func NewClient(baseURL, apiKey string, httpClient *http.Client, c *cache.Cache) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      c,
	}
}

type omdbResponse struct {
	Response string `json:"Response"`
	Ratings  []struct {
		Source string `json:"Source"`
		Value  string `json:"Value"`
	} `json:"Ratings"`
}

// Lookup returns the IMDB and Rotten Tomatoes scores for a title. The result
// is never an error for the caller's purposes at enrichment time; callers
// treat a failed lookup the same as an empty one.
func (c *Client) Lookup(ctx context.Context, title string, year int) (models.Ratings, error) {
	var empty models.Ratings
	if c.apiKey == "" {
		return empty, nil
	}

	key := cacheKey(title, year)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(models.Ratings), nil
	}

	q := url.Values{
		"apikey": {c.apiKey},
		"t":      {title},
	}
	if year > 0 {
		q.Set("y", fmt.Sprint(year))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return empty, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("ratings", "error").Inc()
		return empty, fmt.Errorf("ratings lookup for %q: %w", title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderRequestsTotal.WithLabelValues("ratings", "error").Inc()
		return empty, fmt.Errorf("ratings API returned status %d", resp.StatusCode)
	}

	var body omdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("ratings", "error").Inc()
		return empty, fmt.Errorf("decoding ratings response: %w", err)
	}
	metrics.ProviderRequestsTotal.WithLabelValues("ratings", "ok").Inc()

	result := parseRatings(body)
	c.cache.Set(key, result, cacheTTL)
	if result.IMDB == nil && result.RottenTomatoes == nil {
		log.Printf("[ratings] no scores for %q (%d)", title, year)
	}
	return result, nil
}

// parseRatings extracts the two scores this service surfaces. The IMDB value
// arrives as "8.6/10" and is trimmed to "8.6"; the Rotten Tomatoes value
// arrives as "94%" and loses the percent sign.
func parseRatings(body omdbResponse) models.Ratings {
	var out models.Ratings
	for _, r := range body.Ratings {
		switch r.Source {
		case "Internet Movie Database":
			v := strings.SplitN(r.Value, "/", 2)[0]
			out.IMDB = &v
		case "Rotten Tomatoes":
			v := strings.TrimSuffix(r.Value, "%")
			out.RottenTomatoes = &v
		}
	}
	return out
}

func cacheKey(title string, year int) string {
	return fmt.Sprintf("ratings_%s_%d", strings.ToLower(strings.TrimSpace(title)), year)
}
