package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"reelscout/metrics"
)

// ErrRateLimited reports that the resolver provider rejected the request with
// a quota error. Callers must surface it to the client immediately instead of
// retrying or falling through to other sources, so the quota window can
// recover.
var ErrRateLimited = errors.New("resolver rate limited")

// ErrNotConfigured reports that no resolver API key is set.
var ErrNotConfigured = errors.New("resolver not configured")

// Client calls a Gemini-compatible generation API and turns free-text media
// queries into lists of concrete title suggestions.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
	}
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	Tools             []tool            `json:"tools,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type tool struct {
	GoogleSearch struct{} `json:"google_search"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// outputConstraint is sent as the system instruction on every request so the
// model answers with a machine-readable list regardless of the user prompt.
const outputConstraint = `You identify movies and TV shows. Respond with ONLY a JSON array, no prose and no markdown fences, in this exact format:
[{"title": "Exact Title", "year": "YYYY", "media_type": "movie"}]
Use media_type "movie" or "tv". List the best match first, up to 10 entries.`

// ResolveGrounded interprets a plot-style description with web search
// grounding enabled, so half-remembered details ("movie about a man who ages
// backwards") can resolve against real titles.
func (c *Client) ResolveGrounded(ctx context.Context, description string) ([]Suggestion, error) {
	return c.generateSuggestions(ctx, QueryPrompt(description), true)
}

// ResolveInternal asks the model for an answer from its own knowledge,
// without search grounding. Used as the second resolution attempt and for
// similar-title recommendations.
func (c *Client) ResolveInternal(ctx context.Context, prompt string) ([]Suggestion, error) {
	return c.generateSuggestions(ctx, prompt, false)
}

func (c *Client) generateSuggestions(ctx context.Context, prompt string, grounded bool) ([]Suggestion, error) {
	text, err := c.generate(ctx, prompt, grounded)
	if err != nil {
		return nil, err
	}

	suggestions := ExtractSuggestions(text)
	if len(suggestions) == 0 {
		log.Printf("[resolver] model produced no parseable suggestions")
	}
	return suggestions, nil
}

func (c *Client) generate(ctx context.Context, prompt string, grounded bool) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	reqBody := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: outputConstraint}}},
		Contents:          []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig:  &generationConfig{Temperature: 0.2},
	}
	if grounded {
		reqBody.Tools = []tool{{}}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding resolver request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("resolver", "error").Inc()
		return "", fmt.Errorf("calling resolver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.ProviderRequestsTotal.WithLabelValues("resolver", "rate_limited").Inc()
		return "", ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.ProviderRequestsTotal.WithLabelValues("resolver", "error").Inc()
		return "", fmt.Errorf("resolver API returned status %d: %s", resp.StatusCode, body)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("resolver", "error").Inc()
		return "", fmt.Errorf("decoding resolver response: %w", err)
	}
	metrics.ProviderRequestsTotal.WithLabelValues("resolver", "ok").Inc()

	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return gen.Candidates[0].Content.Parts[0].Text, nil
}

// QueryPrompt builds the identification prompt for a free-text description.
// Shared by the grounded attempt and the internal-knowledge retry.
func QueryPrompt(description string) string {
	return fmt.Sprintf("Identify the movies or TV shows matching this description: %q.", description)
}

// SimilarPrompt builds the curated-recommendation prompt for titles similar
// to the given one.
func SimilarPrompt(title, year, mediaType string) string {
	label := "movies or TV shows"
	switch mediaType {
	case "movie":
		label = "movies"
	case "tv":
		label = "TV shows"
	}
	subject := title
	if year != "" {
		subject = fmt.Sprintf("%s (%s)", title, year)
	}
	return fmt.Sprintf("Recommend 10 %s similar to %q. Do not include %q itself.", label, subject, title)
}
