package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(fn roundTripFunc) *Client {
	return NewClient("http://resolver.test/v1beta", "key", "test-model", &http.Client{
		Transport: fn,
		Timeout:   time.Second,
	})
}

func modelResponse(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(body)
}

func httpResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestResolveGroundedSendsSearchTool(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		payload, _ := io.ReadAll(req.Body)
		if !strings.Contains(string(payload), "google_search") {
			t.Errorf("grounded request missing search tool: %s", payload)
		}
		return httpResponse(200, modelResponse(`[{"title":"Arrival","year":"2016","media_type":"movie"}]`)), nil
	})

	got, err := client.ResolveGrounded(context.Background(), "aliens communicate through circular symbols")
	if err != nil {
		t.Fatalf("ResolveGrounded: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Arrival" || got[0].Year.String() != "2016" {
		t.Fatalf("unexpected suggestions: %+v", got)
	}
}

func TestResolveInternalOmitsSearchTool(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		payload, _ := io.ReadAll(req.Body)
		if strings.Contains(string(payload), "google_search") {
			t.Errorf("internal request must not carry the search tool: %s", payload)
		}
		return httpResponse(200, modelResponse(`[{"title":"Sicario","year":2015,"media_type":"movie"}]`)), nil
	})

	got, err := client.ResolveInternal(context.Background(), SimilarPrompt("No Country for Old Men", "2007", "movie"))
	if err != nil {
		t.Fatalf("ResolveInternal: %v", err)
	}
	if len(got) != 1 || got[0].Year.String() != "2015" {
		t.Fatalf("numeric year not absorbed: %+v", got)
	}
}

func TestRequestsCarrySystemInstruction(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		payload, _ := io.ReadAll(req.Body)
		var body struct {
			SystemInstruction *struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig map[string]any `json:"generationConfig"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.SystemInstruction == nil || len(body.SystemInstruction.Parts) == 0 {
			t.Fatalf("request missing systemInstruction: %s", payload)
		}
		if !strings.Contains(body.SystemInstruction.Parts[0].Text, "JSON array") {
			t.Errorf("system instruction does not pin the output format: %q", body.SystemInstruction.Parts[0].Text)
		}
		if len(body.Contents) != 1 || strings.Contains(body.Contents[0].Parts[0].Text, "JSON array") {
			t.Errorf("format constraint leaked into the user prompt: %+v", body.Contents)
		}
		if body.GenerationConfig == nil {
			t.Errorf("request missing generationConfig: %s", payload)
		}
		return httpResponse(200, modelResponse(`[]`)), nil
	})

	if _, err := client.ResolveGrounded(context.Background(), "a movie about dreams"); err != nil {
		t.Fatalf("ResolveGrounded: %v", err)
	}
}

func TestRateLimitIsSentinel(t *testing.T) {
	calls := 0
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		calls++
		return httpResponse(429, `{"error":{"message":"quota exceeded"}}`), nil
	})

	_, err := client.ResolveGrounded(context.Background(), "anything")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if calls != 1 {
		t.Fatalf("made %d calls, want 1 (quota errors must not be retried)", calls)
	}
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient("http://resolver.test", "", "m", nil)

	if client.Configured() {
		t.Fatal("client without key reports configured")
	}
	if _, err := client.ResolveGrounded(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return httpResponse(500, `{}`), nil
	})

	_, err := client.ResolveGrounded(context.Background(), "anything")
	if err == nil || errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want plain upstream error", err)
	}
}

func TestEmptyCandidatesYieldNoSuggestions(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return httpResponse(200, `{"candidates":[]}`), nil
	})

	got, err := client.ResolveGrounded(context.Background(), "anything")
	if err != nil {
		t.Fatalf("ResolveGrounded: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no suggestions, got %+v", got)
	}
}
