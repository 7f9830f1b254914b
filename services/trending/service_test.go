package trending

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"reelscout/cache"
	"reelscout/models"
	"reelscout/services/catalog"
	"reelscout/services/enrich"
	"reelscout/services/ratings"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

var testPlatforms = map[string]int{"netflix": 8, "prime": 119, "hotstar": 122}

func newTestService(fn roundTripFunc) *Service {
	httpClient := &http.Client{Transport: fn, Timeout: time.Second}
	c := cache.New()
	cat := catalog.NewClient("http://catalog.test", "k", httpClient)
	rat := ratings.NewClient("http://ratings.test", "", httpClient, c)
	eng := enrich.NewEngine(cat, rat, "IN", "US")
	return NewService(c, cat, eng, "IN", []string{"hi", "ta", "te", "ml", "kn"}, testPlatforms)
}

func trendingRows(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"id":%d,"title":"Movie %d","media_type":"movie","vote_average":%d}`, i+1, i+1, n-i)
	}
	return `{"results":[` + strings.Join(rows, ",") + `]}`
}

func detailsStub(req *http.Request) (*http.Response, error) {
	switch {
	case strings.Contains(req.URL.Path, "/watch/providers"):
		return jsonResponse(200, `{"results":{}}`), nil
	default:
		return jsonResponse(200, `{"id":1,"title":"Movie","credits":{"cast":[],"crew":[{"name":"Someone","job":"Director"}]}}`), nil
	}
}

func TestGlobalCapsAndCaches(t *testing.T) {
	var mu sync.Mutex
	trendingCalls := 0
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		if strings.HasPrefix(req.URL.Path, "/trending/") {
			mu.Lock()
			trendingCalls++
			mu.Unlock()
			return jsonResponse(200, trendingRows(20)), nil
		}
		return detailsStub(req)
	})

	items, err := svc.Global(context.Background())
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if len(items) != enrichLimit {
		t.Fatalf("got %d items, want %d", len(items), enrichLimit)
	}

	if _, err := svc.Global(context.Background()); err != nil {
		t.Fatalf("cached Global: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if trendingCalls != 1 {
		t.Fatalf("trending fetched %d times, want 1", trendingCalls)
	}
}

func TestRegionalQueriesBothNamespaces(t *testing.T) {
	var mu sync.Mutex
	var discoverPaths []string
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		if strings.HasPrefix(req.URL.Path, "/discover/") {
			mu.Lock()
			discoverPaths = append(discoverPaths, req.URL.Path)
			mu.Unlock()
			if got := req.URL.Query().Get("with_original_language"); got != "hi|ta|te|ml|kn" {
				t.Errorf("with_original_language = %q", got)
			}
			if strings.HasSuffix(req.URL.Path, "movie") {
				return jsonResponse(200, `{"results":[{"id":1,"title":"Hindi Film","vote_average":8.1}]}`), nil
			}
			return jsonResponse(200, `{"results":[{"id":2,"name":"Tamil Show","vote_average":8.9}]}`), nil
		}
		return detailsStub(req)
	})

	items, err := svc.Regional(context.Background())
	if err != nil {
		t.Fatalf("Regional: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	titles := map[string]bool{items[0].Title: true, items[1].Title: true}
	if !titles["Hindi Film"] || !titles["Tamil Show"] {
		t.Fatalf("both namespaces must contribute, got %v", titles)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(discoverPaths) != 2 {
		t.Fatalf("discover called %d times, want movie+tv", len(discoverPaths))
	}
}

func TestRegionalCapsEachNamespace(t *testing.T) {
	movieRows := func(n int) string {
		rows := make([]string, n)
		for i := range rows {
			rows[i] = fmt.Sprintf(`{"id":%d,"title":"Film %d","vote_average":9}`, i+1, i+1)
		}
		return `{"results":[` + strings.Join(rows, ",") + `]}`
	}

	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		if strings.HasPrefix(req.URL.Path, "/discover/") {
			if strings.HasSuffix(req.URL.Path, "movie") {
				return jsonResponse(200, movieRows(15)), nil
			}
			return jsonResponse(200, `{"results":[]}`), nil
		}
		return detailsStub(req)
	})

	items, err := svc.Regional(context.Background())
	if err != nil {
		t.Fatalf("Regional: %v", err)
	}
	if len(items) != perTypeLimit {
		t.Fatalf("got %d items, want the per-namespace cap of %d", len(items), perTypeLimit)
	}
}

func TestInterleaveShuffledTruncates(t *testing.T) {
	rows := func(n, base int) []models.Item {
		out := make([]models.Item, n)
		for i := range out {
			out[i] = models.Item{ID: int64(base + i)}
		}
		return out
	}

	merged := interleaveShuffled(rows(15, 0), rows(15, 100), enrichLimit)
	if len(merged) != enrichLimit {
		t.Fatalf("got %d items, want %d", len(merged), enrichLimit)
	}
	for _, item := range merged {
		if item.ID >= perTypeLimit && item.ID < 100 {
			t.Fatalf("movie beyond the per-type cap survived: %+v", item)
		}
		if item.ID >= 100+perTypeLimit {
			t.Fatalf("show beyond the per-type cap survived: %+v", item)
		}
	}
}

func TestPlatformUsesConfiguredProviderID(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		if strings.HasPrefix(req.URL.Path, "/discover/") {
			if got := req.URL.Query().Get("with_watch_providers"); got != "122" {
				t.Errorf("with_watch_providers = %q, want 122", got)
			}
			if got := req.URL.Query().Get("watch_region"); got != "IN" {
				t.Errorf("watch_region = %q", got)
			}
			return jsonResponse(200, `{"results":[{"id":3,"title":"On Hotstar","vote_average":7.0}]}`), nil
		}
		return detailsStub(req)
	})

	items, err := svc.Platform(context.Background(), "Hotstar")
	if err != nil {
		t.Fatalf("Platform: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want movie+tv rows", len(items))
	}
}

func TestPlatformUnknownSlug(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no upstream call expected for unknown platform")
		return nil, nil
	})

	_, err := svc.Platform(context.Background(), "blockbuster")
	var unknown *ErrUnknownPlatform
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want ErrUnknownPlatform", err)
	}
	if unknown.Platform != "blockbuster" {
		t.Fatalf("platform = %q", unknown.Platform)
	}
}

func TestGlobalUpstreamFailure(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(401, `{}`), nil
	})

	if _, err := svc.Global(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
