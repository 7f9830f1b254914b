package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"reelscout/api"
	"reelscout/cache"
	"reelscout/config"
	"reelscout/handlers"
	"reelscout/metrics"
	"reelscout/services/catalog"
	"reelscout/services/enrich"
	"reelscout/services/ratings"
	"reelscout/services/resolver"
	"reelscout/services/search"
	"reelscout/services/trending"
	"reelscout/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[server] config: %v", err)
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	resultCache := cache.New(cache.WithHitMiss(
		metrics.CacheHitsTotal.Inc,
		metrics.CacheMissesTotal.Inc,
	))
	stop := make(chan struct{})
	resultCache.StartJanitor(cfg.CacheSweepInterval, stop)
	defer close(stop)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogAPIKey, httpClient)
	ratingsClient := ratings.NewClient(cfg.RatingsBaseURL, cfg.RatingsAPIKey, httpClient, resultCache)
	resolverClient := resolver.NewClient(cfg.ResolverBaseURL, cfg.ResolverAPIKey, cfg.ResolverModel, nil)
	if !resolverClient.Configured() {
		log.Printf("[server] no resolver API key, plot-style queries will use catalog search only")
	}

	engine := enrich.NewEngine(catalogClient, ratingsClient, cfg.PrimaryRegion, cfg.SecondaryRegion)
	searchSvc := search.NewService(resultCache, catalogClient, resolverClient, engine)
	trendingSvc := trending.NewService(resultCache, catalogClient, engine, cfg.PrimaryRegion, cfg.RegionalLangs, cfg.Platforms)

	searchHandler := handlers.NewSearchHandler(searchSvc)
	trendingHandler := handlers.NewTrendingHandler(trendingSvc)

	router := utils.NewRouter()
	router.Use(api.ObservabilityMiddleware())
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	limiter := api.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	apiRoutes := router.PathPrefix("/api").Subrouter()
	apiRoutes.Use(api.RateLimitMiddleware(limiter))

	apiRoutes.HandleFunc("/find-movies", searchHandler.FindMovies).Methods(http.MethodPost, http.MethodOptions)
	apiRoutes.HandleFunc("/get-similar", searchHandler.GetSimilar).Methods(http.MethodPost, http.MethodOptions)
	apiRoutes.HandleFunc("/media-details", searchHandler.MediaDetails).Methods(http.MethodPost, http.MethodOptions)
	apiRoutes.HandleFunc("/media-extras", searchHandler.MediaExtras).Methods(http.MethodPost, http.MethodOptions)
	apiRoutes.HandleFunc("/trending/all", trendingHandler.Global).Methods(http.MethodGet, http.MethodOptions)
	apiRoutes.HandleFunc("/trending/regional", trendingHandler.Regional).Methods(http.MethodGet, http.MethodOptions)
	apiRoutes.HandleFunc("/trending/platform/{platform}", trendingHandler.Platform).Methods(http.MethodGet, http.MethodOptions)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[server] listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("[server] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
}
