package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"reelscout/models"
	"reelscout/services/resolver"
	searchpkg "reelscout/services/search"
)

type searchService interface {
	FindMovies(context.Context, string) ([]models.EnrichedItem, error)
	Similar(context.Context, string, string, string) ([]models.EnrichedItem, error)
	Details(context.Context, string, string, string) (*models.EnrichedItem, error)
	Extras(context.Context, string, string, string) ([]models.Video, error)
}

var _ searchService = (*searchpkg.Service)(nil)

type SearchHandler struct {
	Service searchService
}

func NewSearchHandler(s searchService) *SearchHandler {
	return &SearchHandler{Service: s}
}

// FindMoviesRequest is the body of POST /api/find-movies.
type FindMoviesRequest struct {
	Description string `json:"description"`
}

// FindMoviesResponse wraps the resolved titles.
type FindMoviesResponse struct {
	Movies []models.EnrichedItem `json:"movies"`
}

func (h *SearchHandler) FindMovies(w http.ResponseWriter, r *http.Request) {
	var req FindMoviesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movies, err := h.Service.FindMovies(r.Context(), req.Description)
	if err != nil {
		writeSearchError(w, "find-movies", req.Description, err)
		return
	}

	if movies == nil {
		movies = []models.EnrichedItem{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(FindMoviesResponse{Movies: movies})
}

// SimilarRequest is the body of POST /api/get-similar.
type SimilarRequest struct {
	Title     string `json:"title"`
	Year      string `json:"year"`
	MediaType string `json:"media_type"`
}

// SimilarResponse wraps the recommended titles.
type SimilarResponse struct {
	Similar []models.EnrichedItem `json:"similar"`
}

func (h *SearchHandler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	var req SimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if strings.TrimSpace(req.MediaType) == "" {
		writeError(w, http.StatusBadRequest, "media_type is required")
		return
	}

	movies, err := h.Service.Similar(r.Context(), req.Title, req.Year, strings.ToLower(req.MediaType))
	if err != nil {
		writeSearchError(w, "get-similar", req.Title, err)
		return
	}

	if movies == nil {
		movies = []models.EnrichedItem{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SimilarResponse{Similar: movies})
}

// DetailsRequest is the body of POST /api/media-details and
// POST /api/media-extras.
type DetailsRequest struct {
	Title     string `json:"title"`
	Year      string `json:"year"`
	MediaType string `json:"media_type"`
}

func (h *SearchHandler) MediaDetails(w http.ResponseWriter, r *http.Request) {
	var req DetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.Details(r.Context(), req.Title, req.Year, strings.ToLower(req.MediaType))
	if errors.Is(err, searchpkg.ErrNotFound) {
		// An unresolvable title answers with an empty object so clients
		// settle instead of treating the lookup as a failure.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{}\n"))
		return
	}
	if err != nil {
		writeSearchError(w, "media-details", req.Title, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

// MediaExtrasResponse wraps the trailers for one title.
type MediaExtrasResponse struct {
	Videos []models.Video `json:"videos"`
}

func (h *SearchHandler) MediaExtras(w http.ResponseWriter, r *http.Request) {
	var req DetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	videos, err := h.Service.Extras(r.Context(), req.Title, req.Year, strings.ToLower(req.MediaType))
	if err != nil {
		writeSearchError(w, "media-extras", req.Title, err)
		return
	}

	if videos == nil {
		videos = []models.Video{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MediaExtrasResponse{Videos: videos})
}

// writeSearchError maps pipeline errors onto HTTP statuses. Quota errors get
// 429 so clients back off instead of hammering the resolver.
func writeSearchError(w http.ResponseWriter, op, query string, err error) {
	switch {
	case errors.Is(err, searchpkg.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "query is required")
	case errors.Is(err, resolver.ErrRateLimited):
		log.Printf("[%s] rate limited query=%q", op, query)
		writeError(w, http.StatusTooManyRequests, "resolver quota exceeded, try again later")
	case errors.Is(err, searchpkg.ErrNotFound):
		writeError(w, http.StatusNotFound, "title not found")
	default:
		log.Printf("[%s] error query=%q err=%v", op, query, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
