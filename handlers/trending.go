package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"reelscout/models"
	trendingpkg "reelscout/services/trending"
)

type trendingService interface {
	Global(context.Context) ([]models.EnrichedItem, error)
	Regional(context.Context) ([]models.EnrichedItem, error)
	Platform(context.Context, string) ([]models.EnrichedItem, error)
}

var _ trendingService = (*trendingpkg.Service)(nil)

type TrendingHandler struct {
	Service trendingService
}

func NewTrendingHandler(s trendingService) *TrendingHandler {
	return &TrendingHandler{Service: s}
}

// TrendingResponse wraps a trending view.
type TrendingResponse struct {
	Results []models.EnrichedItem `json:"results"`
}

func (h *TrendingHandler) Global(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Global(r.Context())
	if err != nil {
		log.Printf("[trending] global error: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeTrending(w, items)
}

func (h *TrendingHandler) Regional(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Regional(r.Context())
	if err != nil {
		log.Printf("[trending] regional error: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeTrending(w, items)
}

func (h *TrendingHandler) Platform(w http.ResponseWriter, r *http.Request) {
	platform := mux.Vars(r)["platform"]

	items, err := h.Service.Platform(r.Context(), platform)
	if err != nil {
		var unknown *trendingpkg.ErrUnknownPlatform
		if errors.As(err, &unknown) {
			writeError(w, http.StatusBadRequest, unknown.Error())
			return
		}
		log.Printf("[trending] platform error platform=%q: %v", platform, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeTrending(w, items)
}

func writeTrending(w http.ResponseWriter, items []models.EnrichedItem) {
	if items == nil {
		items = []models.EnrichedItem{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TrendingResponse{Results: items})
}
