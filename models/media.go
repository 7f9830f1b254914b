package models

import "strconv"

// Item is the canonical, provider-agnostic representation of a single movie or
// TV entry produced by catalog search and discovery. Identity is the
// (ID, MediaType) pair — catalog ids are not unique across the movie and tv
// namespaces. An Item is immutable once formed from a provider response.
type Item struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	PosterPath  string   `json:"poster_path,omitempty"`
	VoteAverage float64  `json:"vote_average,omitempty"`
	MediaType   string   `json:"media_type"`
	Genres      []string `json:"genres,omitempty"`
}

// Year returns the four-digit release year parsed from ReleaseDate, or 0.
func (i Item) Year() int {
	if len(i.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(i.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// WatchProvider is a single streaming offering (subscription tier).
type WatchProvider struct {
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// EnrichedItem is an Item plus deep-enrichment data: detail genres, director,
// top-billed cast, third-party ratings and streaming availability. Never
// mutated after creation — re-enrichment produces a new value.
type EnrichedItem struct {
	Item
	Director       string          `json:"director,omitempty"`
	Cast           []string        `json:"cast,omitempty"`
	IMDBRating     *string         `json:"imdb_rating"`
	RottenTomatoes *string         `json:"rotten_tomatoes"`
	Providers      []WatchProvider `json:"providers,omitempty"`
}

// Ratings holds the third-party scores attached during enrichment. Nil fields
// mean the ratings provider had no entry for that source.
type Ratings struct {
	IMDB           *string `json:"imdb"`
	RottenTomatoes *string `json:"rotten_tomatoes"`
}

// Video is a trailer/teaser/clip attached to a catalog entry.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}
