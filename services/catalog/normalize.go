package catalog

import "reelscout/models"

// genreNames maps catalog genre ids to display names for both the movie and
// TV namespaces.
var genreNames = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
	10759: "Action & Adventure",
	10762: "Kids",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
}

const (
	maxGenres = 3
	maxCast   = 3
)

// normalizeResult converts a raw search/discover row into a canonical Item.
// Movie rows carry title/release_date, TV rows name/first_air_date; the
// media_type field is only present in multi-namespace responses, so the
// caller supplies a fallback.
func normalizeResult(r searchResult, fallbackType string) models.Item {
	mediaType := r.MediaType
	if mediaType == "" {
		mediaType = fallbackType
	}

	title := r.Title
	date := r.ReleaseDate
	if mediaType == "tv" {
		if r.Name != "" {
			title = r.Name
		}
		if r.FirstAirDate != "" {
			date = r.FirstAirDate
		}
	}

	var genres []string
	for _, id := range r.GenreIDs {
		if name, ok := genreNames[id]; ok {
			genres = append(genres, name)
		}
		if len(genres) == maxGenres {
			break
		}
	}

	return models.Item{
		ID:          r.ID,
		Title:       title,
		ReleaseDate: date,
		Overview:    r.Overview,
		PosterPath:  r.PosterPath,
		VoteAverage: r.VoteAverage,
		MediaType:   mediaType,
		Genres:      genres,
	}
}

// buildDetails derives the canonical item, director and top-billed cast from
// a full details payload. Movies credit the crew member with the Director
// job; TV credits the creators, then the first executive producer.
func buildDetails(resp detailsResponse, mediaType string) *Details {
	title := resp.Title
	date := resp.ReleaseDate
	if mediaType == "tv" {
		if resp.Name != "" {
			title = resp.Name
		}
		if resp.FirstAirDate != "" {
			date = resp.FirstAirDate
		}
	}

	var genres []string
	for _, g := range resp.Genres {
		genres = append(genres, g.Name)
		if len(genres) == maxGenres {
			break
		}
	}

	var cast []string
	for _, c := range resp.Credits.Cast {
		cast = append(cast, c.Name)
		if len(cast) == maxCast {
			break
		}
	}

	return &Details{
		Item: models.Item{
			ID:          resp.ID,
			Title:       title,
			ReleaseDate: date,
			Overview:    resp.Overview,
			PosterPath:  resp.PosterPath,
			VoteAverage: resp.VoteAverage,
			MediaType:   mediaType,
			Genres:      genres,
		},
		Director: director(resp, mediaType),
		Cast:     cast,
	}
}

func director(resp detailsResponse, mediaType string) string {
	if mediaType == "movie" {
		for _, member := range resp.Credits.Crew {
			if member.Job == "Director" {
				return member.Name
			}
		}
		return "Unknown"
	}

	if len(resp.CreatedBy) > 0 {
		names := make([]string, 0, len(resp.CreatedBy))
		for _, c := range resp.CreatedBy {
			names = append(names, c.Name)
		}
		return joinNames(names)
	}
	for _, member := range resp.Credits.Crew {
		if member.Job == "Executive Producer" {
			return member.Name
		}
	}
	return "Unknown"
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "Unknown"
	case 1:
		return names[0]
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}
