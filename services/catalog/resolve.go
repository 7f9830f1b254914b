package catalog

import (
	"context"
	"log"
	"regexp"
	"strings"

	"reelscout/models"
)

var trailingYear = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)

// Resolve maps a (title, year, mediaType) suggestion to a concrete catalog
// entry. The preferred media type is searched first; when it yields nothing
// the opposite type is tried, since upstream suggestions routinely mislabel
// movies as shows and vice versa. Within a result set, an entry whose release
// year matches the requested year wins over the first entry.
//
// A nil item with a nil error means the suggestion matched nothing at all.
func (c *Client) Resolve(ctx context.Context, title, year, mediaType string) (*models.Item, error) {
	title = strings.TrimSpace(trailingYear.ReplaceAllString(title, ""))
	if title == "" {
		return nil, nil
	}
	if mediaType != "movie" && mediaType != "tv" {
		mediaType = "movie"
	}

	item, err := c.resolveOne(ctx, title, year, mediaType)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}

	other := "tv"
	if mediaType == "tv" {
		other = "movie"
	}
	item, err = c.resolveOne(ctx, title, year, other)
	if err != nil {
		return nil, err
	}
	if item == nil {
		log.Printf("[catalog] no match for %q (%s)", title, year)
	}
	return item, nil
}

func (c *Client) resolveOne(ctx context.Context, title, year, mediaType string) (*models.Item, error) {
	results, err := c.Search(ctx, mediaType, title)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	if year != "" {
		for i := range results {
			if strings.HasPrefix(results[i].ReleaseDate, year) {
				return &results[i], nil
			}
		}
	}
	return &results[0], nil
}
