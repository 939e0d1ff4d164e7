package places

import (
	"context"
	"sync"
)

// FindCompetitors discovers med-spa competitors near the target business.
// It queries Nearby Search for the beauty_salon and spa place types inside
// radiusMeters, drops the target's own place_id, keeps only candidates that
// match the med-spa keyword allow-list, truncates to limit, then enriches
// every survivor with full place details and a computed distance.
//
// A single candidate's detail fetch failing degrades that candidate to its
// nearby-search fields; it never aborts the batch.
func (c *Client) FindCompetitors(ctx context.Context, target *PlaceDetails, radiusMeters, limit int) ([]Competitor, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if target.Geometry == nil {
		return nil, ErrNoGeometry
	}
	loc := target.Geometry.Location

	seen := map[string]bool{target.PlaceID: true}
	var candidates []nearbyResult
	for _, placeType := range []string{"beauty_salon", "spa"} {
		results, err := c.nearbySearch(ctx, loc, radiusMeters, placeType)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if seen[r.PlaceID] || !IsCompetitor(r.Name, r.Types) {
				continue
			}
			seen[r.PlaceID] = true
			candidates = append(candidates, r)
		}
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return c.enrich(ctx, loc, candidates), nil
}

// enrich fetches place details for every candidate concurrently. The fan-out
// is bounded by the candidate count (at most 8), which is small enough to
// stay under Places rate limits without extra throttling.
func (c *Client) enrich(ctx context.Context, origin LatLng, candidates []nearbyResult) []Competitor {
	competitors := make([]Competitor, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate nearbyResult) {
			defer wg.Done()
			competitors[i] = c.enrichOne(ctx, origin, candidate)
		}(i, candidate)
	}
	wg.Wait()

	return competitors
}

// enrichOne resolves one candidate to a Competitor, falling back to the
// nearby-search fields when the detail fetch fails.
func (c *Client) enrichOne(ctx context.Context, origin LatLng, candidate nearbyResult) Competitor {
	details, err := c.Details(ctx, candidate.PlaceID)
	if err != nil {
		c.logger.Warn("places: detail fetch for %s failed, using nearby fields: %v", candidate.PlaceID, err)
		details = &PlaceDetails{
			PlaceID:          candidate.PlaceID,
			Name:             candidate.Name,
			FormattedAddress: candidate.Vicinity,
			Rating:           candidate.Rating,
			UserRatingsTotal: candidate.UserRatingsTotal,
			Types:            candidate.Types,
			Geometry:         candidate.Geometry,
		}
	}

	comp := Competitor{PlaceDetails: *details}
	if details.Geometry != nil {
		comp.DistanceMiles = Distance(origin.Lat, origin.Lng,
			details.Geometry.Location.Lat, details.Geometry.Location.Lng)
	}
	return comp
}
