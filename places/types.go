package places

// LatLng represents geographic coordinates in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry wraps a place's location as returned by the Places API.
type Geometry struct {
	Location LatLng `json:"location"`
}

// Photo is a Places API photo reference. The client builds display URLs
// from PhotoReference; the server never downloads image bytes.
type Photo struct {
	PhotoReference   string   `json:"photo_reference"`
	Height           int      `json:"height"`
	Width            int      `json:"width"`
	HTMLAttributions []string `json:"html_attributions,omitempty"`
}

// Review is a single Google review attached to a place.
type Review struct {
	AuthorName              string  `json:"author_name"`
	Rating                  float64 `json:"rating"`
	Text                    string  `json:"text"`
	RelativeTimeDescription string  `json:"relative_time_description"`
}

// PlaceDetails is a business record from the Places API. Fields are taken
// verbatim from the upstream response and are never mutated after fetch.
type PlaceDetails struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	FormattedAddress string    `json:"formatted_address"`
	Rating           float64   `json:"rating,omitempty"`
	UserRatingsTotal int       `json:"user_ratings_total,omitempty"`
	Website          string    `json:"website,omitempty"`
	Phone            string    `json:"formatted_phone_number,omitempty"`
	Geometry         *Geometry `json:"geometry,omitempty"`
	Types            []string  `json:"types,omitempty"`
	Reviews          []Review  `json:"reviews,omitempty"`
	Photos           []Photo   `json:"photos,omitempty"`
}

// Competitor is a nearby business with its computed distance from the
// target. DistanceMiles is a great-circle (haversine) approximation, not
// driving distance.
type Competitor struct {
	PlaceDetails
	DistanceMiles float64 `json:"distance_miles"`
}

// nearbyResult is the subset of fields Nearby Search returns per candidate.
// It is kept as the degraded fallback when a detail fetch fails.
type nearbyResult struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	Vicinity         string    `json:"vicinity"`
	Rating           float64   `json:"rating"`
	UserRatingsTotal int       `json:"user_ratings_total"`
	Types            []string  `json:"types"`
	Geometry         *Geometry `json:"geometry"`
}

type nearbyResponse struct {
	Results []nearbyResult `json:"results"`
	Status  string         `json:"status"`
	Error   string         `json:"error_message,omitempty"`
}

type detailsResponse struct {
	Result *PlaceDetails `json:"result"`
	Status string        `json:"status"`
	Error  string        `json:"error_message,omitempty"`
}

type textSearchResponse struct {
	Results []PlaceDetails `json:"results"`
	Status  string         `json:"status"`
	Error   string         `json:"error_message,omitempty"`
}
