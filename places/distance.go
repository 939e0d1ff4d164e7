package places

import "math"

// earthRadiusMiles is the mean Earth radius used for the haversine formula.
const earthRadiusMiles = 3959

// Distance returns the great-circle distance in miles between two
// coordinate pairs, rounded to one decimal place. This is straight-line
// distance, not driving distance.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(earthRadiusMiles*c*10) / 10
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
