package places

import (
	"math"
	"testing"
)

func TestDistanceIdenticalCoordinates(t *testing.T) {
	if d := Distance(40.7128, -74.0060, 40.7128, -74.0060); d != 0 {
		t.Errorf("distance between identical coordinates: got %v, want 0", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Distance(40.7128, -74.0060, 34.0522, -118.2437)
	b := Distance(34.0522, -118.2437, 40.7128, -74.0060)
	if a != b {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// NYC to LA great-circle distance is roughly 2445 miles.
	d := Distance(40.7128, -74.0060, 34.0522, -118.2437)
	if d < 2400 || d > 2500 {
		t.Errorf("NYC-LA distance: got %v, want ~2445", d)
	}
}

func TestDistanceRoundedToOneDecimal(t *testing.T) {
	d := Distance(40.7128, -74.0060, 40.7580, -73.9855)
	if got := math.Round(d*10) / 10; got != d {
		t.Errorf("distance %v not rounded to one decimal place", d)
	}
	if d <= 0 || d > 10 {
		t.Errorf("midtown distance implausible: %v", d)
	}
}
