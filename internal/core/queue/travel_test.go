package queue

import (
	"math"
	"testing"

	"queueflow/internal/core/domain"
)

func TestTravelMinutes(t *testing.T) {
	center := &domain.GeoPoint{Lat: 0, Lon: 0}
	cases := []struct {
		name   string
		origin *domain.GeoPoint
		center *domain.GeoPoint
		want   int
	}{
		{"no participant location", nil, center, DefaultTravelMinutes},
		{"no center location", &domain.GeoPoint{Lat: 1, Lon: 1}, nil, DefaultTravelMinutes},
		{"neither located", nil, nil, DefaultTravelMinutes},
		{"same point", &domain.GeoPoint{Lat: 0, Lon: 0}, center, 0},
		// one degree of latitude is ~111.19 km, 222.39 minutes at 30 km/h
		{"one degree north", &domain.GeoPoint{Lat: 1, Lon: 0}, center, 222},
	}

	for _, tt := range cases {
		if got := TravelMinutes(tt.origin, tt.center); got != tt.want {
			t.Fatalf("%s: TravelMinutes=%d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestDistanceKmIsSymmetric(t *testing.T) {
	a := domain.GeoPoint{Lat: 12.9716, Lon: 77.5946}
	b := domain.GeoPoint{Lat: 13.0827, Lon: 80.2707}

	ab, ba := DistanceKm(a, b), DistanceKm(b, a)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
	}
	if ab < 280 || ab > 300 {
		t.Fatalf("unexpected distance %f km", ab)
	}
}

func TestTravelMinutesRoundsDown(t *testing.T) {
	center := &domain.GeoPoint{Lat: 0, Lon: 0}
	// 0.01 degree of latitude is ~1.112 km, 2.22 minutes
	if got := TravelMinutes(&domain.GeoPoint{Lat: 0.01, Lon: 0}, center); got != 2 {
		t.Fatalf("TravelMinutes=%d, want 2", got)
	}
}
