package queue

import (
	"math"
	"time"

	"queueflow/internal/core/domain"
)

const (
	earthRadiusKm = 6371.0
	urbanSpeedKmh = 30.0

	// DefaultTravelMinutes applies whenever either end of the trip has no location.
	DefaultTravelMinutes = 10
)

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b domain.GeoPoint) float64 {
	lat1, lon1 := a.Lat*math.Pi/180, a.Lon*math.Pi/180
	lat2, lon2 := b.Lat*math.Pi/180, b.Lon*math.Pi/180
	dlat := lat2 - lat1
	dlon := lon2 - lon1

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// TravelMinutes estimates whole minutes to travel from origin to the center
// at urban speed, rounded down.
func TravelMinutes(origin, center *domain.GeoPoint) int {
	if origin == nil || center == nil {
		return DefaultTravelMinutes
	}
	return int(DistanceKm(*origin, *center) / urbanSpeedKmh * 60)
}

// TravelTime is TravelMinutes as a duration.
func TravelTime(origin, center *domain.GeoPoint) time.Duration {
	return time.Duration(TravelMinutes(origin, center)) * time.Minute
}
