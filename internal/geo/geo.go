// Package geo provides the distance math for producer proximity search.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64
	Longitude float64
}

// ValidateCoordinates rejects latitudes outside [-90, 90] and longitudes
// outside [-180, 180].
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude out of range: %v", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude out of range: %v", lon)
	}
	return nil
}

// Distance returns the haversine distance between two points in kilometers.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Latitude)
	lon1 := radians(a.Longitude)
	lat2 := radians(b.Latitude)
	lon2 := radians(b.Longitude)

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// BoundingBox is a lat/lon rectangle used as a cheap prefilter before the
// exact haversine pass.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BoxAround returns the bounding box covering a radius around the center.
// One degree of latitude is ~111 km; longitude degrees shrink with
// cos(latitude).
func BoxAround(center Point, radiusKm float64) BoundingBox {
	latDelta := radiusKm / 111.0

	cosLat := math.Abs(math.Cos(radians(center.Latitude)))
	lonDelta := 180.0 // degenerate near the poles: cover all longitudes
	if cosLat > 1e-6 {
		lonDelta = radiusKm / (111.0 * cosLat)
	}

	return BoundingBox{
		MinLat: center.Latitude - latDelta,
		MaxLat: center.Latitude + latDelta,
		MinLon: center.Longitude - lonDelta,
		MaxLon: center.Longitude + lonDelta,
	}
}

// Contains reports whether the point falls inside the box.
func (b BoundingBox) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
