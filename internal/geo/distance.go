package geo

import (
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/tidwall/geodesic"
)

const (
	meanEarthRadiusKm = 6371.0088

	// spherical vs WGS84 distances differ by well under 1%; the cap is only a
	// coarse prefilter so it gets a generous margin.
	capSlack = 1.02

	cellPrecision = 7
)

// DistanceKm is the WGS84 geodesic distance between a and b.
func DistanceKm(a, b Coord) float64 {
	var meters float64
	geodesic.WGS84.Inverse(a.Lat, a.Lon, b.Lat, b.Lon, &meters, nil, nil)
	return meters / 1000
}

// Radius answers "is this point within km of center" using the exact
// geodesic distance, with an s2 cap in front to skip far-away points cheaply.
type Radius struct {
	Center Coord
	Km     float64

	cap s2.Cap
}

func NewRadius(center Coord, km float64) Radius {
	if km < 0 || math.IsNaN(km) {
		km = 0
	}
	angle := s1.Angle(km*capSlack/meanEarthRadiusKm) + 1e-9
	return Radius{
		Center: center,
		Km:     km,
		cap:    s2.CapFromCenterAngle(s2.PointFromLatLng(center.latLng()), angle),
	}
}

func (r Radius) Contains(c Coord) bool {
	if !c.Valid() {
		return false
	}
	if !r.cap.ContainsPoint(s2.PointFromLatLng(c.latLng())) {
		return false
	}
	return DistanceKm(r.Center, c) <= r.Km
}

// Cell is the geohash bucket used by map clients to cluster markers.
func Cell(c Coord) string {
	return geohash.EncodeWithPrecision(c.Lat, c.Lon, cellPrecision)
}
