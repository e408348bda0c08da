package geo

import (
	"regexp"
	"strconv"

	"github.com/golang/geo/s2"
)

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Google Maps place links embed the pin as ...!3d<lat>!4d<lon>...
var coordPattern = regexp.MustCompile(`!3d(-?\d+\.\d+)!4d(-?\d+\.\d+)`)

// ExtractCoordinates pulls the embedded coordinate pair out of a map link.
// Absence (false) is the only failure signal.
func ExtractCoordinates(raw string) (Coord, bool) {
	m := coordPattern.FindStringSubmatch(raw)
	if m == nil {
		return Coord{}, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Coord{}, false
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Coord{}, false
	}
	c := Coord{Lat: lat, Lon: lon}
	if !c.Valid() {
		return Coord{}, false
	}
	return c, true
}

func (c Coord) Valid() bool {
	return s2.LatLngFromDegrees(c.Lat, c.Lon).IsValid()
}

func (c Coord) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lon)
}

// Mean returns the arithmetic mean of the points (what the map view centers on
// when nothing is selected and no zone was searched).
func Mean(points []Coord) (Coord, bool) {
	if len(points) == 0 {
		return Coord{}, false
	}
	var lat, lon float64
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return Coord{Lat: lat / n, Lon: lon / n}, true
}

// Place is a geocoded location.
type Place struct {
	Coord
	DisplayName string `json:"displayName"`
}
