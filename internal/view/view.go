// Package view derives what the map, the zone counters and the detail panel
// show from a working set.
package view

import (
	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/geo"
)

const (
	ZoomSelected = 15
	ZoomCenter   = 13
	ZoomOverview = 12
)

// Point is one map marker. ID is the identity a map pick sends back.
type Point struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Color  [4]int  `json:"color"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Cell   string  `json:"cell"`
}

func Points(working []domain.Lead) []Point {
	out := make([]Point, 0, len(working))
	for _, l := range working {
		if l.Coord == nil {
			continue
		}
		out = append(out, Point{
			ID:     l.ID,
			Name:   l.Name,
			Status: l.Status.String(),
			Color:  l.Status.Color(),
			Lat:    l.Coord.Lat,
			Lon:    l.Coord.Lon,
			Cell:   geo.Cell(*l.Coord),
		})
	}
	return out
}

type State struct {
	Center *geo.Coord `json:"center,omitempty"`
	Zoom   int        `json:"zoom"`
}

// Frame picks the map viewport: the selected lead when it is among the
// points, else the search center, else the mean of the points.
func Frame(points []Point, selected *int64, center *geo.Coord) State {
	if selected != nil {
		for _, p := range points {
			if p.ID == *selected {
				return State{Center: &geo.Coord{Lat: p.Lat, Lon: p.Lon}, Zoom: ZoomSelected}
			}
		}
	}
	if center != nil {
		c := *center
		return State{Center: &c, Zoom: ZoomCenter}
	}
	cs := make([]geo.Coord, len(points))
	for i, p := range points {
		cs[i] = geo.Coord{Lat: p.Lat, Lon: p.Lon}
	}
	if m, ok := geo.Mean(cs); ok {
		return State{Center: &m, Zoom: ZoomOverview}
	}
	return State{Zoom: ZoomOverview}
}

type Metrics struct {
	Total   int `json:"total"`
	Clients int `json:"clients"`
	Pending int `json:"pending"`
}

func Count(working []domain.Lead) Metrics {
	m := Metrics{Total: len(working)}
	for _, l := range working {
		switch l.Status {
		case domain.StatusClient:
			m.Clients++
		case domain.StatusToContact:
			m.Pending++
		}
	}
	return m
}

// Detail is the lead as the detail panel renders it.
type Detail struct {
	domain.Lead
	AddressText string               `json:"addressText"`
	HoursText   string               `json:"hoursText"`
	Recent      []domain.Interaction `json:"recentLog"`
}

func DetailOf(l domain.Lead) Detail {
	recent := l.RecentLog()
	if recent == nil {
		recent = []domain.Interaction{}
	}
	return Detail{
		Lead:        l,
		AddressText: domain.DisplayText(l.Address, domain.MissingAddress),
		HoursText:   domain.DisplayText(l.Hours, domain.MissingHours),
		Recent:      recent,
	}
}
