package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/geo"
)

func working() []domain.Lead {
	return []domain.Lead{
		{ID: 1, Name: "A", Status: domain.StatusClient, Coord: &geo.Coord{Lat: -34.60, Lon: -58.40}},
		{ID: 2, Name: "B", Status: domain.StatusToContact, Coord: &geo.Coord{Lat: -34.62, Lon: -58.44}},
		{ID: 3, Name: "C", Status: domain.StatusToContact},
		{ID: 4, Name: "D", Status: domain.StatusDemoGiven},
	}
}

func TestPointsSkipLeadsWithoutCoordinates(t *testing.T) {
	pts := Points(working())
	require.Len(t, pts, 2)
	assert.Equal(t, int64(1), pts[0].ID)
	assert.Equal(t, [4]int{0, 255, 128, 255}, pts[0].Color)
	assert.Equal(t, "Por Contactar", pts[1].Status)
	assert.Len(t, pts[1].Cell, 7)
}

func TestFramePrecedence(t *testing.T) {
	pts := Points(working())
	sel := int64(2)
	center := &geo.Coord{Lat: -34.5, Lon: -58.5}

	st := Frame(pts, &sel, center)
	assert.Equal(t, ZoomSelected, st.Zoom)
	assert.Equal(t, -34.62, st.Center.Lat)

	missing := int64(3)
	st = Frame(pts, &missing, center)
	assert.Equal(t, ZoomCenter, st.Zoom)
	assert.Equal(t, *center, *st.Center)

	st = Frame(pts, nil, nil)
	assert.Equal(t, ZoomOverview, st.Zoom)
	assert.InDelta(t, -34.61, st.Center.Lat, 1e-9)
	assert.InDelta(t, -58.42, st.Center.Lon, 1e-9)

	st = Frame(nil, nil, nil)
	assert.Nil(t, st.Center)
}

func TestCount(t *testing.T) {
	assert.Equal(t, Metrics{Total: 4, Clients: 1, Pending: 2}, Count(working()))
}

func TestDetailFallbacks(t *testing.T) {
	l := domain.Lead{Name: "X", Address: domain.Placeholder, Hours: "Abierto"}
	for i := 0; i < 5; i++ {
		l.PrependNote(domain.Interaction{Note: string(rune('a' + i))})
	}
	d := DetailOf(l)
	assert.Equal(t, domain.MissingAddress, d.AddressText)
	assert.Equal(t, "Abierto", d.HoursText)
	require.Len(t, d.Recent, 3)
	assert.Equal(t, "e", d.Recent[0].Note)
}
