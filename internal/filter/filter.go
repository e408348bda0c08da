// Package filter narrows the roster to the working set shown on the map and
// in the list.
package filter

import (
	"context"
	"log"
	"strings"

	"leadcrm-engine/internal/domain"
	"leadcrm-engine/internal/geo"
)

const (
	DefaultRadiusKm = 2.0
	DefaultMarker   = "Pedido"
)

// Criteria selects the working set. A Center switches on radius mode and
// Query is then ignored; Statuses and OnlineOrdering always apply.
type Criteria struct {
	Center   *geo.Coord
	RadiusKm float64
	Query    string

	// Statuses is an allow-set; empty keeps every status.
	Statuses []domain.Status
	// OnlineOrdering keeps leads whose ordering text does (true) or does not
	// (false) contain Marker. Nil disables the check.
	OnlineOrdering *bool
	Marker         string
}

type Mode string

const (
	ModeNone   Mode = "none"
	ModeRadius Mode = "radius"
	ModeText   Mode = "text"
)

func (c Criteria) Mode() Mode {
	switch {
	case c.Center != nil:
		return ModeRadius
	case strings.TrimSpace(c.Query) != "":
		return ModeText
	default:
		return ModeNone
	}
}

// Apply returns the leads matching c in their original order.
func Apply(leads []domain.Lead, c Criteria) []domain.Lead {
	var keep func(domain.Lead) bool
	switch c.Mode() {
	case ModeRadius:
		km := c.RadiusKm
		if km == 0 {
			km = DefaultRadiusKm
		}
		r := geo.NewRadius(*c.Center, km)
		keep = func(l domain.Lead) bool { return l.Coord != nil && r.Contains(*l.Coord) }
	case ModeText:
		q := strings.ToLower(strings.TrimSpace(c.Query))
		keep = func(l domain.Lead) bool {
			return containsFold(l.Name, q) || containsFold(l.Address, q) || containsFold(l.MapsURL, q)
		}
	default:
		keep = func(domain.Lead) bool { return true }
	}

	allowed := map[domain.Status]bool{}
	for _, s := range c.Statuses {
		allowed[s] = true
	}
	marker := strings.ToLower(c.Marker)
	if marker == "" {
		marker = strings.ToLower(DefaultMarker)
	}

	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if !keep(l) {
			continue
		}
		if len(allowed) > 0 && !allowed[l.Status] {
			continue
		}
		if c.OnlineOrdering != nil && strings.Contains(strings.ToLower(l.HasOnlineOrdering), marker) != *c.OnlineOrdering {
			continue
		}
		out = append(out, l)
	}
	return out
}

// containsFold expects q already lowered. Blank fields never match.
func containsFold(field, q string) bool {
	if domain.IsBlank(field) {
		return false
	}
	return strings.Contains(strings.ToLower(field), q)
}

// Geocoder resolves a free-text place to a coordinate. A miss is
// (Place{}, false, nil).
type Geocoder interface {
	Geocode(ctx context.Context, query string) (geo.Place, bool, error)
}

type Request struct {
	Query          string
	Statuses       []domain.Status
	OnlineOrdering *bool
}

type Options struct {
	RadiusKm float64
	Marker   string
	// Suffix is appended to the query before geocoding, e.g.
	// ", Buenos Aires, Argentina".
	Suffix string
}

// Resolve builds criteria for req, geocoding the query when a geocoder is
// available. A failed or empty lookup falls back to text matching. The
// returned place is nil unless the lookup hit.
func Resolve(ctx context.Context, g Geocoder, req Request, opts Options) (Criteria, *geo.Place) {
	c := Criteria{
		RadiusKm:       opts.RadiusKm,
		Query:          strings.TrimSpace(req.Query),
		Statuses:       req.Statuses,
		OnlineOrdering: req.OnlineOrdering,
		Marker:         opts.Marker,
	}
	if c.RadiusKm <= 0 {
		c.RadiusKm = DefaultRadiusKm
	}
	if c.Query == "" || g == nil {
		return c, nil
	}

	p, ok, err := g.Geocode(ctx, c.Query+opts.Suffix)
	if err != nil {
		log.Printf("[filter] geocode %q failed, using text match: %v", c.Query, err)
		return c, nil
	}
	if !ok || !p.Valid() {
		return c, nil
	}
	center := p.Coord
	c.Center = &center
	return c, &p
}
