// Package geocode turns a place name into a coordinate using a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"leadcrm-engine/internal/geo"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

type Config struct {
	BaseURL   string
	UserAgent string
	// APIKey is sent as the "key" query parameter when set (hosted
	// Nominatim mirrors want one; the public instance does not).
	APIKey     string
	Timeout    time.Duration
	RatePerSec float64
}

type Client struct {
	cfg Config
	hc  *http.Client
	lim *rate.Limiter

	group singleflight.Group

	mu    sync.Mutex
	cache map[string]result
}

type result struct {
	place geo.Place
	ok    bool
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "LeadCRM/1.0 (+local)"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		// public Nominatim policy: at most one request per second
		cfg.RatePerSec = 1
	}
	return &Client{
		cfg:   cfg,
		hc:    &http.Client{Timeout: cfg.Timeout},
		lim:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		cache: map[string]result{},
	}
}

// SetAPIKey swaps the key used for later lookups.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.cfg.APIKey = key
	c.mu.Unlock()
}

// Geocode returns the best match for query. Answers, misses included, are
// cached for the life of the client; concurrent lookups of the same query
// share one request.
func (c *Client) Geocode(ctx context.Context, query string) (geo.Place, bool, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if key == "" {
		return geo.Place{}, false, nil
	}

	c.mu.Lock()
	r, hit := c.cache[key]
	c.mu.Unlock()
	if hit {
		return r.place, r.ok, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		p, ok, err := c.lookup(ctx, query)
		if err != nil {
			return nil, err
		}
		res := result{place: p, ok: ok}
		c.mu.Lock()
		c.cache[key] = res
		c.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return geo.Place{}, false, err
	}
	res := v.(result)
	return res.place, res.ok, nil
}

type searchHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *Client) lookup(ctx context.Context, query string) (geo.Place, bool, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return geo.Place{}, false, fmt.Errorf("geocode wait: %w", err)
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	c.mu.Lock()
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}
	c.mu.Unlock()
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return geo.Place{}, false, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return geo.Place{}, false, fmt.Errorf("geocode get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, res.Body)
		return geo.Place{}, false, fmt.Errorf("geocode status %d", res.StatusCode)
	}

	var hits []searchHit
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&hits); err != nil {
		return geo.Place{}, false, fmt.Errorf("geocode decode: %w", err)
	}
	if len(hits) == 0 {
		return geo.Place{}, false, nil
	}

	lat, err1 := strconv.ParseFloat(hits[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(hits[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return geo.Place{}, false, fmt.Errorf("geocode: bad coordinates %q,%q", hits[0].Lat, hits[0].Lon)
	}
	p := geo.Place{Coord: geo.Coord{Lat: lat, Lon: lon}, DisplayName: hits[0].DisplayName}
	if !p.Valid() {
		return geo.Place{}, false, nil
	}
	return p, true, nil
}
