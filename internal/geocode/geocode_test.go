package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeParsesFirstHitAndSendsParams(t *testing.T) {
	var gotQuery, gotUA, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[{"lat":"-34.5889","lon":"-58.4306","display_name":"Palermo, Buenos Aires"}]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, UserAgent: "test-agent", APIKey: "k1", RatePerSec: 100})
	p, ok, err := c.Geocode(context.Background(), "Palermo, Buenos Aires, Argentina")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, -34.5889, p.Lat)
	assert.Equal(t, -58.4306, p.Lon)
	assert.Equal(t, "Palermo, Buenos Aires", p.DisplayName)
	assert.Equal(t, "Palermo, Buenos Aires, Argentina", gotQuery)
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "k1", gotKey)
}

func TestGeocodeMissIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, ok, err := New(Config{BaseURL: srv.URL, RatePerSec: 100}).Geocode(context.Background(), "nowhere")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGeocodeServerErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, _, err := New(Config{BaseURL: srv.URL, RatePerSec: 100}).Geocode(context.Background(), "Palermo")
	assert.Error(t, err)
}

func TestGeocodeTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond, RatePerSec: 100})
	_, _, err := c.Geocode(context.Background(), "Palermo")
	assert.Error(t, err)
}

func TestGeocodeCachesAndSharesLookups(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(`[{"lat":"-34.6","lon":"-58.45","display_name":"X"}]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RatePerSec: 100})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := c.Geocode(context.Background(), "  Palermo ")
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	_, ok, err := c.Geocode(context.Background(), "palermo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), calls.Load())
}
