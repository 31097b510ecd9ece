package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "astro-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		if r.URL.Query().Get("q") == "Rome" {
			_, _ = w.Write([]byte(`[{"lat": "41.8933203", "lon": "12.4829321", "display_name": "Roma, Italia"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL+"/", "astro-test", time.Second)

	res, err := c.Geocode(context.Background(), "Rome")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.InDelta(t, 41.8933203, res.Latitude, 1e-9)
	assert.InDelta(t, 12.4829321, res.Longitude, 1e-9)
	assert.Equal(t, "Roma, Italia", res.Address)

	res, err = c.Geocode(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestTimezoneClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "41.893300", r.URL.Query().Get("latitude"))
		assert.Equal(t, "12.482900", r.URL.Query().Get("longitude"))
		_, _ = w.Write([]byte(`{"timeZone": "Europe/Rome", "currentUtcOffset": {"seconds": 7200}}`))
	}))
	defer srv.Close()

	zone, err := NewTimezoneClient(srv.URL, "astro-test", time.Second).TimezoneAt(context.Background(), 41.8933, 12.4829)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Rome", zone)
}

func TestTimezoneClientEmptyZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewTimezoneClient(srv.URL, "astro-test", time.Second).TimezoneAt(context.Background(), 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBadPayload)
	assert.False(t, transient(err))
}

func TestNominatimClientBadCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat": "north-ish", "lon": "12.48", "display_name": "Somewhere"}]`))
	}))
	defer srv.Close()

	_, err := NewNominatimClient(srv.URL, "astro-test", time.Second).Geocode(context.Background(), "Somewhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, errBadPayload)
	assert.False(t, transient(err))
}

func TestElevationClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "41.893300,12.482900", r.URL.Query().Get("locations"))
		_, _ = w.Write([]byte(`{"results": [{"latitude": 41.8933, "longitude": 12.4829, "elevation": 21.0}]}`))
	}))
	defer srv.Close()

	v, err := NewElevationClient(srv.URL, "astro-test", time.Second).ElevationAt(context.Background(), 41.8933, 12.4829)
	require.NoError(t, err)
	assert.Equal(t, 21.0, v)
}

func TestElevationClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewElevationClient(srv.URL, "astro-test", time.Second).ElevationAt(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, transient(err))
}
