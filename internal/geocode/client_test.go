package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchParsesUpstream(t *testing.T) {
	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "nantes", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"display_name":"Nantes, Loire-Atlantique","lat":"47.218","lon":"-1.553"}]`))
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL, "test/1.0")
	results, err := c.Search(context.Background(), "nantes", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Nantes, Loire-Atlantique", results[0].DisplayName)
	assert.InDelta(t, 47.218, results[0].Latitude, 0.001)
	assert.InDelta(t, -1.553, results[0].Longitude, 0.001)
	assert.Equal(t, 1, hits)
}

func TestSearchUsesRedisCache(t *testing.T) {
	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`[{"display_name":"Nantes","lat":"47.218","lon":"-1.553"}]`))
	}))
	defer upstream.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	c := NewClient(upstream.URL, "test/1.0")
	c.UseRedisCache(rdb, time.Minute)

	ctx := context.Background()
	_, err := c.Search(ctx, "nantes", 5)
	require.NoError(t, err)
	_, err = c.Search(ctx, "nantes", 5)
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second lookup should come from cache")
}

func TestReverse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		_, _ = w.Write([]byte(`{"display_name":"1 rue Crébillon, Nantes","lat":"47.213","lon":"-1.561"}`))
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL, "test/1.0")
	res, err := c.Reverse(context.Background(), 47.213, -1.561)
	require.NoError(t, err)
	assert.Equal(t, "1 rue Crébillon, Nantes", res.DisplayName)
}

func TestSearchUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL, "test/1.0")
	_, err := c.Search(context.Background(), "nantes", 5)
	assert.Error(t, err)
}

func TestSearchSkipsMalformedEntries(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"display_name":"Bad","lat":"oops","lon":"-1.5"},
			{"display_name":"Good","lat":"47.0","lon":"-1.5"}
		]`))
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL, "test/1.0")
	results, err := c.Search(context.Background(), "x", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Good", results[0].DisplayName)
}
