// Package geocode wraps a Nominatim-compatible geocoding service with
// Redis caching, so address lookups stay fast and polite to the upstream.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"terroir/internal/metrics"
)

// Result is one geocoder match.
type Result struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Client calls the geocoder over HTTP. Responses are cached in Redis when
// a client is attached.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for a Nominatim-style base URL.
func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// UseRedisCache configures optional Redis caching for lookups.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// nominatimPlace is the upstream response shape; lat/lon arrive as strings.
type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search resolves a free-form address query to candidate locations.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 || limit > 10 {
		limit = 5
	}
	endpoint := fmt.Sprintf("%s/search?format=json&q=%s&limit=%d",
		c.baseURL, url.QueryEscape(query), limit)
	cacheKey := fmt.Sprintf("geocode:search:%d:%s", limit, query)

	var results []Result
	if c.readCache(ctx, cacheKey, &results) {
		metrics.IncGeocodeLookup("hit")
		return results, nil
	}

	var places []nominatimPlace
	if err := c.doGet(ctx, endpoint, &places); err != nil {
		metrics.IncGeocodeLookup("error")
		return nil, err
	}
	for _, p := range places {
		r, err := p.toResult()
		if err != nil {
			continue
		}
		results = append(results, r)
	}

	metrics.IncGeocodeLookup("miss")
	c.writeCache(ctx, cacheKey, results)
	return results, nil
}

// Reverse resolves coordinates to the nearest address.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Result, error) {
	endpoint := fmt.Sprintf("%s/reverse?format=json&lat=%f&lon=%f", c.baseURL, lat, lon)
	cacheKey := fmt.Sprintf("geocode:reverse:%.5f:%.5f", lat, lon)

	var result Result
	if c.readCache(ctx, cacheKey, &result) {
		metrics.IncGeocodeLookup("hit")
		return &result, nil
	}

	var place nominatimPlace
	if err := c.doGet(ctx, endpoint, &place); err != nil {
		metrics.IncGeocodeLookup("error")
		return nil, err
	}
	r, err := place.toResult()
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}

	metrics.IncGeocodeLookup("miss")
	c.writeCache(ctx, cacheKey, r)
	return &r, nil
}

func (p nominatimPlace) toResult() (Result, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("parse latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("parse longitude %q: %w", p.Lon, err)
	}
	return Result{DisplayName: p.DisplayName, Latitude: lat, Longitude: lon}, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
