package backend

import (
	"context"
	"net/url"
	"strconv"
)

// CurrentWeather fetches the current weather snapshot with agricultural
// analysis for a location.
func (c *Client) CurrentWeather(ctx context.Context, city, country string) (map[string]any, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", country)

	var resp map[string]any
	if err := c.getJSON(ctx, "/api/weather/current", q, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Forecast fetches the weather forecast. The backend caps days at 16.
func (c *Client) Forecast(ctx context.Context, city, country string, days int) (map[string]any, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", country)
	q.Set("days", strconv.Itoa(days))

	var resp map[string]any
	if err := c.getJSON(ctx, "/api/weather/forecast", q, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// HistoricalWeather fetches recent historical weather for a location.
func (c *Client) HistoricalWeather(ctx context.Context, city, country string) (map[string]any, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", country)

	var resp map[string]any
	if err := c.getJSON(ctx, "/api/weather/historical", q, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SearchLocations looks up location candidates by name. The backend caps
// limit at 10.
func (c *Client) SearchLocations(ctx context.Context, query string, limit int) (map[string]any, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))

	var resp map[string]any
	if err := c.getJSON(ctx, "/api/weather/locations/search", q, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
