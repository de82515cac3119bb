package backend

import (
	"context"
	"net/url"
)

// CropRecommendations fetches crop suggestions for current conditions at a
// location.
func (c *Client) CropRecommendations(ctx context.Context, city, country string) (map[string]any, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", country)

	var resp map[string]any
	if err := c.getJSON(ctx, "/api/agriculture/crops/recommendations", q, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PestRisk fetches the pest risk assessment for a crop at a location.
func (c *Client) PestRisk(ctx context.Context, city, country, cropType string) (map[string]any, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", country)
	if cropType != "" {
		q.Set("crop_type", cropType)
	}

	var resp map[string]any
	if err := c.getJSON(ctx, "/api/agriculture/pest/risk-assessment", q, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SeasonalAdvice fetches seasonal agricultural guidance for a location.
func (c *Client) SeasonalAdvice(ctx context.Context, city, country string) (map[string]any, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", country)

	var resp map[string]any
	if err := c.getJSON(ctx, "/api/agriculture/seasonal/advice", q, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// IrrigationAdvice fetches irrigation recommendations for a crop and soil
// combination at a location.
func (c *Client) IrrigationAdvice(ctx context.Context, city, country, cropType, soilType string) (map[string]any, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", country)
	if cropType != "" {
		q.Set("crop_type", cropType)
	}
	if soilType != "" {
		q.Set("soil_type", soilType)
	}

	var resp map[string]any
	if err := c.getJSON(ctx, "/api/agriculture/irrigation/recommendations", q, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PlantingCalendar fetches the planting calendar for a location.
func (c *Client) PlantingCalendar(ctx context.Context, city, country string) (map[string]any, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", country)

	var resp map[string]any
	if err := c.getJSON(ctx, "/api/agriculture/planting/calendar", q, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
