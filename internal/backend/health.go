package backend

import "context"

// Health pings the backend root endpoint and returns its status payload.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var resp map[string]any
	if err := c.getJSON(ctx, "/", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
