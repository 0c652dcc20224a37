package authsdk

import (
	"context"
	"net/http"
	"time"
)

// GetLiveness calls /livez.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/livez")
}

// GetReadiness calls /readyz. A degraded service answers 503, which is
// returned as an error.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/readyz")
}

// WaitReady polls /readyz every interval until it answers 200 or ctx ends.
func (c *SDKClient) WaitReady(ctx context.Context, interval time.Duration) (*HealthResponse, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		health, err := c.GetReadiness(ctx)
		if err == nil {
			return health, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *SDKClient) getHealth(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}
