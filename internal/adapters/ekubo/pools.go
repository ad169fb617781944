package ekubo

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/titan/internal/domain"
)

// FetchPoolCandidates lista los pools más relevantes del par según
// GET /pair/{t0}/{t1}/pools.
func (c *Client) FetchPoolCandidates(ctx context.Context, token0, token1 string) ([]domain.PoolCandidate, error) {
	if token0 == "" || token1 == "" {
		return nil, fmt.Errorf("ekubo.FetchPoolCandidates: empty token address: %w", domain.ErrInvalidArgument)
	}

	var resp poolsResponse
	u := fmt.Sprintf("%s/pair/%s/%s/pools", c.baseURL, url.PathEscape(token0), url.PathEscape(token1))
	if err := c.get(ctx, c.indexLimiter, u, &resp); err != nil {
		return nil, fmt.Errorf("ekubo.FetchPoolCandidates: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return mapPools(resp.TopPools), nil
}
