package ekubo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/titan/internal/domain"
)

const tokensPath = "/tokens"

// FetchTokens devuelve la lista completa de tokens de GET /tokens.
func (c *Client) FetchTokens(ctx context.Context) ([]domain.Token, error) {
	var resp []tokenDTO
	if err := c.get(ctx, c.indexLimiter, c.baseURL+tokensPath, &resp); err != nil {
		return nil, fmt.Errorf("ekubo.FetchTokens: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	tokens := mapTokens(resp)
	slog.Debug("tokens fetched", "count", len(tokens), "raw", len(resp))
	return tokens, nil
}
