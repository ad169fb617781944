package ekubo

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/titan/internal/domain"
	"github.com/shopspring/decimal"
)

const pricePath = "/price/"

// FetchPrice devuelve el precio spot de token1 expresado en token0.
// Un error de transporte o HTTP se devuelve; un campo price ausente o no
// numérico se devuelve como 0 sin error.
func (c *Client) FetchPrice(ctx context.Context, token0, token1 string) (decimal.Decimal, error) {
	if token0 == "" || token1 == "" {
		return decimal.Zero, fmt.Errorf("ekubo.FetchPrice: empty token address: %w", domain.ErrInvalidArgument)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	var resp priceResponse
	u := c.baseURL + pricePath + url.PathEscape(token0) + "/" + url.PathEscape(token1)
	if err := c.get(fetchCtx, c.itemLimiter, u, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("ekubo.FetchPrice: %w", err)
	}
	return coercePrice(resp.Price), nil
}
