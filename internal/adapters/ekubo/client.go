package ekubo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://sepolia-api.ekubo.org"

	// La API pública no documenta límites; nos quedamos bastante abajo de lo
	// que acepta en la práctica.
	// /tokens, /positions, /pair: pocas llamadas por pasada.
	indexRatePerSec = 10
	// /price y documentos de metadatos: una llamada por posición.
	itemRatePerSec = 40

	defaultMaxRetries    = 3
	defaultBaseRetryWait = 500 * time.Millisecond
	defaultHTTPTimeout   = 10 * time.Second
	defaultFetchTimeout  = 8 * time.Second
)

// Client es el HTTP client de la API de Ekubo con rate limiting y retries.
type Client struct {
	http          *http.Client
	baseURL       string
	indexLimiter  *rate.Limiter
	itemLimiter   *rate.Limiter
	maxRetries    int
	baseRetryWait time.Duration
	fetchTimeout  time.Duration
}

// Option configura un Client.
type Option func(*Client)

// WithRetries fija la cantidad de reintentos ante 429/5xx/errores de red.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryWait fija la espera base del backoff exponencial.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) { c.baseRetryWait = d }
}

// WithTimeout fija el timeout del http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithFetchTimeout acota cada descarga individual (documento de metadatos,
// precio) para que una URL colgada no bloquee el lote entero.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithRateLimit reemplaza el límite de requests por segundo de ambos limiters.
func WithRateLimit(perSec float64) Option {
	return func(c *Client) {
		if perSec > 0 {
			c.indexLimiter = rate.NewLimiter(rate.Limit(perSec), 5)
			c.itemLimiter = rate.NewLimiter(rate.Limit(perSec), 20)
		}
	}
}

// NewClient crea un Client contra baseURL. Si está vacío usa la API de sepolia.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		http:          &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:       strings.TrimRight(baseURL, "/"),
		indexLimiter:  rate.NewLimiter(indexRatePerSec, 5),
		itemLimiter:   rate.NewLimiter(itemRatePerSec, 20),
		maxRetries:    defaultMaxRetries,
		baseRetryWait: defaultBaseRetryWait,
		fetchTimeout:  defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL devuelve la URL base efectiva.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == c.maxRetries || ctx.Err() != nil {
				return fmt.Errorf("request failed after %d retries: %w", attempt, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			if attempt == c.maxRetries {
				return fmt.Errorf("rate limited after %d retries", c.maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == c.maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, c.maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", c.maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
