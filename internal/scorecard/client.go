package scorecard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/scholarpath/directory-cli/internal/resilience"
)

// Config configures the Scorecard client.
type Config struct {
	BaseURL     string   `mapstructure:"base_url"`
	APIKey      string   `mapstructure:"api_key"`
	Fields      []string `mapstructure:"fields"`
	PerPage     int      `mapstructure:"per_page"`
	RatePerSec  float64  `mapstructure:"rate_per_sec"`
	Burst       int      `mapstructure:"burst"`
	TimeoutSecs int      `mapstructure:"timeout_secs"`
}

// Client calls the institution-data API. A single shared limiter imposes the
// minimum inter-request delay; when fetch workers run concurrently they all
// draw from this one token budget.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
	cfg        Config
}

// New creates a Client from config, applying defaults for anything unset.
func New(cfg Config) *Client {
	if cfg.PerPage <= 0 {
		cfg.PerPage = 100
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	timeout := 30 * time.Second
	if cfg.TimeoutSecs > 0 {
		timeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		retry:      resilience.DefaultRetryConfig(),
		cfg:        cfg,
	}
}

// FetchInstitution fetches the remote field set for one institution id.
// Returns nil when the API knows nothing about the id.
func (c *Client) FetchInstitution(ctx context.Context, id string) (map[string]any, error) {
	params := url.Values{}
	params.Set("id", id)
	params.Set("per_page", "1")

	env, err := c.fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(env.Results) == 0 {
		return nil, nil
	}
	return env.Results[0], nil
}

// FetchPage fetches one page of the full institution listing.
func (c *Client) FetchPage(ctx context.Context, page int) (*Envelope, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(c.cfg.PerPage))
	return c.fetch(ctx, params)
}

// ForEachPage walks the full listing until metadata.total is exhausted,
// invoking fn once per page. fn returning an error stops the walk.
func (c *Client) ForEachPage(ctx context.Context, fn func(*Envelope) error) error {
	for page, seen := 0, 0; ; page++ {
		env, err := c.FetchPage(ctx, page)
		if err != nil {
			return err
		}
		if len(env.Results) == 0 {
			return nil
		}
		if err := fn(env); err != nil {
			return err
		}
		seen += len(env.Results)
		if seen >= env.Metadata.Total {
			return nil
		}
	}
}

func (c *Client) fetch(ctx context.Context, params url.Values) (*Envelope, error) {
	params.Set("api_key", c.cfg.APIKey)
	if len(c.cfg.Fields) > 0 {
		params.Set("fields", strings.Join(c.cfg.Fields, ","))
	}
	reqURL := c.cfg.BaseURL + "?" + params.Encode()

	env, err := resilience.DoVal(ctx, c.retry, "scorecard.fetch", func(ctx context.Context) (*Envelope, error) {
		return c.doGET(ctx, reqURL)
	})
	if err != nil {
		// Retries exhausted on 429 becomes a distinct rate-limit condition.
		var te *resilience.TransientError
		if errors.As(err, &te) && te.StatusCode == http.StatusTooManyRequests {
			return nil, &resilience.RateLimitError{URL: c.cfg.BaseURL, Attempts: c.retry.MaxAttempts, Err: err}
		}
		return nil, err
	}
	return env, nil
}

// doGET performs one rate-limited request. 429 and 5xx come back as
// transient errors for the retry loop; any other non-2xx fails immediately.
func (c *Client) doGET(ctx context.Context, reqURL string) (*Envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "scorecard: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scorecard: create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "scorecard: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resilience.NewTransientError(
			eris.Errorf("scorecard: http 429"), http.StatusTooManyRequests)
	}
	if resp.StatusCode >= 500 {
		return nil, resilience.NewTransientError(
			eris.Errorf("scorecard: http %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Status: resp.StatusCode, URL: stripKey(reqURL)}
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, eris.Wrap(err, "scorecard: decode response")
	}
	return &env, nil
}

// stripKey removes the api_key parameter before a URL lands in an error.
func stripKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Del("api_key")
	u.RawQuery = q.Encode()
	return u.String()
}
