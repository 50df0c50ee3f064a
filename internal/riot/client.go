package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"arena-tracker/internal/config"
	"arena-tracker/internal/constants"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

// transport is the slice of fasthttp.Client the client uses. Tests swap in
// a fake.
type transport interface {
	Do(req *fasthttp.Request, resp *fasthttp.Response) error
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Client talks to the Riot account-v1 and match-v5 APIs. Rate limiting is
// absorbed here: a 429 sleeps a fixed cool-down and retries without bound,
// a 5xx retries up to the transient budget, auth and not-found responses
// fail immediately.
type Client struct {
	apiKey string
	region string
	http   transport
	logger zerolog.Logger

	// sleep and backoff are swapped in tests to count backoffs without
	// waiting for real.
	sleep   func(ctx context.Context, d time.Duration) error
	backoff func() retry.Backoff

	rateLimitMu sync.Mutex
	rateLimited bool
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		apiKey: cfg.RiotAPIKey,
		region: cfg.Region,
		http: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
		sleep:  sleepCtx,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(constants.TransientRetryBudget, retry.NewConstant(constants.RateLimitCooldown))
		},
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ResolveAccount resolves a riot id (name + tagline) to a puuid.
func (c *Client) ResolveAccount(ctx context.Context, name, tag string) (string, error) {
	u := fmt.Sprintf("https://%s.api.riotgames.com/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.region, url.PathEscape(name), url.PathEscape(tag))

	acc, err := doRequest[AccountResponse](ctx, c, u)
	if err != nil {
		return "", err
	}
	if acc.Puuid == "" {
		return "", fmt.Errorf("%w: empty puuid for %s#%s", ErrNotFound, name, tag)
	}
	return acc.Puuid, nil
}

// ListMatchIDs returns up to count match ids starting at start, newest
// first. An empty slice means history is exhausted.
func (c *Client) ListMatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error) {
	u := fmt.Sprintf("https://%s.api.riotgames.com/lol/match/v5/matches/by-puuid/%s/ids?start=%d&count=%d",
		c.region, puuid, start, count)

	ids, err := doRequest[[]string](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

// GetMatchDetail returns the full match payload for one match id.
func (c *Client) GetMatchDetail(ctx context.Context, matchID string) (*MatchDetail, error) {
	u := fmt.Sprintf("https://%s.api.riotgames.com/lol/match/v5/matches/%s", c.region, matchID)
	return doRequest[MatchDetail](ctx, c, u)
}

func doRequest[T any](ctx context.Context, c *Client, url string) (*T, error) {
	var result T

	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		body, err := c.execute(ctx, url)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("decode %s: %w", url, err)
		}
		return nil
	})
	if err != nil {
		var transient *transientError
		if errors.As(err, &transient) {
			c.logger.Error().Err(transient.err).Str("url", url).Msg("retry budget exhausted")
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, transient.err)
		}
		return nil, err
	}
	return &result, nil
}

// execute performs one logical request. It loops internally on 429 so that
// rate limiting never consumes the transient retry budget.
func (c *Client) execute(ctx context.Context, url string) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status, body, err := c.roundTrip(ctx, url)
		if err != nil {
			return nil, retry.RetryableError(&transientError{err: err})
		}

		switch {
		case status == fasthttp.StatusOK:
			c.setRateLimited(false)
			return body, nil
		case status == fasthttp.StatusTooManyRequests:
			if c.setRateLimited(true) {
				c.logger.Warn().Str("url", url).Dur("cooldown", constants.RateLimitCooldown).Msg("rate limited, backing off")
			}
			if err := c.sleep(ctx, constants.RateLimitCooldown); err != nil {
				return nil, err
			}
		case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
			return nil, fmt.Errorf("%w: status %d", ErrAuth, status)
		case status == fasthttp.StatusNotFound:
			return nil, ErrNotFound
		default:
			c.logger.Warn().Int("status", status).Str("url", url).Msg("transient riot api error")
			return nil, retry.RetryableError(&transientError{err: fmt.Errorf("status %d", status)})
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, url string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Riot-Token", c.apiKey)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		return 0, nil, err
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return resp.StatusCode(), body, nil
}

// setRateLimited flips the rate-limit flag and reports whether this call
// started a new rate-limit episode. The flag only affects logging.
func (c *Client) setRateLimited(limited bool) bool {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	changed := limited && !c.rateLimited
	c.rateLimited = limited
	return changed
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }
