package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/GameShelf/internal/infrastructure/resilience"
)

// ErrStatus matches every StatusError.
var ErrStatus = errors.New("unexpected status")

// ErrTooLarge is returned when a body exceeds Config.MaxBodyBytes.
var ErrTooLarge = errors.New("response body too large")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Is makes errors.Is(err, ErrStatus) true.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Config controls the fetch client.
type Config struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is requests per second across all hosts; zero means unlimited
	RateLimit float64
	Burst     int
	UserAgent string
	// MaxBodyBytes caps a single response; zero means no cap
	MaxBodyBytes int64

	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		RetryMax:        3,
		RetryWaitMin:    1 * time.Second,
		RetryWaitMax:    30 * time.Second,
		UserAgent:       "GameShelf/1.0",
		MaxBodyBytes:    256 << 20,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Client fetches bundles with retries, a global rate limit and per-host
// circuit breakers.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Group
	maxBody  int64
	log      *zap.Logger
}

// New creates a client.
func New(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = leveledLogger{log.Named("retry").Sugar()}
	// Hand the final response back so the status is classified below.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	breakers := resilience.NewGroup(resilience.Settings{
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsFailure: isRemoteFailure,
		OnStateChange: func(host string, from, to resilience.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("host", host),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	return &Client{
		resty:    restyClient,
		limiter:  limiter,
		breakers: breakers,
		maxBody:  cfg.MaxBodyBytes,
		log:      log,
	}
}

// Get downloads rawURL and returns the body.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	var body []byte
	err = c.breakers.Do(u.Host, func() error {
		start := time.Now()
		resp, err := c.resty.R().SetContext(ctx).Get(rawURL)
		if err != nil {
			return fmt.Errorf("get %s: %w", rawURL, err)
		}
		c.log.Debug("Fetched",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode()),
			zap.Int("bytes", len(resp.Body())),
			zap.Duration("elapsed", time.Since(start)))

		if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
			return &StatusError{URL: rawURL, Code: resp.StatusCode()}
		}
		if c.maxBody > 0 && int64(len(resp.Body())) > c.maxBody {
			return fmt.Errorf("%w: %d bytes from %s", ErrTooLarge, len(resp.Body()), rawURL)
		}
		body = resp.Body()
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s unavailable: %w", u.Host, err)
	}
	return body, err
}

// BreakerStates returns the breaker state per host.
func (c *Client) BreakerStates() map[string]resilience.State {
	return c.breakers.States()
}

// isRemoteFailure counts transport errors, 5xx and 429 against the host.
func isRemoteFailure(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == 429
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrTooLarge)
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
