package airwallex

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"payflow/internal/metrics"
)

const (
	productionBaseURL = "https://pci-api.airwallex.com"
	sandboxBaseURL    = "https://pci-api-demo.airwallex.com"

	requestTimeout = 30 * time.Second
	maxRedirects   = 10
)

// Config holds Airwallex credentials and environment selection.
type Config struct {
	ClientID string
	APIKey   string
	Sandbox  bool
	// BaseURL overrides the environment-derived endpoint (tests only).
	BaseURL string
}

// Client talks to the Airwallex PCI API. The bearer token is cached for the
// lifetime of the Client instance and re-fetched once if a call comes back
// 401. Calls are never retried; a transport failure surfaces immediately as
// *TransportError.
type Client struct {
	cfg     Config
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker

	mu    sync.Mutex
	token string
}

// NewClient builds a Client for the environment selected by cfg.Sandbox.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Sandbox {
			baseURL = sandboxBaseURL
		} else {
			baseURL = productionBaseURL
		}
	}
	return &Client{
		cfg: cfg,
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(requestTimeout).
			SetRetryCount(0). // fail fast; retry decisions belong to the caller
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
			SetHeader("Accept", "application/json"),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "airwallex",
			Interval: 15 * time.Second,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && ratio >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
				log.WithFields(log.Fields{"circuit": name, "from": from.String(), "to": to.String()}).
					Warn("circuit breaker state changed")
			},
		}),
	}
}

// 0=closed, 1=open, 2=half-open, matching the circuit_breaker_state gauge.
func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

// AuthToken returns the cached bearer token, logging in on first use.
func (c *Client) AuthToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	tok, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.token = tok
	return tok, nil
}

// invalidateToken drops the cached token so the next call re-authenticates.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) login(ctx context.Context) (string, error) {
	resp, err := c.execute("login", func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetHeader("x-client-id", c.cfg.ClientID).
			SetHeader("x-api-key", c.cfg.APIKey).
			SetHeader("Content-Type", "application/json").
			Post("/api/v1/authentication/login")
	})
	if err != nil {
		return "", err
	}
	var out loginResponse
	if jsonErr := json.Unmarshal(resp.Body(), &out); jsonErr != nil || out.Token == "" {
		return "", &AuthError{Reason: "login response has no token"}
	}
	return out.Token, nil
}

// post sends an authenticated POST and decodes the JSON body into v whatever
// the HTTP status was: Airwallex reports failures inside the payload, so
// status-based handling is the caller's job.
func (c *Client) post(ctx context.Context, path string, body, v interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, v)
}

// get sends an authenticated GET. Same decode contract as post.
func (c *Client) get(ctx context.Context, path string, v interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, v)
}

func (c *Client) do(ctx context.Context, method, path string, body, v interface{}) error {
	resp, err := c.authedRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		// Cached token expired at the processor; re-authenticate once.
		c.invalidateToken()
		resp, err = c.authedRequest(ctx, method, path, body)
		if err != nil {
			return err
		}
	}
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	return nil
}

func (c *Client) authedRequest(ctx context.Context, method, path string, body interface{}) (*resty.Response, error) {
	token, err := c.AuthToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.execute(method+" "+path, func() (*resty.Response, error) {
		req := c.http.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+token).
			SetHeader("Content-Type", "application/json")
		if body != nil {
			req.SetBody(body)
		}
		return req.Execute(method, path)
	})
}

// execute runs one HTTP call through the circuit breaker. Only transport
// failures count against the breaker; processor-level declines arrive as
// decodable bodies and are not failures here.
func (c *Client) execute(op string, fn func() (*resty.Response, error)) (*resty.Response, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		metrics.ProcessorRequests.WithLabelValues(op, "error").Inc()
		log.WithFields(log.Fields{"op": op, "error": err}).Error("airwallex call failed")
		return nil, &TransportError{Op: op, Err: err}
	}
	metrics.ProcessorRequests.WithLabelValues(op, "ok").Inc()
	return res.(*resty.Response), nil
}
