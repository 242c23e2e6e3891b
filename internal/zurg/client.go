// Package zurg is the HTTP client for the Zurg media-mount server. Every
// outbound request first passes through the shared rate limiter, and
// failures are classified into the kinds defined in errors.go.
package zurg

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/dkotenko/zurgmon/internal/domain/torrent"
	"github.com/dkotenko/zurgmon/internal/obs/retry"
)

const (
	defaultTimeout = 30 * time.Second

	// Transient network failures get two retries with a short fixed
	// pause before being surfaced.
	retryAttempts = 3
	retryPause    = 500 * time.Millisecond
)

// Limiter admits one outbound request per call, blocking until the
// shared request budget allows it.
type Limiter interface {
	Acquire(ctx context.Context) error
}

type Config struct {
	BaseURL   string
	Username  string
	Password  string
	Timeout   time.Duration
	VerifyTLS bool
	UserAgent string
	DryRun    bool
}

type Client struct {
	cfg     Config
	httpc   *http.Client
	limiter Limiter
	log     *zap.Logger
}

func NewClient(cfg Config, lim Limiter, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "zurgmon/1.0"
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifyTLS,
			MinVersion:         tls.VersionTLS12,
		},
	}

	return &Client{
		cfg: cfg,
		httpc: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		limiter: lim,
		log:     log.With(zap.String("component", "zurg.client")),
	}
}

// ListTorrents fetches the full listing with per-item state.
func (c *Client) ListTorrents(ctx context.Context) ([]torrent.Torrent, error) {
	var items []torrent.Torrent
	err := c.withRetry(ctx, "list", func() error {
		body, err := c.do(ctx, http.MethodGet, "/manage/torrents.json")
		if err != nil {
			return err
		}
		items = items[:0]
		if err := json.Unmarshal(body, &items); err != nil {
			return &Error{Kind: KindProtocol, Op: "list", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// TriggerRepair asks Zurg to repair one torrent. In dry-run mode the
// request still consumes rate-limiter budget, so timing matches
// production, but no mutating call is made and success is assumed.
func (c *Client) TriggerRepair(ctx context.Context, hash string) error {
	if c.cfg.DryRun {
		if err := c.limiter.Acquire(ctx); err != nil {
			return err
		}
		c.log.Info("dry run: would trigger repair", zap.String("hash", hash))
		return nil
	}
	return c.withRetry(ctx, "repair", func() error {
		_, err := c.do(ctx, http.MethodPost, "/manage/"+url.PathEscape(hash)+"/repair")
		return err
	})
}

// Ping probes the Zurg stats endpoint to verify connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.withRetry(ctx, "ping", func() error {
		_, err := c.do(ctx, http.MethodGet, "/stats")
		return err
	})
}

func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(ctx, retry.Policy{
		Name:      "zurg." + op,
		Attempts:  retryAttempts,
		Backoff:   retry.Fixed{Pause: retryPause},
		Retryable: IsNetwork,
		OnAttempt: func(i int, err error) {
			if IsNetwork(err) {
				c.log.Warn("transient request failure",
					zap.String("op", op),
					zap.Int("attempt", i+1),
					zap.Error(err))
			}
		},
	}, fn)
}

// do acquires the rate limiter, performs one request and classifies any
// failure. The response body is fully read so the connection can be
// reused.
func (c *Client) do(ctx context.Context, method, path string) ([]byte, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Op: method + " " + path, Err: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: method + " " + path, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &Error{Kind: KindAuth, Op: method + " " + path,
			Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, Op: method + " " + path,
			Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &Error{Kind: KindProtocol, Op: method + " " + path,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, snippet(body))}
	}
	return body, nil
}

func snippet(b []byte) string {
	if len(b) > 256 {
		b = b[:256]
	}
	return string(b)
}
