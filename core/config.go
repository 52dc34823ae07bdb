package core

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Default connection settings for the Wit API.
const (
	DefaultAddress    = "api.wit.ai"
	DefaultPort       = 443
	DefaultTimeout    = 30 * time.Second
	DefaultRetryLimit = 1
)

// Config holds the connection parameters for a Client.
// It is plain data: nothing in this package reads the environment to fill it.
type Config struct {
	Token          string        // Bearer token, trimmed by the client
	Address        string        // API host name (default: api.wit.ai)
	Port           int           // API port (default: 443)
	UseTLS         bool          // Use HTTPS (default: true)
	VerifyPeer     bool          // Verify the server certificate (default: true)
	CAFile         string        // PEM bundle used for verification; empty uses system roots
	ConnectTimeout time.Duration // Dial and TLS handshake bound (default: 30s)
	ReadTimeout    time.Duration // Bound on each wait for response bytes (default: 30s)
	Proxy          *ProxyConfig  // Explicit HTTP proxy; nil falls back to the environment
	RetryLimit     int           // Extra attempts after a transport failure (default: 1)
}

// ProxyConfig describes an HTTP proxy with optional basic credentials.
type ProxyConfig struct {
	Address  string
	Port     int
	User     string
	Password string
}

// URL returns the proxy URL including credentials when set.
func (p ProxyConfig) URL() *url.URL {
	u := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(p.Address, strconv.Itoa(p.Port)),
	}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Address:        DefaultAddress,
		Port:           DefaultPort,
		UseTLS:         true,
		VerifyPeer:     true,
		ConnectTimeout: DefaultTimeout,
		ReadTimeout:    DefaultTimeout,
		RetryLimit:     DefaultRetryLimit,
	}
}

// Validate reports the first invalid field wrapped in ErrConfig.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return fmt.Errorf("%w: address is empty", ErrConfig)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrConfig, c.Port)
	}
	if c.RetryLimit < 0 {
		return fmt.Errorf("%w: retry limit %d is negative", ErrConfig, c.RetryLimit)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: connect timeout must be positive", ErrConfig)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: read timeout must be positive", ErrConfig)
	}
	if c.Proxy != nil {
		if strings.TrimSpace(c.Proxy.Address) == "" {
			return fmt.Errorf("%w: proxy address is empty", ErrConfig)
		}
		if c.Proxy.Port < 1 || c.Proxy.Port > 65535 {
			return fmt.Errorf("%w: proxy port %d out of range", ErrConfig, c.Proxy.Port)
		}
	}
	return nil
}

// BaseURL returns the scheme://host:port the client talks to.
func (c Config) BaseURL() *url.URL {
	scheme := "http"
	if c.UseTLS {
		scheme = "https"
	}
	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(c.Address, strconv.Itoa(c.Port)),
	}
}

// Option configures a Client during construction.
type Option func(*Client) error

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) error {
		c.cfg.Token = token
		return nil
	}
}

// WithAddress sets the API host name.
func WithAddress(addr string) Option {
	return func(c *Client) error {
		c.cfg.Address = addr
		return nil
	}
}

// WithPort sets the API port.
func WithPort(port int) Option {
	return func(c *Client) error {
		c.cfg.Port = port
		return nil
	}
}

// WithTLS enables or disables HTTPS.
func WithTLS(enabled bool) Option {
	return func(c *Client) error {
		c.cfg.UseTLS = enabled
		return nil
	}
}

// WithVerifyPeer enables or disables server certificate verification.
// Only disable this against a local development endpoint.
func WithVerifyPeer(verify bool) Option {
	return func(c *Client) error {
		c.cfg.VerifyPeer = verify
		return nil
	}
}

// WithCAFile sets the PEM bundle used to verify the server certificate.
func WithCAFile(path string) Option {
	return func(c *Client) error {
		c.cfg.CAFile = path
		return nil
	}
}

// WithTimeout sets both the connect and read timeouts.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.cfg.ConnectTimeout = d
		c.cfg.ReadTimeout = d
		return nil
	}
}

// WithConnectTimeout sets the dial and TLS handshake timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.cfg.ConnectTimeout = d
		return nil
	}
}

// WithReadTimeout bounds each wait for response bytes, headers and body alike.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.cfg.ReadTimeout = d
		return nil
	}
}

// WithProxy routes requests through an HTTP proxy.
func WithProxy(p ProxyConfig) Option {
	return func(c *Client) error {
		c.cfg.Proxy = &p
		return nil
	}
}

// WithRetryLimit sets how many extra attempts follow a transport failure.
func WithRetryLimit(n int) Option {
	return func(c *Client) error {
		c.cfg.RetryLimit = n
		return nil
	}
}

// WithBaseURL sets address, port and TLS from a URL such as
// "https://api.wit.ai" or "http://127.0.0.1:8080".
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: base url: %v", ErrConfig, err)
		}
		switch u.Scheme {
		case "https":
			c.cfg.UseTLS = true
		case "http":
			c.cfg.UseTLS = false
		default:
			return fmt.Errorf("%w: base url %q must be http or https", ErrConfig, raw)
		}
		if u.Hostname() == "" {
			return fmt.Errorf("%w: base url %q has no host", ErrConfig, raw)
		}
		c.cfg.Address = u.Hostname()
		if p := u.Port(); p != "" {
			port, err := strconv.Atoi(p)
			if err != nil {
				return fmt.Errorf("%w: base url port %q: %v", ErrConfig, p, err)
			}
			c.cfg.Port = port
		} else if c.cfg.UseTLS {
			c.cfg.Port = 443
		} else {
			c.cfg.Port = 80
		}
		return nil
	}
}

// WithHTTPTransport replaces the transport built from Config.
// TLS, proxy and timeout settings are then the caller's responsibility.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(c *Client) error {
		c.transport = rt
		return nil
	}
}

// WithRetryPolicy overrides the flat retry policy derived from RetryLimit.
func WithRetryPolicy(r RetryPolicy) Option {
	return func(c *Client) error {
		if r != nil {
			c.retry = r
		}
		return nil
	}
}

// WithTelemetry sets the telemetry hook for the client.
func WithTelemetry(h TelemetryHook) Option {
	return func(c *Client) error {
		if h != nil {
			c.telemetry = h
		}
		return nil
	}
}

// WithLogger sets the logger used for attempt and retry diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) error {
		if l != nil {
			c.logger = l
		}
		return nil
	}
}

// WithRateLimit throttles attempts to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) error {
		if rps <= 0 {
			return fmt.Errorf("%w: rate limit must be positive", ErrConfig)
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}
