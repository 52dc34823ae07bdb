package core

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

// newTransport builds the single transport a Client reuses for every request.
func newTransport(cfg Config) (*http.Transport, error) {
	base, _ := http.DefaultTransport.(*http.Transport)
	var t *http.Transport
	if base != nil {
		t = base.Clone()
	} else {
		t = &http.Transport{}
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil || cfg.ReadTimeout <= 0 {
			return conn, err
		}
		return &deadlineConn{Conn: conn, timeout: cfg.ReadTimeout}, nil
	}
	t.TLSHandshakeTimeout = cfg.ConnectTimeout
	t.ResponseHeaderTimeout = cfg.ReadTimeout
	// HTTP/2 multiplexes streams over one connection, which a per-read
	// deadline cannot bound individually.
	t.ForceAttemptHTTP2 = false

	if cfg.Proxy != nil {
		t.Proxy = http.ProxyURL(cfg.Proxy.URL())
	} else {
		t.Proxy = http.ProxyFromEnvironment
	}

	if cfg.UseTLS {
		tlsCfg, err := newTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		t.TLSClientConfig = tlsCfg
	}
	return t, nil
}

// newTLSConfig loads the CA bundle eagerly so a bad path fails construction.
func newTLSConfig(cfg Config) (*tls.Config, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if !cfg.VerifyPeer {
		tlsCfg.InsecureSkipVerify = true //nolint:gosec
		return tlsCfg, nil
	}
	if cfg.CAFile == "" {
		return tlsCfg, nil
	}

	pem, err := os.ReadFile(cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read CA bundle: %v", ErrConfig, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: no certificates found in CA bundle %q", ErrConfig, cfg.CAFile)
	}
	tlsCfg.RootCAs = pool
	return tlsCfg, nil
}

// deadlineConn bounds every wait for server bytes by timeout. The deadline is
// re-armed before each Read and after each Write, so a slow upload does not
// eat into the wait for the response.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if err == nil {
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	return n, err
}

// ReadTimeoutError reports that the server sent nothing for longer than the
// configured read timeout. It is a net.Error whose Timeout method reports true.
type ReadTimeoutError struct {
	After time.Duration
	Err   error
}

func (e *ReadTimeoutError) Error() string {
	return fmt.Sprintf("read timeout after %s: %v", e.After, e.Err)
}

func (e *ReadTimeoutError) Unwrap() error   { return e.Err }
func (e *ReadTimeoutError) Timeout() bool   { return true }
func (e *ReadTimeoutError) Temporary() bool { return true }

var _ net.Error = (*ReadTimeoutError)(nil)

// asReadTimeout rewrites an expired connection deadline into a
// ReadTimeoutError. net/http sometimes wraps the deadline error in a way that
// hides Timeout from errors.As, so the deadline sentinel is checked instead.
func asReadTimeout(err error, timeout time.Duration) error {
	if err == nil || !errors.Is(err, os.ErrDeadlineExceeded) {
		return err
	}
	var rte *ReadTimeoutError
	if errors.As(err, &rte) {
		return err
	}
	return &ReadTimeoutError{After: timeout, Err: err}
}
