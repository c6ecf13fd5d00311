package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nanragav/pathbreach/internal/netguard"
	"github.com/nanragav/pathbreach/internal/oracle"
)

// HTTPConfig configures the HTTP path-mode prober.
type HTTPConfig struct {
	Scheme      string // "http" or "https"
	Host        string
	Port        int
	Method      string
	UserAgents  []string
	Timeout     time.Duration
	BodyCap     int
	Guard       netguard.Guard
	Parallelism int // connection pool cap per host; suggested 10
}

// HTTPProber issues METHOD /{payload} against the configured host, with a
// shared connection pool, a randomly rotated User-Agent per request,
// redirects disabled, and TLS verification disabled by contract — this
// tool tests adversarial servers.
type HTTPProber struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPProber builds an HTTPProber with a connection pool capped to
// cfg.Parallelism per host.
func NewHTTPProber(cfg HTTPConfig) *HTTPProber {
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	maxConns := cfg.Parallelism
	if maxConns <= 0 {
		maxConns = 10
	}

	transport := &http.Transport{
		DialContext:         guardedDialer(cfg.Guard, cfg.Timeout),
		TLSClientConfig:     insecureTLSConfig(),
		MaxConnsPerHost:     maxConns,
		MaxIdleConnsPerHost: maxConns,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &HTTPProber{cfg: cfg, client: client}
}

// Probe sends the payload verbatim in the request line: no additional
// percent-encoding is performed. Setting URL.Opaque to a path that does not
// start with "//" makes net/http emit it unmodified as the request-target,
// bypassing the usual path cleaning.
func (h *HTTPProber) Probe(ctx context.Context, payload string) Outcome {
	start := time.Now()
	hostport := fmt.Sprintf("%s:%d", h.cfg.Host, h.cfg.Port)
	endpoint := fmt.Sprintf("%s://%s/%s", h.cfg.Scheme, hostport, payload)

	u := &url.URL{Scheme: h.cfg.Scheme, Host: hostport, Opaque: "/" + payload}
	req := &http.Request{
		Method: h.cfg.Method,
		URL:    u,
		Host:   hostport,
		Header: make(http.Header),
	}
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", randomUserAgent(h.cfg.UserAgents))

	resp, err := h.client.Do(req)
	if err != nil {
		return Outcome{
			Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolHTTP,
			Elapsed: time.Since(start), Err: classifyTransportError(err),
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, int64(capReader(h.cfg.BodyCap))))

	return Outcome{
		Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolHTTP,
		StatusCode: resp.StatusCode, Body: body, Elapsed: time.Since(start),
	}
}
