package probe

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nanragav/pathbreach/internal/netguard"
	"github.com/nanragav/pathbreach/internal/oracle"
	"github.com/nanragav/pathbreach/internal/perrors"
)

// traversalToken is the literal placeholder the HTTP-URL-template and raw
// socket templates must contain.
const traversalToken = "TRAVERSAL"

// HTTPURLConfig configures the HTTP URL-template prober.
type HTTPURLConfig struct {
	URLTemplate string // must contain the literal token TRAVERSAL
	UserAgents  []string
	Timeout     time.Duration
	BodyCap     int
	Guard       netguard.Guard
}

// HTTPURLProber substitutes the payload for the TRAVERSAL token in a
// caller-supplied URL, verbatim, and performs a GET. Requires a pattern at
// the oracle layer: 200 is the rule here, not the exception.
type HTTPURLProber struct {
	cfg    HTTPURLConfig
	client *http.Client
	base   *url.URL
}

// NewHTTPURLProber validates the template and prepares the client.
func NewHTTPURLProber(cfg HTTPURLConfig) (*HTTPURLProber, error) {
	if !strings.Contains(cfg.URLTemplate, traversalToken) {
		return nil, perrors.Newf(perrors.CodeInvalidConfig, "url template must contain the literal token %q", traversalToken)
	}
	base, err := url.Parse(strings.Replace(cfg.URLTemplate, traversalToken, "", 1))
	if err != nil {
		return nil, perrors.Newf(perrors.CodeInvalidConfig, "invalid url template: %v", err)
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			DialContext:      guardedDialer(cfg.Guard, cfg.Timeout),
			TLSClientConfig:  insecureTLSConfig(),
			IdleConnTimeout:  90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &HTTPURLProber{cfg: cfg, client: client, base: base}, nil
}

// Probe substitutes payload into the template verbatim (no re-encoding) and
// issues a GET.
func (h *HTTPURLProber) Probe(ctx context.Context, payload string) Outcome {
	start := time.Now()
	rendered := strings.Replace(h.cfg.URLTemplate, traversalToken, payload, 1)

	prefix := h.base.Scheme + "://" + h.base.Host
	opaque := strings.TrimPrefix(rendered, prefix)

	u := &url.URL{Scheme: h.base.Scheme, Host: h.base.Host, Opaque: opaque}
	req := &http.Request{
		Method: http.MethodGet,
		URL:    u,
		Host:   h.base.Host,
		Header: make(http.Header),
	}
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", randomUserAgent(h.cfg.UserAgents))

	resp, err := h.client.Do(req)
	if err != nil {
		return Outcome{
			Payload: payload, Endpoint: rendered, Protocol: oracle.ProtocolHTTPURL,
			Elapsed: time.Since(start), Err: classifyTransportError(err),
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, int64(capReader(h.cfg.BodyCap))))

	return Outcome{
		Payload: payload, Endpoint: rendered, Protocol: oracle.ProtocolHTTPURL,
		StatusCode: resp.StatusCode, Body: body, Elapsed: time.Since(start),
	}
}
