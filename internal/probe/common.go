// Package probe implements the per-protocol senders (C4): HTTP path mode,
// HTTP URL-template mode, FTP RETR, TFTP RRQ, and a raw templated socket.
// Every prober honors context cancellation and a per-call timeout, clamps
// response sizes, closes its sockets on every exit path, and translates
// transport errors into the canonical error kinds from the error-handling
// design.
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"github.com/nanragav/pathbreach/internal/netguard"
	"github.com/nanragav/pathbreach/internal/oracle"
	"github.com/nanragav/pathbreach/internal/perrors"
)

// defaultBodyCap bounds how many response bytes any prober buffers, per the
// "clamp response sizes" requirement.
const defaultBodyCap = 1 << 20 // 1 MiB

// defaultUserAgents is the compile-time UA list the HTTP prober rotates
// through at random.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (compatible; pathbreach/1.0; +https://github.com/nanragav/pathbreach)",
}

func randomUserAgent(agents []string) string {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return agents[rand.IntN(len(agents))]
}

// Outcome is the Go-native ProbeOutcome record from the data model: a
// tagged result carrying enough protocol-specific detail for the oracle's
// success gate plus the endpoint rendering and timing the report writers
// need.
type Outcome struct {
	Payload    string
	Endpoint   string
	Protocol   oracle.Protocol
	StatusCode int
	FTPPermErr bool
	TFTPOpcode int
	TFTPErrCode int
	Body       []byte
	Elapsed    time.Duration
	Err        error
}

// ForOracle projects the fields the oracle's Classify needs.
func (o Outcome) ForOracle() oracle.Outcome {
	return oracle.Outcome{
		Protocol:    o.Protocol,
		Err:         o.Err,
		StatusCode:  o.StatusCode,
		FTPPermErr:  o.FTPPermErr,
		TFTPOpcode:  o.TFTPOpcode,
		TFTPErrCode: o.TFTPErrCode,
		Body:        o.Body,
	}
}

// Prober sends one payload and returns the outcome. Implementations never
// panic on transport failure; they record it in Outcome.Err instead.
type Prober interface {
	Probe(ctx context.Context, payload string) Outcome
}

// guardedDialer builds a net.Dialer whose DialContext resolves the address
// first and rejects it when the configured guard blocks the resolved IP: a
// "resolve, check, then connect" dialer built around an injected, opt-in
// Guard rather than an always-on package-level check.
func guardedDialer(guard netguard.Guard, timeout time.Duration) func(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return dialer.DialContext(ctx, network, addr)
		}

		ip := net.ParseIP(host)
		if ip != nil {
			if !guard.Allow(ip) {
				return nil, perrors.Newf(perrors.CodeTransportRefused, "netguard: refusing to dial blocked address %s", addr)
			}
			return dialer.DialContext(ctx, network, addr)
		}

		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil || len(ips) == 0 {
			return dialer.DialContext(ctx, network, addr)
		}
		for _, resolved := range ips {
			if !guard.Allow(resolved.IP) {
				return nil, perrors.Newf(perrors.CodeTransportRefused, "netguard: %s resolves to blocked address %s", addr, resolved.IP)
			}
		}
		return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
	}
}

func insecureTLSConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true} //nolint:gosec // probes deliberately untrusted/self-signed targets
}

// classifyTransportError maps a raw network error into one of the canonical
// error kinds from the error-handling design table.
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	var perr *perrors.Error
	if errors.As(err, &perr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return perrors.New(perrors.CodeCancelled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return perrors.New(perrors.CodeTransportTimeout, err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return perrors.New(perrors.CodeTransportTimeout, err.Error())
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "tls:") || strings.Contains(msg, "handshake"):
		return perrors.New(perrors.CodeTLSHandshake, err.Error())
	case strings.Contains(msg, "connection refused"):
		return perrors.New(perrors.CodeTransportRefused, err.Error())
	case strings.Contains(msg, "connection reset") || strings.Contains(msg, "broken pipe"):
		return perrors.New(perrors.CodeTransportReset, err.Error())
	case strings.Contains(msg, "no such host") || strings.Contains(msg, "lookup"):
		return perrors.New(perrors.CodeTransportRefused, err.Error())
	default:
		return perrors.New(perrors.CodeProtocolError, err.Error())
	}
}

func capReader(limit int) int {
	if limit <= 0 {
		return defaultBodyCap
	}
	return limit
}
