package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/nanragav/pathbreach/internal/netguard"
	"github.com/nanragav/pathbreach/internal/oracle"
)

// PayloadConfig configures the raw-socket prober.
type PayloadConfig struct {
	Host     string
	Port     int
	SSL      bool
	Template string // must contain TRAVERSAL exactly once; warns otherwise
	Timeout  time.Duration
	BodyCap  int
	Guard    netguard.Guard
	Logger   *slog.Logger
}

// PayloadProber opens a TCP (optionally TLS) socket, writes
// template.Replace("TRAVERSAL", payload) in one write, and reads until
// timeout or size cap.
type PayloadProber struct {
	cfg    PayloadConfig
	warned bool
}

// NewPayloadProber builds a PayloadProber, warning once up front if the
// template does not contain TRAVERSAL exactly once — this is a warning,
// not a hard failure, since a template with zero or multiple tokens may
// still be intentional.
func NewPayloadProber(cfg PayloadConfig) *PayloadProber {
	p := &PayloadProber{cfg: cfg}
	if count := strings.Count(cfg.Template, traversalToken); count != 1 {
		p.warned = true
		if cfg.Logger != nil {
			cfg.Logger.Warn("payload template does not contain TRAVERSAL exactly once",
				"occurrences", count)
		}
	}
	return p
}

func (p *PayloadProber) Probe(ctx context.Context, payload string) Outcome {
	start := time.Now()
	hostport := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	endpoint := fmt.Sprintf("raw://%s", hostport)

	dial := guardedDialer(p.cfg.Guard, p.cfg.Timeout)
	raw, err := dial(ctx, "tcp", hostport)
	if err != nil {
		return Outcome{Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolPayload,
			Elapsed: time.Since(start), Err: classifyTransportError(err)}
	}
	defer raw.Close()

	var conn net.Conn = raw
	if p.cfg.SSL {
		tlsConn := tls.Client(raw, insecureTLSConfig())
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return Outcome{Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolPayload,
				Elapsed: time.Since(start), Err: classifyTransportError(err)}
		}
		conn = tlsConn
	}

	deadline := time.Now().Add(p.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	rendered := strings.Replace(p.cfg.Template, traversalToken, payload, 1)
	if _, err := conn.Write([]byte(rendered)); err != nil {
		return Outcome{Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolPayload,
			Elapsed: time.Since(start), Err: classifyTransportError(err)}
	}

	body, readErr := io.ReadAll(io.LimitReader(conn, int64(capReader(p.cfg.BodyCap))))
	if readErr != nil && len(body) == 0 {
		return Outcome{Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolPayload,
			Elapsed: time.Since(start), Err: classifyTransportError(readErr)}
	}

	return Outcome{
		Payload: payload, Endpoint: endpoint, Protocol: oracle.ProtocolPayload,
		Body: body, Elapsed: time.Since(start),
	}
}
