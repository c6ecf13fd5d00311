package probe

import (
	"context"
	"fmt"
	"io"

	"github.com/nanragav/pathbreach/internal/oracle"
)

// StdoutProber is the "stdout" module: it performs no network I/O and
// simply writes each payload as a line, for dry runs against the generator
// and oracle without a live target. The oracle's payload success gate
// (len(Body) > 0) is always satisfied, so --pattern matches against the
// payload text itself.
type StdoutProber struct {
	w io.Writer
}

// NewStdoutProber builds a StdoutProber writing to w.
func NewStdoutProber(w io.Writer) *StdoutProber {
	return &StdoutProber{w: w}
}

func (p *StdoutProber) Probe(ctx context.Context, payload string) Outcome {
	fmt.Fprintln(p.w, payload)
	return Outcome{
		Payload:  payload,
		Endpoint: payload,
		Protocol: oracle.ProtocolPayload,
		Body:     []byte(payload),
	}
}
