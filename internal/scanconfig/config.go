// Package scanconfig holds the configuration and result record types shared
// by the fuzzing driver, the protocol probes, and the report writers.
package scanconfig

import (
	"time"

	"github.com/nanragav/pathbreach/internal/generator"
	"github.com/nanragav/pathbreach/internal/perrors"
)

// Protocol selects which probe implementation a scan uses.
type Protocol string

const (
	ProtocolHTTP    Protocol = "http"
	ProtocolHTTPURL Protocol = "http-url"
	ProtocolFTP     Protocol = "ftp"
	ProtocolTFTP    Protocol = "tftp"
	ProtocolPayload Protocol = "payload"
	ProtocolStdout  Protocol = "stdout"
)

// Credentials holds FTP (or other authenticated-protocol) login details.
type Credentials struct {
	Username string
	Password string
}

// ScanConfig is the full set of inputs to the fuzzing driver.
type ScanConfig struct {
	Protocol  Protocol
	Host      string
	Port      int
	SSL       bool
	Method    string // HTTP method, when Protocol == ProtocolHTTP
	URL       string // URL template, when Protocol == ProtocolHTTPURL or ProtocolPayload

	OS              generator.OSType
	DetectionMethod generator.DetectionMethod
	Depth           int
	TargetFile      string
	ExtraFiles      bool
	Extension       string
	Pattern         string

	UserAgents []string
	Delay      time.Duration
	Timeout    time.Duration

	BreakOnFirst     bool
	ContinueOnError  bool
	Bisection        bool
	Credentials      *Credentials
	PayloadTemplate  string // raw-socket template containing the TRAVERSAL token
	HTTPParallelism  int    // bounded concurrency cap for HTTP probes; 0 = serial
}

// Validate performs the InvalidConfig checks the driver must run before any
// I/O takes place: depth bounds, protocol-specific requirements, and the
// HTTP-URL "pattern is mandatory" rule from the oracle design.
func (c ScanConfig) Validate() error {
	if c.Depth < 1 || c.Depth > 50 {
		return perrors.Newf(perrors.CodeInvalidConfig, "depth must be in [1,50], got %d", c.Depth)
	}
	if c.Host == "" && c.Protocol != ProtocolStdout {
		return perrors.New(perrors.CodeInvalidConfig, "host is required")
	}
	switch c.Protocol {
	case ProtocolHTTPURL:
		if c.Pattern == "" {
			return perrors.New(perrors.CodeOracleUndecided, "http-url scans require --pattern: 200 responses are the rule, not the exception")
		}
		if c.URL == "" {
			return perrors.New(perrors.CodeInvalidConfig, "http-url scans require --url containing the TRAVERSAL token")
		}
	case ProtocolPayload:
		if c.PayloadTemplate == "" {
			return perrors.New(perrors.CodeInvalidConfig, "payload scans require a template containing the TRAVERSAL token")
		}
	case ProtocolHTTP, ProtocolFTP, ProtocolTFTP, ProtocolStdout:
		// no extra requirements
	default:
		return perrors.Newf(perrors.CodeInvalidConfig, "unknown protocol %q", c.Protocol)
	}
	return nil
}

// Vulnerability is one confirmed hit, optionally carrying a bisected depth.
type Vulnerability struct {
	Payload           string        `json:"payload"`
	EndpointRendering string        `json:"endpoint_rendering"`
	MatchedExcerpt    string        `json:"matched_excerpt,omitempty"`
	Status            int          `json:"status"`
	Elapsed           time.Duration `json:"elapsed"`
	BisectedDepth     *int          `json:"bisected_depth,omitempty"`
}

// ScanError records one per-payload failure that did not propagate out of
// the driver.
type ScanError struct {
	Payload  string `json:"payload"`
	Endpoint string `json:"endpoint"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// ScanResult aggregates one full driver run.
type ScanResult struct {
	TotalTests      int             `json:"total_tests"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	FalsePositives  []Vulnerability `json:"false_positives"`
	Errors          []ScanError     `json:"errors"`
	Duration        time.Duration   `json:"duration"`
	Cancelled       bool            `json:"cancelled"`
}
