// Package oracle implements the response classifier (C3): a pure function
// from a probe outcome (and optional pattern) to a Classification.
package oracle

import (
	"strings"
	"unicode/utf8"
)

// Classification is the three-way verdict assigned to every probe outcome:
// vulnerable, false_positive, or error. An implicit fourth state, "filtered"
// (no response), is mapped to Error by the probe layer before it ever
// reaches the oracle.
type Classification string

const (
	Vulnerable    Classification = "vulnerable"
	FalsePositive Classification = "false_positive"
	Error         Classification = "error"
)

// Protocol identifies which success gate Classify applies.
type Protocol string

const (
	ProtocolHTTP    Protocol = "http"
	ProtocolHTTPURL Protocol = "http-url"
	ProtocolFTP     Protocol = "ftp"
	ProtocolTFTP    Protocol = "tftp"
	ProtocolPayload Protocol = "payload"
)

// Outcome is the minimal shape Classify needs from a probe result — a
// subset of probe.Outcome so this package stays free of an import cycle.
type Outcome struct {
	Protocol    Protocol
	Err         error
	StatusCode  int    // HTTP/HTTP-URL
	FTPPermErr  bool   // FTP: RETR failed with a 5xx permission error
	TFTPOpcode  int    // TFTP: 3 = DATA, 5 = ERROR
	TFTPErrCode int    // TFTP: error code when Opcode == ERROR
	Body        []byte // response/preview bytes, any protocol
}

// Options tunes oracle behavior for rules that are opt-in rather than
// default.
type Options struct {
	// TFTPAccessViolationIsVulnerable enables an extra TFTP rule: error code
	// 2 (access violation) implies the file exists but is guarded, which
	// the operator may choose to treat as a hit. Default false.
	TFTPAccessViolationIsVulnerable bool
}

// Result carries the classification plus, when a pattern was matched, a
// ±50-byte excerpt around the first match.
type Result struct {
	Classification Classification
	MatchedExcerpt string
}

const (
	tftpOpcodeData         = 3
	tftpOpcodeError        = 5
	tftpErrAccessViolation = 2
)

// Classify applies five ordered rules: transport error, protocol-specific
// success gate, empty pattern, pattern match, pattern miss.
func Classify(o Outcome, pattern string, opts Options) Result {
	if o.Err != nil {
		return Result{Classification: Error}
	}

	if !successGate(o, opts) {
		return Result{Classification: Error}
	}

	if pattern == "" {
		return Result{Classification: Vulnerable}
	}

	body := string(o.Body)
	// Go strings already tolerate invalid UTF-8 byte sequences in
	// comparisons, so ToValidUTF8 just normalizes mojibake for the excerpt
	// without changing match semantics.
	decoded := strings.ToValidUTF8(body, string(utf8.RuneError))

	if idx := strings.Index(decoded, pattern); idx >= 0 {
		start := idx - 50
		if start < 0 {
			start = 0
		}
		end := idx + len(pattern) + 50
		if end > len(decoded) {
			end = len(decoded)
		}
		return Result{Classification: Vulnerable, MatchedExcerpt: decoded[start:end]}
	}

	return Result{Classification: FalsePositive}
}

// successGate implements the protocol-specific "did the server actually
// serve something" check, plus the opt-in TFTP access-violation rule.
func successGate(o Outcome, opts Options) bool {
	switch o.Protocol {
	case ProtocolHTTP, ProtocolHTTPURL:
		return o.StatusCode == 200
	case ProtocolFTP:
		return !o.FTPPermErr
	case ProtocolTFTP:
		if o.TFTPOpcode == tftpOpcodeData {
			return true
		}
		if opts.TFTPAccessViolationIsVulnerable &&
			o.TFTPOpcode == tftpOpcodeError && o.TFTPErrCode == tftpErrAccessViolation {
			return true
		}
		return false
	case ProtocolPayload:
		return len(o.Body) > 0
	default:
		return false
	}
}
