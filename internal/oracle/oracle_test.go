package oracle

import (
	"errors"
	"strings"
	"testing"
)

// S6
func TestHTTPBodyMatchIsVulnerable(t *testing.T) {
	body := "daemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin\nroot:x:0:0:root:/root:/bin/bash\n"
	out := Classify(Outcome{
		Protocol:   ProtocolHTTP,
		StatusCode: 200,
		Body:       []byte(body),
	}, "root:", Options{})

	if out.Classification != Vulnerable {
		t.Fatalf("expected vulnerable, got %s", out.Classification)
	}
	if !strings.Contains(out.MatchedExcerpt, "root:") {
		t.Errorf("expected matched excerpt to contain %q, got %q", "root:", out.MatchedExcerpt)
	}
}

func TestErrorOutcomeIsError(t *testing.T) {
	out := Classify(Outcome{Protocol: ProtocolHTTP, Err: errors.New("boom")}, "root:", Options{})
	if out.Classification != Error {
		t.Fatalf("expected error, got %s", out.Classification)
	}
}

func TestNon200IsError(t *testing.T) {
	out := Classify(Outcome{Protocol: ProtocolHTTP, StatusCode: 404, Body: []byte("nope")}, "root:", Options{})
	if out.Classification != Error {
		t.Fatalf("expected error for 404, got %s", out.Classification)
	}
}

func TestEmptyPatternIsVulnerableOnSuccess(t *testing.T) {
	out := Classify(Outcome{Protocol: ProtocolHTTP, StatusCode: 200, Body: []byte("anything")}, "", Options{})
	if out.Classification != Vulnerable {
		t.Fatalf("expected vulnerable with empty pattern, got %s", out.Classification)
	}
}

func TestPatternAbsentIsFalsePositive(t *testing.T) {
	out := Classify(Outcome{Protocol: ProtocolHTTP, StatusCode: 200, Body: []byte("nothing interesting here")}, "root:", Options{})
	if out.Classification != FalsePositive {
		t.Fatalf("expected false_positive, got %s", out.Classification)
	}
}

func TestFTPPermissionDeniedIsError(t *testing.T) {
	out := Classify(Outcome{Protocol: ProtocolFTP, FTPPermErr: true}, "", Options{})
	if out.Classification != Error {
		t.Fatalf("expected error for FTP permission denial, got %s", out.Classification)
	}
}

func TestFTPRetrSuccessIsVulnerable(t *testing.T) {
	out := Classify(Outcome{Protocol: ProtocolFTP, FTPPermErr: false, Body: []byte("root:x:0:0")}, "root:", Options{})
	if out.Classification != Vulnerable {
		t.Fatalf("expected vulnerable, got %s", out.Classification)
	}
}

func TestTFTPDataIsGate(t *testing.T) {
	out := Classify(Outcome{Protocol: ProtocolTFTP, TFTPOpcode: tftpOpcodeData, Body: []byte("root:x:0:0")}, "root:", Options{})
	if out.Classification != Vulnerable {
		t.Fatalf("expected vulnerable on TFTP DATA, got %s", out.Classification)
	}
}

func TestTFTPErrorWithoutOptInIsError(t *testing.T) {
	out := Classify(Outcome{Protocol: ProtocolTFTP, TFTPOpcode: tftpOpcodeError, TFTPErrCode: tftpErrAccessViolation}, "", Options{})
	if out.Classification != Error {
		t.Fatalf("expected error without opt-in, got %s", out.Classification)
	}
}

func TestTFTPAccessViolationOptIn(t *testing.T) {
	out := Classify(Outcome{Protocol: ProtocolTFTP, TFTPOpcode: tftpOpcodeError, TFTPErrCode: tftpErrAccessViolation}, "",
		Options{TFTPAccessViolationIsVulnerable: true})
	if out.Classification != Vulnerable {
		t.Fatalf("expected vulnerable with opt-in, got %s", out.Classification)
	}
}

func TestTFTPOtherErrorCodeStillError(t *testing.T) {
	out := Classify(Outcome{Protocol: ProtocolTFTP, TFTPOpcode: tftpOpcodeError, TFTPErrCode: 1}, "",
		Options{TFTPAccessViolationIsVulnerable: true})
	if out.Classification != Error {
		t.Fatalf("expected error for unrelated TFTP error code, got %s", out.Classification)
	}
}

func TestPayloadProtocolEmptyBodyIsError(t *testing.T) {
	out := Classify(Outcome{Protocol: ProtocolPayload, Body: nil}, "", Options{})
	if out.Classification != Error {
		t.Fatalf("expected error for empty payload response, got %s", out.Classification)
	}
}

func TestMatchedExcerptIsBounded(t *testing.T) {
	long := strings.Repeat("a", 200) + "root:" + strings.Repeat("b", 200)
	out := Classify(Outcome{Protocol: ProtocolHTTP, StatusCode: 200, Body: []byte(long)}, "root:", Options{})
	if out.Classification != Vulnerable {
		t.Fatalf("expected vulnerable, got %s", out.Classification)
	}
	if len(out.MatchedExcerpt) > 50+len("root:")+50 {
		t.Errorf("matched excerpt too long: %d bytes", len(out.MatchedExcerpt))
	}
}

// Property 7: oracle totality — every outcome maps to exactly one of the
// three classifications, never a zero value.
func TestOracleTotality(t *testing.T) {
	cases := []Outcome{
		{Protocol: ProtocolHTTP, Err: errors.New("x")},
		{Protocol: ProtocolHTTP, StatusCode: 500},
		{Protocol: ProtocolHTTP, StatusCode: 200, Body: []byte("irrelevant")},
		{Protocol: ProtocolFTP, FTPPermErr: true},
		{Protocol: ProtocolFTP, FTPPermErr: false, Body: []byte("x")},
		{Protocol: ProtocolTFTP, TFTPOpcode: tftpOpcodeError, TFTPErrCode: 0},
		{Protocol: ProtocolTFTP, TFTPOpcode: tftpOpcodeData, Body: []byte("x")},
		{Protocol: ProtocolPayload, Body: []byte("x")},
		{Protocol: ProtocolPayload},
		{Protocol: "unknown"},
	}
	valid := map[Classification]bool{Vulnerable: true, FalsePositive: true, Error: true}
	for i, c := range cases {
		out := Classify(c, "needle", Options{})
		if !valid[out.Classification] {
			t.Errorf("case %d: got invalid classification %q", i, out.Classification)
		}
	}
}
