package generator

import (
	"reflect"
	"strings"
	"testing"
)

func mustGenerate(t *testing.T, p Params) []string {
	t.Helper()
	out, err := Generate(p)
	if err != nil {
		t.Fatalf("Generate(%+v) returned error: %v", p, err)
	}
	return out
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func containsPrefix(list []string, prefix string) bool {
	for _, v := range list {
		if strings.HasPrefix(v, prefix) {
			return true
		}
	}
	return false
}

func containsSubstring(list []string, sub string) bool {
	for _, v := range list {
		if strings.Contains(v, sub) {
			return true
		}
	}
	return false
}

// S1
func TestSimpleUnixIncludesExpectedDepths(t *testing.T) {
	out := mustGenerate(t, Params{OS: OSUnix, Depth: 3, Method: MethodSimple, TargetFile: "/etc/passwd"})
	if !containsString(out, "../../../etc/passwd") {
		t.Error("missing ../../../etc/passwd")
	}
	if !containsString(out, "../etc/passwd") {
		t.Error("missing ../etc/passwd")
	}
}

// S2
func TestSimpleWindowsBootIni(t *testing.T) {
	out := mustGenerate(t, Params{OS: OSWindows, Depth: 2, Method: MethodSimple, TargetFile: "boot.ini"})
	if !containsString(out, "..\\..\\boot.ini") {
		t.Errorf("missing ..\\..\\boot.ini, got sample: %v", out[:min(5, len(out))])
	}
}

// S3
func TestAnyIncludesOverlongUTF8Prefix(t *testing.T) {
	out := mustGenerate(t, Params{OS: OSUnix, Depth: 3, Method: MethodAny, TargetFile: "/etc/passwd"})
	if !containsPrefix(out, "%c0%ae%c0%ae") {
		t.Error("expected at least one payload starting with %c0%ae%c0%ae")
	}
}

// S4
func TestNonRecursiveContainsTripleEncodedBase(t *testing.T) {
	out := mustGenerate(t, Params{OS: OSUnix, Depth: 3, Method: MethodNonRecursive, TargetFile: "/etc/passwd"})
	if !containsSubstring(out, "..%252f..%252f..%252f") {
		t.Error("expected ..%252f..%252f..%252f substring somewhere in output")
	}
}

// S5
func TestNullByteEndsWithPNG(t *testing.T) {
	out := mustGenerate(t, Params{OS: OSUnix, Depth: 3, Method: MethodNullByte, TargetFile: "/etc/passwd"})
	found := false
	for _, v := range out {
		if strings.HasSuffix(v, "%00.png") {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected at least one payload ending in %00.png")
	}
}

// Property 1: determinism
func TestDeterminism(t *testing.T) {
	p := Params{OS: OSGeneric, Depth: 4, Method: MethodAny, ExtraFiles: true}
	a := mustGenerate(t, p)
	b := mustGenerate(t, p)
	if !reflect.DeepEqual(a, b) {
		t.Error("Generate is not deterministic across identical invocations")
	}
}

// Property 2: uniqueness
func TestUniqueness(t *testing.T) {
	out := mustGenerate(t, Params{OS: OSGeneric, Depth: 5, Method: MethodAny, ExtraFiles: true})
	seen := make(map[string]struct{}, len(out))
	for _, v := range out {
		if _, ok := seen[v]; ok {
			t.Fatalf("duplicate payload found: %q", v)
		}
		seen[v] = struct{}{}
	}
}

// Property 3: non-empty
func TestNonEmptyForEveryMethod(t *testing.T) {
	methods := []DetectionMethod{
		MethodSimple, MethodURLEncoding, MethodNonRecursive,
		MethodAbsolutePath, MethodPathValidation, MethodNullByte, MethodAny,
	}
	for _, m := range methods {
		out := mustGenerate(t, Params{OS: OSUnix, Depth: 2, Method: m, TargetFile: "/etc/passwd"})
		if len(out) == 0 {
			t.Errorf("method %s produced zero payloads", m)
		}
	}
}

// Property 4: monotone in depth for simple/url_encoding
func TestMonotoneInDepth(t *testing.T) {
	for _, m := range []DetectionMethod{MethodSimple, MethodURLEncoding} {
		small := mustGenerate(t, Params{OS: OSUnix, Depth: 2, Method: m, TargetFile: "/etc/passwd"})
		big := mustGenerate(t, Params{OS: OSUnix, Depth: 3, Method: m, TargetFile: "/etc/passwd"})
		bigSet := make(map[string]struct{}, len(big))
		for _, v := range big {
			bigSet[v] = struct{}{}
		}
		for _, v := range small {
			if _, ok := bigSet[v]; !ok {
				t.Errorf("method %s: depth=3 output missing %q present at depth=2", m, v)
			}
		}
	}
}

// Property 5: target-file normalization
func TestTargetFileNormalization(t *testing.T) {
	out := mustGenerate(t, Params{OS: OSUnix, Depth: 2, Method: MethodSimple, TargetFile: "/etc/passwd"})
	for _, v := range out {
		idx := strings.Index(v, "etc/passwd")
		if idx < 0 {
			continue
		}
		prefixPart := v[:idx]
		targetPart := v[idx:]
		if strings.Contains(targetPart, "//") {
			t.Errorf("payload %q has doubled separator in target portion", v)
		}
		_ = prefixPart
	}
}

// Property 6: scale
func TestScaleExceedsOneThousand(t *testing.T) {
	out := mustGenerate(t, Params{OS: OSUnix, Depth: 6, Method: MethodAny, TargetFile: "/etc/passwd"})
	if len(out) <= 1000 {
		t.Errorf("expected >1000 payloads, got %d", len(out))
	}
}

// Property 10: round trip
func TestRoundTripViaLines(t *testing.T) {
	out := mustGenerate(t, Params{OS: OSUnix, Depth: 2, Method: MethodSimple, TargetFile: "/etc/passwd"})
	joined := strings.Join(out, "\n")
	roundTripped := strings.Split(joined, "\n")
	if !reflect.DeepEqual(out, roundTripped) {
		t.Error("round trip through newline-joined text did not reproduce the sequence")
	}
}

func TestInvalidDepthRejected(t *testing.T) {
	_, err := Generate(Params{OS: OSUnix, Depth: 0, Method: MethodSimple, TargetFile: "/etc/passwd"})
	if err == nil {
		t.Fatal("expected error for depth=0")
	}
	_, err = Generate(Params{OS: OSUnix, Depth: 51, Method: MethodSimple, TargetFile: "/etc/passwd"})
	if err == nil {
		t.Fatal("expected error for depth=51")
	}
}

func TestBisectionDepthOnlyEmitsExactRepetition(t *testing.T) {
	depth := 4
	out := mustGenerate(t, Params{OS: OSUnix, Depth: 10, Method: MethodSimple, TargetFile: "/etc/passwd", BisectionDepth: &depth})
	want := strings.Repeat("../", 4) + "etc/passwd"
	if !containsString(out, want) {
		t.Errorf("expected %q in bisection-depth output", want)
	}
	notWant := strings.Repeat("../", 1) + "etc/passwd"
	if containsString(out, notWant) {
		t.Errorf("did not expect %q when bisection depth pins exact repetition", notWant)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
