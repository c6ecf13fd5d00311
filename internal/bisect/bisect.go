// Package bisect implements the bisection engine (C6): binary search over a
// depth range using a caller-supplied single-payload tester to find the
// minimum traversal depth that triggers a vulnerable classification.
package bisect

import (
	"context"
	"strings"
	"time"

	"github.com/nanragav/pathbreach/internal/generator"
)

// Tester decides whether a single payload is vulnerable. Errors are
// conservatively treated as "not vulnerable at this payload" by FindMinimumDepth.
type Tester func(ctx context.Context, payload string) (vulnerable bool, err error)

// Params selects which generator family bisection re-invokes at each
// candidate depth.
type Params struct {
	OS         generator.OSType
	Method     generator.DetectionMethod
	TargetFile string
	ExtraFiles bool
	Extension  string
}

// FindMinimumDepth runs a binary search over [lo,hi]: at each candidate
// mid-depth it regenerates payloads pinned to that exact depth and asks
// tester whether any of them is vulnerable. It never widens [lo,hi] and
// halts at the smallest depth for which the oracle reports vulnerable, or
// reports not found if no depth in the range works.
func FindMinimumDepth(ctx context.Context, tester Tester, p Params, lo, hi int, delay time.Duration) (depth int, found bool) {
	for lo <= hi {
		select {
		case <-ctx.Done():
			return 0, false
		default:
		}

		mid := (lo + hi) / 2

		vulnerable, err := anyVulnerableAtDepth(ctx, tester, p, mid, delay)
		if err != nil {
			// Conservative failure semantics: a generation error at this
			// depth is treated as "not vulnerable here".
			lo = mid + 1
			continue
		}

		if vulnerable {
			depth = mid
			found = true
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return depth, found
}

func anyVulnerableAtDepth(ctx context.Context, tester Tester, p Params, depth int, delay time.Duration) (bool, error) {
	payloads, err := generator.Generate(generator.Params{
		OS:             p.OS,
		Depth:          depth,
		Method:         p.Method,
		TargetFile:     p.TargetFile,
		ExtraFiles:     p.ExtraFiles,
		Extension:      p.Extension,
		BisectionDepth: &depth,
	})
	if err != nil {
		return false, err
	}

	for i, payload := range payloads {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(delay):
			}
		}

		vulnerable, terr := tester(ctx, payload)
		if terr != nil {
			// One tester error does not abandon the whole depth; keep
			// trying the remaining payloads at this depth before giving up.
			continue
		}
		if vulnerable {
			return true, nil
		}
	}
	return false, nil
}

// PatternAnalysis is the supplemented per-hit detail the text report writer
// attaches to a confirmed vulnerability: an estimate of the traversal depth
// and which encoding family the payload belongs to.
type PatternAnalysis struct {
	EstimatedDepth int
	Family         string
	UsesEncoding   bool
	UsesNullByte   bool
}

// AnalyzePattern inspects a single vulnerable payload and reports a rough
// depth estimate and encoding family, annotating a hit for the operator.
func AnalyzePattern(payload string) PatternAnalysis {
	a := PatternAnalysis{
		UsesEncoding: strings.Contains(payload, "%"),
		UsesNullByte: strings.Contains(payload, "%00") || strings.Contains(payload, "\x00"),
	}

	switch {
	case strings.Contains(payload, "%252f") || strings.Contains(payload, "%255c"):
		a.Family = "non_recursive_or_double_encoded"
	case strings.Contains(payload, "....//") || strings.Contains(payload, "....\\\\"):
		a.Family = "non_recursive"
	case strings.HasPrefix(payload, "/") || strings.HasPrefix(payload, "\\") || hasDriveLetterPrefix(payload):
		a.Family = "absolute_path"
	case a.UsesEncoding:
		a.Family = "url_encoding"
	default:
		a.Family = "simple"
	}

	a.EstimatedDepth = estimateDepth(payload)
	return a
}

func hasDriveLetterPrefix(s string) bool {
	return len(s) >= 2 && s[1] == ':' && ((s[0] >= 'a' && s[0] <= 'z') || (s[0] >= 'A' && s[0] <= 'Z'))
}

// estimateDepth counts occurrences of the common traversal tokens as a rough
// proxy for how many directory levels a payload climbs.
func estimateDepth(payload string) int {
	count := strings.Count(payload, "../")
	count += strings.Count(payload, "..\\")
	count += strings.Count(payload, "%2e%2e%2f")
	count += strings.Count(payload, "%2e%2e/")
	if count == 0 && strings.Contains(payload, "..") {
		count = strings.Count(payload, "..")
	}
	return count
}
