// Package driver implements the fuzzing driver (C5): it iterates the
// generator's payload sequence, enforces the inter-request delay and
// short-circuits, sends each payload to the configured protocol probe,
// classifies the outcome, and aggregates results — optionally bisecting on
// the first hit.
package driver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nanragav/pathbreach/internal/bisect"
	"github.com/nanragav/pathbreach/internal/generator"
	"github.com/nanragav/pathbreach/internal/oracle"
	"github.com/nanragav/pathbreach/internal/perrors"
	"github.com/nanragav/pathbreach/internal/probe"
	"github.com/nanragav/pathbreach/internal/scanconfig"
)

// ProgressFunc is invoked after every classified payload with its 1-based
// index, the total payload count, and the payload itself.
type ProgressFunc func(index, total int, payload string)

// resultSink aggregates ScanResult buckets under a single mutex, favored
// here over channel fan-in for the same reason a mutex-guarded counter map
// beats one channel per bucket: readers never need a select loop.
type resultSink struct {
	mu sync.Mutex

	vulnerabilities []scanconfig.Vulnerability
	falsePositives  []scanconfig.Vulnerability
	errors          []scanconfig.ScanError
	total           int
}

func (s *resultSink) addVulnerable(v scanconfig.Vulnerability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vulnerabilities = append(s.vulnerabilities, v)
}

func (s *resultSink) addFalsePositive(v scanconfig.Vulnerability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.falsePositives = append(s.falsePositives, v)
}

func (s *resultSink) addError(e scanconfig.ScanError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, e)
}

func (s *resultSink) incrementTotal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
}

func (s *resultSink) snapshot() (vulns, fps []scanconfig.Vulnerability, errs []scanconfig.ScanError, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scanconfig.Vulnerability{}, s.vulnerabilities...),
		append([]scanconfig.Vulnerability{}, s.falsePositives...),
		append([]scanconfig.ScanError{}, s.errors...),
		s.total
}

// Run executes one fuzzing scan: it produces the generator sequence,
// delegates each payload to prober, classifies the outcome, and aggregates
// results. Bounded parallelism uses a semaphore for HTTP (suggested cap 10)
// and falls back to weight 1 (serial) for every other protocol, matching
// the concurrency model exactly.
func Run(ctx context.Context, cfg scanconfig.ScanConfig, prober probe.Prober, progress ProgressFunc, logger *slog.Logger) (*scanconfig.ScanResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	payloads, err := generator.Generate(generator.Params{
		OS:         cfg.OS,
		Depth:      cfg.Depth,
		Method:     cfg.DetectionMethod,
		TargetFile: cfg.TargetFile,
		ExtraFiles: cfg.ExtraFiles,
		Extension:  cfg.Extension,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sink := &resultSink{}
	total := len(payloads)

	parallelism := int64(1)
	if cfg.Protocol == scanconfig.ProtocolHTTP && cfg.HTTPParallelism > 1 {
		parallelism = int64(cfg.HTTPParallelism)
	}
	sem := semaphore.NewWeighted(parallelism)

	breakFlag := &atomicBool{}
	var wg sync.WaitGroup

	for i, payload := range payloads {
		if breakFlag.get() {
			break
		}
		select {
		case <-ctx.Done():
			breakFlag.set()
		default:
		}
		if breakFlag.get() {
			break
		}

		if cfg.Delay > 0 && i > 0 {
			select {
			case <-ctx.Done():
				breakFlag.set()
			case <-time.After(cfg.Delay):
			}
		}
		if breakFlag.get() {
			break
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			breakFlag.set()
			break
		}
		if breakFlag.get() {
			sem.Release(1)
			break
		}

		wg.Add(1)
		index := i + 1
		go func(payload string, index int) {
			defer wg.Done()
			defer sem.Release(1)

			outcome := prober.Probe(ctx, payload)
			sink.incrementTotal()

			result := oracle.Classify(outcome.ForOracle(), cfg.Pattern, oracle.Options{})

			switch result.Classification {
			case oracle.Vulnerable:
				vuln := scanconfig.Vulnerability{
					Payload:           payload,
					EndpointRendering: outcome.Endpoint,
					MatchedExcerpt:    result.MatchedExcerpt,
					Status:            outcome.StatusCode,
					Elapsed:           outcome.Elapsed,
				}
				if cfg.Bisection {
					vuln.BisectedDepth = bisectDepth(ctx, cfg, prober)
				}
				sink.addVulnerable(vuln)
				if cfg.BreakOnFirst {
					breakFlag.set()
				}
			case oracle.FalsePositive:
				sink.addFalsePositive(scanconfig.Vulnerability{
					Payload: payload, EndpointRendering: outcome.Endpoint,
					Status: outcome.StatusCode, Elapsed: outcome.Elapsed,
				})
			case oracle.Error:
				kind := "unknown"
				msg := ""
				isTransportErr := false
				if outcome.Err != nil {
					msg = outcome.Err.Error()
					if perr, ok := asPathbreachError(outcome.Err); ok {
						kind = string(perr.Code())
						switch perr.Code() {
						case perrors.CodeTransportRefused, perrors.CodeTransportTimeout, perrors.CodeTransportReset:
							isTransportErr = true
						}
					}
				}
				sink.addError(scanconfig.ScanError{
					Payload: payload, Endpoint: outcome.Endpoint, Kind: kind, Message: msg,
				})
				if !cfg.ContinueOnError && isTransportErr {
					breakFlag.set()
				}
			}

			if progress != nil {
				progress(index, total, payload)
			}
		}(payload, index)
	}

	wg.Wait()

	vulns, fps, errs, processed := sink.snapshot()
	result := &scanconfig.ScanResult{
		TotalTests:      processed,
		Vulnerabilities: vulns,
		FalsePositives:  fps,
		Errors:          errs,
		Duration:        time.Since(start),
		Cancelled:       ctxDone(ctx),
	}

	if logger != nil {
		logger.Info("scan complete",
			"total", result.TotalTests,
			"vulnerabilities", len(result.Vulnerabilities),
			"false_positives", len(result.FalsePositives),
			"errors", len(result.Errors),
			"cancelled", result.Cancelled,
		)
	}

	var runErr error
	if result.Cancelled {
		runErr = perrors.New(perrors.CodeCancelled, "scan cancelled before completion")
	}
	return result, runErr
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func bisectDepth(ctx context.Context, cfg scanconfig.ScanConfig, prober probe.Prober) *int {
	tester := func(ctx context.Context, payload string) (bool, error) {
		outcome := prober.Probe(ctx, payload)
		if outcome.Err != nil {
			return false, outcome.Err
		}
		result := oracle.Classify(outcome.ForOracle(), cfg.Pattern, oracle.Options{})
		return result.Classification == oracle.Vulnerable, nil
	}

	depth, found := bisect.FindMinimumDepth(ctx, tester, bisect.Params{
		OS:         cfg.OS,
		Method:     cfg.DetectionMethod,
		TargetFile: cfg.TargetFile,
		ExtraFiles: cfg.ExtraFiles,
		Extension:  cfg.Extension,
	}, 1, cfg.Depth, cfg.Delay)

	if !found {
		return nil
	}
	return &depth
}

func asPathbreachError(err error) (*perrors.Error, bool) {
	pe, ok := err.(*perrors.Error)
	return pe, ok
}

// atomicBool is a tiny mutex-guarded flag for the cooperative cancellation
// and break-on-first short-circuits.
type atomicBool struct {
	mu sync.Mutex
	v  bool
}

func (b *atomicBool) get() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.v
}

func (b *atomicBool) set() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.v = true
}
