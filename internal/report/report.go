// Package report writes a ScanResult to one of five named report formats.
// Text and JSON are implemented here; CSV/XML/HTML are treated as external
// collaborators and stubbed so a caller gets a clear error rather than a
// silent no-op.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nanragav/pathbreach/internal/bisect"
	"github.com/nanragav/pathbreach/internal/scanconfig"
)

// Format selects the report writer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatHTML Format = "html"
)

// ErrUnsupportedFormat is returned by Write for formats this repo does not
// implement — csv/xml/html are left to external report collaborators.
var ErrUnsupportedFormat = fmt.Errorf("report: unsupported format")

// Write renders result to w in the requested format.
func Write(w io.Writer, result *scanconfig.ScanResult, format Format, quiet bool) error {
	switch format {
	case FormatText, "":
		return writeText(w, result, quiet)
	case FormatJSON:
		return writeJSON(w, result)
	case FormatCSV, FormatXML, FormatHTML:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func writeJSON(w io.Writer, result *scanconfig.ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// writeText prints one line per vulnerability, with a pattern-analysis
// detail line beneath each, then (unless quiet) a summary of the other
// buckets.
func writeText(w io.Writer, result *scanconfig.ScanResult, quiet bool) error {
	for _, v := range result.Vulnerabilities {
		if _, err := fmt.Fprintf(w, "VULNERABLE  %s\n", v.Payload); err != nil {
			return err
		}
		analysis := bisect.AnalyzePattern(v.Payload)
		detail := fmt.Sprintf("            family=%s depth~=%d encoded=%v null_byte=%v",
			analysis.Family, analysis.EstimatedDepth, analysis.UsesEncoding, analysis.UsesNullByte)
		if v.BisectedDepth != nil {
			detail += fmt.Sprintf(" bisected_depth=%d", *v.BisectedDepth)
		}
		if v.MatchedExcerpt != "" {
			detail += fmt.Sprintf(" excerpt=%q", v.MatchedExcerpt)
		}
		if _, err := fmt.Fprintln(w, detail); err != nil {
			return err
		}
	}

	if quiet {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\n%d tests, %d vulnerable, %d false positives, %d errors, %s\n",
		result.TotalTests, len(result.Vulnerabilities), len(result.FalsePositives), len(result.Errors), result.Duration,
	); err != nil {
		return err
	}

	for _, e := range result.Errors {
		if _, err := fmt.Fprintf(w, "ERROR       %s  %s: %s\n", e.Payload, e.Kind, e.Message); err != nil {
			return err
		}
	}

	if result.Cancelled {
		_, err := fmt.Fprintln(w, "scan was cancelled before completion")
		return err
	}

	return nil
}
