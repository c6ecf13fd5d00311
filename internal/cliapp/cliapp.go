// Package cliapp wires the two command-line subcommands onto an
// orpheus.App: "generate", which streams the payload generator's output,
// and "main", which runs a full protocol scan through internal/driver.
package cliapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/agilira/orpheus/pkg/orpheus"

	"github.com/nanragav/pathbreach/internal/driver"
	"github.com/nanragav/pathbreach/internal/generator"
	"github.com/nanragav/pathbreach/internal/probe"
	"github.com/nanragav/pathbreach/internal/report"
	"github.com/nanragav/pathbreach/internal/scanconfig"
)

// New builds the pathbreach orpheus.App. ctx governs cancellation of the
// "main" scan (wired to OS signals by cmd/pathbreach); logger receives
// structured progress and error records.
func New(ctx context.Context, logger *slog.Logger) *orpheus.App {
	app := orpheus.New("pathbreach").
		SetDescription("directory traversal payload generator and fuzzing driver").
		SetVersion("0.1.0")

	app.AddCommand(generateCommand())
	app.AddCommand(mainCommand(ctx, logger))
	app.SetDefaultCommand("main")

	return app
}

func generateCommand() *orpheus.Command {
	cmd := orpheus.NewCommand("generate", "emit the traversal payload sequence to stdout").
		AddFlag("os-type", "", "unix", "target OS: windows, unix, or generic").
		AddIntFlag("depth", "", 6, "maximum traversal depth [1..50]").
		AddFlag("method", "", "simple", "detection method: simple, absolute_path, non_recursive, url_encoding, path_validation, null_byte, any").
		AddFlag("file", "", "", "target file to append after the traversal prefix").
		AddBoolFlag("extra-files", "", false, "include the built-in extra target file list").
		AddFlag("extension", "", "", "fake extension to append, e.g. %00 or .jpg").
		AddIntFlag("bisection-depth", "", 0, "pin generation to a single exact depth (0 = full range)").
		AddFlag("output-file", "", "", "write payloads here instead of stdout")

	cmd.SetHandler(func(ctx *orpheus.Context) error {
		params := generator.Params{
			OS:         generator.OSType(ctx.GetFlagString("os-type")),
			Depth:      ctx.GetFlagInt("depth"),
			Method:     generator.DetectionMethod(ctx.GetFlagString("method")),
			TargetFile: ctx.GetFlagString("file"),
			ExtraFiles: ctx.GetFlagBool("extra-files"),
			Extension:  ctx.GetFlagString("extension"),
		}
		if bd := ctx.GetFlagInt("bisection-depth"); bd > 0 {
			params.BisectionDepth = &bd
		}

		payloads, err := generator.Generate(params)
		if err != nil {
			return orpheus.ValidationError("generate", err.Error())
		}

		out, closeFn, err := openOutput(ctx.GetFlagString("output-file"))
		if err != nil {
			return orpheus.ExecutionError("generate", err.Error())
		}
		defer closeFn()

		for _, p := range payloads {
			if _, err := fmt.Fprintln(out, p); err != nil {
				return orpheus.ExecutionError("generate", err.Error())
			}
		}
		return nil
	})

	return cmd
}

func mainCommand(ctx context.Context, logger *slog.Logger) *orpheus.Command {
	cmd := orpheus.NewCommand("main", "run a full directory traversal scan against a target").
		AddFlag("module", "m", "http", "protocol module: http, http-url, ftp, tftp, payload, stdout").
		AddFlag("host", "", "", "target host").
		AddIntFlag("port", "", 0, "target port (0 = protocol default)").
		AddBoolFlag("ssl", "", false, "use TLS (http/payload modules)").
		AddFlag("method", "", "GET", "HTTP method: GET,POST,HEAD,PUT,DELETE,COPY,MOVE").
		AddFlag("detection-method", "", "simple", "generator detection method").
		AddFlag("url", "", "", "URL template containing the TRAVERSAL token (http-url module)").
		AddFlag("file", "", "/etc/passwd", "target file to retrieve").
		AddFlag("pattern", "", "", "success pattern to match in the response body").
		AddIntFlag("depth", "", 6, "maximum traversal depth [1..50]").
		AddFlag("os-type", "", "unix", "target OS: windows, unix, or generic").
		AddFloat64Flag("delay", "", 0, "delay between requests in seconds [0..60]").
		AddBoolFlag("break-on-first", "", false, "stop at the first confirmed vulnerability").
		AddBoolFlag("continue-on-error", "", true, "keep scanning past per-payload transport errors").
		AddBoolFlag("quiet", "", false, "print only vulnerable payloads").
		AddBoolFlag("extra-files", "", false, "include the built-in extra target file list").
		AddFlag("extension", "", "", "fake extension to append").
		AddFlag("username", "", "", "FTP username (default anonymous)").
		AddFlag("password", "", "", "FTP password (default dot@dot.pwn)").
		AddFlag("payload", "", "", "path to a raw-socket template file containing TRAVERSAL").
		AddBoolFlag("bisection", "", false, "bisect each confirmed hit down to its minimum depth").
		AddFlag("report", "", "", "write a report to this path instead of stdout").
		AddFlag("format", "", "text", "report format: text, json, csv, xml, html")

	cmd.SetHandler(func(oc *orpheus.Context) error {
		cfg, err := buildScanConfig(oc)
		if err != nil {
			return orpheus.ValidationError("main", err.Error())
		}

		prober, err := selectProber(cfg, logger)
		if err != nil {
			return orpheus.ValidationError("main", err.Error())
		}

		quiet := oc.GetFlagBool("quiet")
		var progress driver.ProgressFunc
		if !quiet {
			progress = func(index, total int, payload string) {
				fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", index, total, payload)
			}
		}

		result, runErr := driver.Run(ctx, cfg, prober, progress, logger)
		if result == nil {
			return orpheus.ExecutionError("main", runErr.Error())
		}

		out, closeFn, openErr := openOutput(oc.GetFlagString("report"))
		if openErr != nil {
			return orpheus.ExecutionError("main", openErr.Error())
		}
		defer closeFn()

		if writeErr := report.Write(out, result, report.Format(oc.GetFlagString("format")), quiet); writeErr != nil {
			return orpheus.ExecutionError("main", writeErr.Error())
		}

		if runErr != nil {
			return orpheus.ExecutionError("main", runErr.Error())
		}
		return nil
	})

	return cmd
}

func buildScanConfig(oc *orpheus.Context) (scanconfig.ScanConfig, error) {
	cfg := scanconfig.ScanConfig{
		Protocol:        scanconfig.Protocol(oc.GetFlagString("module")),
		Host:            oc.GetFlagString("host"),
		Port:            oc.GetFlagInt("port"),
		SSL:             oc.GetFlagBool("ssl"),
		Method:          oc.GetFlagString("method"),
		URL:             oc.GetFlagString("url"),
		OS:              generator.OSType(oc.GetFlagString("os-type")),
		DetectionMethod: generator.DetectionMethod(oc.GetFlagString("detection-method")),
		Depth:           oc.GetFlagInt("depth"),
		TargetFile:      oc.GetFlagString("file"),
		ExtraFiles:      oc.GetFlagBool("extra-files"),
		Extension:       oc.GetFlagString("extension"),
		Pattern:         oc.GetFlagString("pattern"),
		Delay:           time.Duration(oc.GetFlagFloat64("delay") * float64(time.Second)),
		Timeout:         10 * time.Second,
		BreakOnFirst:    oc.GetFlagBool("break-on-first"),
		ContinueOnError: oc.GetFlagBool("continue-on-error"),
		Bisection:       oc.GetFlagBool("bisection"),
		HTTPParallelism: 10,
	}

	if u := oc.GetFlagString("username"); u != "" {
		cfg.Credentials = &scanconfig.Credentials{Username: u, Password: oc.GetFlagString("password")}
	}

	if path := oc.GetFlagString("payload"); path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading --payload file: %w", err)
		}
		cfg.PayloadTemplate = string(contents)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func selectProber(cfg scanconfig.ScanConfig, logger *slog.Logger) (probe.Prober, error) {
	switch cfg.Protocol {
	case scanconfig.ProtocolHTTP:
		scheme := "http"
		if cfg.SSL {
			scheme = "https"
		}
		port := cfg.Port
		if port == 0 {
			if cfg.SSL {
				port = 443
			} else {
				port = 80
			}
		}
		return probe.NewHTTPProber(probe.HTTPConfig{
			Scheme: scheme, Host: cfg.Host, Port: port, Method: cfg.Method,
			Timeout: cfg.Timeout, Parallelism: cfg.HTTPParallelism,
		}), nil
	case scanconfig.ProtocolHTTPURL:
		p, err := probe.NewHTTPURLProber(probe.HTTPURLConfig{URLTemplate: cfg.URL, Timeout: cfg.Timeout})
		return p, err
	case scanconfig.ProtocolFTP:
		port := cfg.Port
		if port == 0 {
			port = 21
		}
		var creds probe.FTPCredentials
		if cfg.Credentials != nil {
			creds = probe.FTPCredentials{Username: cfg.Credentials.Username, Password: cfg.Credentials.Password}
		}
		return probe.NewFTPProber(probe.FTPConfig{Host: cfg.Host, Port: port, Credentials: creds, Timeout: cfg.Timeout}), nil
	case scanconfig.ProtocolTFTP:
		port := cfg.Port
		if port == 0 {
			port = 69
		}
		return probe.NewTFTPProber(probe.TFTPConfig{Host: cfg.Host, Port: port, Timeout: cfg.Timeout}), nil
	case scanconfig.ProtocolPayload:
		port := cfg.Port
		if port == 0 {
			port = 80
		}
		return probe.NewPayloadProber(probe.PayloadConfig{
			Host: cfg.Host, Port: port, SSL: cfg.SSL, Template: cfg.PayloadTemplate,
			Timeout: cfg.Timeout, Logger: logger,
		}), nil
	case scanconfig.ProtocolStdout:
		return probe.NewStdoutProber(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown module %q", cfg.Protocol)
	}
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// ExitCode maps an orpheus error (or nil) to the process exit code
// described in the external interfaces contract: 0 success, 1
// configuration/fatal error, 130 user cancellation.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if strings.Contains(strings.ToLower(err.Error()), "cancelled") {
		return 130
	}
	if oe, ok := err.(*orpheus.OrpheusError); ok {
		return oe.ExitCode()
	}
	return 1
}
