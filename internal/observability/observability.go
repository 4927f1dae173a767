// Package observability configures the process-wide slog default handler.
//
// Three export modes: plain text or JSON to stderr (the default for
// interactive use), and an OpenTelemetry log bridge for environments that
// collect agent logs centrally (stdout exporter for debugging, OTLP over
// http or grpc for collectors).
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
)

const instrumentationName = "envgate"

// Options select the log handler, its level, and the optional export path.
type Options struct {
	Level    slog.Level
	Format   string // text|json, used when Exporter is "none"
	Exporter string // none|stdout|otlp
	Protocol string // http|grpc, used when Exporter is "otlp"
	Endpoint string // collector endpoint, used when Exporter is "otlp"
}

// Instrument installs the process-wide slog default handler and returns a
// shutdown function that flushes any buffered export pipeline.
func Instrument(ctx context.Context, opts Options) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if opts.Exporter == "" || opts.Exporter == "none" {
		handlerOpts := &slog.HandlerOptions{Level: opts.Level}
		var handler slog.Handler
		switch opts.Format {
		case "json":
			handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
		default:
			handler = slog.NewTextHandler(os.Stderr, handlerOpts)
		}
		slog.SetDefault(slog.New(handler))
		return noop, nil
	}

	exporter, err := newExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(minsev.NewLogProcessor(
			sdklog.NewBatchProcessor(exporter),
			severityFor(opts.Level),
		)),
		sdklog.WithResource(resource.NewSchemaless(
			attribute.String("service.name", instrumentationName),
		)),
	)

	slog.SetDefault(otelslog.NewLogger(instrumentationName, otelslog.WithLoggerProvider(provider)))
	return provider.Shutdown, nil
}

// newExporter builds the configured exporter.
func newExporter(ctx context.Context, opts Options) (sdklog.Exporter, error) {
	switch opts.Exporter {
	case "stdout":
		return stdoutlog.New()
	case "otlp":
		if opts.Protocol == "grpc" {
			return otlploggrpc.New(ctx, otlploggrpc.WithEndpointURL(opts.Endpoint))
		}
		return otlploghttp.New(ctx, otlploghttp.WithEndpointURL(opts.Endpoint))
	default:
		return nil, fmt.Errorf("unsupported exporter %q", opts.Exporter)
	}
}

// severityFor maps slog levels onto the minimum-severity filter.
func severityFor(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
