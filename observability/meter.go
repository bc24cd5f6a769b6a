package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/tabletool/logger"
)

// MeterName is the instrumentation scope of tabletool metrics.
const MeterName = "github.com/kbukum/tabletool"

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval. A run flushes on shutdown
	// regardless.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "production",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.WithComponent("observability").Debug("meter initialized", logger.Fields(
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments a pipeline run reports to. A nil *Metrics
// records nothing.
type Metrics struct {
	rowsTotal         metric.Int64Counter
	materializedTotal metric.Int64Counter
	runTotal          metric.Int64Counter
	runDuration       metric.Float64Histogram
	errorTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	rowsTotal, err := meter.Int64Counter("tabletool.rows",
		metric.WithDescription("Rows produced, by operator"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tabletool.rows counter: %w", err)
	}

	materializedTotal, err := meter.Int64Counter("tabletool.materialized.rows",
		metric.WithDescription("Rows held in memory by materializing phases"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tabletool.materialized.rows counter: %w", err)
	}

	runTotal, err := meter.Int64Counter("tabletool.runs",
		metric.WithDescription("Pipeline runs, by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tabletool.runs counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("tabletool.run.duration",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tabletool.run.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("tabletool.errors",
		metric.WithDescription("Errors by code and operator"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tabletool.errors counter: %w", err)
	}

	return &Metrics{
		rowsTotal:         rowsTotal,
		materializedTotal: materializedTotal,
		runTotal:          runTotal,
		runDuration:       runDuration,
		errorTotal:        errorTotal,
	}, nil
}

// RecordRows adds n rows produced by operator.
func (m *Metrics) RecordRows(ctx context.Context, operator string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.rowsTotal.Add(ctx, n, metric.WithAttributes(attribute.String(AttrOperator, operator)))
}

// RecordMaterialized adds n rows held by a materializing phase.
func (m *Metrics) RecordMaterialized(ctx context.Context, operator, phase string, n int64) {
	if m == nil {
		return
	}
	m.materializedTotal.Add(ctx, n, metric.WithAttributes(
		attribute.String(AttrOperator, operator),
		attribute.String(AttrPhase, phase),
	))
}

// RecordRun records a completed run.
func (m *Metrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
	m.runDuration.Record(ctx, duration.Seconds())
}

// RecordError records an error by code and operator.
func (m *Metrics) RecordError(ctx context.Context, code, operator string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrErrorCode, code),
		attribute.String(AttrOperator, operator),
	))
}
