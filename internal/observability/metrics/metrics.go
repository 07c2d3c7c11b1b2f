package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	registrations      metric.Int64Counter
	teardownSteps      metric.Int64Counter
	sessionAPIRequests metric.Int64Counter
	qrPollAttempts     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "zapdash"
	}
	meter := provider.Meter(name)

	registrations, err := meter.Int64Counter("zapdash_registrations_total")
	if err != nil {
		return nil, err
	}
	teardownSteps, err := meter.Int64Counter("zapdash_teardown_steps_total")
	if err != nil {
		return nil, err
	}
	sessionAPIRequests, err := meter.Int64Counter("zapdash_session_api_requests_total")
	if err != nil {
		return nil, err
	}
	qrPollAttempts, err := meter.Int64Counter("zapdash_qr_poll_attempts_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registrations:      registrations,
		teardownSteps:      teardownSteps,
		sessionAPIRequests: sessionAPIRequests,
		qrPollAttempts:     qrPollAttempts,
	}, nil
}

// RecordRegistration increments registration counts by resolved role.
func (m *Metrics) RecordRegistration(ctx context.Context, role string) {
	if m == nil {
		return
	}
	m.registrations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("role", strings.TrimSpace(role)),
	))
}

// RecordTeardownStep increments teardown step counts.
func (m *Metrics) RecordTeardownStep(ctx context.Context, step, result string) {
	if m == nil {
		return
	}
	m.teardownSteps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", strings.TrimSpace(step)),
		attribute.String("result", strings.TrimSpace(result)),
	))
}

// RecordSessionAPIRequest increments external session API call counts.
func (m *Metrics) RecordSessionAPIRequest(ctx context.Context, operation string, statusCode int) {
	if m == nil {
		return
	}
	m.sessionAPIRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("status_code", strconv.Itoa(statusCode)),
	))
}

// RecordQRPollAttempt increments QR poll attempt counts.
func (m *Metrics) RecordQRPollAttempt(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.qrPollAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", strings.TrimSpace(result)),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
