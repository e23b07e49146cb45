// Package telemetry sets up the OpenTelemetry meter provider the monitor
// records tick metrics on.
package telemetry

import (
	"context"
	"fmt"

	"github.com/alexanderramin/vigil/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serviceName    = "vigil"
	serviceVersion = "1.0.0"
)

// Provider owns the meter provider for one process.
type Provider struct {
	provider *sdkmetric.MeterProvider
	exported bool
}

// New builds a Provider. With an OTLP endpoint configured, metrics are
// pushed to it over gRPC; otherwise they stay in process and are dropped on
// shutdown. extra readers (tests use a ManualReader) are attached either way.
func New(ctx context.Context, cfg config.Telemetry, extra ...sdkmetric.Reader) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range extra {
		opts = append(opts, sdkmetric.WithReader(r))
	}

	exported := false
	if cfg.OTLPEndpoint != "" {
		expOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			expOpts = append(expOpts,
				otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
				otlpmetricgrpc.WithInsecure(),
			)
		}
		exp, err := otlpmetricgrpc.New(ctx, expOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
		exported = true
	}

	provider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)
	return &Provider{provider: provider, exported: exported}, nil
}

// Meter returns the monitor's meter.
func (p *Provider) Meter() metric.Meter {
	return p.provider.Meter(serviceName)
}

// Exported reports whether metrics leave the process.
func (p *Provider) Exported() bool { return p.exported }

// Close flushes pending metrics and stops the exporter.
func (p *Provider) Close(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}
