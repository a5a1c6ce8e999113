package main

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "pos-service"

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
}

func initTracer(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	otel.SetTracerProvider(tp)

	return tp, nil
}

func initMetrics(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	return mp, nil
}

// SalesMetrics agrupa os contadores do registro de vendas
type SalesMetrics struct {
	salesRegistered metric.Int64Counter
	unitsSold       metric.Int64Counter
	salesClamped    metric.Int64Counter
}

// NewSalesMetrics cria os contadores no meter informado
func NewSalesMetrics(meter metric.Meter) (*SalesMetrics, error) {
	registered, err := meter.Int64Counter("pos.sales.registered",
		metric.WithDescription("Sales records created by batch registration"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sales counter: %w", err)
	}

	units, err := meter.Int64Counter("pos.units.sold",
		metric.WithDescription("Units removed from stock by sales"),
		metric.WithUnit("{unit}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create units counter: %w", err)
	}

	clamped, err := meter.Int64Counter("pos.sales.clamped",
		metric.WithDescription("Sales whose requested quantity was reduced to the available stock"))
	if err != nil {
		return nil, fmt.Errorf("failed to create clamped counter: %w", err)
	}

	return &SalesMetrics{
		salesRegistered: registered,
		unitsSold:       units,
		salesClamped:    clamped,
	}, nil
}

func (m *SalesMetrics) recordSale(ctx context.Context, sale *Sale, clamped bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("product_id", sale.ProductID))
	m.salesRegistered.Add(ctx, 1, attrs)
	m.unitsSold.Add(ctx, int64(sale.Quantity), attrs)
	if clamped {
		m.salesClamped.Add(ctx, 1, attrs)
	}
}

// startProductSpan cria um span para uma operação sobre um produto
func startProductSpan(ctx context.Context, tracer trace.Tracer, operationName, productID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, operationName)
	span.SetAttributes(
		attribute.String("product_id", productID),
		attribute.String("component", "pos-store"),
	)
	return ctx, span
}
