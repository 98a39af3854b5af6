package metrics

import (
	"context"
	"fmt"
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
	translateRequests metric.Int64Counter
	translatedChars   metric.Int64Counter
	quotaDenials      metric.Int64Counter
	providerRequests  metric.Int64Counter
	providerLatency   metric.Float64Histogram
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
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "linguameter"
	}
	meter := provider.Meter(name)

	translateRequests, err := meter.Int64Counter("linguameter_translate_requests_total")
	if err != nil {
		return nil, err
	}
	translatedChars, err := meter.Int64Counter("linguameter_translated_chars_total")
	if err != nil {
		return nil, err
	}
	quotaDenials, err := meter.Int64Counter("linguameter_quota_denials_total")
	if err != nil {
		return nil, err
	}
	providerRequests, err := meter.Int64Counter("linguameter_provider_requests_total")
	if err != nil {
		return nil, err
	}
	providerLatency, err := meter.Float64Histogram("linguameter_provider_request_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		translateRequests: translateRequests,
		translatedChars:   translatedChars,
		quotaDenials:      quotaDenials,
		providerRequests:  providerRequests,
		providerLatency:   providerLatency,
	}, nil
}

// RecordTranslateRequest counts translate operations by outcome.
func (m *Metrics) RecordTranslateRequest(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.translateRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTranslatedChars counts characters charged against the contingent.
func (m *Metrics) RecordTranslatedChars(ctx context.Context, chars int64) {
	if m == nil || chars <= 0 {
		return
	}
	m.translatedChars.Add(ctx, chars)
}

// RecordQuotaDenial counts policy denials by reason.
func (m *Metrics) RecordQuotaDenial(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.quotaDenials.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordProviderRequest counts provider calls and their latency.
func (m *Metrics) RecordProviderRequest(ctx context.Context, statusCode int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status_code", fmt.Sprintf("%d", statusCode)))
	m.providerRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.providerLatency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
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

var allowedLabelKeys = map[attribute.Key]struct{}{
	"outcome":     {},
	"reason":      {},
	"status_code": {},
	"target_lang": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
