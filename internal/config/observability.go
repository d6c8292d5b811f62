package config

import (
	"github.com/ferdian3456/virdanengage/internal/observability"
	"github.com/knadh/koanf/v2"
)

const defaultServiceName = "virdanengage"

func LoadObservabilityConfig(config *koanf.Koanf) observability.Config {
	insecure := true
	if config.Exists("OTEL_EXPORTER_OTLP_INSECURE") {
		insecure = config.Bool("OTEL_EXPORTER_OTLP_INSECURE")
	}

	sampleRatio := 1.0
	if config.Exists("OTEL_SAMPLE_RATIO") {
		sampleRatio = config.Float64("OTEL_SAMPLE_RATIO")
	}

	return observability.Config{
		OtelEndpoint: config.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelHeaders:  config.String("OTEL_EXPORTER_OTLP_HEADERS"),
		Insecure:     insecure,
		SampleRatio:  sampleRatio,
		ServiceName:  StringOr(config, "OTEL_SERVICE_NAME", defaultServiceName),
		Environment:  StringOr(config, "ENVIRONMENT", "development"),
	}
}
