package config

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConfig(t *testing.T, values map[string]any) *koanf.Koanf {
	t.Helper()

	k := koanf.New(".")
	for key, value := range values {
		require.NoError(t, k.Set(key, value))
	}

	return k
}

func TestFallbackHelpers(t *testing.T) {
	k := newConfig(t, map[string]any{
		"NAME":         "engage",
		"EMPTY":        "",
		"TTL":          "30m",
		"BAD_TTL":      "soon",
		"NEGATIVE_TTL": "-1m",
		"LIMIT":        15,
		"ZERO_LIMIT":   0,
		"STRING_INT":   "7",
	})

	assert.Equal(t, "engage", StringOr(k, "NAME", "fallback"))
	assert.Equal(t, "fallback", StringOr(k, "EMPTY", "fallback"))
	assert.Equal(t, "fallback", StringOr(k, "MISSING", "fallback"))

	assert.Equal(t, 30*time.Minute, DurationOr(k, "TTL", time.Second))
	assert.Equal(t, time.Second, DurationOr(k, "BAD_TTL", time.Second))
	assert.Equal(t, time.Second, DurationOr(k, "NEGATIVE_TTL", time.Second))
	assert.Equal(t, time.Second, DurationOr(k, "MISSING", time.Second))

	assert.Equal(t, 15, IntOr(k, "LIMIT", 3))
	assert.Equal(t, 7, IntOr(k, "STRING_INT", 3))
	assert.Equal(t, 3, IntOr(k, "ZERO_LIMIT", 3))
	assert.Equal(t, 3, IntOr(k, "MISSING", 3))
}

func TestLoadObservabilityConfig(t *testing.T) {
	defaults := LoadObservabilityConfig(newConfig(t, nil))
	assert.Empty(t, defaults.OtelEndpoint)
	assert.Equal(t, "virdanengage", defaults.ServiceName)
	assert.Equal(t, "development", defaults.Environment)
	assert.True(t, defaults.Insecure)
	assert.Equal(t, 1.0, defaults.SampleRatio)

	configured := LoadObservabilityConfig(newConfig(t, map[string]any{
		"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4318",
		"OTEL_EXPORTER_OTLP_INSECURE": false,
		"OTEL_SAMPLE_RATIO":           0.25,
		"OTEL_SERVICE_NAME":           "engage-bff",
		"ENVIRONMENT":                 "production",
	}))
	assert.Equal(t, "collector:4318", configured.OtelEndpoint)
	assert.False(t, configured.Insecure)
	assert.Equal(t, 0.25, configured.SampleRatio)
	assert.Equal(t, "engage-bff", configured.ServiceName)
	assert.Equal(t, "production", configured.Environment)
}

func TestNewSecureCookieUsesConfiguredKeys(t *testing.T) {
	hashKey := securecookie.GenerateRandomKey(64)
	blockKey := securecookie.GenerateRandomKey(32)

	k := newConfig(t, map[string]any{
		"SESSION_HASH_KEY":  hex.EncodeToString(hashKey),
		"SESSION_BLOCK_KEY": hex.EncodeToString(blockKey),
	})

	encoded, err := NewSecureCookie(k, zap.NewNop()).Encode("virdan_session", "session-1")
	require.NoError(t, err)

	// A second codec built from the same keys reads the cookie back
	var decoded string
	require.NoError(t, NewSecureCookie(k, zap.NewNop()).Decode("virdan_session", encoded, &decoded))
	assert.Equal(t, "session-1", decoded)
}

func TestNewSecureCookieEphemeralKeysDiffer(t *testing.T) {
	k := newConfig(t, nil)

	encoded, err := NewSecureCookie(k, zap.NewNop()).Encode("virdan_session", "session-1")
	require.NoError(t, err)

	var decoded string
	assert.Error(t, NewSecureCookie(k, zap.NewNop()).Decode("virdan_session", encoded, &decoded))
}

func TestNewZapLevels(t *testing.T) {
	assert.True(t, NewZap("debug").Core().Enabled(zap.DebugLevel))
	assert.False(t, NewZap("warn").Core().Enabled(zap.InfoLevel))
	assert.False(t, NewZap(strings.ToUpper("nonsense")).Core().Enabled(zap.DebugLevel))
	assert.True(t, NewZap("").Core().Enabled(zap.InfoLevel))
}
