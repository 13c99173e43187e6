package testsupport

import (
	"path/filepath"
	"testing"

	"arrmate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Radarr.Enabled = true
	cfgVal.Radarr.URL = "http://127.0.0.1:7878"
	cfgVal.Radarr.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithService points one service section at a live test server URL.
func WithService(origin, url, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		service := config.Service{Enabled: true, URL: url, APIKey: apiKey}
		switch origin {
		case "radarr":
			b.cfg.Radarr = service
		case "sonarr":
			b.cfg.Sonarr = service
		default:
			b.t.Fatalf("unknown service origin %q", origin)
		}
	}
}

// WithRadarrDisabled turns the default radarr section off.
func WithRadarrDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Radarr.Enabled = false
	}
}

// WithNtfyTopic enables notifications against a test endpoint.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
		b.cfg.Notifications.Summary = true
		b.cfg.Notifications.Escalations = true
		b.cfg.Notifications.Errors = true
	}
}
