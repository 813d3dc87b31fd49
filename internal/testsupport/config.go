package testsupport

import (
	"path/filepath"
	"testing"

	"pressline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Cooldowns and pauses are zeroed so batch tests do not sleep.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.LLM.APIKey = "test-key"
	cfgVal.LLM.BaseURL = "http://127.0.0.1:1"
	cfgVal.LLM.TimeoutSeconds = 5
	cfgVal.Clean.CooldownSeconds = 0
	cfgVal.Summarize.CooldownSeconds = 0
	cfgVal.Publish.CooldownSeconds = 0
	cfgVal.Workflow.StageErrorPause = 0
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithLLMBaseURL points the generative-text client at a test server.
func WithLLMBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = url
	}
}

// WithTelegram enables publishing against a test Bot API server.
func WithTelegram(baseURL, channel string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.Enabled = true
		b.cfg.Telegram.BaseURL = baseURL
		b.cfg.Telegram.BotToken = "test-token"
		b.cfg.Telegram.ChannelID = channel
	}
}

// WithFeeds replaces the configured feed list.
func WithFeeds(urls ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Feeds = b.cfg.Feeds[:0]
		for _, u := range urls {
			b.cfg.Feeds = append(b.cfg.Feeds, config.Feed{Name: "Test Feed", URL: u})
		}
	}
}

// WithBatchSize sets the clean, summarize, and publish batch sizes.
func WithBatchSize(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Clean.BatchSize = n
		b.cfg.Summarize.BatchSize = n
		b.cfg.Publish.BatchSize = n
	}
}

// WithConfig applies an arbitrary mutation.
func WithConfig(fn func(*config.Config)) ConfigOption {
	return func(b *configBuilder) {
		fn(b.cfg)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
