package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the on-disk locations used by the daemon.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Feed names one RSS/Atom source.
type Feed struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Fetch controls feed polling and page downloads.
type Fetch struct {
	UserAgent       string `toml:"user_agent"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxItemsPerFeed int    `toml:"max_items_per_feed"`
	Concurrency     int    `toml:"concurrency"`
}

// LLM contains the shared generative-text connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Clean configures the cleaning stage.
type Clean struct {
	Model           string `toml:"model"`
	Prompt          string `toml:"prompt"`
	MaxInputChars   int    `toml:"max_input_chars"`
	BatchSize       int    `toml:"batch_size"`
	CooldownSeconds int    `toml:"cooldown_seconds"`
}

// Summarize configures the summarizing stage.
type Summarize struct {
	Model           string `toml:"model"`
	Prompt          string `toml:"prompt"`
	MaxInputChars   int    `toml:"max_input_chars"`
	MaxItemsPerRun  int    `toml:"max_items_per_run"`
	BatchSize       int    `toml:"batch_size"`
	CooldownSeconds int    `toml:"cooldown_seconds"`
}

// Select configures the selection stage.
type Select struct {
	Model         string `toml:"model"`
	Prompt        string `toml:"prompt"`
	WindowHours   int    `toml:"window_hours"`
	MaxCandidates int    `toml:"max_candidates"`
}

// Generate configures post generation.
type Generate struct {
	Model         string `toml:"model"`
	Prompt        string `toml:"prompt"`
	MaxInputChars int    `toml:"max_input_chars"`
}

// Publish configures delivery of generated posts.
type Publish struct {
	Enabled         bool `toml:"enabled"`
	BatchSize       int  `toml:"batch_size"`
	CooldownSeconds int  `toml:"cooldown_seconds"`
}

// Telegram contains the Bot API delivery settings.
type Telegram struct {
	BotToken              string `toml:"bot_token"`
	ChannelID             string `toml:"channel_id"`
	ParseMode             string `toml:"parse_mode"`
	DisableWebPagePreview bool   `toml:"disable_web_page_preview"`
	BaseURL               string `toml:"base_url"`
}

// Workflow controls the pipeline runner cadence.
type Workflow struct {
	CycleInterval   int `toml:"cycle_interval"`
	StageErrorPause int `toml:"stage_error_pause"`
}

// API controls the optional HTTP status endpoint.
type API struct {
	Bind string `toml:"bind"`
	// Token, when set, is required as a bearer token on every request.
	Token string `toml:"token"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains logging configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// RetentionDays prunes per-run log files older than this; 0 keeps them all.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for pressline.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Feeds         []Feed        `toml:"feeds"`
	Fetch         Fetch         `toml:"fetch"`
	LLM           LLM           `toml:"llm"`
	Clean         Clean         `toml:"clean"`
	Summarize     Summarize     `toml:"summarize"`
	Select        Select        `toml:"select"`
	Generate      Generate      `toml:"generate"`
	Publish       Publish       `toml:"publish"`
	Telegram      Telegram      `toml:"telegram"`
	Workflow      Workflow      `toml:"workflow"`
	API           API           `toml:"api"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// Load reads configuration from disk, applies defaults, and validates the result.
// It returns the config, the resolved path, and whether the file exists.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		raw, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		decoder := toml.NewDecoder(bytes.NewReader(expandEnvPlaceholders(raw)))
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("pressline.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// DefaultConfigPath returns the per-user config location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pressline/config.toml")
}

// EnsureDirectories creates the data, document, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.DocumentsDir(), c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath is the work store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "pressline.db")
}

// DocumentsDir is the root of the document store.
func (c *Config) DocumentsDir() string {
	return filepath.Join(c.Paths.DataDir, "documents")
}

// LockPath is the single-instance lock file for the daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "pressline.lock")
}

const redactedSecret = "<redacted>"

// Redacted returns a copy with API keys and tokens masked, for display.
// Unset secrets stay empty so "missing" remains visible.
func (c *Config) Redacted() Config {
	out := *c
	out.Feeds = append([]Feed(nil), c.Feeds...)
	for _, secret := range []*string{&out.LLM.APIKey, &out.Telegram.BotToken, &out.API.Token} {
		if strings.TrimSpace(*secret) != "" {
			*secret = redactedSecret
		}
	}
	return out
}

// CycleInterval returns the pause between pipeline cycles.
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.Workflow.CycleInterval) * time.Second
}

// StageErrorPause returns the pause applied after a stage-level failure.
func (c *Config) StageErrorPause() time.Duration {
	return time.Duration(c.Workflow.StageErrorPause) * time.Second
}

// LLMConfig contains the resolved connection settings for one stage.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the shared LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

// StageLLM returns the LLM settings for the named stage. The stage model
// falls back to [llm].model when not set.
func (c *Config) StageLLM(stage string) LLMConfig {
	cfg := c.GetLLM()
	var model string
	switch stage {
	case "cleaning":
		model = c.Clean.Model
	case "summarizing":
		model = c.Summarize.Model
	case "selection":
		model = c.Select.Model
	case "generation":
		model = c.Generate.Model
	}
	if model = strings.TrimSpace(model); model != "" {
		cfg.Model = model
	}
	return cfg
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
