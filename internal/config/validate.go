package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFeeds(); err != nil {
		return err
	}
	if err := c.validatePositive(); err != nil {
		return err
	}
	if err := c.validatePrompts(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFeeds() error {
	for i, feed := range c.Feeds {
		parsed, err := url.Parse(feed.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("feeds[%d].url must be an http(s) URL, got %q", i, feed.URL)
		}
	}
	return nil
}

func (c *Config) validatePositive() error {
	checks := []struct {
		key   string
		value int
	}{
		{"fetch.timeout_seconds", c.Fetch.TimeoutSeconds},
		{"fetch.max_items_per_feed", c.Fetch.MaxItemsPerFeed},
		{"fetch.concurrency", c.Fetch.Concurrency},
		{"clean.max_input_chars", c.Clean.MaxInputChars},
		{"clean.batch_size", c.Clean.BatchSize},
		{"summarize.max_input_chars", c.Summarize.MaxInputChars},
		{"summarize.batch_size", c.Summarize.BatchSize},
		{"select.window_hours", c.Select.WindowHours},
		{"select.max_candidates", c.Select.MaxCandidates},
		{"generate.max_input_chars", c.Generate.MaxInputChars},
		{"publish.batch_size", c.Publish.BatchSize},
		{"workflow.cycle_interval", c.Workflow.CycleInterval},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be positive", check.key)
		}
	}
	nonNegative := []struct {
		key   string
		value int
	}{
		{"clean.cooldown_seconds", c.Clean.CooldownSeconds},
		{"summarize.cooldown_seconds", c.Summarize.CooldownSeconds},
		{"publish.cooldown_seconds", c.Publish.CooldownSeconds},
		{"workflow.stage_error_pause", c.Workflow.StageErrorPause},
		{"logging.retention_days", c.Logging.RetentionDays},
	}
	for _, check := range nonNegative {
		if check.value < 0 {
			return fmt.Errorf("%s must be >= 0", check.key)
		}
	}
	return nil
}

func (c *Config) validatePrompts() error {
	required := []struct {
		key          string
		prompt       string
		placeholders []string
	}{
		{"clean.prompt", c.Clean.Prompt, []string{PlaceholderRawHTML}},
		{"summarize.prompt", c.Summarize.Prompt, []string{PlaceholderCleanedText}},
		{"select.prompt", c.Select.Prompt, []string{PlaceholderSummariesBlock}},
		{"generate.prompt", c.Generate.Prompt, []string{PlaceholderText}},
	}
	for _, entry := range required {
		for _, placeholder := range entry.placeholders {
			if !strings.Contains(entry.prompt, placeholder) {
				return fmt.Errorf("%s must contain the %s placeholder", entry.key, placeholder)
			}
		}
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	if c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token must be set when publish.enabled is true (or set TELEGRAM_BOT_TOKEN)")
	}
	if c.Telegram.ChannelID == "" {
		return errors.New("telegram.channel_id must be set when publish.enabled is true")
	}
	return nil
}
