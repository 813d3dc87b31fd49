// Package telegram delivers generated posts to a channel through the Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pressline/internal/config"
	"pressline/internal/services"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 15 * time.Second
	// maxMessageRunes is the Bot API limit for sendMessage text.
	maxMessageRunes = 4096
)

// Client sends messages via the Bot API.
type Client struct {
	baseURL        string
	botToken       string
	parseMode      string
	disablePreview bool
	httpClient     *http.Client
}

// NewClient builds a client from the [telegram] config section.
func NewClient(cfg config.Telegram) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		baseURL:        base,
		botToken:       strings.TrimSpace(cfg.BotToken),
		parseMode:      strings.TrimSpace(cfg.ParseMode),
		disablePreview: cfg.DisableWebPagePreview,
		httpClient:     &http.Client{Timeout: defaultTimeout},
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send posts text to chatID. Text longer than the Bot API limit is cut at a
// rune boundary.
func (c *Client) Send(ctx context.Context, chatID, text string) error {
	if c.botToken == "" || strings.TrimSpace(chatID) == "" {
		return services.Wrap(services.ErrConfiguration, "publishing", "telegram send", "bot token and channel id are required", nil)
	}
	if strings.TrimSpace(text) == "" {
		return services.Wrap(services.ErrEmptyResult, "publishing", "telegram send", "message text is empty", nil)
	}
	if runes := []rune(text); len(runes) > maxMessageRunes {
		text = string(runes[:maxMessageRunes])
	}

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	if c.parseMode != "" {
		form.Set("parse_mode", c.parseMode)
	}
	if c.disablePreview {
		form.Set("disable_web_page_preview", "true")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the bot token, so only the underlying cause is kept.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return services.Wrap(services.ErrTransient, "publishing", "telegram send", "request failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var parsed apiResponse
	_ = json.Unmarshal(body, &parsed)
	if resp.StatusCode == http.StatusOK && parsed.OK {
		return nil
	}

	detail := strings.TrimSpace(parsed.Description)
	if detail == "" {
		detail = resp.Status
	}
	if resp.StatusCode == http.StatusTooManyRequests || parsed.ErrorCode == http.StatusTooManyRequests {
		if parsed.Parameters != nil && parsed.Parameters.RetryAfter > 0 {
			detail += " (retry after " + strconv.Itoa(parsed.Parameters.RetryAfter) + "s)"
		}
		return services.Wrap(services.ErrRateLimit, "publishing", "telegram send", detail, nil)
	}
	return services.Wrap(services.ErrExternalTool, "publishing", "telegram send",
		fmt.Sprintf("http %d: %s", resp.StatusCode, detail), nil)
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c.botToken != ""
}
