// Package feeds is the feed and download collaborator: it reads RSS/Atom
// feeds and downloads article pages as UTF-8 HTML.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"

	"pressline/internal/config"
	"pressline/internal/services"
)

const (
	defaultTimeout  = 15 * time.Second
	maxPageBytes    = 10 << 20
	strippedTagList = "script, style, noscript, svg, iframe, template"
)

// Entry is one candidate item read from a feed.
type Entry struct {
	Title       string
	URL         string
	SourceName  string
	PublishedAt time.Time
}

// Page is a downloaded article.
type Page struct {
	URL   string
	Title string
	HTML  string
}

// Client reads feeds and downloads pages.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxItems   int
}

// NewClient builds a client from the [fetch] config section.
func NewClient(cfg config.Fetch) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		maxItems:   cfg.MaxItemsPerFeed,
	}
}

// Entries parses a feed and returns at most the configured number of
// entries, in feed order. Entries without a link are dropped.
func (c *Client) Entries(ctx context.Context, feed config.Feed) ([]Entry, error) {
	parser := gofeed.NewParser()
	parser.Client = c.httpClient
	if c.userAgent != "" {
		parser.UserAgent = c.userAgent
	}
	parsed, err := parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "fetching", "parse feed", feed.URL, err)
	}

	source := strings.TrimSpace(feed.Name)
	if source == "" {
		source = strings.TrimSpace(parsed.Title)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if c.maxItems > 0 && len(entries) >= c.maxItems {
			break
		}
		if item == nil {
			continue
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		entry := Entry{
			Title:      strings.TrimSpace(item.Title),
			URL:        link,
			SourceName: source,
		}
		switch {
		case item.PublishedParsed != nil:
			entry.PublishedAt = item.PublishedParsed.UTC()
		case item.UpdatedParsed != nil:
			entry.PublishedAt = item.UpdatedParsed.UTC()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Download fetches pageURL, decodes it to UTF-8 and strips elements that
// never carry article text.
func (c *Client) Download(ctx context.Context, pageURL string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			return Page{}, services.Wrap(services.ErrRateLimit, "fetching", "download", resp.Status, nil)
		}
		return Page{}, fmt.Errorf("server returned %s", resp.Status)
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, maxPageBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return Page{}, fmt.Errorf("decode charset: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return Page{}, fmt.Errorf("parse document: %w", err)
	}

	page := Page{URL: pageURL, Title: pageTitle(doc)}
	doc.Find(strippedTagList).Remove()
	html, err := doc.Html()
	if err != nil {
		return Page{}, fmt.Errorf("render document: %w", err)
	}
	page.HTML = html
	if strings.TrimSpace(doc.Text()) == "" {
		return page, errors.New("page has no text content")
	}
	return page, nil
}

func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if title := strings.TrimSpace(og); title != "" {
			return title
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
