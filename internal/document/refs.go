package document

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"pressline/internal/textutil"
)

const (
	sourceSlugLen = 20
	titleSlugLen  = 50
)

// Subject carries the item fields that name and describe a document.
type Subject struct {
	ItemID      int64
	Title       string
	SourceName  string
	SourceURL   string
	PublishedAt time.Time
	CreatedAt   time.Time
}

// CleanedRef names the cleaned document for an item. The name only depends
// on immutable item fields, so a retried write lands on the same file.
func CleanedRef(s Subject) string {
	return dirCleaned + "/" + baseName(s) + ".md"
}

// PostRef names the generated post document for an item.
func PostRef(s Subject) string {
	return dirPosts + "/" + baseName(s) + ".md"
}

// RawRef names the raw download for a source URL.
func RawRef(sourceURL string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(sourceURL)))
	return dirRaw + "/" + hex.EncodeToString(sum[:8]) + ".json"
}

func baseName(s Subject) string {
	stamp := s.CreatedAt.UTC().Format("20060102150405")
	parts := []string{stamp, fmt.Sprintf("%d", s.ItemID)}
	if src := textutil.Slug(s.SourceName, sourceSlugLen); src != "" {
		parts = append(parts, src)
	}
	if title := textutil.Slug(s.Title, titleSlugLen); title != "" {
		parts = append(parts, title)
	}
	return strings.Join(parts, "_")
}

// NewMetadata fills the mirrored item fields of a front matter block.
func NewMetadata(s Subject, kind, status string) Metadata {
	meta := Metadata{
		ItemID:     s.ItemID,
		Kind:       kind,
		Title:      s.Title,
		SourceName: s.SourceName,
		SourceURL:  s.SourceURL,
		Status:     status,
	}
	if !s.PublishedAt.IsZero() {
		meta.PublicationTime = s.PublishedAt.UTC().Format(time.RFC3339)
	}
	return meta
}

// RawPage is a downloaded page as stored by the fetch stage.
type RawPage struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	RawHTML string `json:"raw_html"`
}

// WriteRaw stores a downloaded page at ref.
func (s *Store) WriteRaw(ref string, page RawPage) error {
	p, err := s.Path(ref)
	if err != nil {
		return err
	}
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode raw page: %w", err)
	}
	if err := writeAtomic(p, data); err != nil {
		return fmt.Errorf("write raw page %s: %w", ref, err)
	}
	return nil
}

// ReadRaw loads a downloaded page.
func (s *Store) ReadRaw(ref string) (RawPage, error) {
	p, err := s.Path(ref)
	if err != nil {
		return RawPage{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawPage{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return RawPage{}, fmt.Errorf("read raw page %s: %w", ref, err)
	}
	var page RawPage
	if err := json.Unmarshal(data, &page); err != nil {
		return RawPage{}, fmt.Errorf("decode raw page %s: %w", ref, err)
	}
	return page, nil
}
