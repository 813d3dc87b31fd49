package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pressline/internal/config"
)

// ErrNotFound is returned when a ref does not name an existing document.
var ErrNotFound = errors.New("document not found")

const (
	dirCleaned = "cleaned"
	dirPosts   = "posts"
	dirRaw     = "raw"

	delimiter = "---"
)

// Kinds recorded in Metadata.Kind.
const (
	KindCleaned = "cleaned"
	KindPost    = "post"
)

// Metadata is the front matter block of a document.
type Metadata struct {
	ItemID          int64  `yaml:"item_id"`
	Kind            string `yaml:"kind"`
	Title           string `yaml:"title"`
	SourceName      string `yaml:"source_name,omitempty"`
	SourceURL       string `yaml:"source_url"`
	PublicationTime string `yaml:"publication_time,omitempty"`
	Status          string `yaml:"status"`
	Summary         string `yaml:"summary,omitempty"`
	CleanedRef      string `yaml:"cleaned_ref,omitempty"`
}

// Record is a parsed document.
type Record struct {
	Meta Metadata
	Body string
}

// Store reads and writes documents under a root directory.
type Store struct {
	root string
}

// Open prepares a document store rooted at dir.
func Open(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("document root is required")
	}
	for _, sub := range []string{dirCleaned, dirPosts, dirRaw} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", sub, err)
		}
	}
	return &Store{root: dir}, nil
}

// OpenFromConfig opens the store under the configured data directory.
func OpenFromConfig(cfg *config.Config) (*Store, error) {
	return Open(cfg.DocumentsDir())
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// Path resolves a ref to an absolute file path.
func (s *Store) Path(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty document ref")
	}
	clean := path.Clean(ref)
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("document ref %q escapes the store root", ref)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Read parses the document at ref.
func (s *Store) Read(ref string) (Record, error) {
	p, err := s.Path(ref)
	if err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return Record{}, fmt.Errorf("read document %s: %w", ref, err)
	}
	rec, err := Parse(data)
	if err != nil {
		return Record{}, fmt.Errorf("parse document %s: %w", ref, err)
	}
	return rec, nil
}

// Write creates or overwrites the document at ref.
func (s *Store) Write(ref string, rec Record) error {
	p, err := s.Path(ref)
	if err != nil {
		return err
	}
	data, err := Format(rec)
	if err != nil {
		return fmt.Errorf("format document %s: %w", ref, err)
	}
	if err := writeAtomic(p, data); err != nil {
		return fmt.Errorf("write document %s: %w", ref, err)
	}
	return nil
}

// Exists reports whether a document is present at ref.
func (s *Store) Exists(ref string) bool {
	p, err := s.Path(ref)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Format renders a record as front matter followed by the body.
func Format(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rec.Meta); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString(delimiter + "\n")
	buf.WriteString(rec.Body)
	return buf.Bytes(), nil
}

// Parse splits data into front matter and body.
func Parse(data []byte) (Record, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, delimiter+"\n") {
		return Record{}, errors.New("missing front matter")
	}
	rest := text[len(delimiter)+1:]
	var header, body string
	switch {
	case strings.HasPrefix(rest, delimiter+"\n"):
		body = rest[len(delimiter)+1:]
	default:
		idx := strings.Index(rest, "\n"+delimiter+"\n")
		if idx < 0 {
			if !strings.HasSuffix(rest, "\n"+delimiter) {
				return Record{}, errors.New("unterminated front matter")
			}
			idx = len(rest) - len(delimiter) - 1
			header = rest[:idx]
		} else {
			header = rest[:idx]
			body = rest[idx+len(delimiter)+2:]
		}
	}

	var rec Record
	if err := yaml.Unmarshal([]byte(header), &rec.Meta); err != nil {
		return Record{}, fmt.Errorf("decode front matter: %w", err)
	}
	rec.Body = body
	return rec, nil
}

func writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return err
	}
	return nil
}
