// Package document is the side-car document store. Each work item gets a
// Markdown file with a YAML front matter block once it has been cleaned, and
// a second, independent file once a post has been generated. Raw downloads
// are kept as small JSON files so the clean stage can read them back.
//
// Refs are slash-separated paths relative to the store root ("cleaned/x.md")
// and are what the work store persists. Writes go through a temp file and a
// rename, so a reader sees either the old document or the new one.
package document
