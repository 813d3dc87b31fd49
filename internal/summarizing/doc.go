// Package summarizing adds a summary to every cleaned document.
//
// The summary is merged into the cleaned document's front matter in place;
// no new document is created. The document is rewritten before the item
// advances to summarized.
package summarizing
