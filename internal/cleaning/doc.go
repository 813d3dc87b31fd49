// Package cleaning turns downloaded pages into cleaned article text.
//
// The stage reads each raw_fetched item's raw page, asks the generative-text
// collaborator to extract the article body from a size-capped copy of the
// HTML, writes the cleaned document, and only then advances the item to
// cleaned. Empty extractions are soft failures.
package cleaning
