// Package generation writes the channel post for the selected item.
//
// The post is a new document, separate from the cleaned document, that
// points back at the item and its cleaned text. The cleaned document is not
// modified.
package generation
