// Package fetching discovers new items from the configured feeds and
// downloads their pages.
//
// A page is written to the document store before its item is inserted as
// raw_fetched, so an item never points at a raw page that does not exist.
// Download failures insert the item as discovered and fail it straight to
// fetch_failed. Items that are still discovered, for example after a manual
// retry, are downloaded again on the next run.
package fetching
