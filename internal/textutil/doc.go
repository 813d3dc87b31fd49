// Package textutil holds small text helpers shared by the stores and stages:
// filename slugs and rune-safe truncation.
package textutil
