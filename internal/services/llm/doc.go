// Package llm provides an OpenRouter chat client used as the pipeline's
// generative-text collaborator.
//
// Client.Complete sends one prompt and returns the completion text. Failures
// come back as *Error values whose Kind tells rate limits, HTTP errors,
// transport errors and empty completions apart; errors.Is maps them onto the
// markers in package services so stages can classify them without importing
// this package.
//
// The client never retries. A rate-limited or failed item is recorded as
// failed and handled on a later cycle, and the stage batch cooldown is sized
// to stay under the provider quota in the first place.
package llm
