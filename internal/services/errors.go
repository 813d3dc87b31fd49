package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrRateLimit     = errors.New("rate limit exceeded")
	// ErrEmptyResult marks soft failures: the collaborator answered but
	// produced nothing usable.
	ErrEmptyResult = errors.New("empty result")
)

const (
	rateLimitMessageLimit = 400
	failureMessageLimit   = 500
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsSoft reports whether err is a soft failure (empty or unusable output)
// rather than a transport or API error.
func IsSoft(err error) bool {
	return err != nil && errors.Is(err, ErrEmptyResult)
}

// FailureMessage renders err as the bounded text persisted on a failed item.
// Rate limit failures keep a recognizable prefix.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if errors.Is(err, ErrRateLimit) {
		msg = strings.TrimSpace(strings.TrimPrefix(msg, ErrRateLimit.Error()+":"))
		return "Rate limit exceeded: " + truncateRunes(msg, rateLimitMessageLimit)
	}
	if msg == "" {
		msg = "unknown error"
	}
	return truncateRunes(msg, failureMessageLimit)
}

func truncateRunes(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
