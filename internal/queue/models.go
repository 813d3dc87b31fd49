package queue

import (
	"strings"
	"time"
)

// Status represents the pipeline state of an item.
type Status string

const (
	StatusDiscovered    Status = "discovered"
	StatusRawFetched    Status = "raw_fetched"
	StatusCleaned       Status = "cleaned"
	StatusSummarized    Status = "summarized"
	StatusSelected      Status = "selected"
	StatusPostGenerated Status = "post_generated"
	StatusPublished     Status = "published"

	StatusFetchFailed      Status = "fetch_failed"
	StatusCleaningFailed   Status = "cleaning_failed"
	StatusSummarizeFailed  Status = "summarize_failed"
	StatusGenerationFailed Status = "generation_failed"
	StatusPublishFailed    Status = "publish_failed"
)

var allStatuses = []Status{
	StatusDiscovered,
	StatusRawFetched,
	StatusCleaned,
	StatusSummarized,
	StatusSelected,
	StatusPostGenerated,
	StatusPublished,
	StatusFetchFailed,
	StatusCleaningFailed,
	StatusSummarizeFailed,
	StatusGenerationFailed,
	StatusPublishFailed,
}

var statusSet = func() map[Status]struct{} {
	m := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		m[status] = struct{}{}
	}
	return m
}()

var failedStatuses = map[Status]struct{}{
	StatusFetchFailed:      {},
	StatusCleaningFailed:   {},
	StatusSummarizeFailed:  {},
	StatusGenerationFailed: {},
	StatusPublishFailed:    {},
}

// transitions lists the automatic edges of the state graph. Manual retries
// are handled separately by RetryFailed.
var transitions = map[Status][]Status{
	StatusDiscovered:    {StatusRawFetched, StatusFetchFailed},
	StatusRawFetched:    {StatusCleaned, StatusCleaningFailed},
	StatusCleaned:       {StatusSummarized, StatusSummarizeFailed},
	StatusSummarized:    {StatusSelected},
	StatusSelected:      {StatusPostGenerated, StatusGenerationFailed},
	StatusPostGenerated: {StatusPublished, StatusPublishFailed},
	StatusPublishFailed: {StatusPublished, StatusPublishFailed},
}

// retryTargets maps each failure status to the input status of the stage
// that produced it. Generation failures go back to summarized so the item
// competes for selection again instead of re-occupying the single slot.
var retryTargets = map[Status]Status{
	StatusFetchFailed:      StatusDiscovered,
	StatusCleaningFailed:   StatusRawFetched,
	StatusSummarizeFailed:  StatusCleaned,
	StatusGenerationFailed: StatusSummarized,
	StatusPublishFailed:    StatusPostGenerated,
}

// Item represents a work item persisted in SQLite.
type Item struct {
	ID          int64
	SourceURL   string
	Title       string
	SourceName  string
	PublishedAt time.Time
	Status      Status
	RawRef      string
	CleanedRef  string
	PostRef     string
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewItem describes an item discovered by the fetch stage.
type NewItem struct {
	SourceURL   string
	Title       string
	SourceName  string
	PublishedAt time.Time
	// Status must be StatusDiscovered or StatusRawFetched.
	Status Status
	RawRef string
}

// Transition describes a status update. Refs left empty keep their stored
// value; refs are never cleared once set.
type Transition struct {
	To         Status
	RawRef     string
	CleanedRef string
	PostRef    string
	// Error is required for failure statuses and ignored otherwise.
	Error string
}

// Filter narrows ItemsByStatus.
type Filter struct {
	Statuses []Status
	// Since keeps items created at or after the given time.
	Since time.Time
	Limit int
	// NewestFirst orders by created_at descending instead of ascending.
	NewestFirst bool
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsFailed reports whether the status is one of the *_failed statuses.
func (s Status) IsFailed() bool {
	_, ok := failedStatuses[s]
	return ok
}

// CanTransition reports whether from -> to is an automatic edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Predecessors returns the statuses that may move into target, in pipeline order.
func Predecessors(target Status) []Status {
	var out []Status
	for _, from := range allStatuses {
		if CanTransition(from, target) {
			out = append(out, from)
		}
	}
	return out
}

// RetryTarget returns the status a failed item returns to on manual retry.
func RetryTarget(failed Status) (Status, bool) {
	target, ok := retryTargets[failed]
	return target, ok
}

// FailedStatuses returns the failure statuses in pipeline order.
func FailedStatuses() []Status {
	out := make([]Status, 0, len(failedStatuses))
	for _, status := range allStatuses {
		if status.IsFailed() {
			out = append(out, status)
		}
	}
	return out
}
