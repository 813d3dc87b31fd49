package stage

import (
	"time"

	"pressline/internal/document"
	"pressline/internal/queue"
	"pressline/internal/services"
)

// Outcome is the result of processing one item. Exactly one of the
// success, failure or skip shapes applies.
type Outcome struct {
	ItemID int64
	URL    string
	// Status is the item's status after processing. For skipped items it is
	// the status observed when the skip happened.
	Status queue.Status
	Err    error
	// Skipped marks items that were left alone: another run already moved
	// them, or a local write failed after the document was committed.
	Skipped bool
}

// Succeeded builds a success outcome.
func Succeeded(item *queue.Item) Outcome {
	return Outcome{ItemID: item.ID, URL: item.SourceURL, Status: item.Status}
}

// OK reports whether the item advanced.
func (o Outcome) OK() bool {
	return o.Err == nil && !o.Skipped
}

// Soft reports whether the failure was an empty or unusable result.
func (o Outcome) Soft() bool {
	return o.Err != nil && !o.Skipped && services.IsSoft(o.Err)
}

// Report aggregates the outcomes of one stage run.
type Report struct {
	Stage     string
	Attempted int
	Succeeded int
	Failed    int
	Soft      int
	Skipped   int
	// Note carries a stage-specific remark such as "no selection made".
	Note     string
	Started  time.Time
	Finished time.Time
	Outcomes []Outcome
}

// NewReport tallies outcomes into a report.
func NewReport(stageName string, started time.Time, outcomes []Outcome) Report {
	r := Report{
		Stage:    stageName,
		Started:  started,
		Finished: time.Now(),
		Outcomes: outcomes,
	}
	for _, o := range outcomes {
		r.Attempted++
		switch {
		case o.Skipped:
			r.Skipped++
		case o.Err == nil:
			r.Succeeded++
		case o.Soft():
			r.Failed++
			r.Soft++
		default:
			r.Failed++
		}
	}
	return r
}

// Duration returns how long the run took.
func (r Report) Duration() time.Duration {
	if r.Finished.Before(r.Started) {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// HasFailures reports whether any item failed.
func (r Report) HasFailures() bool {
	return r.Failed > 0
}

// Subject converts an item into the fields that name and describe its documents.
func Subject(item *queue.Item) document.Subject {
	return document.Subject{
		ItemID:      item.ID,
		Title:       item.Title,
		SourceName:  item.SourceName,
		SourceURL:   item.SourceURL,
		PublishedAt: item.PublishedAt,
		CreatedAt:   item.CreatedAt,
	}
}
